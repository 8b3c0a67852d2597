package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/timetable"
)

type timetableApi struct {
	svc      timetable.Service
	validate *validator.Validate
}

func registerTimetableAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := timetableApi{svc: opts.TimetableSvc, validate: opts.Validate}

	tg := g.Group("/timetable", jwt)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.POST("", api.create, adminMiddleware)
	tg.PUT("/:id", api.update, adminMiddleware)
	tg.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *timetableApi) query(ctx echo.Context) error {
	filter := timetable.QueryFilter{DayOfWeek: core.CleanString(ctx.QueryParam("day"))}
	entries, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(entries))
}

func (api *timetableApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting timetable entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *timetableApi) create(ctx echo.Context) error {
	var data timetable.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating timetable entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *timetableApi) update(ctx echo.Context) error {
	var data timetable.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating timetable entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *timetableApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
