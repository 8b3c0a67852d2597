package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
)

type announcementApi struct {
	svc      announcement.Service
	validate *validator.Validate
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := announcementApi{svc: opts.AnnouncementSvc, validate: opts.Validate}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware)
	ag.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *announcementApi) query(ctx echo.Context) error {
	filter := announcement.QueryFilter{Category: core.CleanString(ctx.QueryParam("category"))}
	list, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(list))
}

func (api *announcementApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) update(ctx echo.Context) error {
	var data announcement.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
