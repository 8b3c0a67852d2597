package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/lostfound"
)

type lostFoundApi struct {
	svc      lostfound.Service
	files    core.FileStore
	logger   core.Logger
	validate *validator.Validate
}

func registerLostFoundAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := lostFoundApi{svc: opts.LostFoundSvc, files: opts.Files, logger: opts.Logger, validate: opts.Validate}

	lg := g.Group("/lostfound", jwt)
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.GET("/my", api.queryMine)
	lg.GET("/:id", api.retrieve)

	ownerOrAdmin := ownerOrAdminMiddleware(api.svc.Get, func(it lostfound.Item) string { return it.ReportedBy.ID })
	lg.PUT("/:id", api.update, ownerOrAdmin)
	lg.DELETE("/:id", api.destroy, ownerOrAdmin)
}

func (api *lostFoundApi) query(ctx echo.Context) error {
	filter := lostfound.QueryFilter{Type: ctx.QueryParam("type"), Search: ctx.QueryParam("search")}
	var ordering Ordering
	ordering.Bind(ctx, lostfound.OrderingFields)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying items")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}

func (api *lostFoundApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.QueryMine(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying my items")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}

func (api *lostFoundApi) retrieve(ctx echo.Context) error {
	it, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting item")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *lostFoundApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data lostfound.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	image, err := saveUpload(ctx, api.files, "image")
	if err != nil {
		return err
	}
	it, err := api.svc.Create(ctx.Request().Context(), claims.userRef(), data, image)
	if err != nil {
		discardUpload(ctx.Request().Context(), api.files, api.logger, image)
		return errors.Wrap(err, "creating item")
	}
	return ctx.JSON(http.StatusCreated, it)
}

func (api *lostFoundApi) update(ctx echo.Context) error {
	it, err := getContextObject[lostfound.Item](ctx)
	if err != nil {
		return err
	}

	var data lostfound.UpdateItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	image, err := saveUpload(ctx, api.files, "image")
	if err != nil {
		return err
	}
	it, err = api.svc.Update(ctx.Request().Context(), it, data, image)
	if err != nil {
		discardUpload(ctx.Request().Context(), api.files, api.logger, image)
		return errors.Wrap(err, "updating item")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *lostFoundApi) destroy(ctx echo.Context) error {
	it, err := getContextObject[lostfound.Item](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), it); err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return ctx.NoContent(http.StatusNoContent)
}
