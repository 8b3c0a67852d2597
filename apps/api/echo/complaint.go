package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/complaint"
)

type complaintApi struct {
	svc      complaint.Service
	files    core.FileStore
	logger   core.Logger
	validate *validator.Validate
}

func registerComplaintAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := complaintApi{svc: opts.ComplaintSvc, files: opts.Files, logger: opts.Logger, validate: opts.Validate}

	cg := g.Group("/complaints", jwt)
	cg.POST("", api.create)
	cg.GET("/my", api.queryMine)
	cg.GET("/all", api.queryAll, adminMiddleware)
	cg.PUT("/:id/status", api.setStatus, adminMiddleware)

	ownerOrAdmin := ownerOrAdminMiddleware(api.svc.Get, func(c complaint.Complaint) string { return c.SubmittedBy.ID })
	cg.GET("/:id", api.retrieve, ownerOrAdmin)
	cg.DELETE("/:id", api.destroy, ownerOrAdmin)
}

func (api *complaintApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data complaint.NewComplaint
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComplaint")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	image, err := saveUpload(ctx, api.files, "image")
	if err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), claims.userRef(), data, image)
	if err != nil {
		discardUpload(ctx.Request().Context(), api.files, api.logger, image)
		return errors.Wrap(err, "creating complaint")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *complaintApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	list, err := api.svc.QueryMine(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying my complaints")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(list))
}

func (api *complaintApi) queryAll(ctx echo.Context) error {
	filter := complaint.QueryFilter{
		Status:   core.CleanString(ctx.QueryParam("status")),
		Category: core.CleanString(ctx.QueryParam("category")),
	}
	var ordering Ordering
	ordering.Bind(ctx, complaint.OrderingFields)

	list, err := api.svc.QueryAll(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying complaints")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(list))
}

func (api *complaintApi) retrieve(ctx echo.Context) error {
	c, err := getContextObject[complaint.Complaint](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) setStatus(ctx echo.Context) error {
	var data complaint.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "setting complaint status")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) destroy(ctx echo.Context) error {
	c, err := getContextObject[complaint.Complaint](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), c); err != nil {
		return errors.Wrap(err, "deleting complaint")
	}
	return ctx.NoContent(http.StatusNoContent)
}
