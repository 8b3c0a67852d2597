package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/poll"
)

type pollApi struct {
	svc      poll.Service
	validate *validator.Validate
}

func registerPollAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := pollApi{svc: opts.PollSvc, validate: opts.Validate}

	pg := g.Group("/polls", jwt)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.GET("/:id/results", api.results)
	pg.POST("/:id/vote", api.vote)

	pg.POST("", api.create, adminMiddleware)
	pg.PUT("/:id", api.update, adminMiddleware)
	pg.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *pollApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var filter poll.QueryFilter
	if val := ctx.QueryParam("active"); val != "" {
		active, err := strconv.ParseBool(val)
		if err != nil {
			return core.NewFieldError("active", "must be a boolean")
		}
		filter.Active = &active
	}

	polls, err := api.svc.Query(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "querying polls")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(polls))
}

func (api *pollApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting poll")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pollApi) results(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Results(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting poll results")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *pollApi) vote(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data poll.VoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VoteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Vote(ctx.Request().Context(), claims.Subject, ctx.Param("id"), *data.OptionIndex)
	if err != nil {
		return errors.Wrap(err, "voting")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pollApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data poll.NewPoll
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPoll")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "creating poll")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *pollApi) update(ctx echo.Context) error {
	var data poll.UpdatePoll
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePoll")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating poll")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pollApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting poll")
	}
	return ctx.NoContent(http.StatusNoContent)
}
