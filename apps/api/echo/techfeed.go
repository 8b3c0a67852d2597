package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/techfeed"
)

type techFeedApi struct {
	svc      techfeed.Service
	validate *validator.Validate
}

func registerTechFeedAPI(g *echo.Group, jwt, optionalJWT echo.MiddlewareFunc, opts *Options) {
	api := techFeedApi{svc: opts.TechFeedSvc, validate: opts.Validate}

	tg := g.Group("/techfeed")

	// public endpoints, admins may see expired posts
	tg.GET("", api.query, optionalJWT)
	tg.GET("/:id", api.retrieve, optionalJWT)

	tg.GET("/saved/all", api.querySaved, jwt)
	tg.POST("/:id/save", api.save, jwt)
	tg.DELETE("/:id/save", api.unsave, jwt)

	tg.POST("", api.create, jwt, adminMiddleware)
	tg.PUT("/:id", api.update, jwt, adminMiddleware)
	tg.DELETE("/:id", api.destroy, jwt, adminMiddleware)
}

func (api *techFeedApi) query(ctx echo.Context) error {
	filter := techfeed.QueryFilter{Category: ctx.QueryParam("category"), Search: ctx.QueryParam("search")}
	filter.IncludeExpired, _ = strconv.ParseBool(ctx.QueryParam("includeExpired"))

	posts, err := api.svc.Query(ctx.Request().Context(), filter, isContextAdmin(ctx))
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(posts))
}

func (api *techFeedApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *techFeedApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data techfeed.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *techFeedApi) update(ctx echo.Context) error {
	var data techfeed.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *techFeedApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *techFeedApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sp, err := api.svc.Save(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "saving post")
	}
	return ctx.JSON(http.StatusCreated, sp)
}

func (api *techFeedApi) unsave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unsave(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "unsaving post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *techFeedApi) querySaved(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	saved, err := api.svc.QuerySaved(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying saved posts")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(saved))
}
