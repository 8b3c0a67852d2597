package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/marketplace"
)

type marketplaceApi struct {
	svc      marketplace.Service
	validate *validator.Validate
}

func registerMarketplaceAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := marketplaceApi{svc: opts.MarketplaceSvc, validate: opts.Validate}

	sg := g.Group("/skills", jwt)
	sg.GET("", api.querySkills)
	sg.POST("", api.createSkill)
	sg.GET("/my", api.queryMySkills)
	sg.GET("/:id", api.retrieveSkill)

	skillOwnerOrAdmin := ownerOrAdminMiddleware(api.svc.GetSkill, func(s marketplace.Skill) string { return s.OfferedBy.ID })
	sg.PUT("/:id", api.updateSkill, skillOwnerOrAdmin)
	sg.DELETE("/:id", api.destroySkill, skillOwnerOrAdmin)

	ssg := g.Group("/sessions", jwt)
	ssg.POST("", api.bookSession)
	ssg.GET("/my", api.queryMySessions)
	ssg.GET("/:id", api.retrieveSession)
	ssg.PUT("/:id/status", api.setSessionStatus)

	rg := g.Group("/reviews", jwt)
	rg.POST("", api.createReview)
	rg.GET("/my", api.queryMyReviews)
	rg.GET("/user/:userId", api.queryUserReviews)
}

// Skills

func (api *marketplaceApi) querySkills(ctx echo.Context) error {
	filter := marketplace.SkillFilter{Category: ctx.QueryParam("category"), Search: ctx.QueryParam("search")}
	skills, err := api.svc.QuerySkills(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying skills")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(skills))
}

func (api *marketplaceApi) queryMySkills(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	skills, err := api.svc.QuerySkills(ctx.Request().Context(), marketplace.SkillFilter{OfferedBy: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying my skills")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(skills))
}

func (api *marketplaceApi) retrieveSkill(ctx echo.Context) error {
	s, err := api.svc.GetSkill(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting skill")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *marketplaceApi) createSkill(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data marketplace.NewSkill
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSkill")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSkill(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "creating skill")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *marketplaceApi) updateSkill(ctx echo.Context) error {
	s, err := getContextObject[marketplace.Skill](ctx)
	if err != nil {
		return err
	}

	var data marketplace.UpdateSkill
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSkill")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err = api.svc.UpdateSkill(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating skill")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *marketplaceApi) destroySkill(ctx echo.Context) error {
	s, err := getContextObject[marketplace.Skill](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteSkill(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting skill")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Sessions

func (api *marketplaceApi) bookSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data marketplace.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.BookSession(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "booking session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *marketplaceApi) queryMySessions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.svc.QueryMySessions(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying my sessions")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(sessions))
}

func (api *marketplaceApi) retrieveSession(ctx echo.Context) error {
	s, err := api.participantSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *marketplaceApi) setSessionStatus(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	s, err := api.participantSession(ctx)
	if err != nil {
		return err
	}

	var data marketplace.UpdateSessionStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSessionStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err = api.svc.SetSessionStatus(ctx.Request().Context(), claims.Subject, s, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting session status")
	}
	return ctx.JSON(http.StatusOK, s)
}

// participantSession returns the :id session if the caller takes part in it.
func (api *marketplaceApi) participantSession(ctx echo.Context) (marketplace.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return marketplace.Session{}, err
	}
	s, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return marketplace.Session{}, errors.Wrap(err, "getting session")
	}
	if !s.IsParticipant(claims.Subject) {
		return marketplace.Session{}, marketplace.ErrSessionNotFound
	}
	return s, nil
}

// Reviews

func (api *marketplaceApi) createReview(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data marketplace.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.AddReview(ctx.Request().Context(), claims.userRef(), data)
	if err != nil {
		return errors.Wrap(err, "adding review")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *marketplaceApi) queryMyReviews(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return api.reviewsFor(ctx, claims.Subject)
}

func (api *marketplaceApi) queryUserReviews(ctx echo.Context) error {
	return api.reviewsFor(ctx, ctx.Param("userId"))
}

func (api *marketplaceApi) reviewsFor(ctx echo.Context, userID string) error {
	reviews, err := api.svc.QueryReviewsFor(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying reviews")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(reviews))
}
