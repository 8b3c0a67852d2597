package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/marketplace"
	"github.com/trezcool/campus/core/user"
)

const passwordResetSent = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type userApi struct {
	conf     *core.Config
	clock    clockwork.Clock
	logger   core.Logger
	validate *validator.Validate
	svc      user.Service
	market   marketplace.Service
}

func registerUserAPI(g *echo.Group, jwt, limiter echo.MiddlewareFunc, opts *Options) {
	api := userApi{
		conf:     opts.Conf,
		clock:    opts.Clock,
		logger:   opts.Logger,
		validate: opts.Validate,
		svc:      opts.UserSvc,
		market:   opts.MarketplaceSvc,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login, limiter)
	ag.POST("/password-reset", api.resetPassword, limiter)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, limiter)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)

	g.GET("/users", api.query, jwt, adminMiddleware)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, UserResponse{User: user.Profile{User: usr, SkillsOffered: []string{}}})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, usr, err := authenticate(ctx, api.svc, api.conf, api.clock, data.Email, data.Password)
	if err != nil {
		return err
	}
	profile, err := api.profile(ctx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: profile})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	profile, err := api.profile(ctx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: profile})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.conf, api.clock)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetSent})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := user.QueryFilter{Search: ctx.QueryParam("search"), Role: ctx.QueryParam("role")}
	if val := ctx.QueryParam("isActive"); val != "" {
		isActive, err := strconv.ParseBool(val)
		if err != nil {
			return core.NewFieldError("isActive", "must be a boolean")
		}
		filter.IsActive = &isActive
	}
	var ordering Ordering
	ordering.Bind(ctx, user.OrderingFields)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(users))
}

// profile adds the marketplace stats of usr.
func (api *userApi) profile(ctx echo.Context, usr user.User) (user.Profile, error) {
	skillIDs, stats, err := api.market.UserStats(ctx.Request().Context(), usr.ID)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "getting user stats")
	}
	return user.Profile{
		User:          usr,
		SkillsOffered: skillIDs,
		AverageRating: marketplace.RoundRating(stats.Average),
	}, nil
}

type (
	// LoginRequest.Email accepts a username too.
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  user.Profile `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	UserResponse struct {
		User user.Profile `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
