package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

func (c Claims) userRef() core.UserRef {
	return core.UserRef{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func GetUserClaims(conf *core.Config, clock clockwork.Clock, usr user.User, origIat ...int64) *Claims {
	now := clock.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{"Campus Portal"},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsAdmin:      usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// jwtConfig returns the JWT auth middleware config. Token times are checked against clock.
func jwtConfig(conf *core.Config, clock clockwork.Clock) echojwt.Config {
	key := []byte(conf.SecretKey)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(clock.Now),
	)
	return echojwt.Config{
		ContextKey: contextTokenKey,
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			token, err := parser.ParseWithClaims(auth, new(Claims), func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil {
				return nil, err
			}
			if !token.Valid {
				return nil, errors.New("invalid token")
			}
			return token, nil
		},
	}
}

// newJWTMiddleware rejects requests without a valid bearer token.
func newJWTMiddleware(conf *core.Config, clock clockwork.Clock) echo.MiddlewareFunc {
	return echojwt.WithConfig(jwtConfig(conf, clock))
}

// newOptionalJWTMiddleware lets anonymous requests through. Valid tokens still populate the context.
func newOptionalJWTMiddleware(conf *core.Config, clock clockwork.Clock) echo.MiddlewareFunc {
	cfg := jwtConfig(conf, clock)
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(echo.Context, error) error { return nil }
	return echojwt.WithConfig(cfg)
}

func authenticate(ctx echo.Context, svc user.Service, conf *core.Config, clock clockwork.Clock, login, pwd string) (string, user.User, error) {
	usr, err := svc.Authenticate(ctx.Request().Context(), login, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return "", user.User{}, errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return "", user.User{}, errAccountDeactivated
		}
		return "", user.User{}, errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(conf, GetUserClaims(conf, clock, usr))
	return token, usr, err
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// isContextAdmin reports whether the request carries admin claims.
func isContextAdmin(ctx echo.Context) bool {
	claims, err := getContextClaims(ctx)
	return err == nil && claims.IsAdmin
}

func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func refreshToken(ctx echo.Context, svc user.Service, conf *core.Config, clock clockwork.Clock) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if clock.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetUserClaims(conf, clock, usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
