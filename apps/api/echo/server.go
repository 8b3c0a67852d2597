package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/complaint"
	"github.com/trezcool/campus/core/lostfound"
	"github.com/trezcool/campus/core/marketplace"
	"github.com/trezcool/campus/core/poll"
	"github.com/trezcool/campus/core/techfeed"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

type Options struct {
	Conf           *core.Config
	Logger         core.Logger
	Clock          clockwork.Clock
	Validate       *validator.Validate
	Translator     ut.Translator
	DB             core.Pinger
	Files          core.FileStore
	Registerer     prometheus.Registerer // nil disables the HTTP metrics
	DisableReqLogs bool

	UserSvc         user.Service
	AnnouncementSvc announcement.Service
	ComplaintSvc    complaint.Service
	LostFoundSvc    lostfound.Service
	TimetableSvc    timetable.Service
	MarketplaceSvc  marketplace.Service
	TechFeedSvc     techfeed.Service
	PollSvc         poll.Service
}

type Server struct {
	opts     *Options
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	if s.opts.Registerer != nil {
		s.app.Use(newHTTPMetrics(s.opts.Registerer).middleware)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)
	s.app.Static(conf.Uploads.BaseURL, conf.Uploads.Dir)

	api := s.app.Group("/api")
	jwt := newJWTMiddleware(conf, s.opts.Clock)
	optionalJWT := newOptionalJWTMiddleware(conf, s.opts.Clock)
	loginLimiter := newRateLimiter(conf.Server.LoginRatePerSecond, conf.Server.LoginBurst)

	registerUserAPI(api, jwt, loginLimiter, s.opts)
	registerAnnouncementAPI(api, jwt, s.opts)
	registerComplaintAPI(api, jwt, s.opts)
	registerLostFoundAPI(api, jwt, s.opts)
	registerTimetableAPI(api, jwt, s.opts)
	registerMarketplaceAPI(api, jwt, s.opts)
	registerTechFeedAPI(api, jwt, optionalJWT, s.opts)
	registerPollAPI(api, jwt, s.opts)
}

// Start listens on the configured address. Errors are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

// Close stops the server without waiting for active connections.
func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.opts.DB.PingContext(ctx.Request().Context()); err != nil {
		s.opts.Logger.Error("health check failed", err)
		return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
