// Package di wires the API dependencies into a dig.Container.
package di

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/complaint"
	"github.com/trezcool/campus/core/lostfound"
	"github.com/trezcool/campus/core/marketplace"
	"github.com/trezcool/campus/core/poll"
	"github.com/trezcool/campus/core/techfeed"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
	cachesvc "github.com/trezcool/campus/services/cache"
	emailsvc "github.com/trezcool/campus/services/email"
	filesvc "github.com/trezcool/campus/services/files"
	logsvc "github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/storage/database"
	sqlxrepos "github.com/trezcool/campus/storage/database/sqlx"
)

// DBLoggerParam is the logger dedicated to the database.
type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Clock      clockwork.Clock
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *sqlx.DB
	Files      core.FileStore
	Registerer prometheus.Registerer

	UserSvc         user.Service
	AnnouncementSvc announcement.Service
	ComplaintSvc    complaint.Service
	LostFoundSvc    lostfound.Service
	TimetableSvc    timetable.Service
	MarketplaceSvc  marketplace.Service
	TechFeedSvc     techfeed.Service
	PollSvc         poll.Service
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger("API", conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger("DB", conf)
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func newRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

// newDB creates the database if needed, connects to it and applies the pending migrations.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(context.Background(), db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newCache uses Redis when configured, an in-process cache otherwise.
func newCache(conf *core.Config, logger core.Logger, clock clockwork.Clock, reg prometheus.Registerer) (core.Cache, error) {
	if conf.Redis.URL == "" {
		return cachesvc.NewMemoryCache(conf.Redis.TTL, clock), nil
	}
	return cachesvc.NewRedisCache(conf, logger, reg)
}

func newFileStore(conf *core.Config) (core.FileStore, error) {
	return filesvc.NewDiskStore(conf)
}

func newMarketplaceService(db *sqlx.DB, clock clockwork.Clock) marketplace.Service {
	return marketplace.NewService(
		sqlxrepos.NewSkillRepository(db),
		sqlxrepos.NewSessionRepository(db),
		sqlxrepos.NewReviewRepository(db),
		clock,
	)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Clock:      p.Clock,
		Validate:   p.Validate,
		Translator: p.Translator,
		DB:         p.DB,
		Files:      p.Files,
		Registerer: p.Registerer,

		UserSvc:         p.UserSvc,
		AnnouncementSvc: p.AnnouncementSvc,
		ComplaintSvc:    p.ComplaintSvc,
		LostFoundSvc:    p.LostFoundSvc,
		TimetableSvc:    p.TimetableSvc,
		MarketplaceSvc:  p.MarketplaceSvc,
		TechFeedSvc:     p.TechFeedSvc,
		PollSvc:         p.PollSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newClock))
	must(c.Provide(newRegisterer))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newCache))
	must(c.Provide(newFileStore))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewAnnouncementRepository))
	must(c.Provide(sqlxrepos.NewComplaintRepository))
	must(c.Provide(sqlxrepos.NewItemRepository))
	must(c.Provide(sqlxrepos.NewEntryRepository))
	must(c.Provide(sqlxrepos.NewPostRepository))
	must(c.Provide(sqlxrepos.NewPollRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(complaint.NewService))
	must(c.Provide(lostfound.NewService))
	must(c.Provide(timetable.NewService))
	must(c.Provide(newMarketplaceService))
	must(c.Provide(techfeed.NewService))
	must(c.Provide(poll.NewService))

	must(c.Provide(newServer))
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
