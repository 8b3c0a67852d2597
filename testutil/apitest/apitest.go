// Package apitest runs the echo API on in-memory storage for the tests of its clients.
package apitest

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

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
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

type Env struct {
	Server   *echoapi.Server
	Conf     *core.Config
	Clock    *clockwork.FakeClock
	DB       *inmemdb.DB
	UserRepo user.Repository
	Files    *testutil.FileStore
	Registry *prometheus.Registry
}

// New builds a Server backed by in-memory repositories, a fake clock and the console email mock.
// The Server is shut down when t ends.
func New(t *testing.T) *Env {
	t.Helper()

	conf := testutil.Config()
	logger := testutil.Logger()
	clock := testutil.Clock()
	db := inmemdb.Open()
	cache := cachesvc.NewMemoryCache(conf.Redis.TTL, clock)
	files := testutil.NewFileStore()
	registry := prometheus.NewRegistry()

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ClearSentMessages()

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		Clock:          clock,
		Validate:       validate,
		Translator:     translator,
		DB:             db,
		Files:          files,
		Registerer:     registry,
		DisableReqLogs: true,

		UserSvc:         user.NewService(conf, usrRepo, mailSvc, clock),
		AnnouncementSvc: announcement.NewService(inmemdb.NewAnnouncementRepository(db), cache, logger, clock),
		ComplaintSvc:    complaint.NewService(inmemdb.NewComplaintRepository(db), files, logger, clock),
		LostFoundSvc:    lostfound.NewService(inmemdb.NewItemRepository(db), files, logger, clock),
		TimetableSvc:    timetable.NewService(inmemdb.NewEntryRepository(db), clock),
		MarketplaceSvc: marketplace.NewService(
			inmemdb.NewSkillRepository(db),
			inmemdb.NewSessionRepository(db),
			inmemdb.NewReviewRepository(db),
			clock,
		),
		TechFeedSvc: techfeed.NewService(inmemdb.NewPostRepository(db), clock),
		PollSvc:     poll.NewService(inmemdb.NewPollRepository(db), cache, logger, clock),
	})
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	return &Env{
		Server:   server,
		Conf:     conf,
		Clock:    clock,
		DB:       db,
		UserRepo: usrRepo,
		Files:    files,
		Registry: registry,
	}
}

// CreateUser stores an active user whose password is Password.
func (env *Env) CreateUser(t *testing.T, uname, role string) user.User {
	return testutil.CreateUser(t, env.UserRepo, uname, Password, role)
}

// Token returns a valid token of usr.
func (env *Env) Token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(env.Conf, echoapi.GetUserClaims(env.Conf, env.Clock, usr))
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// Password is the password of the users made by CreateUser.
const Password = "Tr0ub4dor&3"
