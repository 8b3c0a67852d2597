// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"io"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	logsvc "github.com/trezcool/campus/services/logger"
)

// Epoch is the start time of the fake clocks.
var Epoch = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC) // a Monday

// Config returns the configuration used by tests.
func Config() *core.Config {
	return &core.Config{
		AppName:                   "Campus",
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "test-secret-key",
		DefaultFromEmail:          mail.Address{Name: "Campus", Address: "noreply@campus.test"},
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      5000,
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 30 * 24 * time.Hour,
			LoginRatePerSecond:        100,
			LoginBurst:                100,
		},
		Redis:   core.RedisConfig{TTL: time.Minute},
		Uploads: core.UploadsConfig{BaseURL: "/uploads", MaxSize: 1 << 20},
	}
}

// Logger returns a logger writing nowhere.
func Logger() core.Logger {
	conf := Config()
	return logsvc.NewRollbarLoggerWithHandler(logsvc.NewHandler(io.Discard, conf), "test", conf)
}

// Validator returns a validator with every custom validation registered.
func Validator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

// Clock returns a fake clock set at Epoch.
func Clock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// CreateUser stores an active user with the given role. An empty pwd leaves it without password.
func CreateUser(t *testing.T, repo user.Repository, uname, pwd, role string, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := Epoch
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     uname + "@campus.test",
		Role:      role,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// FileStore is an in-memory core.FileStore recording what it stores and deletes.
type FileStore struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Deleted []string
}

var _ core.FileStore = (*FileStore)(nil) // interface compliance check

func NewFileStore() *FileStore {
	return &FileStore{Files: make(map[string][]byte)}
}

func (fs *FileStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	url := "/uploads/" + filename
	fs.Files[url] = data
	return url, nil
}

func (fs *FileStore) Delete(_ context.Context, url string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.Files, url)
	fs.Deleted = append(fs.Deleted, url)
	return nil
}
