package logsvc

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// RollbarLogger reports to Rollbar and writes every entry to a colored slog handler.
type RollbarLogger struct {
	log *slog.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewHandler returns the tint handler the loggers write to.
func NewHandler(w io.Writer, conf *core.Config) slog.Handler {
	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  conf.Debug,
		NoColor:    conf.TestMode,
	})
}

// NewRollbarLogger returns a logger named name. Rollbar is enabled when a token is configured.
func NewRollbarLogger(name string, conf *core.Config) *RollbarLogger {
	return NewRollbarLoggerWithHandler(NewHandler(os.Stderr, conf), name, conf)
}

// NewRollbarLoggerWithHandler is NewRollbarLogger writing to h.
func NewRollbarLoggerWithHandler(h slog.Handler, name string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{log: slog.New(h).With("logger", name)}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []any) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	attrs := make([]any, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				attrs = append(attrs, slog.String("user", a.Username))
				usrSet = true
			}
		case error:
			newArgs = append(newArgs, a)
			attrs = append(attrs, tint.Err(a))
		case map[string]interface{}:
			newArgs = append(newArgs, a)
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				attrs = append(attrs, slog.Any(k, a[k]))
			}
		default:
			newArgs = append(newArgs, a)
			attrs = append(attrs, slog.Any("arg", a))
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, attrs
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.log.Log(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.log.Log(context.Background(), slog.LevelInfo, msg, attrs...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.log.Log(context.Background(), slog.LevelWarn, msg, attrs...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.log.Log(context.Background(), slog.LevelError, msg, attrs...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.log.Log(context.Background(), slog.LevelError, msg, attrs...)
	rollbar.Close()
	os.Exit(1)
}
