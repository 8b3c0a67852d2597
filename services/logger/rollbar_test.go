package logsvc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

func TestRollbarLogger(t *testing.T) {
	conf := &core.Config{Env: "TEST", TestMode: true, Debug: true}
	var buf bytes.Buffer
	logger := NewRollbarLoggerWithHandler(NewHandler(&buf, conf), "api", conf)

	logger.Error("saving poll",
		errors.New("boom"),
		map[string]interface{}{"pollId": "p1", "attempt": 2},
		user.User{ID: "u1", Username: "kim", Email: "kim@campus.test"},
		user.User{ID: "u2", Username: "lee"},
	)

	out := buf.String()
	assert.Contains(t, out, "saving poll")
	assert.Contains(t, out, "logger=api")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "pollId=p1")
	assert.Contains(t, out, "user=kim")
	assert.NotContains(t, out, "lee")
}

func TestRollbarLogger_level(t *testing.T) {
	conf := &core.Config{Env: "TEST", TestMode: true}
	var buf bytes.Buffer
	logger := NewRollbarLoggerWithHandler(NewHandler(&buf, conf), "api", conf)

	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
