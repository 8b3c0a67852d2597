package echoapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campus/core"
)

type nopLogger struct{ warnings, errors int }

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  { l.warnings++ }
func (l *nopLogger) Error(string, ...interface{}) { l.errors++ }
func (l *nopLogger) Fatal(string, ...interface{}) {}

// fileStore records deletions and fails them with err.
type fileStore struct {
	err     error
	deleted []string
}

func (fs *fileStore) Save(context.Context, string, io.Reader) (string, error) { return "", nil }

func (fs *fileStore) Delete(_ context.Context, url string) error {
	fs.deleted = append(fs.deleted, url)
	return fs.err
}

func TestOrdering_Bind(t *testing.T) {
	allowed := map[string]string{"createdAt": "created_at", "name": "name"}

	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: ""},
		{query: "unknown"},
		{query: "name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{
			query: "-createdAt, name,bogus",
			want:  []core.DBOrdering{{Field: "created_at"}, {Field: "name", Ascending: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?ordering="+url.QueryEscape(tt.query), nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())

			var ord Ordering
			ord.Bind(ctx, allowed)
			assert.Equal(t, tt.want, ord.Orderings)
		})
	}
}

func Test_newAppHTTPErrorHandler(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	vErr := validate.Struct(struct {
		Name string `json:"name" validate:"required"`
	}{})

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantBody     string
		wantShutdown bool
		wantLogged   int
	}{
		{name: "http error", err: errHttpForbidden, wantCode: http.StatusForbidden, wantBody: `{"error":"permission denied"}`},
		{name: "wrapped http error", err: errors.Wrap(errUnauthorized, "ctx"), wantCode: http.StatusUnauthorized, wantBody: `{"error":"user not authenticated"}`},
		{name: "validator errors", err: vErr, wantCode: http.StatusBadRequest, wantBody: `{"name":"this field is required"}`},
		{name: "field error", err: core.NewFieldError("date", "bad date"), wantCode: http.StatusBadRequest, wantBody: `{"date":"bad date"}`},
		{name: "validation error", err: errors.Wrap(core.NewValidationError(errors.New("nope")), "ctx"), wantCode: http.StatusBadRequest, wantBody: `{"error":"nope"}`},
		{name: "not found", err: core.NewNotFoundError("gone"), wantCode: http.StatusNotFound, wantBody: `{"error":"gone"}`},
		{name: "permission", err: core.NewPermissionError("no way"), wantCode: http.StatusForbidden, wantBody: `{"error":"no way"}`},
		{name: "server error", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`, wantLogged: 1},
		{
			name: "shutdown", err: errors.Wrap(core.NewShutdownError("db gone"), "ctx"), wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal Server Error"}`, wantShutdown: true, wantLogged: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(nopLogger)
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, translator, func() { shutdown = true })

			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantShutdown, shutdown)
			assert.Equal(t, tt.wantLogged, logger.errors)
		})
	}
}

func Test_newRateLimiter(t *testing.T) {
	e := echo.New()
	e.GET("/", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) }, newRateLimiter(0.0001, 2))

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func Test_discardUpload(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		deleteErr    error
		wantDeleted  []string
		wantWarnings int
	}{
		{name: "no upload"},
		{name: "deleted", url: "/uploads/a.png", wantDeleted: []string{"/uploads/a.png"}},
		{name: "delete fails", url: "/uploads/a.png", deleteErr: errors.New("disk full"), wantDeleted: []string{"/uploads/a.png"}, wantWarnings: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &fileStore{err: tt.deleteErr}
			logger := new(nopLogger)

			discardUpload(context.Background(), files, logger, tt.url)
			assert.Equal(t, tt.wantDeleted, files.deleted)
			assert.Equal(t, tt.wantWarnings, logger.warnings)
			assert.Zero(t, logger.errors)
		})
	}
}
