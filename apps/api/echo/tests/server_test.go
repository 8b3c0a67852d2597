package tests

import (
	"net/http"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ops(t *testing.T) {
	env := setup(t)

	t.Run("home", func(t *testing.T) {
		rec := env.serve(newAuthRequest(http.MethodGet, "/", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to Campus API!", rec.Body.String())
	})

	env.run(t, []httpTest{
		{name: "health", path: "/health", wantCode: http.StatusOK, wantData: []byte(`{"status":"ok"}`)},
		{name: "trailing slash", path: "/api/auth/me/", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown route", path: "/api/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
	})

	t.Run("metrics", func(t *testing.T) {
		count, err := promtest.GatherAndCount(env.registry, "campus_http_requests_total")
		require.NoError(t, err)
		assert.Positive(t, count)
	})
}
