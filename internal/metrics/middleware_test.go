package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	matched := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418")
	unmatched := HTTPRequestsTotal.WithLabelValues(http.MethodGet, UnmatchedPath, "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	for _, path := range []string{"/items/1", "/items/2", "/nowhere/1", "/nowhere/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched), "IDs collapse into the route pattern")
	assert.Equal(t, beforeUnmatched+2, testutil.ToFloat64(unmatched), "unknown paths share one label")
	assert.Zero(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/nowhere/1", "404")))
}
