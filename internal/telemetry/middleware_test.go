package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("passes through when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *HTTPMetrics
		wrapped := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	})

	t.Run("records requests by route pattern", func(t *testing.T) {
		t.Parallel()

		reader, mp := newManualProvider(t)
		metrics, err := NewHTTPMetrics(mp)
		require.NoError(t, err)

		r := chi.NewRouter()
		r.Use(metrics.Middleware)
		r.Get("/v1/sync/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		for _, id := range []string{"a", "b"} {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sync/"+id, nil))
			require.Equal(t, http.StatusOK, rr.Code)
		}

		m := findMetric(t, reader, HTTPMetricsMeterName, "catalog_sync_http_requests_total")
		assert.Equal(t, int64(2), sumFor(t, m, "route", "/v1/sync/{id}"))
	})
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	called := false
	wrapped := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/sync", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestTracingMiddleware_Spans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{name: "success", status: http.StatusAccepted, wantStatus: codes.Ok},
		{name: "conflict", status: http.StatusConflict, wantStatus: codes.Error},
		{name: "server error", status: http.StatusInternalServerError, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)

			r := chi.NewRouter()
			r.Use(TracingMiddleware(tp))
			r.Post("/v1/sync", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/sync", nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "POST /v1/sync", spans[0].Name)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)

			var foundStatus bool
			for _, attr := range spans[0].Attributes {
				if attr.Key == semconv.HTTPResponseStatusCodeKey {
					assert.Equal(t, int64(tt.status), attr.Value.AsInt64())
					foundStatus = true
				}
			}
			assert.True(t, foundStatus, "expected status code attribute")
		})
	}
}

func TestRoutePattern_Unmatched(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, unknownRoute, routePattern(req))
}
