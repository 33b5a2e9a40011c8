package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware_UsesRequestID(t *testing.T) {
	t.Parallel()

	var traceID string
	var reqLogger *slog.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		reqLogger = logger.FromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	r.Header.Set(chimw.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	chimw.RequestID(NewTraceMiddleware(nil)(next)).ServeHTTP(w, r)

	assert.Equal(t, "req-42", traceID)
	assert.Equal(t, "req-42", w.Header().Get(TraceHeader))
	assert.NotSame(t, slog.Default(), reqLogger)
}

func TestTraceMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	})

	w := httptest.NewRecorder()
	NewTraceMiddleware(nil)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, traceID, 32)
	assert.Equal(t, traceID, w.Header().Get(TraceHeader))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	RequestLogger(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
