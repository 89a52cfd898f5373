package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/bayancosmetic/storefront/pkg/logger"
)

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingAttachesTraceIDs(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	var seen trace.SpanContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	})
	handler := otelhttp.NewHandler(Logging(logg)(next), "test", otelhttp.WithTracerProvider(tp))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, seen.IsValid())

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, seen.TraceID().String(), entry["trace_id"])
		assert.Equal(t, seen.SpanID().String(), entry["span_id"])
	}
	assert.Equal(t, "request.complete", entries[1]["message"])
	assert.EqualValues(t, http.StatusCreated, entries[1]["status"])
}

func TestLoggingWithoutSpanOmitsTraceIDs(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	for _, entry := range logEntries(t, buf) {
		assert.NotContains(t, entry, "trace_id")
	}
}
