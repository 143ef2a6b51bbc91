package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallCounter(t *testing.T) {
	m := New()
	m.ToolCall("book", "ok")
	m.ToolCall("book", "ok")
	m.ToolCall("cancel", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("book", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("cancel", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveSessions(func() int { return 3 })
	m.Turn(time.Now(), errors.New("boom"))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.True(t, strings.Contains(text, "samaysetu_sessions_active 3"), text)
	assert.Contains(t, text, `samaysetu_turn_duration_seconds_count{outcome="error"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ToolCall("book", "ok")
	m.Turn(time.Now(), nil)
	m.ObserveSessions(func() int { return 1 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
