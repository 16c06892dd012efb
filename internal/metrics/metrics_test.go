package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreIsolatedPerInstance(t *testing.T) {
	a := New()
	b := New()
	a.ObserveToolCall("create_task", true)
	a.ObserveToolCall("create_task", true)

	if got := testutil.ToFloat64(a.ToolCallsTotal.WithLabelValues("create_task", "true")); got != 2 {
		t.Fatalf("a=%v, want 2", got)
	}
	if got := testutil.ToFloat64(b.ToolCallsTotal.WithLabelValues("create_task", "true")); got != 0 {
		t.Fatalf("b=%v, want 0", got)
	}
}

func TestHandlerExposesFlowboardSeries(t *testing.T) {
	m := New()
	m.ObserveChat(OutcomeTools, time.Now())
	m.AddRelayBytes(42)
	m.AddRelayBytes(-1)
	m.ObserveUpstreamError("rate_limited")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`flowboard_chat_requests_total{outcome="tools"} 1`,
		`flowboard_relay_bytes_total 42`,
		`flowboard_upstream_errors_total{kind="rate_limited"} 1`,
		`flowboard_chat_request_duration_seconds_count 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
