package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsHandlerServesCounters(t *testing.T) {
	m := New()
	m.PacketsParsed.Add(3)
	m.CommandsDispatched.WithLabelValues("m").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()

	if !strings.Contains(body, "rspstub_packets_parsed_total 3") {
		t.Fatalf("expected packets_parsed_total in output, got:\n%s", body)
	}

	if !strings.Contains(body, `rspstub_commands_dispatched_total{command="m"} 1`) {
		t.Fatalf("expected commands_dispatched_total in output, got:\n%s", body)
	}
}
