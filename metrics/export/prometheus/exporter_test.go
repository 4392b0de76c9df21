package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/sessiongate"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snapshot sessiongate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() sessiongate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                         { return f.dropped }

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	srv := httptest.NewServer(Handler(c))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestCollectorOmitsDisabledMetrics(t *testing.T) {
	out := scrape(t, NewCollectorFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters:   map[sessiongate.MetricID]uint64{},
			Histograms: map[sessiongate.MetricID][]uint64{},
		},
	}))

	if strings.Contains(out, "sessiongate_login_success_total") {
		t.Fatalf("expected no engine counters for disabled metrics, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_audit_dropped_total 0") {
		t.Fatalf("expected audit dropped counter, got:\n%s", out)
	}
}

func TestCollectorIncludesCountersAndHistogram(t *testing.T) {
	out := scrape(t, NewCollectorFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters: map[sessiongate.MetricID]uint64{
				sessiongate.MetricLoginSuccess: 7,
			},
			Histograms: map[sessiongate.MetricID][]uint64{
				sessiongate.MetricEvaluateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	}))

	for _, want := range []string{
		"sessiongate_login_success_total 7",
		"sessiongate_login_failure_total 0",
		`sessiongate_evaluate_latency_seconds_bucket{le="0.005"} 1`,
		`sessiongate_evaluate_latency_seconds_bucket{le="0.5"} 28`,
		`sessiongate_evaluate_latency_seconds_bucket{le="+Inf"} 36`,
		"sessiongate_evaluate_latency_seconds_count 36",
		"sessiongate_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCollectorRegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollectorFromSource(fakeSource{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}
