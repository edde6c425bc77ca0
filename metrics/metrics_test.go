package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, mm := range f.GetMetric() {
			for _, lp := range mm.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case mm.GetCounter() != nil:
				return mm.GetCounter().GetValue()
			case mm.GetGauge() != nil:
				return mm.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CycleDone(time.Second)
	m.TickSkipped()
	m.FetchError("vehicles")
	m.Reconciled("vehicles", 1, 2, 3, 4)
	m.ManualRefresh("vehicles", nil)
	m.SetConnected(true)
	m.Command("insert", nil)
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.CycleDone(10 * time.Millisecond)
	m.CycleDone(20 * time.Millisecond)
	m.TickSkipped()
	m.FetchError("alarms")
	m.Reconciled("missions", 2, 1, 0, 7)
	m.ManualRefresh("missions", errors.New("boom"))
	m.SetConnected(true)

	if got := counterValue(t, m, "antmonitor_poll_cycles_total", nil); got != 2 {
		t.Errorf("cycles = %v, want 2", got)
	}
	if got := counterValue(t, m, "antmonitor_poll_ticks_skipped_total", nil); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := counterValue(t, m, "antmonitor_fetch_errors_total", map[string]string{"kind": "alarms"}); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := counterValue(t, m, "antmonitor_reconcile_changes_total", map[string]string{"kind": "missions", "op": "added"}); got != 2 {
		t.Errorf("added = %v, want 2", got)
	}
	if got := counterValue(t, m, "antmonitor_store_items", map[string]string{"kind": "missions"}); got != 7 {
		t.Errorf("items = %v, want 7", got)
	}
	if got := counterValue(t, m, "antmonitor_manual_refresh_total", map[string]string{"kind": "missions", "result": "failed"}); got != 1 {
		t.Errorf("manual failed = %v, want 1", got)
	}
	if got := counterValue(t, m, "antmonitor_connected", nil); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.TickSkipped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "antmonitor_poll_ticks_skipped_total 1") {
		t.Errorf("exposition missing skipped counter:\n%s", rec.Body.String())
	}
}
