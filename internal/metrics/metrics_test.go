package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はレジストリから指定カウンタの値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var sum float64
			for _, m := range mf.GetMetric() {
				sum += m.GetCounter().GetValue()
			}
			return sum
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordSweepRun_IncrementsCounter はスイープ実行カウンタが増加することを検証する。
func TestRecordSweepRun_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSweepRun()
	c.RecordSweepRun()

	if val := counterValue(t, reg, "subzs_reminder_sweep_runs_total"); val != 2 {
		t.Errorf("sweep_runs_total = %v, want 2", val)
	}
}

// TestRecordRemindersFired_AddsCount は発火数カウンタが加算されることを検証する。
func TestRecordRemindersFired_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRemindersFired(3)
	c.RecordRemindersFired(2)

	if val := counterValue(t, reg, "subzs_reminders_fired_total"); val != 5 {
		t.Errorf("reminders_fired_total = %v, want 5", val)
	}
}

// TestRecordNotifyFailure_IncrementsCounter は配信失敗カウンタが増加することを検証する。
func TestRecordNotifyFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotifyFailure()

	if val := counterValue(t, reg, "subzs_notify_failures_total"); val != 1 {
		t.Errorf("notify_failures_total = %v, want 1", val)
	}
}

// TestRecordLogoEnrichment_CountsByResult はロゴ検出カウンタが結果別に増加することを検証する。
func TestRecordLogoEnrichment_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogoEnrichment(true)
	c.RecordLogoEnrichment(true)
	c.RecordLogoEnrichment(false)

	if val := counterValue(t, reg, "subzs_logo_enrichments_total"); val != 3 {
		t.Errorf("logo_enrichments_total = %v, want 3", val)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "subzs_http_status_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 labeled metrics, got %d", len(mf.GetMetric()))
		}
	}
}

// TestRecordSweepLatency_ObservesHistogram はレイテンシヒストグラムが記録されることを検証する。
func TestRecordSweepLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSweepLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "subzs_reminder_sweep_latency_seconds" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
				t.Errorf("histogram sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("subzs_reminder_sweep_latency_seconds metric not found")
	}
}
