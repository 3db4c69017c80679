// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordSweepRun()
	RecordSweepLatency(duration time.Duration)
	RecordRemindersFired(count int)
	RecordNotifyFailure()
	RecordLogoEnrichment(found bool)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sweepRuns       prometheus.Counter
	sweepLatency    prometheus.Histogram
	remindersFired  prometheus.Counter
	notifyFailures  prometheus.Counter
	logoEnrichments *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subzs_reminder_sweep_runs_total",
			Help: "リマインダースイープ実行の合計数",
		}),
		sweepLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "subzs_reminder_sweep_latency_seconds",
			Help:    "リマインダースイープのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subzs_reminders_fired_total",
			Help: "発火したリマインダーの合計数",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subzs_notify_failures_total",
			Help: "通知配信失敗の合計数",
		}),
		logoEnrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subzs_logo_enrichments_total",
			Help: "ロゴ自動検出の試行数（結果別）",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subzs_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.sweepRuns,
		c.sweepLatency,
		c.remindersFired,
		c.notifyFailures,
		c.logoEnrichments,
		c.httpStatus,
	)

	return c
}

// RecordSweepRun はスイープ実行を記録する。
func (c *Collector) RecordSweepRun() {
	c.sweepRuns.Inc()
}

// RecordSweepLatency はスイープのレイテンシを記録する。
func (c *Collector) RecordSweepLatency(duration time.Duration) {
	c.sweepLatency.Observe(duration.Seconds())
}

// RecordRemindersFired は発火したリマインダー数を記録する。
func (c *Collector) RecordRemindersFired(count int) {
	c.remindersFired.Add(float64(count))
}

// RecordNotifyFailure は通知配信失敗を記録する。
func (c *Collector) RecordNotifyFailure() {
	c.notifyFailures.Inc()
}

// RecordLogoEnrichment はロゴ自動検出の試行を結果別に記録する。
func (c *Collector) RecordLogoEnrichment(found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	c.logoEnrichments.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
