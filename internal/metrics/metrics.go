// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とワーカーから利用する。
type MetricsCollector interface {
	RecordRegistration()
	RecordUnregistration()
	RecordRegistrationConflict(reason string)
	RecordTxRetry()
	RecordConferenceCreated()
	RecordAnnouncementRecompute(nearSoldOutCount int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations    prometheus.Counter
	unregistrations  prometheus.Counter
	regConflicts     *prometheus.CounterVec
	txRetries        prometheus.Counter
	confCreated      prometheus.Counter
	announceRuns     prometheus.Counter
	nearSoldOutGauge prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confhub_registrations_total",
			Help: "会議登録成功の合計数",
		}),
		unregistrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confhub_unregistrations_total",
			Help: "会議登録解除成功の合計数",
		}),
		regConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confhub_registration_conflicts_total",
			Help: "登録拒否（重複登録・満席）の理由別合計数",
		}, []string{"reason"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confhub_tx_retries_total",
			Help: "登録トランザクションの直列化競合リトライ回数",
		}),
		confCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confhub_conferences_created_total",
			Help: "作成された会議の合計数",
		}),
		announceRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confhub_announcement_recomputes_total",
			Help: "アナウンス再計算の実行回数",
		}),
		nearSoldOutGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "confhub_near_sold_out_conferences",
			Help: "直近の再計算で検出した残席わずかの会議数",
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.unregistrations,
		c.regConflicts,
		c.txRetries,
		c.confCreated,
		c.announceRuns,
		c.nearSoldOutGauge,
	)

	return c
}

// RecordRegistration は登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordUnregistration は登録解除成功を記録する。
func (c *Collector) RecordUnregistration() {
	c.unregistrations.Inc()
}

// RecordRegistrationConflict は登録拒否を理由付きで記録する。
func (c *Collector) RecordRegistrationConflict(reason string) {
	c.regConflicts.WithLabelValues(reason).Inc()
}

// RecordTxRetry はトランザクションリトライを記録する。
func (c *Collector) RecordTxRetry() {
	c.txRetries.Inc()
}

// RecordConferenceCreated は会議作成を記録する。
func (c *Collector) RecordConferenceCreated() {
	c.confCreated.Inc()
}

// RecordAnnouncementRecompute はアナウンス再計算の実行を記録する。
func (c *Collector) RecordAnnouncementRecompute(nearSoldOutCount int) {
	c.announceRuns.Inc()
	c.nearSoldOutGauge.Set(float64(nearSoldOutCount))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
