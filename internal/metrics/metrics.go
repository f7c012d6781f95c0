// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 登録・ログインの結果ラベル
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeAccountExists      = "account_exists"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeStorageUnavailable = "storage_unavailable"
	OutcomeError              = "error"
)

// AuthMetrics はメトリクス収集のインターフェース。
// サービス層とHTTPミドルウェアから利用する。
type AuthMetrics interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordHashDuration(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	hashDuration  prometheus.Histogram
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshauth_registrations_total",
			Help: "結果別のアカウント登録数",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshauth_logins_total",
			Help: "結果別のログイン数",
		}, []string{"outcome"}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshauth_password_hash_seconds",
			Help:    "パスワードハッシュ計算・検証の所要時間（秒）",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshauth_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.hashDuration,
		c.httpStatus,
	)

	return c
}

// RecordRegistration は登録結果を記録する。
func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordHashDuration はハッシュ計算の所要時間を記録する。
func (c *Collector) RecordHashDuration(duration time.Duration) {
	c.hashDuration.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないAuthMetrics実装。
type Nop struct{}

func (Nop) RecordRegistration(string)        {}
func (Nop) RecordLogin(string)               {}
func (Nop) RecordHashDuration(time.Duration) {}
func (Nop) RecordHTTPStatus(int)             {}

var (
	_ AuthMetrics = (*Collector)(nil)
	_ AuthMetrics = Nop{}
)
