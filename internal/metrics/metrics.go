// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthOutcome は認証・認可の判定結果ラベル。
type AuthOutcome string

const (
	// AuthIssued はトークンを発行した。
	AuthIssued AuthOutcome = "issued"
	// AuthMissing はトークンが送られてこなかった。
	AuthMissing AuthOutcome = "missing"
	// AuthInvalid はトークンの検証に失敗した。
	AuthInvalid AuthOutcome = "invalid"
	// AuthAdmitted はゲートを通過した。
	AuthAdmitted AuthOutcome = "admitted"
	// AuthDenied は注文アクセスポリシーで拒否した。
	AuthDenied AuthOutcome = "denied"
	// AuthAllowed は注文アクセスポリシーで許可した。
	AuthAllowed AuthOutcome = "allowed"
)

// Recorder はメトリクス記録のインターフェース。
// ミドルウェアとハンドラーから利用する。
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordAuthOutcome(outcome AuthOutcome)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	authOutcomes *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardoctor_http_requests_total",
			Help: "ルート・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardoctor_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardoctor_auth_outcomes_total",
			Help: "トークン発行・検証・注文アクセス判定の結果別件数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.requests, c.duration, c.authOutcomes)

	return c
}

// RecordRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスパラメータを展開しないルートパターンを渡す。
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthOutcome は認証・認可の判定結果を記録する。
func (c *Collector) RecordAuthOutcome(outcome AuthOutcome) {
	c.authOutcomes.WithLabelValues(string(outcome)).Inc()
}

// Nop は何も記録しないRecorder。メトリクスを使わないテストや構成で使用する。
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthOutcome(AuthOutcome)                    {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
