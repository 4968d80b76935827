// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// カートアップサートの結果ラベル
const (
	CartUpsertInserted        = "inserted"
	CartUpsertMerged          = "merged"
	CartUpsertConflictRetried = "conflict_retried"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordOrderPlaced(total decimal.Decimal)
	RecordOrderFailed(stage string)
	RecordCartUpsert(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	ordersPlaced   prometheus.Counter
	ordersFailed   *prometheus.CounterVec
	orderAmount    prometheus.Histogram
	cartUpserts    *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickcommerce_orders_placed_total",
			Help: "確定した注文の合計数",
		}),
		ordersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickcommerce_orders_failed_total",
			Help: "ロールバックされた注文の合計数（失敗した段階別）",
		}, []string{"stage"}),
		orderAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quickcommerce_order_amount",
			Help:    "確定した注文の合計金額",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		cartUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickcommerce_cart_upserts_total",
			Help: "カート追加の結果別件数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickcommerce_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quickcommerce_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.ordersPlaced,
		c.ordersFailed,
		c.orderAmount,
		c.cartUpserts,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordOrderPlaced は注文確定を記録する。
func (c *Collector) RecordOrderPlaced(total decimal.Decimal) {
	c.ordersPlaced.Inc()
	c.orderAmount.Observe(total.InexactFloat64())
}

// RecordOrderFailed は注文トランザクションの失敗を記録する。
func (c *Collector) RecordOrderFailed(stage string) {
	c.ordersFailed.WithLabelValues(stage).Inc()
}

// RecordCartUpsert はカート追加の結果を記録する。
func (c *Collector) RecordCartUpsert(result string) {
	c.cartUpserts.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordOrderPlaced(decimal.Decimal)  {}
func (Nop) RecordOrderFailed(string)           {}
func (Nop) RecordCartUpsert(string)            {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
