package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// チェックアウト結果のラベル
const (
	CheckoutCommitted = "committed"
	CheckoutRejected  = "rejected" // 入力/在庫/状態の問題
	CheckoutFailed    = "failed"   // DBエラー
	CheckoutReplayed  = "replayed" // 冪等キーで前回結果を返した
)

type ShopMetrics struct {
	Checkouts     *prometheus.CounterVec
	CheckoutItems prometheus.Counter
	CartMutations *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
}

func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	m := &ShopMetrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "checkout_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		CheckoutItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "checkout_items_total",
			Help:      "Units sold through committed checkouts.",
		}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation and result.",
		}, []string{"op", "result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shop",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}

	reg.MustRegister(m.Checkouts, m.CheckoutItems, m.CartMutations, m.Requests, m.LatencyMS)
	return m
}

// nilでも呼べるようにしておく（テストで省略できる）
func (m *ShopMetrics) ObserveCheckout(result string, items int64) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
	if result == CheckoutCommitted && items > 0 {
		m.CheckoutItems.Add(float64(items))
	}
}

func (m *ShopMetrics) ObserveCartMutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.CartMutations.WithLabelValues(op, result).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
