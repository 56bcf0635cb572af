package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestShopMetrics_ObserveCheckout(t *testing.T) {
	m := NewShopMetrics(prometheus.NewRegistry())

	m.ObserveCheckout(CheckoutCommitted, 5)
	m.ObserveCheckout(CheckoutCommitted, 2)
	m.ObserveCheckout(CheckoutRejected, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(CheckoutCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(CheckoutRejected)))
	// 不成立分は販売数に数えない
	assert.Equal(t, 7.0, testutil.ToFloat64(m.CheckoutItems))
}

func TestShopMetrics_ObserveCartMutation(t *testing.T) {
	m := NewShopMetrics(prometheus.NewRegistry())

	m.ObserveCartMutation("add", nil)
	m.ObserveCartMutation("add", errors.New("at capacity"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMutations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMutations.WithLabelValues("add", "rejected")))
}

func TestShopMetrics_NilIsNoop(t *testing.T) {
	var m *ShopMetrics
	assert.NotPanics(t, func() {
		m.ObserveCheckout(CheckoutCommitted, 1)
		m.ObserveCartMutation("add", nil)
	})
}
