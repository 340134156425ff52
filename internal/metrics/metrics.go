// Package metrics exposes pool activity as Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

const namespace = "wamm"

// Sink records committed pool events into Prometheus collectors.
// It satisfies amm.EventSink.
type Sink struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	swapFeeBps  prometheus.Histogram
	reserves    *prometheus.GaugeVec
	weights     *prometheus.GaugeVec
	totalShares prometheus.Gauge
	ilFund      prometheus.Gauge
	ilPaidOut   prometheus.Gauge
	paused      prometheus.Gauge
}

func NewSink() *Sink {
	s := &Sink{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Committed pool operations by event type.",
		}, []string{"type"}),
		swapFeeBps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "swap_fee_bps",
			Help:      "Dynamic fee charged per swap, in basis points.",
			Buckets:   []float64{10, 20, 30, 50, 75, 100, 150, 250, 500},
		}),
		reserves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reserve",
			Help:      "Pool reserve per asset, in base units.",
		}, []string{"denom"}),
		weights: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weight",
			Help:      "Target weight per asset as a fraction of one.",
		}, []string{"denom"}),
		totalShares: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_shares",
			Help:      "Outstanding LP shares.",
		}),
		ilFund: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "impermanent_loss_fund",
			Help:      "Impermanent-loss fund balance, in asset 0 units.",
		}),
		ilPaidOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "impermanent_loss_paid_out",
			Help:      "Cumulative impermanent-loss compensation paid, in asset 0 units.",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "paused",
			Help:      "1 while the pool rejects mutating operations.",
		}),
	}
	s.registry.MustRegister(s.operations, s.swapFeeBps, s.reserves, s.weights,
		s.totalShares, s.ilFund, s.ilPaidOut, s.paused)
	return s
}

func (s *Sink) Record(_ context.Context, event types.Event, snapshot types.PoolSnapshot) error {
	s.operations.WithLabelValues(string(event.Type)).Inc()
	if event.Type == types.EventSwapExecuted {
		s.swapFeeBps.Observe(float64(event.FeeBps))
	}

	var errs []error
	set := func(g prometheus.Gauge, amount sdkmath.Int, precision int) {
		v, err := utils.SDKIntToFloat64(amount, precision)
		if err != nil {
			errs = append(errs, err)
			return
		}
		g.Set(v)
	}

	for _, asset := range snapshot.Assets {
		set(s.reserves.WithLabelValues(asset.Denom), asset.Reserve, 0)
		set(s.weights.WithLabelValues(asset.Denom), asset.Weight, 18)
	}
	set(s.totalShares, snapshot.TotalShares, 0)
	set(s.ilFund, snapshot.ImpermanentLossFund, 0)
	set(s.ilPaidOut, snapshot.FundPaidOut, 0)
	if snapshot.Paused {
		s.paused.Set(1)
	} else {
		s.paused.Set(0)
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to export pool metrics: %w", errors.Join(errs...))
	}
	return nil
}

// Handler serves the sink's registry in the Prometheus text format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
