// Package metrics provides Prometheus instrumentation for the ledger.
//
// The simulator has no network listener, so metrics live on a private
// registry and are exported with WriteTextfile (node_exporter textfile
// collector format) when a session ends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atmx/paper-trader/internal/ledger"
)

// Collector records ledger events. It implements ledger.Observer.
type Collector struct {
	registry *prometheus.Registry

	// OperationsTotal counts mutating calls by operation and outcome
	// ("ok" or a ledger.Reason label).
	OperationsTotal *prometheus.CounterVec

	// OperationLatency tracks time spent inside the ledger lock.
	OperationLatency *prometheus.HistogramVec

	// TradedSharesTotal counts shares moved by successful buys and sells.
	TradedSharesTotal *prometheus.CounterVec

	// Cash is the cash balance after the latest call.
	Cash prometheus.Gauge

	// OpenPositions is the number of open positions after the latest call.
	OpenPositions prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_operations_total",
			Help: "Ledger operations by outcome",
		}, []string{"op", "outcome"}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "papertrade_operation_latency_seconds",
			Help:    "Ledger operation latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"op"}),
		TradedSharesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_traded_shares_total",
			Help: "Shares bought or sold",
		}, []string{"op", "symbol"}),
		Cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_cash",
			Help: "Cash balance after the latest operation",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_open_positions",
			Help: "Number of open positions",
		}),
	}
	c.registry.MustRegister(
		c.OperationsTotal,
		c.OperationLatency,
		c.TradedSharesTotal,
		c.Cash,
		c.OpenPositions,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe implements ledger.Observer.
func (c *Collector) Observe(ev ledger.Event) {
	op := string(ev.Op)
	c.OperationsTotal.WithLabelValues(op, ledger.Reason(ev.Err)).Inc()
	c.OperationLatency.WithLabelValues(op).Observe(ev.Elapsed.Seconds())
	c.Cash.Set(ev.Cash.InexactFloat64())
	c.OpenPositions.Set(float64(ev.OpenPositions))
}

// ObserveTrade adds quantity to the traded shares counter. The ledger event
// does not carry the quantity, so the trade service reports it separately.
func (c *Collector) ObserveTrade(op ledger.Operation, sym string, quantity int64) {
	c.TradedSharesTotal.WithLabelValues(string(op), sym).Add(float64(quantity))
}

// WriteTextfile writes the current values to path in text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
