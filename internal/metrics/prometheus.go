package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentsim/internal/types"
)

type Metrics struct {
	// Agent metrics
	Orders          *prometheus.CounterVec
	Abstentions     prometheus.Counter
	SubmitErrors    prometheus.Counter
	OrderQuantity   *prometheus.HistogramVec
	Sentiment       prometheus.Histogram
	DecisionLatency *prometheus.HistogramVec

	// Simulation metrics
	Ticks       prometheus.Counter
	Inflation   prometheus.Gauge
	MarketValue prometheus.Gauge
	NetWorth    prometheus.Gauge
	Price       *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentsim_orders_total",
				Help: "Total number of orders emitted by agents",
			},
			[]string{"path", "side"}, // path: single|batch
		),
		Abstentions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentsim_abstentions_total",
			Help: "Instruments skipped by the batch inflation gate",
		}),
		SubmitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentsim_submit_errors_total",
			Help: "Orders rejected by the order book",
		}),
		OrderQuantity: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentsim_order_quantity",
				Help:    "Quantity carried by emitted orders",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
			[]string{"side"},
		),
		Sentiment: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentsim_sentiment",
			Help:    "Agent sentiment after each update",
			Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
		}),
		DecisionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentsim_decision_latency_seconds",
				Help:    "Time spent in one agent decision",
				Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1},
			},
			[]string{"path"},
		),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentsim_ticks_total",
			Help: "Completed simulation ticks",
		}),
		Inflation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentsim_inflation_monthly",
			Help: "Monthly inflation applied on the last tick",
		}),
		MarketValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentsim_market_value",
			Help: "Value of all units held by agents at last tick prices",
		}),
		NetWorth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentsim_net_worth_total",
			Help: "Sum of agent net worth on the last tick",
		}),
		Price: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentsim_price",
				Help: "Last price per instrument",
			},
			[]string{"instrument"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Orders,
			m.Abstentions,
			m.SubmitErrors,
			m.OrderQuantity,
			m.Sentiment,
			m.DecisionLatency,
			m.Ticks,
			m.Inflation,
			m.MarketValue,
			m.NetWorth,
			m.Price,
		)
	}
	return m
}

// Handler returns the Prometheus HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordOrder is called for every order an agent hands to the book.
func (m *Metrics) RecordOrder(path string, o types.Order) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(path, o.Side.String()).Inc()
	m.OrderQuantity.WithLabelValues(o.Side.String()).Observe(float64(o.Quantity))
}

// RecordDecision folds a batch summary into the counters.
func (m *Metrics) RecordDecision(sum types.DecisionSummary, latency time.Duration) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues("batch", types.SideBuy.String()).Add(float64(sum.Buys))
	m.Orders.WithLabelValues("batch", types.SideSell.String()).Add(float64(sum.Sells))
	m.Abstentions.Add(float64(sum.Abstained))
	m.SubmitErrors.Add(float64(sum.Rejected))
	m.DecisionLatency.WithLabelValues("batch").Observe(latency.Seconds())
}

// RecordRejected counts single-path orders the book refused.
func (m *Metrics) RecordRejected() {
	if m == nil {
		return
	}
	m.SubmitErrors.Inc()
}

func (m *Metrics) RecordSentiment(s float64) {
	if m == nil {
		return
	}
	m.Sentiment.Observe(s)
}

func (m *Metrics) RecordLatency(path string, latency time.Duration) {
	if m == nil {
		return
	}
	m.DecisionLatency.WithLabelValues(path).Observe(latency.Seconds())
}

// RecordTick publishes the aggregate state of one completed tick.
func (m *Metrics) RecordTick(res *types.TickResult) {
	if m == nil || res == nil {
		return
	}
	m.Ticks.Inc()
	m.Inflation.Set(res.Inflation)
	m.MarketValue.Set(res.MarketValue)
	m.NetWorth.Set(res.TotalNetWorth)
	for name, p := range res.Prices {
		m.Price.WithLabelValues(name).Set(p)
	}
}
