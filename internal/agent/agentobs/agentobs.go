package agentobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/metrics"
	"agentsim/internal/trace"
	"agentsim/internal/types"
)

type observableTrader struct {
	interfaces.Trader
	metrics *metrics.Metrics
}

var _ interfaces.Trader = (*observableTrader)(nil)

// Wrap adds spans, decision logs and metrics around the decision entrypoints
// of t. m may be nil.
func Wrap(t interfaces.Trader, m *metrics.Metrics) interfaces.Trader {
	return &observableTrader{
		Trader:  t,
		metrics: m,
	}
}

func (ot *observableTrader) GenerateOrder(ctx context.Context, peers interfaces.Peers, instrument string, marketPrice float64) types.Order {
	ctx, span := trace.StartSpan(ctx, "agent.GenerateOrder", oteltrace.WithAttributes(
		attribute.String("agent", ot.Name()),
		attribute.String("instrument", instrument),
	))
	defer span.End()

	start := time.Now()
	o := ot.Trader.GenerateOrder(ctx, peers, instrument, marketPrice)

	ot.metrics.RecordLatency("single", time.Since(start))
	ot.metrics.RecordSentiment(ot.Sentiment())
	if o.Quantity > 0 {
		ot.metrics.RecordOrder("single", o)
	}

	logger.Decision(ctx, o.Agent, o.Instrument, o.Side.String(), o.Quantity, o.LimitPrice,
		"path", "single",
		"market_price", marketPrice,
		"expected_price", o.ExpectedPrice,
		"sentiment", ot.Sentiment(),
		"order_id", o.ID,
	)
	return o
}

func (ot *observableTrader) Decide(ctx context.Context, m interfaces.Market, ob interfaces.OrderBook) (types.DecisionSummary, error) {
	ctx, span := trace.StartSpan(ctx, "agent.Decide", oteltrace.WithAttributes(
		attribute.String("agent", ot.Name()),
	))
	defer span.End()

	start := time.Now()
	sum, err := ot.Trader.Decide(ctx, m, ob)
	ot.metrics.RecordDecision(sum, time.Since(start))

	if sum.Abstained > 0 {
		logger.Risk(ctx, ot.Name(), "INFLATION_GATE",
			"abstained", sum.Abstained,
		)
	}
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Batch decision had rejected orders", err,
			"agent", ot.Name(),
			"rejected", sum.Rejected,
		)
		return sum, err
	}

	logger.Debug(ctx, "Batch decision completed",
		"agent", ot.Name(),
		"submitted", sum.Submitted,
		"buys", sum.Buys,
		"sells", sum.Sells,
		"skipped", sum.Skipped,
		"duration_us", time.Since(start).Microseconds(),
	)
	return sum, nil
}
