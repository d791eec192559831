package simobs

import (
	"context"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/types"
)

type observableSimulator struct {
	sim interfaces.Simulator
}

var _ interfaces.Simulator = (*observableSimulator)(nil)

func Wrap(s interfaces.Simulator) interfaces.Simulator {
	return &observableSimulator{
		sim: s,
	}
}

func (so *observableSimulator) Step(ctx context.Context, tick int) (*types.TickResult, error) {
	op := logger.StartOperation(ctx, "sim.Step", "tick", tick)

	result, err := so.sim.Step(op.Context(), tick)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	logger.InfoSkip(op.Context(), 1, "Tick completed",
		"tick", tick,
		"inflation", result.Inflation,
		"submitted", result.Submitted,
		"rejected", result.Rejected,
		"skipped", result.Skipped,
		"buys", result.Buys,
		"sells", result.Sells,
		"mean_sentiment", result.MeanSentiment,
		"market_value", result.MarketValue,
		"total_net_worth", result.TotalNetWorth,
	)
	op.End(
		"submitted", result.Submitted,
		"market_value", result.MarketValue,
	)
	return result, nil
}
