package agent

import (
	"context"
	"errors"
	"fmt"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/randsrc"
	"agentsim/internal/types"
)

// GenerateOrder refreshes sentiment and builds one order for instrument.
// Bullish agents buy no more than their cash covers at the adjusted price;
// everyone else sells no more than they hold. Quantities may be zero or
// negative, the book rejects those.
func (a *Agent) GenerateOrder(ctx context.Context, peers interfaces.Peers, instrument string, marketPrice float64) types.Order {
	a.UpdateSentiment(peers)

	adjusted := a.AdjustForInflation(marketPrice)
	expected := a.ExpectedPrice(adjusted) * randsrc.Normal(a.rng, 1, a.noiseSensitivity)
	risk := a.DesiredRisk()
	riskQty := floorInt(a.QuantityFromRisk(risk))

	side := types.SideSell
	var qty int
	if a.sentiment > 0 {
		side = types.SideBuy
		affordable := 0
		if adjusted > 0 {
			affordable = floorInt(a.balance / adjusted)
		}
		qty = min(affordable, riskQty)
	} else {
		qty = min(a.holdings[instrument], riskQty)
	}

	o := types.NewOrder(side, a.name, instrument, adjusted, qty)
	o.ExpectedPrice = expected

	logger.Debug(ctx, "Order generated",
		"agent", a.name,
		"instrument", instrument,
		"side", side.String(),
		"quantity", qty,
		"adjusted_price", adjusted,
		"expected_price", expected,
		"sentiment", a.sentiment,
		"risk", risk,
	)
	return o
}

// Decide runs the batch path over every instrument in m. Agents expecting
// inflation above the gate abstain. Non-positive quantities are skipped
// without reaching the book. Submit failures are collected and returned
// together after all instruments were visited.
func (a *Agent) Decide(ctx context.Context, m interfaces.Market, ob interfaces.OrderBook) (types.DecisionSummary, error) {
	var (
		sum  types.DecisionSummary
		errs []error
	)

	for _, instrument := range m.Instruments() {
		price, ok := m.Price(instrument)
		if !ok {
			continue
		}

		a.UpdatePerceivedVolatility(m.History(instrument))
		qty := floorInt(a.QuantityFromRisk(a.DesiredRisk()))

		if a.inflationExpectation > a.w.BatchInflationGate {
			sum.Abstained++
			logger.Debug(ctx, "Inflation gate hit, abstaining",
				"agent", a.name,
				"instrument", instrument,
				"inflation_expectation", a.inflationExpectation,
			)
			continue
		}

		var o types.Order
		if a.rng.Float64() > a.w.BatchBuyThreshold {
			limit := price * randsrc.Normal(a.rng, a.w.BatchLimitMean, a.w.BatchLimitStd*(1+a.noiseSensitivity))
			if limit > 0 {
				qty = min(qty, floorInt(a.balance/limit))
			}
			o = types.NewOrder(types.SideBuy, a.name, instrument, limit, qty)
		} else {
			limit := price * randsrc.Uniform(a.rng, 0.9, 1.1+a.speculationBias*0.1)
			qty = min(qty, a.holdings[instrument])
			o = types.NewOrder(types.SideSell, a.name, instrument, limit, qty)
		}

		if o.Quantity <= 0 {
			sum.Skipped++
			continue
		}

		if err := ob.Submit(ctx, o); err != nil {
			sum.Rejected++
			errs = append(errs, fmt.Errorf("submit %s %s: %w", o.Side, instrument, err))
			continue
		}
		sum.Submitted++
		if o.Side == types.SideBuy {
			sum.Buys++
		} else {
			sum.Sells++
		}
	}

	return sum, errors.Join(errs...)
}
