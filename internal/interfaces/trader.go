package interfaces

import (
	"context"

	"agentsim/internal/types"
)

// Peers resolves neighbor handles to net-worth histories. Implementations
// used during a tick must return state frozen at the previous tick.
type Peers interface {
	NetWorthHistory(name string) ([]float64, bool)
}

type Trader interface {
	Name() string
	Sentiment() float64
	Balance() float64
	NetWorthHistory() []float64
	Holdings() map[string]int

	UpdatePerceivedVolatility(history []float64)
	GenerateOrder(ctx context.Context, peers Peers, instrument string, marketPrice float64) types.Order
	Decide(ctx context.Context, m Market, ob OrderBook) (types.DecisionSummary, error)
	UpdateNetWorth(prices map[string]float64, funds map[string]types.Fund) float64
	RefreshNeighbors(candidates []string, maxNeighbors int)
	Credit(amount float64)
}
