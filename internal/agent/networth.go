package agent

import (
	"agentsim/internal/types"
)

// UpdateNetWorth marks the agent to market, appends the result to the
// net-worth history and returns it. Holdings without a price count as zero;
// holdings named after a fund are valued at the fund's unit price.
func (a *Agent) UpdateNetWorth(prices map[string]float64, funds map[string]types.Fund) float64 {
	var assets, fundsValue float64
	for instrument, qty := range a.holdings {
		assets += float64(qty) * prices[instrument]
		if f, ok := funds[instrument]; ok {
			fundsValue += f.UnitPrice * float64(qty)
		}
	}
	nw := a.balance + assets + fundsValue
	a.netWorthHistory = append(a.netWorthHistory, nw)
	return nw
}

// RefreshNeighbors replaces the neighbor set with a uniform sample, without
// replacement, of at most maxNeighbors candidates. The agent never samples
// itself.
func (a *Agent) RefreshNeighbors(candidates []string, maxNeighbors int) {
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != a.name {
			pool = append(pool, c)
		}
	}
	k := min(max(maxNeighbors, 0), len(pool))
	next := make([]string, 0, k)
	for _, i := range a.rng.Perm(len(pool))[:k] {
		next = append(next, pool[i])
	}
	a.neighbors = next
}
