// Package population owns the agents of one simulation and hands out
// name handles instead of references.
package population

import (
	"errors"
	"fmt"
	"slices"

	"agentsim/internal/interfaces"
	"agentsim/internal/types"
)

var (
	ErrDuplicateAgent = errors.New("duplicate agent name")
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrEmptyName      = errors.New("agent name is empty")
)

type Population struct {
	order  []string
	byName map[string]interfaces.Trader
}

func New() *Population {
	return &Population{byName: make(map[string]interfaces.Trader)}
}

// Add registers t under its name. Insertion order is the iteration order.
func (p *Population) Add(t interfaces.Trader) error {
	name := t.Name()
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := p.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, name)
	}
	p.byName[name] = t
	p.order = append(p.order, name)
	return nil
}

func (p *Population) Get(name string) (interfaces.Trader, error) {
	t, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	return t, nil
}

func (p *Population) Len() int { return len(p.order) }

func (p *Population) Names() []string { return slices.Clone(p.order) }

func (p *Population) Traders() []interfaces.Trader {
	out := make([]interfaces.Trader, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.byName[name])
	}
	return out
}

// NetWorthHistory reads live state. Use Snapshot while agents are mutating.
func (p *Population) NetWorthHistory(name string) ([]float64, bool) {
	t, err := p.Get(name)
	if err != nil {
		return nil, false
	}
	return t.NetWorthHistory(), true
}

// Snapshot freezes every agent's net-worth history as of now.
func (p *Population) Snapshot() Snapshot {
	s := make(Snapshot, len(p.byName))
	for name, t := range p.byName {
		s[name] = t.NetWorthHistory()
	}
	return s
}

// RefreshNeighbors resamples the neighbor set of every agent from the whole
// population.
func (p *Population) RefreshNeighbors(maxNeighbors int) {
	names := p.Names()
	for _, name := range p.order {
		p.byName[name].RefreshNeighbors(names, maxNeighbors)
	}
}

// MarketValue prices every unit the agents hold, instruments at prices and
// funds at their unit price. Cash is not part of it and units of anything
// missing from both maps count as zero.
func (p *Population) MarketValue(prices map[string]float64, funds map[string]types.Fund) float64 {
	total := 0.0
	for _, name := range p.order {
		for asset, units := range p.byName[name].Holdings() {
			if price, ok := prices[asset]; ok {
				total += price * float64(units)
			} else if f, ok := funds[asset]; ok {
				total += f.UnitPrice * float64(units)
			}
		}
	}
	return total
}

// TotalNetWorth is the sum of the latest net worth of every agent.
func (p *Population) TotalNetWorth() float64 {
	total := 0.0
	for _, name := range p.order {
		if h := p.byName[name].NetWorthHistory(); len(h) > 0 {
			total += h[len(h)-1]
		}
	}
	return total
}

// MeanSentiment is zero for an empty population.
func (p *Population) MeanSentiment() float64 {
	if len(p.order) == 0 {
		return 0
	}
	total := 0.0
	for _, name := range p.order {
		total += p.byName[name].Sentiment()
	}
	return total / float64(len(p.order))
}

// Snapshot is a frozen peer view keyed by agent name.
type Snapshot map[string][]float64

var _ interfaces.Peers = Snapshot(nil)

func (s Snapshot) NetWorthHistory(name string) ([]float64, bool) {
	h, ok := s[name]
	return h, ok
}
