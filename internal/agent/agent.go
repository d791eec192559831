// Package agent implements the boundedly-rational trader: volatility
// perception, risk appetite, sentiment dynamics, inflation-adjusted price
// expectation and order generation.
package agent

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"agentsim/internal/interfaces"
	"agentsim/internal/randsrc"
)

var (
	ErrInvalidLiteracy  = errors.New("literacy must be within [0, 1]")
	ErrInvalidSentiment = errors.New("sentiment must be within [-1, 1]")
	ErrNilRandom        = errors.New("random source is required")
)

// PriceBand is the (min, expected, max) price belief carried as state.
type PriceBand struct {
	Min      float64 `yaml:"min" json:"min"`
	Expected float64 `yaml:"expected" json:"expected"`
	Max      float64 `yaml:"max" json:"max"`
}

// Params are the construction-time inputs of an Agent.
type Params struct {
	Name                 string
	Balance              float64
	Holdings             map[string]int
	Sentiment            float64
	PriceBand            PriceBand
	Literacy             float64
	SpeculationBias      float64
	NoiseSensitivity     float64
	FundamentalistWeight float64
	InflationExpectation float64
}

type Agent struct {
	name     string
	balance  float64
	holdings map[string]int

	sentiment float64
	priceBand PriceBand

	literacy             float64
	speculationBias      float64
	noiseSensitivity     float64
	fundamentalistWeight float64
	inflationExpectation float64

	netWorthHistory []float64

	tau                 int
	perceivedVolatility float64

	// handles into the population, never owned
	neighbors []string

	rng randsrc.Source
	w   Weights
}

var _ interfaces.Trader = (*Agent)(nil)

// New validates p and draws the observation window from rng.
func New(p Params, rng randsrc.Source, w Weights) (*Agent, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if !(p.Literacy >= 0 && p.Literacy <= 1) {
		return nil, fmt.Errorf("agent %q: %w, got %v", p.Name, ErrInvalidLiteracy, p.Literacy)
	}
	if !(p.Sentiment >= -1 && p.Sentiment <= 1) {
		return nil, fmt.Errorf("agent %q: %w, got %v", p.Name, ErrInvalidSentiment, p.Sentiment)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("agent %q: invalid weights: %w", p.Name, err)
	}

	holdings := make(map[string]int, len(p.Holdings))
	maps.Copy(holdings, p.Holdings)

	return &Agent{
		name:                 p.Name,
		balance:              p.Balance,
		holdings:             holdings,
		sentiment:            p.Sentiment,
		priceBand:            p.PriceBand,
		literacy:             p.Literacy,
		speculationBias:      p.SpeculationBias,
		noiseSensitivity:     p.NoiseSensitivity,
		fundamentalistWeight: p.FundamentalistWeight,
		inflationExpectation: p.InflationExpectation,
		tau:                  randsrc.IntRange(rng, w.MinWindow, w.MaxWindow),
		rng:                  rng,
		w:                    w,
	}, nil
}

func (a *Agent) Name() string                  { return a.name }
func (a *Agent) Balance() float64              { return a.balance }
func (a *Agent) Sentiment() float64            { return a.sentiment }
func (a *Agent) PriceBand() PriceBand          { return a.priceBand }
func (a *Agent) Literacy() float64             { return a.literacy }
func (a *Agent) InflationExpectation() float64 { return a.inflationExpectation }
func (a *Agent) ObservationWindow() int        { return a.tau }
func (a *Agent) PerceivedVolatility() float64  { return a.perceivedVolatility }

func (a *Agent) Holdings() map[string]int {
	return maps.Clone(a.holdings)
}

func (a *Agent) NetWorthHistory() []float64 {
	return slices.Clone(a.netWorthHistory)
}

func (a *Agent) Neighbors() []string {
	return slices.Clone(a.neighbors)
}

// Credit adds an external cash-flow such as a fund dividend.
func (a *Agent) Credit(amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	a.balance += amount
}

// floorInt truncates toward negative infinity, saturating instead of overflowing.
func floorInt(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt32:
		return math.MaxInt32
	case x <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(x))
}
