// Package market is the in-memory market container: instrument prices with
// their history, funds, and the inflation applied to both. Prices move only
// through inflation and the exogenous feed, there is no clearing.
package market

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/randsrc"
	"agentsim/internal/types"
)

// DefaultDaysPerMonth converts monthly inflation into a per-tick rate.
const DefaultDaysPerMonth = 30

var (
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidPrice      = errors.New("price must be positive and finite")
	ErrDuplicateName     = errors.New("duplicate instrument or fund name")
)

// Instrument configures one traded instrument and its random-walk feed.
type Instrument struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
	// Drift and Volatility are per-tick log-return parameters.
	Drift      float64 `yaml:"drift"`
	Volatility float64 `yaml:"volatility"`
}

type Market struct {
	names   []string
	specs   map[string]Instrument
	prices  map[string]float64
	history map[string][]float64

	funds       map[string]types.Fund
	fundHistory map[string][]float64

	daysPerMonth int
	inflation    []float64
}

var _ interfaces.Market = (*Market)(nil)

func New(instruments []Instrument, funds []types.Fund, daysPerMonth int) (*Market, error) {
	if daysPerMonth <= 0 {
		daysPerMonth = DefaultDaysPerMonth
	}
	m := &Market{
		specs:        make(map[string]Instrument, len(instruments)),
		prices:       make(map[string]float64, len(instruments)),
		history:      make(map[string][]float64, len(instruments)),
		funds:        make(map[string]types.Fund, len(funds)),
		fundHistory:  make(map[string][]float64, len(funds)),
		daysPerMonth: daysPerMonth,
	}

	for _, in := range instruments {
		if in.Name == "" {
			return nil, errors.New("instrument name is empty")
		}
		if _, dup := m.specs[in.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, in.Name)
		}
		if !validPrice(in.Price) {
			return nil, fmt.Errorf("instrument %s: %w, got %v", in.Name, ErrInvalidPrice, in.Price)
		}
		if in.Volatility < 0 {
			return nil, fmt.Errorf("instrument %s: volatility must be >= 0", in.Name)
		}
		m.names = append(m.names, in.Name)
		m.specs[in.Name] = in
		m.prices[in.Name] = in.Price
		m.history[in.Name] = []float64{in.Price}
	}

	for _, f := range funds {
		if f.Name == "" {
			return nil, errors.New("fund name is empty")
		}
		if _, dup := m.specs[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, f.Name)
		}
		if _, dup := m.funds[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, f.Name)
		}
		if !validPrice(f.UnitPrice) {
			return nil, fmt.Errorf("fund %s: %w, got %v", f.Name, ErrInvalidPrice, f.UnitPrice)
		}
		m.funds[f.Name] = f
		m.fundHistory[f.Name] = []float64{f.UnitPrice}
	}

	return m, nil
}

func (m *Market) Instruments() []string { return slices.Clone(m.names) }

func (m *Market) Price(instrument string) (float64, bool) {
	p, ok := m.prices[instrument]
	return p, ok
}

func (m *Market) History(instrument string) []float64 {
	return slices.Clone(m.history[instrument])
}

func (m *Market) Prices() map[string]float64 { return maps.Clone(m.prices) }

func (m *Market) Funds() map[string]types.Fund { return maps.Clone(m.funds) }

// FundNames is sorted.
func (m *Market) FundNames() []string {
	return slices.Sorted(maps.Keys(m.funds))
}

func (m *Market) FundHistory(name string) []float64 {
	return slices.Clone(m.fundHistory[name])
}

func (m *Market) InflationHistory() []float64 { return slices.Clone(m.inflation) }

// Record sets the current price of instrument and appends it to the history.
func (m *Market) Record(instrument string, price float64) error {
	if _, ok := m.prices[instrument]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, instrument)
	}
	if !validPrice(price) {
		return fmt.Errorf("%s: %w, got %v", instrument, ErrInvalidPrice, price)
	}
	m.prices[instrument] = price
	m.history[instrument] = append(m.history[instrument], price)
	return nil
}

// DailyRate converts a monthly rate into the compounding per-day rate.
func DailyRate(monthly float64, daysPerMonth int) float64 {
	if daysPerMonth <= 0 {
		daysPerMonth = DefaultDaysPerMonth
	}
	return math.Pow(1+monthly, 1/float64(daysPerMonth)) - 1
}

// ApplyInflation records monthly in the inflation history and scales every
// current instrument price and fund unit price by the matching daily rate.
// Histories are not touched, the next Advance records the result.
func (m *Market) ApplyInflation(ctx context.Context, monthly float64) float64 {
	daily := DailyRate(monthly, m.daysPerMonth)
	if math.IsNaN(daily) || math.IsInf(daily, 0) {
		logger.Warn(ctx, "Ignoring non-finite inflation rate", "monthly", monthly)
		return 0
	}
	m.inflation = append(m.inflation, monthly)

	for name, p := range m.prices {
		m.prices[name] = p * (1 + daily)
	}
	for name, f := range m.funds {
		f.UnitPrice *= 1 + daily
		m.funds[name] = f
	}

	logger.Debug(ctx, "Inflation applied",
		"monthly", monthly,
		"daily", daily,
	)
	return daily
}

// Advance moves every instrument one geometric random-walk step and records
// the new prices. Fund unit prices are recorded unchanged.
func (m *Market) Advance(rng randsrc.Source) {
	for _, name := range m.names {
		spec := m.specs[name]
		step := spec.Drift - spec.Volatility*spec.Volatility/2 + spec.Volatility*rng.NormFloat64()
		if err := m.Record(name, m.prices[name]*math.Exp(step)); err != nil {
			_ = m.Record(name, m.prices[name])
		}
	}
	for name, f := range m.funds {
		m.fundHistory[name] = append(m.fundHistory[name], f.UnitPrice)
	}
}

// PayDividends credits every holder of a fund with one period's dividend and
// returns the total paid.
func (m *Market) PayDividends(ctx context.Context, traders []interfaces.Trader) float64 {
	total := 0.0
	for _, fundName := range m.FundNames() {
		f := m.funds[fundName]
		for _, t := range traders {
			units := t.Holdings()[fundName]
			d := f.Dividend(units)
			if d <= 0 {
				continue
			}
			t.Credit(d)
			total += d
			logger.Debug(ctx, "Dividend paid",
				"agent", t.Name(),
				"fund", fundName,
				"units", units,
				"amount", d,
			)
		}
	}
	return total
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
