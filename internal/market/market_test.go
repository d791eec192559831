package market

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentsim/internal/agent"
	"agentsim/internal/interfaces"
	"agentsim/internal/randsrc"
	"agentsim/internal/types"
)

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	m, err := New(
		[]Instrument{
			{Name: "PETR4", Price: 50, Volatility: 0.02},
			{Name: "VALE3", Price: 45, Volatility: 0.02},
		},
		[]types.Fund{
			{Name: "FII_A", UnitPrice: 100, MonthlyYield: 0.005},
			{Name: "FII_B", UnitPrice: 150, MonthlyYield: 0.005},
		},
		0,
	)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Instrument{{Name: "X", Price: 0}}, nil, 30)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = New([]Instrument{{Name: "X", Price: 1}, {Name: "X", Price: 2}}, nil, 30)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = New([]Instrument{{Name: "X", Price: 1}}, []types.Fund{{Name: "X", UnitPrice: 1}}, 30)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = New(nil, []types.Fund{{Name: "F", UnitPrice: -1}}, 30)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestMarket_ReadView(t *testing.T) {
	m := newTestMarket(t)
	assert.Equal(t, []string{"PETR4", "VALE3"}, m.Instruments())

	p, ok := m.Price("PETR4")
	require.True(t, ok)
	assert.Equal(t, 50.0, p)

	_, ok = m.Price("FII_A")
	assert.False(t, ok)

	assert.Equal(t, []float64{45}, m.History("VALE3"))
	assert.Equal(t, []string{"FII_A", "FII_B"}, m.FundNames())
	assert.Equal(t, 150.0, m.Funds()["FII_B"].UnitPrice)
}

func TestRecord(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.Record("PETR4", 51))
	assert.Equal(t, []float64{50, 51}, m.History("PETR4"))

	assert.ErrorIs(t, m.Record("NOPE", 1), ErrUnknownInstrument)
	assert.ErrorIs(t, m.Record("PETR4", math.NaN()), ErrInvalidPrice)
}

func TestDailyRate(t *testing.T) {
	d := DailyRate(0.005, 30)
	assert.InDelta(t, 1.005, math.Pow(1+d, 30), 1e-12)
	assert.Equal(t, 0.0, DailyRate(0, 30))
}

func TestApplyInflation(t *testing.T) {
	m := newTestMarket(t)
	daily := m.ApplyInflation(context.Background(), 0.005)

	p, _ := m.Price("PETR4")
	assert.InDelta(t, 50*(1+daily), p, 1e-12)
	assert.InDelta(t, 100*(1+daily), m.Funds()["FII_A"].UnitPrice, 1e-12)
	assert.Equal(t, []float64{0.005}, m.InflationHistory())
	assert.Len(t, m.History("PETR4"), 1)
}

func TestApplyInflation_IgnoresNaN(t *testing.T) {
	m := newTestMarket(t)
	assert.Equal(t, 0.0, m.ApplyInflation(context.Background(), math.NaN()))
	assert.Empty(t, m.InflationHistory())
	p, _ := m.Price("PETR4")
	assert.Equal(t, 50.0, p)
}

func TestAdvance_RecordsPositivePrices(t *testing.T) {
	m := newTestMarket(t)
	rng := randsrc.New(5)
	for i := 0; i < 100; i++ {
		m.Advance(rng)
	}
	h := m.History("PETR4")
	require.Len(t, h, 101)
	for _, p := range h {
		assert.Greater(t, p, 0.0)
	}
	assert.Len(t, m.FundHistory("FII_A"), 101)
}

func TestAdvance_ZeroVolatilityIsDrift(t *testing.T) {
	m, err := New([]Instrument{{Name: "X", Price: 10, Drift: 0.01}}, nil, 30)
	require.NoError(t, err)
	m.Advance(randsrc.New(1))
	p, _ := m.Price("X")
	assert.InDelta(t, 10*math.Exp(0.01), p, 1e-12)
}

func TestAdvance_KeepsPriceOnOverflow(t *testing.T) {
	m, err := New([]Instrument{{Name: "X", Price: 10, Drift: 1000}}, nil, 30)
	require.NoError(t, err)
	m.Advance(randsrc.New(1))

	p, _ := m.Price("X")
	assert.Equal(t, 10.0, p)
	assert.Equal(t, []float64{10, 10}, m.History("X"))
}

func TestPayDividends(t *testing.T) {
	m := newTestMarket(t)
	a, err := agent.New(agent.Params{Name: "a", Balance: 10, Holdings: map[string]int{"FII_A": 4}}, randsrc.New(1), agent.DefaultWeights())
	require.NoError(t, err)
	b, err := agent.New(agent.Params{Name: "b", Balance: 10}, randsrc.New(2), agent.DefaultWeights())
	require.NoError(t, err)

	paid := m.PayDividends(context.Background(), []interfaces.Trader{a, b})
	assert.InDelta(t, 4*100*0.005, paid, 1e-12)
	assert.InDelta(t, 12, a.Balance(), 1e-12)
	assert.Equal(t, 10.0, b.Balance())
}
