package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentsim/internal/agent"
	"agentsim/internal/randsrc"
	"agentsim/internal/types"
)

func newAgent(t *testing.T, name string, balance float64) *agent.Agent {
	t.Helper()
	a, err := agent.New(agent.Params{Name: name, Balance: balance}, randsrc.New(1), agent.DefaultWeights())
	require.NoError(t, err)
	return a
}

func TestAdd_RejectsDuplicates(t *testing.T) {
	p := New()
	require.NoError(t, p.Add(newAgent(t, "a", 1)))
	err := p.Add(newAgent(t, "a", 2))
	assert.ErrorIs(t, err, ErrDuplicateAgent)
	assert.Equal(t, 1, p.Len())
}

func TestAdd_RejectsEmptyName(t *testing.T) {
	assert.ErrorIs(t, New().Add(newAgent(t, "", 1)), ErrEmptyName)
}

func TestGet(t *testing.T) {
	p := New()
	a := newAgent(t, "a", 1)
	require.NoError(t, p.Add(a))

	got, err := p.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = p.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestNames_KeepInsertionOrder(t *testing.T) {
	p := New()
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, p.Add(newAgent(t, n, 1)))
	}
	assert.Equal(t, []string{"c", "a", "b"}, p.Names())
	assert.Len(t, p.Traders(), 3)
}

func TestSnapshot_IsFrozen(t *testing.T) {
	p := New()
	a := newAgent(t, "a", 100)
	require.NoError(t, p.Add(a))
	a.UpdateNetWorth(nil, nil)

	snap := p.Snapshot()
	a.UpdateNetWorth(nil, nil)

	h, ok := snap.NetWorthHistory("a")
	require.True(t, ok)
	assert.Len(t, h, 1)

	live, ok := p.NetWorthHistory("a")
	require.True(t, ok)
	assert.Len(t, live, 2)
	_, ok = p.NetWorthHistory("b")
	assert.False(t, ok)

	_, ok = snap.NetWorthHistory("b")
	assert.False(t, ok)
}

func TestRefreshNeighbors(t *testing.T) {
	p := New()
	agents := map[string]*agent.Agent{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		agents[n] = newAgent(t, n, 1)
		require.NoError(t, p.Add(agents[n]))
	}

	p.RefreshNeighbors(agent.DefaultMaxNeighbors)
	for name, a := range agents {
		n := a.Neighbors()
		assert.Len(t, n, 3)
		assert.NotContains(t, n, name)
	}
}

func TestMarketValue_ExcludesCash(t *testing.T) {
	p := New()
	a, err := agent.New(agent.Params{Name: "a", Balance: 1000, Holdings: map[string]int{"X": 3, "FII_A": 2}}, randsrc.New(1), agent.DefaultWeights())
	require.NoError(t, err)
	b, err := agent.New(agent.Params{Name: "b", Balance: 500, Holdings: map[string]int{"X": 1, "GONE": 9}}, randsrc.New(2), agent.DefaultWeights())
	require.NoError(t, err)
	require.NoError(t, p.Add(a))
	require.NoError(t, p.Add(b))

	prices := map[string]float64{"X": 10}
	funds := map[string]types.Fund{"FII_A": {Name: "FII_A", UnitPrice: 100}}
	// 4 units of X at 10 plus 2 fund units at 100
	assert.InDelta(t, 240, p.MarketValue(prices, funds), 1e-12)
	assert.Equal(t, 0.0, New().MarketValue(prices, funds))

	a.UpdateNetWorth(prices, funds)
	b.UpdateNetWorth(prices, funds)
	assert.InDelta(t, 1000+30+200+500+10, p.TotalNetWorth(), 1e-12)
}

func TestTotalNetWorthAndSentiment(t *testing.T) {
	p := New()
	a := newAgent(t, "a", 100)
	b := newAgent(t, "b", 50)
	require.NoError(t, p.Add(a))
	require.NoError(t, p.Add(b))

	assert.Equal(t, 0.0, p.TotalNetWorth())
	a.UpdateNetWorth(nil, map[string]types.Fund{})
	b.UpdateNetWorth(nil, nil)
	assert.InDelta(t, 150, p.TotalNetWorth(), 1e-12)
	assert.Equal(t, 0.0, p.MeanSentiment())
	assert.Equal(t, 0.0, New().MeanSentiment())
}
