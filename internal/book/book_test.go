package book

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentsim/internal/types"
)

func TestSubmit_RejectsDegenerateOrders(t *testing.T) {
	b := New()
	ctx := context.Background()

	bad := []types.Order{
		types.NewOrder(types.SideBuy, "a", "X", 10, 0),
		types.NewOrder(types.SideSell, "a", "X", 10, -3),
		types.NewOrder(types.SideBuy, "a", "X", 0, 1),
		types.NewOrder(types.SideBuy, "a", "X", math.NaN(), 1),
		types.NewOrder(types.SideBuy, "a", "X", math.Inf(1), 1),
		types.NewOrder(types.SideBuy, "a", "", 10, 1),
		types.NewOrder(types.SideBuy, "", "X", 10, 1),
		types.NewOrder(types.Side(9), "a", "X", 10, 1),
	}
	for _, o := range bad {
		assert.ErrorIs(t, b.Submit(ctx, o), ErrInvalidOrder, "%+v", o)
	}
	assert.Equal(t, 0, b.Len())
}

func TestSubmit_RecordsPerInstrumentAndSide(t *testing.T) {
	b := New()
	ctx := context.Background()

	require.NoError(t, b.Submit(ctx, types.NewOrder(types.SideBuy, "a", "X", 10.5, 2)))
	require.NoError(t, b.Submit(ctx, types.NewOrder(types.SideSell, "b", "X", 11, 1)))
	require.NoError(t, b.Submit(ctx, types.NewOrder(types.SideBuy, "c", "Y", 3.1, 10)))

	assert.Equal(t, 3, b.Len())
	assert.Len(t, b.Side("X", types.SideBuy), 1)
	assert.Len(t, b.Side("X", types.SideSell), 1)
	assert.Equal(t, []string{"X", "Y"}, b.Instruments())

	s := b.Summary()
	assert.Equal(t, 2, s.Buys)
	assert.Equal(t, 1, s.Sells)
	assert.Equal(t, "52.00", s.BuyNotional.StringFixed(2))
	assert.Equal(t, "11.00", s.SellNotional.StringFixed(2))
}

func TestSubmit_AssignsMissingID(t *testing.T) {
	b := New()
	o := types.Order{Side: types.SideBuy, Agent: "a", Instrument: "X", LimitPrice: 1, Quantity: 1}
	require.NoError(t, b.Submit(context.Background(), o))
	buys := b.Side("X", types.SideBuy)
	require.Len(t, buys, 1)
	assert.NotEmpty(t, buys[0].ID)
}

func TestReset(t *testing.T) {
	b := New()
	require.NoError(t, b.Submit(context.Background(), types.NewOrder(types.SideBuy, "a", "X", 1, 1)))
	b.Reset(2)

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Instruments())
	assert.True(t, b.Summary().BuyNotional.IsZero())
}
