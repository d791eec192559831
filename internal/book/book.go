// Package book is the order sink the agents submit to. It validates and
// records orders per instrument and side but never matches them.
package book

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/types"
)

var ErrInvalidOrder = errors.New("invalid order")

type Book struct {
	orders map[string][]types.Order
	buy    decimal.Decimal
	sell   decimal.Decimal
	tick   int64
}

var _ interfaces.OrderBook = (*Book)(nil)

func New() *Book {
	return &Book{orders: make(map[string][]types.Order)}
}

// Submit rejects orders without an instrument or agent, with a
// non-positive quantity, or with a non-positive or non-finite limit price.
// Orders without an id get one.
func (b *Book) Submit(ctx context.Context, o types.Order) error {
	if err := validate(o); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	notional := decimal.NewFromFloat(o.LimitPrice).Mul(decimal.NewFromInt(int64(o.Quantity)))
	switch o.Side {
	case types.SideBuy:
		b.buy = b.buy.Add(notional)
	case types.SideSell:
		b.sell = b.sell.Add(notional)
	}
	b.orders[o.Instrument] = append(b.orders[o.Instrument], o)

	logger.Order(ctx, o.Agent, o.Instrument, o.Side.String(), o.Quantity, o.LimitPrice, o.ID,
		"tick", b.tick,
		"notional", notional.StringFixed(2),
	)
	return nil
}

func validate(o types.Order) error {
	switch {
	case o.Instrument == "":
		return fmt.Errorf("%w: empty instrument", ErrInvalidOrder)
	case o.Agent == "":
		return fmt.Errorf("%w: empty agent", ErrInvalidOrder)
	case o.Side != types.SideBuy && o.Side != types.SideSell:
		return fmt.Errorf("%w: side %d", ErrInvalidOrder, o.Side)
	case o.Quantity <= 0:
		return fmt.Errorf("%w: quantity %d", ErrInvalidOrder, o.Quantity)
	case !(o.LimitPrice > 0) || math.IsInf(o.LimitPrice, 0):
		return fmt.Errorf("%w: limit price %v", ErrInvalidOrder, o.LimitPrice)
	}
	return nil
}

// Side returns the recorded orders of instrument on one side in arrival
// order.
func (b *Book) Side(instrument string, side types.Side) []types.Order {
	var out []types.Order
	for _, o := range b.orders[instrument] {
		if o.Side == side {
			out = append(out, o)
		}
	}
	return out
}

// Instruments is sorted.
func (b *Book) Instruments() []string {
	return slices.Sorted(maps.Keys(b.orders))
}

func (b *Book) Len() int {
	n := 0
	for _, list := range b.orders {
		n += len(list)
	}
	return n
}

// Summary counts the recorded orders per side.
type Summary struct {
	Buys         int
	Sells        int
	BuyNotional  decimal.Decimal
	SellNotional decimal.Decimal
}

func (b *Book) Summary() Summary {
	s := Summary{BuyNotional: b.buy, SellNotional: b.sell}
	for _, name := range b.Instruments() {
		s.Buys += len(b.Side(name, types.SideBuy))
		s.Sells += len(b.Side(name, types.SideSell))
	}
	return s
}

// Reset clears the book for the next tick.
func (b *Book) Reset(tick int) {
	clear(b.orders)
	b.buy = decimal.Zero
	b.sell = decimal.Zero
	b.tick = int64(tick)
}
