package types

import (
	"time"

	"github.com/google/uuid"
)

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Order is a value object; copies handed to the book cannot alter the issuer's view.
type Order struct {
	ID         string  `json:"id"`
	Side       Side    `json:"side"`
	Agent      string  `json:"agent"`
	Instrument string  `json:"instrument"`
	LimitPrice float64 `json:"limit_price"`
	Quantity   int     `json:"quantity"`
	// ExpectedPrice is the issuer's noisy price expectation at decision time.
	// Informational only, the book never reads it.
	ExpectedPrice float64 `json:"expected_price,omitempty"`
	Time          int64   `json:"time"`
}

// NewOrder builds a fully populated order with a fresh id.
func NewOrder(side Side, agent, instrument string, limitPrice float64, qty int) Order {
	return Order{
		ID:         uuid.NewString(),
		Side:       side,
		Agent:      agent,
		Instrument: instrument,
		LimitPrice: limitPrice,
		Quantity:   qty,
		Time:       time.Now().UnixNano(),
	}
}

// Notional is price times quantity.
func (o Order) Notional() float64 {
	return o.LimitPrice * float64(o.Quantity)
}

type Fund struct {
	Name         string  `json:"name" yaml:"name"`
	UnitPrice    float64 `json:"unit_price" yaml:"unit_price"`
	MonthlyYield float64 `json:"monthly_yield" yaml:"monthly_yield"`
}

// Dividend is the cash paid on units for one period.
func (f Fund) Dividend(units int) float64 {
	if units <= 0 {
		return 0
	}
	return float64(units) * f.UnitPrice * f.MonthlyYield
}

// TickResult summarizes one tick. Rejected counts orders the book refused
// and Skipped counts batch decisions that never produced an order.
// MarketValue prices the units every agent holds and leaves cash out,
// TotalNetWorth adds cash back in.
type TickResult struct {
	Tick          int                `json:"tick"`
	Inflation     float64            `json:"inflation"`
	Prices        map[string]float64 `json:"prices"`
	Submitted     int                `json:"submitted"`
	Rejected      int                `json:"rejected"`
	Skipped       int                `json:"skipped"`
	Buys          int                `json:"buys"`
	Sells         int                `json:"sells"`
	MeanSentiment float64            `json:"mean_sentiment"`
	MarketValue   float64            `json:"market_value"`
	TotalNetWorth float64            `json:"total_net_worth"`
	BuyNotional   string             `json:"buy_notional"`
	SellNotional  string             `json:"sell_notional"`
}

// DecisionSummary counts the outcome of one batch decision pass.
type DecisionSummary struct {
	Submitted int `json:"submitted"`
	Rejected  int `json:"rejected"`
	Abstained int `json:"abstained"`
	Skipped   int `json:"skipped"`
	Buys      int `json:"buys"`
	Sells     int `json:"sells"`
}
