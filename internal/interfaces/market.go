package interfaces

import "agentsim/internal/types"

// Market is the read side of the market container.
type Market interface {
	Instruments() []string
	Price(instrument string) (float64, bool)
	History(instrument string) []float64
	Prices() map[string]float64
	Funds() map[string]types.Fund
}
