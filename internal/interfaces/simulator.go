package interfaces

import (
	"context"

	"agentsim/internal/types"
)

// Simulator advances the whole market by one tick.
type Simulator interface {
	Step(ctx context.Context, tick int) (*types.TickResult, error)
}
