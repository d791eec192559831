package interfaces

import (
	"context"

	"agentsim/internal/types"
)

type OrderBook interface {
	Submit(ctx context.Context, o types.Order) error
}
