package bus

import (
	"context"

	"github.com/MINHYEOKJEON99/mat-we/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, event realtime.MessageInserted) error
	StartForwarder(ctx context.Context, onEvent func(event realtime.MessageInserted)) error
	Close() error
}
