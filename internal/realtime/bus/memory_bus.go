package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/MINHYEOKJEON99/mat-we/internal/realtime"
)

// memoryBus fans events out to in-process forwarders. Used when no Redis
// address is configured.
type memoryBus struct {
	mu       sync.RWMutex
	handlers map[int]func(realtime.MessageInserted)
	nextID   int
	closed   bool
}

func NewMemoryBus() Bus {
	return &memoryBus{handlers: make(map[int]func(realtime.MessageInserted))}
}

func (b *memoryBus) Publish(ctx context.Context, event realtime.MessageInserted) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	for _, handler := range b.handlers {
		handler(event)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(event realtime.MessageInserted)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory bus closed")
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[int]func(realtime.MessageInserted))
	return nil
}
