package bus

import (
	"context"
	"fmt"
	"sync"
)

// ChannelBus is an in-process Bus backed by a buffered channel and a
// single dispatcher goroutine. Suitable for single-node deployments.
type ChannelBus struct {
	mu       sync.RWMutex
	handlers map[string]map[int]Handler
	nextID   int
	events   chan Event
	done     chan struct{}
	closed   bool
}

// NewChannelBus creates a channel bus with the given delivery buffer.
func NewChannelBus(bufferSize int) *ChannelBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	b := &ChannelBus{
		handlers: make(map[string]map[int]Handler),
		events:   make(chan Event, bufferSize),
		done:     make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *ChannelBus) dispatch() {
	for {
		select {
		case ev := <-b.events:
			b.mu.RLock()
			subs := make([]Handler, 0, len(b.handlers[ev.Topic]))
			for _, h := range b.handlers[ev.Topic] {
				subs = append(subs, h)
			}
			b.mu.RUnlock()

			for _, h := range subs {
				h(context.Background(), ev)
			}
		case <-b.done:
			return
		}
	}
}

func (b *ChannelBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return fmt.Errorf("bus is closed")
	}

	select {
	case b.events <- newEvent(topic, payload):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *ChannelBus) Subscribe(topic string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}, nil
}

func (b *ChannelBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}
