package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestChannelBusDeliversToSubscriber(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var mu sync.Mutex
	var received []Event
	_, err := b.Subscribe(TopicEscalation, func(ctx context.Context, ev Event) {
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish(context.Background(), TopicEscalation, []byte(`{"score":92}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if received[0].Topic != TopicEscalation {
		t.Errorf("unexpected topic %q", received[0].Topic)
	}
	if string(received[0].Payload) != `{"score":92}` {
		t.Errorf("unexpected payload %q", received[0].Payload)
	}
	if received[0].ID == "" {
		t.Error("expected event ID")
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var mu sync.Mutex
	count := 0
	b.Subscribe(TopicDecisionCompleted, func(ctx context.Context, ev Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	b.Publish(context.Background(), TopicEscalation, []byte("x"))
	b.Publish(context.Background(), TopicDecisionCompleted, []byte("y"))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})
}

func TestChannelBusUnsubscribe(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var mu sync.Mutex
	count := 0
	unsub, _ := b.Subscribe(TopicCustomerNotify, func(ctx context.Context, ev Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	b.Publish(context.Background(), TopicCustomerNotify, []byte("one"))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})

	unsub()
	b.Publish(context.Background(), TopicCustomerNotify, []byte("two"))

	// Give the dispatcher a moment; count must stay at 1.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestChannelBusClosedPublishFails(t *testing.T) {
	b := NewChannelBus(16)
	b.Close()

	if err := b.Publish(context.Background(), TopicEscalation, []byte("x")); err == nil {
		t.Error("expected error publishing to closed bus")
	}
	if _, err := b.Subscribe(TopicEscalation, func(ctx context.Context, ev Event) {}); err == nil {
		t.Error("expected error subscribing to closed bus")
	}
}
