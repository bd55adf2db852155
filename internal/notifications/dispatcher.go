package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Fatal777/invoisaic/internal/bus"
)

var severityLevels = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// severityMatches reports whether a notification of the given severity
// clears a subscriber's filter.
func severityMatches(filter, severity Severity) bool {
	return severityLevels[severity] >= severityLevels[filter]
}

// Dispatcher persists notifications and delivers them to webhook
// subscribers.
type Dispatcher struct {
	store  *Store
	client *http.Client
}

// NewDispatcher creates a dispatcher backed by the given store.
func NewDispatcher(store *Store) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Dispatch persists the notification and posts it to every subscriber
// whose severity filter matches. Webhook failures are logged, not
// returned: delivery is best-effort once the record is stored.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (string, error) {
	id, err := d.store.Create(ctx, n)
	if err != nil {
		return "", fmt.Errorf("storing notification: %w", err)
	}
	n.ID = id

	subs, err := d.store.Subscribers(ctx)
	if err != nil {
		log.Printf("notifications: listing subscribers: %v", err)
		return id, nil
	}

	delivered := false
	for _, sub := range subs {
		if !severityMatches(sub.SeverityFilter, n.Severity) {
			continue
		}
		if err := d.postWebhook(ctx, sub.WebhookURL, n); err != nil {
			log.Printf("notifications: webhook %s: %v", sub.Name, err)
			continue
		}
		delivered = true
	}

	if delivered {
		if err := d.store.MarkDelivered(ctx, id); err != nil {
			log.Printf("notifications: marking delivered: %v", err)
		}
	}
	return id, nil
}

func (d *Dispatcher) postWebhook(ctx context.Context, url string, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// escalationEvent mirrors the payload published on the escalation topic.
type escalationEvent struct {
	RecordID   string `json:"record_id"`
	Category   string `json:"category"`
	Action     string `json:"action"`
	Rationale  string `json:"rationale"`
	Confidence int    `json:"confidence"`
	RiskScore  int    `json:"risk_score"`
}

// SubscribeBus wires the dispatcher to the event bus so that escalation
// events become critical notifications. It returns the unsubscribe
// function from the bus.
func (d *Dispatcher) SubscribeBus(b bus.Bus) (func(), error) {
	return b.Subscribe(bus.TopicEscalation, func(ctx context.Context, ev bus.Event) {
		var e escalationEvent
		if err := json.Unmarshal(ev.Payload, &e); err != nil {
			log.Printf("notifications: decoding escalation event: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		_, err := d.Dispatch(ctx, Notification{
			Type:     TypeEscalation,
			Severity: SeverityCritical,
			Title:    fmt.Sprintf("Escalation: %s", e.Category),
			Message:  fmt.Sprintf("%s (confidence %d, risk %d): %s", e.Action, e.Confidence, e.RiskScore, e.Rationale),
			Category: e.Category,
			RecordID: e.RecordID,
		})
		if err != nil {
			log.Printf("notifications: dispatching escalation: %v", err)
		}
	})
}
