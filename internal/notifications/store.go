package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Fatal777/invoisaic/internal/db"
)

// Store provides persistence for notifications and webhook subscribers.
type Store struct {
	db *db.DB
}

// NewStore creates a new notification store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a notification. If ID is empty, a new UUID is generated.
func (s *Store) Create(ctx context.Context, n Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	delivered := 0
	if n.Delivered {
		delivered = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, severity, title, message, category, record_id, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Type), string(n.Severity), n.Title, n.Message,
		n.Category, n.RecordID, delivered,
		n.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return "", fmt.Errorf("inserting notification: %w", err)
	}
	return n.ID, nil
}

// MarkDelivered flags a notification as delivered.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET delivered = 1 WHERE id = ?`, id)
	return err
}

// List returns the most recent notifications, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, severity, title, message, category, record_id, delivered, created_at
		FROM notifications ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var results []Notification
	for rows.Next() {
		var n Notification
		var typ, severity, createdAt string
		var delivered int
		if err := rows.Scan(&n.ID, &typ, &severity, &n.Title, &n.Message,
			&n.Category, &n.RecordID, &delivered, &createdAt); err != nil {
			return nil, err
		}
		n.Type = NotificationType(typ)
		n.Severity = Severity(severity)
		n.Delivered = delivered != 0
		if t, err := time.Parse(time.DateTime, createdAt); err == nil {
			n.CreatedAt = t
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// AddSubscriber registers a webhook subscriber.
func (s *Store) AddSubscriber(ctx context.Context, sub Subscriber) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SeverityFilter == "" {
		sub.SeverityFilter = SeverityInfo
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_subscribers (id, name, webhook_url, severity_filter)
		VALUES (?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.WebhookURL, string(sub.SeverityFilter),
	)
	if err != nil {
		return "", fmt.Errorf("inserting subscriber: %w", err)
	}
	return sub.ID, nil
}

// Subscribers returns all registered webhook subscribers.
func (s *Store) Subscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, webhook_url, severity_filter FROM notification_subscribers`)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer rows.Close()

	var results []Subscriber
	for rows.Next() {
		var sub Subscriber
		var filter string
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.WebhookURL, &filter); err != nil {
			return nil, err
		}
		sub.SeverityFilter = Severity(filter)
		results = append(results, sub)
	}
	return results, rows.Err()
}
