package notifications

import "time"

// Severity indicates the importance of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// NotificationType categorises the pipeline outcome that triggered the
// notification.
type NotificationType string

const (
	TypeEscalation       NotificationType = "escalation"
	TypeLowConfidence    NotificationType = "low_confidence"
	TypeDecisionComplete NotificationType = "decision_complete"
	TypeCustomerNotice   NotificationType = "customer_notice"
)

// Notification is a single outcome notification record.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Severity  Severity         `json:"severity"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Category  string           `json:"category"`
	RecordID  string           `json:"record_id"`
	Delivered bool             `json:"delivered"`
	CreatedAt time.Time        `json:"created_at"`
}

// Subscriber is a webhook endpoint that receives notifications at or
// above its severity filter.
type Subscriber struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	WebhookURL     string   `json:"webhook_url"`
	SeverityFilter Severity `json:"severity_filter"`
}
