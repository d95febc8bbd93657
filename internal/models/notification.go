package models

import "time"

// NotificationType selects the outbound delivery channel.
type NotificationType string

const (
	NotificationTypeEmail   NotificationType = "email"
	NotificationTypeSMS     NotificationType = "sms"
	NotificationTypeWebhook NotificationType = "webhook"
)

// Notification is an outbound message queued by the notification service.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Recipient string           `json:"recipient"`
	Subject   *string          `json:"subject,omitempty"`
	Body      string           `json:"body"`
	EventType string           `json:"event_type"`
	EventID   string           `json:"event_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// WebhookSubscription registers an external endpoint for event delivery.
type WebhookSubscription struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	EventTypes []string   `json:"event_types"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
