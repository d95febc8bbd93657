package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/models"

	"github.com/google/uuid"
)

// NotificationService delivers outbound notifications and consumes the
// in-process message bus so feature code only has to publish.
type NotificationService interface {
	SendNotification(ctx context.Context, notification *models.Notification) error
	SendEmail(ctx context.Context, recipient, subject, body string) error
	SendSMS(ctx context.Context, recipient, message string) error
	SendWebhook(ctx context.Context, subscription *models.WebhookSubscription, payload map[string]interface{}) error

	// Webhook subscription management
	RegisterWebhook(subscription *models.WebhookSubscription) error
	RemoveWebhook(subscriptionID string)
	ListWebhooks() []*models.WebhookSubscription

	// BindBus attaches the service to the application bus. Every published
	// show_notification is fanned out to matching webhook subscribers.
	BindBus(b *bus.Bus) (unsubscribe func())
}

type notificationService struct {
	httpClient *http.Client

	mu       sync.RWMutex
	webhooks map[string]*models.WebhookSubscription
}

// NewNotificationService creates a new notification service
func NewNotificationService() NotificationService {
	return &notificationService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		webhooks:   make(map[string]*models.WebhookSubscription),
	}
}

func (s *notificationService) BindBus(b *bus.Bus) (unsubscribe func()) {
	return b.Subscribe(bus.KindShowNotification, func(m bus.Message) {
		sn, ok := m.(bus.ShowNotification)
		if !ok {
			return
		}
		payload := map[string]interface{}{
			"type":      "show_notification",
			"severity":  string(sn.Severity),
			"text":      sn.Text,
			"timestamp": time.Now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, sub := range s.matchingWebhooks("show_notification") {
			if err := s.SendWebhook(ctx, sub, payload); err != nil {
				log.Printf("notification: webhook %s delivery failed: %v", sub.ID, err)
			}
		}
	})
}

// SendNotification sends a notification via the configured channel
func (s *notificationService) SendNotification(ctx context.Context, notification *models.Notification) error {
	switch notification.Type {
	case models.NotificationTypeEmail:
		subject := ""
		if notification.Subject != nil {
			subject = *notification.Subject
		}
		return s.SendEmail(ctx, notification.Recipient, subject, notification.Body)
	case models.NotificationTypeSMS:
		return s.SendSMS(ctx, notification.Recipient, notification.Body)
	case models.NotificationTypeWebhook:
		// For webhook, recipient is treated as webhook subscription ID
		s.mu.RLock()
		subscription, ok := s.webhooks[notification.Recipient]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("webhook subscription %s not found", notification.Recipient)
		}
		payload := map[string]interface{}{
			"type":      notification.EventType,
			"event_id":  notification.EventID,
			"subject":   notification.Subject,
			"body":      notification.Body,
			"timestamp": time.Now(),
		}
		return s.SendWebhook(ctx, subscription, payload)
	default:
		return fmt.Errorf("unsupported notification type: %s", notification.Type)
	}
}

// SendEmail sends an email notification (placeholder implementation)
func (s *notificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// TODO: integrate with the email provider once ops picks one
	log.Printf("[EMAIL] To=%s, Subject=%s, Body=%s", recipient, subject, body)
	return nil
}

// SendSMS sends an SMS notification (placeholder implementation)
func (s *notificationService) SendSMS(ctx context.Context, recipient, message string) error {
	log.Printf("[SMS] To=%s, Message=%s", recipient, message)
	return nil
}

// SendWebhook delivers a payload to an external endpoint.
func (s *notificationService) SendWebhook(ctx context.Context, subscription *models.WebhookSubscription, payload map[string]interface{}) error {
	if !subscription.IsActive {
		return fmt.Errorf("webhook subscription %s is inactive", subscription.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, subscription.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	now := time.Now()
	s.mu.Lock()
	subscription.LastUsedAt = &now
	s.mu.Unlock()
	return nil
}

func (s *notificationService) RegisterWebhook(subscription *models.WebhookSubscription) error {
	if subscription.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	subscription.IsActive = true
	subscription.CreatedAt = time.Now()
	subscription.UpdatedAt = subscription.CreatedAt

	s.mu.Lock()
	s.webhooks[subscription.ID] = subscription
	s.mu.Unlock()
	return nil
}

func (s *notificationService) RemoveWebhook(subscriptionID string) {
	s.mu.Lock()
	delete(s.webhooks, subscriptionID)
	s.mu.Unlock()
}

func (s *notificationService) ListWebhooks() []*models.WebhookSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]*models.WebhookSubscription, 0, len(s.webhooks))
	for _, sub := range s.webhooks {
		subs = append(subs, sub)
	}
	return subs
}

func (s *notificationService) matchingWebhooks(eventType string) []*models.WebhookSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.WebhookSubscription
	for _, sub := range s.webhooks {
		if !sub.IsActive {
			continue
		}
		for _, et := range sub.EventTypes {
			if et == eventType || et == "*" {
				matched = append(matched, sub)
				break
			}
		}
	}
	return matched
}
