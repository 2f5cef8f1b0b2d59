package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"mailreach/internal/models"
)

// CampaignEvent is the push-side view of a campaign's progress counter.
// Events mirror the durable counter; they never replace it, so a lost
// event costs nothing more than one missed notification.
type CampaignEvent struct {
	CampaignID int                   `json:"campaign_id"`
	Status     models.CampaignStatus `json:"status"`
	Sent       int                   `json:"sent"`
	Total      int                   `json:"total"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// EventPublisher publishes campaign lifecycle and progress events
type EventPublisher struct {
	conn      *Connection
	queueName string
}

// NewEventPublisher declares the event queue and returns a publisher
func NewEventPublisher(conn *Connection, queueName string) (*EventPublisher, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &EventPublisher{
		conn:      conn,
		queueName: queueName,
	}, nil
}

// Publish sends one campaign event
func (p *EventPublisher) Publish(event CampaignEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Publish(
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish campaign event: %w", err)
	}

	return nil
}

// IsConnected reports whether the underlying connection is alive
func (p *EventPublisher) IsConnected() bool {
	return p.conn.IsConnected()
}
