package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joy095/spaces/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "spaces.events"

	RoutingBookingConfirmed      = "booking.confirmed"
	RoutingSubscriptionActivated = "subscription.activated"
)

var ErrPublisherClosed = errors.New("event publisher is closed")

// EventPublisher sends domain events to the notification pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// BookingConfirmedEvent is published once per verified booking batch.
type BookingConfirmedEvent struct {
	PaymentID       string    `json:"payment_id"`
	UserID          string    `json:"user_id"`
	SpaceID         string    `json:"space_id"`
	BusinessID      string    `json:"business_id"`
	BookingIDs      []string  `json:"booking_ids"`
	RedemptionCodes []string  `json:"redemption_codes"`
	TotalAmount     string    `json:"total_amount"`
	Currency        string    `json:"currency"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

// SubscriptionActivatedEvent is published when an owner's plan is activated.
type SubscriptionActivatedEvent struct {
	PaymentID    string    `json:"payment_id"`
	OwnerID      string    `json:"owner_id"`
	Plan         string    `json:"plan"`
	BillingCycle string    `json:"billing_cycle"`
	ExpiryDate   time.Time `json:"expiry_date"`
}

// AMQPPublisher publishes persistent JSON messages to a durable topic
// exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	logger.InfoLogger.Infof("Connected to RabbitMQ exchange %s", exchange)
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish marshals event and publishes it with routingKey.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrPublisherClosed
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		logger.ErrorLogger.Errorf("rabbitmq: publish %s failed: %v", routingKey, err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
