// Package kafka publishes ledger events to a Kafka topic as JSON.
//
// Register a Publisher as a plugin. Messages are keyed by ledger ID so a
// ledger's events land on one partition in the order they happened.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/receipt"
)

// DefaultTopic receives every event unless WithTopic overrides it.
const DefaultTopic = "fundme.events"

// Event types.
const (
	TypeContributionAccepted = "contribution.accepted"
	TypeWithdrawalCompleted  = "withdrawal.completed"
)

var (
	_ plugin.Plugin                 = (*Publisher)(nil)
	_ plugin.OnContributionAccepted = (*Publisher)(nil)
	_ plugin.OnWithdrawal           = (*Publisher)(nil)
	_ plugin.OnShutdown             = (*Publisher)(nil)
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the envelope written to the topic.
type Event struct {
	ID         id.EventID      `json:"id"`
	Type       string          `json:"type"`
	LedgerID   id.LedgerID     `json:"ledger_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Publisher writes ContributionAccepted and WithdrawalCompleted events.
type Publisher struct {
	writer MessageWriter
	topic  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic sets the topic written to by NewPublisher.
func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

// NewPublisher creates a publisher writing to brokers.
func NewPublisher(brokers []string, opts ...Option) *Publisher {
	p := &Publisher{topic: DefaultTopic}
	for _, opt := range opts {
		opt(p)
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        p.topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return p
}

// NewWithWriter creates a publisher on an existing writer. The writer
// decides the topic.
func NewWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-events" }

// OnContributionAccepted implements plugin.OnContributionAccepted.
func (p *Publisher) OnContributionAccepted(ctx context.Context, c *receipt.Contribution) error {
	return p.publish(ctx, TypeContributionAccepted, c.LedgerID, c.CreatedAt, c)
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (p *Publisher) OnWithdrawal(ctx context.Context, w *receipt.Withdrawal) error {
	return p.publish(ctx, TypeWithdrawalCompleted, w.LedgerID, w.CreatedAt, w)
}

// OnShutdown implements plugin.OnShutdown by closing the writer.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, eventType string, ledgerID id.LedgerID, at time.Time, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", eventType, err)
	}
	evt := Event{
		ID:         id.NewEventID(),
		Type:       eventType,
		LedgerID:   ledgerID,
		OccurredAt: at,
		Data:       data,
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafka: encode envelope: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ledgerID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(eventType)},
		},
		Time: at,
	})
	if err != nil {
		return fmt.Errorf("kafka: publish %s: %w", eventType, err)
	}
	return nil
}
