package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher hands oracle updates to whatever submits them on chain.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes updates as JSON, keyed by business address so every
// update for one business lands on the same partition.
type KafkaPublisher struct {
	w     messageWriter
	topic string
	log   zerolog.Logger
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, topic, log), nil
}

func newKafkaPublisher(w messageWriter, topic string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w:     w,
		topic: topic,
		log:   log.With().Str("component", "oracle").Str("topic", topic).Logger(),
	}
}

// Publish validates and writes one update.
func (p *KafkaPublisher) Publish(ctx context.Context, u Update) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("publish oracle update: %w", err)
	}
	value, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode oracle update: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(u.Business),
		Value: value,
		Time:  u.Timestamp,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish oracle update: %w", err)
	}
	p.log.Info().Str("business", u.Business).Int64("mrr", u.MRR).Msg("oracle update published")
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// LogPublisher only logs updates. It is used when no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "oracle").Logger()}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(_ context.Context, u Update) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("publish oracle update: %w", err)
	}
	p.log.Info().
		Str("business", u.Business).
		Int64("mrr", u.MRR).
		Str("mrr_usdc", FromBaseUnits(u.MRR)).
		Int("customers", u.Customers).
		Int("churn", u.Churn).
		Msg("oracle update (not submitted)")
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }
