package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"

	"github.com/segmentio/kafka-go"
)

var (
	_ adapters.HistoryPublisher = (*HistoryPublisher)(nil)
	_ adapters.HistoryPublisher = NoopPublisher{}
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HistoryPublisher emits every newly recorded rate observation to a topic,
// keyed by pair so consumers see a pair's observations in order.
type HistoryPublisher struct {
	writer messageWriter
}

func NewHistoryPublisher(brokers []string, topic string) *HistoryPublisher {
	return &HistoryPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *HistoryPublisher) Publish(ctx context.Context, records []domain.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		v, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal history record %s: %w", r.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.FromCurrency + "_" + r.ToCurrency),
			Value: v,
			Time:  r.Timestamp,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d history messages: %w", len(msgs), err)
	}
	return nil
}

func (p *HistoryPublisher) Close() error { return p.writer.Close() }

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, []domain.HistoryRecord) error { return nil }
