package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes one message per fill, keyed by symbol so a symbol's
// fills stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, fills []FillEvent) error {
	if len(fills) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(fills))
	for _, f := range fills {
		val, err := f.Marshal()
		if err != nil {
			return fmt.Errorf("marshal fill %s: %w", f.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(f.Symbol),
			Value: val,
			Time:  time.UnixMilli(f.Timestamp),
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
