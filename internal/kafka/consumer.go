package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"salgados/internal/audit"
)

// ConsumerGroupHandler decodes audit records and passes them to Handle.
// Undecodable messages are logged and skipped.
type ConsumerGroupHandler struct {
	Handle func(audit.Record)
}

func (ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.handleMessage(msg)
		session.MarkMessage(msg, "")
	}
	return nil
}

func (h ConsumerGroupHandler) handleMessage(msg *sarama.ConsumerMessage) {
	rec, err := audit.Decode(msg.Value)
	if err != nil {
		log.Printf("Skipping message topic=%s partition=%d offset=%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
		return
	}
	if h.Handle != nil {
		h.Handle(rec)
	}
}

// StartConsumer consumes topics until ctx is cancelled.
func StartConsumer(ctx context.Context, cfg *sarama.Config, brokers []string, groupID string, topics []string, handler ConsumerGroupHandler) error {
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() {
		if err := consumerGroup.Close(); err != nil {
			log.Printf("Error closing consumer group: %v", err)
		}
	}()

	for {
		if err := consumerGroup.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.Printf("Error from consumer: %v", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
