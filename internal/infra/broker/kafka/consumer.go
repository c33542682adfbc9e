package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

// MessageHandler processes one consumed record. Returning an error leaves
// the offset unmarked so the record is redelivered after a rebalance.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer wraps a sarama consumer group around a single MessageHandler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, handler: handler}, nil
}

// Run blocks consuming topics until ctx is cancelled. Consume returns on
// every group rebalance, so it runs in a loop.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	sessions := groupSession{handler: c.handler}
	for ctx.Err() == nil {
		if err := c.group.Consume(ctx, topics, sessions); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *Consumer) Close() error { return c.group.Close() }

type groupSession struct {
	handler MessageHandler
}

func (groupSession) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupSession) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (s groupSession) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := s.handler.Handle(sess.Context(), msg); err != nil {
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
