package xdomain

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"metaregistry/internal/domain"
)

// Consumer pulls cross-domain messages off a kafka topic and feeds them to
// the receiver. Rejections are logged and counted, never fatal to the loop;
// the broker's at-least-once redelivery is safe because of the receiver's
// dedup.
type Consumer struct {
	client   *kgo.Client
	receiver *Receiver
	log      *slog.Logger
}

func NewConsumer(brokers []string, topic, group string, receiver *Receiver, log *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, receiver: receiver, log: log}, nil
}

// Run polls until the context is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.log.Warn("kafka fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			var msg domain.CrossDomainMessage
			if err := json.Unmarshal(rec.Value, &msg); err != nil {
				c.log.Warn("malformed cross-domain message", "offset", rec.Offset, "error", err)
				return
			}
			if err := c.receiver.Process(ctx, msg); err != nil {
				// Process already counted and logged the rejection;
				// the offset still advances since replays of a rejected
				// message will be rejected again.
				c.log.Debug("cross-domain message not applied", "message_id", msg.ID, "error", err)
			}
		})
	}
}

// Close tears down the kafka client, which also unblocks Run.
func (c *Consumer) Close() {
	c.client.Close()
}
