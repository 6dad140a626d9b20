package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev usecase.FulfillmentStatusMsg) error

// Consumer consumes fulfillment topics with a single handler.
type Consumer struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Logger *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle: h,
		Logger: logging.New("kafka-consumer"),
	}
}

// Start blocks until ctx is cancelled or the group is closed.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Error("consumer group error", "error", err)
		}
	}()

	handler := &cgHandler{handle: c.Handle, logger: c.Logger, retryDelay: time.Second}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// Consume returns on rebalance, cancellation or a failed claim.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle     HandlerFunc
	logger     *slog.Logger
	retryDelay time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim stops at the first handler failure without marking it.
// Offsets commit cumulatively, so marking any later message would skip the
// failed one. Returning ends the session; the next Consume resumes from the
// failed offset.
func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		l := h.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

		var ev usecase.FulfillmentStatusMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			l.Warn("kafka decode error", "error", err)
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handle(logging.WithCtx(sess.Context(), l), ev); err != nil {
			l.Error("handler error", "error", err, "key", string(msg.Key))
			select {
			case <-sess.Context().Done():
			case <-time.After(h.retryDelay):
			}
			return fmt.Errorf("offset %d of %s/%d: %w", msg.Offset, msg.Topic, msg.Partition, err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
