package bus

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/event"
)

// EventFunc handles one decoded document event.
type EventFunc func(ctx context.Context, ev event.DocumentEvent) error

// retryPause spaces out reconnect attempts when the broker is unreachable
// or a consumer session ends abnormally.
const retryPause = time.Second

// Consumer runs the ingestion loop over the document events topic.
type Consumer struct {
	broker *Broker
	topic  string
	logger zerolog.Logger
}

func NewConsumer(broker *Broker, topic string, logger zerolog.Logger) *Consumer {
	return &Consumer{broker: broker, topic: topic, logger: logger}
}

// Run consumes document events until ctx is cancelled. The loop outlives
// every broker failure: an unreachable broker is retried after a pause, and
// Consume returns on every rebalance, so it is called in a loop with
// transient session errors logged and retried the same way.
func (c *Consumer) Run(ctx context.Context, handle EventFunc) error {
	handler := newEventHandler(c.logger, handle)

	for {
		group, err := c.broker.group()
		if err != nil {
			c.logger.Error().Err(err).Str("topic", c.topic).Msg("event bus unavailable, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryPause):
			}
			continue
		}

		if err := group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error().Err(err).Str("topic", c.topic).Msg("consumer session ended with error")
			if ctx.Err() != nil {
				return ctx.Err()
			}

			// A failed session can leave the handles broken; rebuild them
			// before the next pass.
			if rerr := c.broker.Reconnect(); rerr != nil {
				c.logger.Warn().Err(rerr).Msg("event bus reconnect failed")
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryPause):
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// eventHandler is the sarama consumer group handler. A bad message never
// stalls the partition: decode failures and handler failures are both logged,
// marked and skipped.
type eventHandler struct {
	logger zerolog.Logger
	handle EventFunc
}

func newEventHandler(logger zerolog.Logger, handle EventFunc) *eventHandler {
	return &eventHandler{logger: logger, handle: handle}
}

func (h *eventHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *eventHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *eventHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ev, err := event.ParseDocumentEvent(msg.Value)
		if err != nil {
			h.logger.Warn().
				Err(err).
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("skipping malformed document event")
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.handle(sess.Context(), *ev); err != nil {
			h.logger.Error().
				Err(err).
				Str("document_id", string(ev.DocumentID)).
				Int64("offset", msg.Offset).
				Msg("document event handler failed")
			sess.MarkMessage(msg, "")
			continue
		}

		h.logger.Info().
			Str("document_id", string(ev.DocumentID)).
			Int64("offset", msg.Offset).
			Msg("processed document event")
		sess.MarkMessage(msg, "")
	}
	return nil
}
