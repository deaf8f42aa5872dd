package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/event"
)

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "test-member" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}
func (s *fakeSession) Context() context.Context { return s.ctx }

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "document_events" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func claimWith(values ...[]byte) *fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for i, v := range values {
		ch <- &sarama.ConsumerMessage{
			Topic:     "document_events",
			Partition: 0,
			Offset:    int64(i),
			Value:     v,
		}
	}
	close(ch)
	return &fakeClaim{messages: ch}
}

func TestConsumeClaimSkipsMalformedMessages(t *testing.T) {
	t.Parallel()

	var handled []string
	handler := newEventHandler(zerolog.Nop(), func(_ context.Context, ev event.DocumentEvent) error {
		handled = append(handled, string(ev.DocumentID))
		return nil
	})

	sess := &fakeSession{ctx: context.Background()}
	claim := claimWith(
		[]byte(`{"documentId": "1", "titleEn": "First"}`),
		[]byte(`not json at all`),
		[]byte(`{"documentId": "2"}`),
		[]byte(`{"documentId": "3", "titleEn": "Third"}`),
	)

	if err := handler.ConsumeClaim(sess, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(handled) != 2 || handled[0] != "1" || handled[1] != "3" {
		t.Fatalf("handled = %v, want valid events only", handled)
	}
	if len(sess.marked) != 4 {
		t.Fatalf("marked %d offsets, want all 4 (malformed included)", len(sess.marked))
	}
}

func TestConsumeClaimContinuesAfterHandlerError(t *testing.T) {
	t.Parallel()

	var handled []string
	handler := newEventHandler(zerolog.Nop(), func(_ context.Context, ev event.DocumentEvent) error {
		handled = append(handled, string(ev.DocumentID))
		if ev.DocumentID == "2" {
			return errors.New("pipeline failure")
		}
		return nil
	})

	sess := &fakeSession{ctx: context.Background()}
	claim := claimWith(
		[]byte(`{"documentId": "1", "titleEn": "First"}`),
		[]byte(`{"documentId": "2", "titleEn": "Second"}`),
		[]byte(`{"documentId": "3", "titleEn": "Third"}`),
	)

	if err := handler.ConsumeClaim(sess, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(handled) != 3 {
		t.Fatalf("handled %d events, want 3 (loop must survive handler errors)", len(handled))
	}
	if len(sess.marked) != 3 {
		t.Fatalf("marked %d offsets, want 3 (failed message still marked)", len(sess.marked))
	}
}

type fakeProducer struct {
	closed bool
}

func (p *fakeProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) { return 0, 0, nil }
func (p *fakeProducer) SendMessages([]*sarama.ProducerMessage) error              { return nil }
func (p *fakeProducer) Close() error                                              { p.closed = true; return nil }
func (p *fakeProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnFlagReady
}
func (p *fakeProducer) IsTransactional() bool { return false }
func (p *fakeProducer) BeginTxn() error       { return nil }
func (p *fakeProducer) CommitTxn() error      { return nil }
func (p *fakeProducer) AbortTxn() error       { return nil }
func (p *fakeProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return nil
}
func (p *fakeProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error { return nil }

type fakeGroup struct {
	consumeErr error
	consumed   int
	closed     bool
}

func (g *fakeGroup) Consume(context.Context, []string, sarama.ConsumerGroupHandler) error {
	g.consumed++
	return g.consumeErr
}
func (g *fakeGroup) Errors() <-chan error      { return nil }
func (g *fakeGroup) Close() error              { g.closed = true; return nil }
func (g *fakeGroup) Pause(map[string][]int32)  {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll()                 {}
func (g *fakeGroup) ResumeAll()                {}

func TestRunSurvivesUnreachableBroker(t *testing.T) {
	t.Parallel()

	broker := NewBroker([]string{"127.0.0.1:1"}, "test-client", "test-group", zerolog.Nop())
	consumer := NewConsumer(broker, "document_events", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, func(context.Context, event.DocumentEvent) error { return nil })
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run returned %v, want context deadline: the loop must outlive connect failures", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Run did not return after ctx cancellation")
	}
}

func TestRunRebuildsHandlesAfterSessionError(t *testing.T) {
	t.Parallel()

	broker := NewBroker([]string{"127.0.0.1:1"}, "test-client", "test-group", zerolog.Nop())
	producer := &fakeProducer{}
	group := &fakeGroup{consumeErr: errors.New("session torn down")}
	broker.producer = producer
	broker.consumerGroup = group

	consumer := NewConsumer(broker, "document_events", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, func(context.Context, event.DocumentEvent) error { return nil })
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run returned %v, want context deadline", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Run did not return after ctx cancellation")
	}

	if group.consumed == 0 {
		t.Fatal("injected consumer group was never used")
	}
	if !group.closed || !producer.closed {
		t.Fatalf("stale handles not rebuilt after session error: group closed=%v producer closed=%v",
			group.closed, producer.closed)
	}
}

func TestConsumeClaimAcceptsNumericDocumentID(t *testing.T) {
	t.Parallel()

	var handled []string
	handler := newEventHandler(zerolog.Nop(), func(_ context.Context, ev event.DocumentEvent) error {
		handled = append(handled, string(ev.DocumentID))
		return nil
	})

	sess := &fakeSession{ctx: context.Background()}
	claim := claimWith([]byte(`{"documentId": 42, "titleEn": "Answer"}`))

	if err := handler.ConsumeClaim(sess, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(handled) != 1 || handled[0] != "42" {
		t.Fatalf("handled = %v, want [42]", handled)
	}
}
