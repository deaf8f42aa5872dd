package bus

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/docrelay/docrelay/internal/event"
)

// Publisher is the asynchronous delivery channel: translation results are
// published to the results topic, keyed by document so repeated deliveries
// for one document stay ordered.
type Publisher struct {
	broker *Broker
	topic  string
}

func NewPublisher(broker *Broker, topic string) *Publisher {
	return &Publisher{broker: broker, topic: topic}
}

func (p *Publisher) PublishTranslationResult(result event.TranslationResult) error {
	producer, err := p.broker.syncProducer()
	if err != nil {
		return err
	}

	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal translation result: %w", err)
	}

	partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(result.DocID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish translation result for document %s: %w", result.DocID, err)
	}

	p.broker.logger.Debug().
		Str("topic", p.topic).
		Str("document_id", string(result.DocID)).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("published translation result")
	return nil
}
