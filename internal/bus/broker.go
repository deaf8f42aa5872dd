package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// Broker owns the Kafka producer and consumer group handles. Handles are
// created lazily and can be dropped and rebuilt at runtime, which is what the
// retry-connections endpoint leans on.
type Broker struct {
	brokers  []string
	clientID string
	groupID  string
	logger   zerolog.Logger

	mu            sync.Mutex
	producer      sarama.SyncProducer
	consumerGroup sarama.ConsumerGroup
}

func NewBroker(brokers []string, clientID, groupID string, logger zerolog.Logger) *Broker {
	return &Broker{
		brokers:  brokers,
		clientID: clientID,
		groupID:  groupID,
		logger:   logger,
	}
}

// Configured reports whether bootstrap servers were provided.
func (b *Broker) Configured() bool {
	return b != nil && len(b.brokers) > 0
}

func (b *Broker) producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = b.clientID
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func (b *Broker) consumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = b.clientID
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	cfg.Consumer.Offsets.AutoCommit.Interval = time.Second
	cfg.Consumer.Group.Session.Timeout = 20 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 6 * time.Second
	return cfg
}

// Connect establishes the producer and consumer group handles if they do not
// exist yet.
func (b *Broker) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked()
}

func (b *Broker) connectLocked() error {
	if !b.Configured() {
		return fmt.Errorf("kafka bootstrap servers are not configured")
	}
	if b.producer == nil {
		producer, err := sarama.NewSyncProducer(b.brokers, b.producerConfig())
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		b.producer = producer
	}
	if b.consumerGroup == nil {
		group, err := sarama.NewConsumerGroup(b.brokers, b.groupID, b.consumerConfig())
		if err != nil {
			return fmt.Errorf("create kafka consumer group: %w", err)
		}
		b.consumerGroup = group
	}
	return nil
}

// Probe is the lifecycle manager's connectivity check.
func (b *Broker) Probe(_ context.Context) error {
	return b.Connect()
}

// Reconnect drops both handles and builds fresh ones.
func (b *Broker) Reconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
	return b.connectLocked()
}

// Close releases the producer and consumer group.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Broker) closeLocked() {
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("closing kafka producer")
		}
		b.producer = nil
	}
	if b.consumerGroup != nil {
		if err := b.consumerGroup.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("closing kafka consumer group")
		}
		b.consumerGroup = nil
	}
}

func (b *Broker) syncProducer() (sarama.SyncProducer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}
	return b.producer, nil
}

func (b *Broker) group() (sarama.ConsumerGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}
	return b.consumerGroup, nil
}
