package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
)

// Producer enqueues event payloads onto prefixed topics. Delivery is
// fire-and-forget: broker errors are drained and logged, never surfaced to
// the request path that emitted the event.
type Producer struct {
	inner  sarama.AsyncProducer
	logger *zap.Logger
	prefix string
	done   chan struct{}
}

func producerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Version = sarama.V3_5_0_0
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Compression = sarama.CompressionSnappy
	c.Producer.Flush.Frequency = 100 * time.Millisecond
	c.Producer.Flush.Messages = 100
	c.Producer.Retry.Max = 3
	c.Producer.Return.Successes = false
	c.Producer.Return.Errors = true
	c.Metadata.Retry.Max = 3
	c.Metadata.Retry.Backoff = 250 * time.Millisecond
	return c
}

// NewProducer connects to the brokers and starts the error drain.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	inner, err := sarama.NewAsyncProducer(cfg.Brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		inner:  inner,
		logger: logger,
		prefix: cfg.TopicPrefix,
		done:   make(chan struct{}),
	}
	go p.drainErrors()

	logger.Info("kafka producer connected",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)
	return p, nil
}

// Send enqueues a payload on the event type's topic. It blocks only when the
// producer's buffer is full, and then respects ctx cancellation.
func (p *Producer) Send(ctx context.Context, eventType string, payload []byte) error {
	message := &sarama.ProducerMessage{
		Topic: p.topicFor(eventType),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case p.inner.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Producer) drainErrors() {
	for {
		select {
		case err, ok := <-p.inner.Errors():
			if !ok {
				return
			}
			p.logger.Error("kafka delivery failed",
				zap.Error(err.Err),
				zap.String("topic", err.Msg.Topic),
			)
		case <-p.done:
			return
		}
	}
}

// Close flushes pending messages and stops the error drain.
func (p *Producer) Close() error {
	close(p.done)
	if err := p.inner.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

func (p *Producer) topicFor(eventType string) string {
	if p.prefix == "" || strings.HasPrefix(eventType, p.prefix+".") {
		return eventType
	}
	return p.prefix + "." + eventType
}
