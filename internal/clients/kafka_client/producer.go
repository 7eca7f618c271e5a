package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/postsentiment/internal/models"
)

// MessageProducer is the subset of *kafka.Producer the publisher uses.
type MessageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Publisher forwards enriched posts to a Kafka topic, one message per post.
type Publisher struct {
	producer MessageProducer
	topic    string
}

func NewPublisher(cfg KafkaConfig) (*Publisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(cfg.producerConfig())
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}
	go logDeliveryErrors(p.Events())

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return NewPublisherWithProducer(p, cfg.Topic), nil
}

func NewPublisherWithProducer(p MessageProducer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

func (p *Publisher) Name() string { return "kafka:" + p.topic }

func (p *Publisher) Write(ctx context.Context, posts []models.EnrichedPost) error {
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.publish(post); err != nil {
			return err
		}
	}

	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		return fmt.Errorf("[KafkaClient] %d messages not delivered after flush", remaining)
	}

	slog.Info("[KafkaClient] Published sentiment results",
		slog.String("topic", p.topic),
		slog.Int("count", len(posts)))
	return nil
}

func (p *Publisher) publish(post models.EnrichedPost) error {
	jsonData, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("[KafkaClient] Failed to marshal sentiment result: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(post.ContentID()),
		Value:          jsonData,
	}

	for i := 0; i < PRODUCE_RETRIES; i++ {
		err = p.producer.Produce(msg, nil)
		if err == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	return fmt.Errorf("[KafkaClient] failed to produce message after %d attempts: %w", PRODUCE_RETRIES, err)
}

func (p *Publisher) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

func logDeliveryErrors(events chan kafka.Event) {
	for e := range events {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(ev.Key)),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Error("[KafkaClient] Producer error", slog.String("error", ev.Error()))
		}
	}
}
