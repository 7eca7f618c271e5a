package kafka_client

import (
	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/postsentiment/config"
)

type KafkaConfig struct {
	Broker string
	Topic  string
}

func GetKafkaConfig(cfg config.SinkConfig) KafkaConfig {
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = KAFKA_TOPIC_SENTIMENT_RESULTS
	}
	return KafkaConfig{
		Broker: cfg.KafkaBroker,
		Topic:  topic,
	}
}

func (c KafkaConfig) producerConfig() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":                     c.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
	}
}
