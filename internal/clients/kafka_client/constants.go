package kafka_client

const (
	KAFKA_TOPIC_SENTIMENT_RESULTS = "reddit.sentiment.results"

	FLUSH_TIMEOUT_MS = 5000
	PRODUCE_RETRIES  = 3
)
