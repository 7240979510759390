package kafka

// Config holds Kafka connection parameters.
type Config struct {
	ConsumerGroup string
	Brokers       []string
}
