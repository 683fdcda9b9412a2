package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int // -1 all, 0 none, 1 leader
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchTimeout time.Duration
	Async        bool
	HashByKey    bool
}

func defaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		RequiredAcks: 1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func (c *ProducerConfig) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers are required")
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("required acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	if _, err := compressionCodec(c.Compression); err != nil {
		return err
	}
	return nil
}

// compressionCodec maps a config name to a kafka-go codec; "" and "none"
// disable compression.
func compressionCodec(name string) (kafka.Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression sets the codec: none, gzip, snappy, lz4 or zstd.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

// WithMaxAttempts sets how often the writer retries a batch.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBatchTimeout sets how long the writer waits to fill a batch.
func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if timeout > 0 {
			c.BatchTimeout = timeout
		}
	}
}

// WithAsync toggles fire-and-forget writes; errors are then only counted.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

// WithHashByKey routes equal keys to one partition so a session's events
// stay ordered.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}
