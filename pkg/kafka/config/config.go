package config

import (
	"fmt"
	"time"
)

// Config carries producer settings. Brokers empty means eventing is
// disabled and the publisher degrades to a no-op.
type Config struct {
	Brokers []string

	ProducerBatchTimeout time.Duration
	ProducerWriteTimeout time.Duration
	ProducerCompression  string
	ProducerRequiredAcks string
	ProducerMaxAttempts  int
}

func Default(brokers []string) *Config {
	return &Config{
		Brokers: brokers,

		ProducerBatchTimeout: 100 * time.Millisecond,
		ProducerWriteTimeout: 10 * time.Second,
		ProducerCompression:  "snappy",
		ProducerRequiredAcks: "all",
		ProducerMaxAttempts:  3,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	if c.ProducerMaxAttempts <= 0 {
		return fmt.Errorf("ProducerMaxAttempts must be positive, got: %d", c.ProducerMaxAttempts)
	}
	return nil
}
