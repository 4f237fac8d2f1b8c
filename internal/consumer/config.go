// Package consumer holds the per-topic consumption policy shared by the fetcher and its callers
package consumer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultFetchSizeBytes = 1024 * 1024
	DefaultFetchMaxWait   = 10 * time.Second
)

var (
	ErrEmptyTopic        = errors.New("topic must not be empty")
	ErrInvalidOffsetTime = errors.New("invalid start offset time")
)

// OffsetTime is a symbolic offset marker resolved by the broker. The values
// match the kafka protocol timestamps for the first and last offset.
type OffsetTime int64

const (
	Earliest OffsetTime = OffsetTime(kafka.FirstOffset)
	Latest   OffsetTime = OffsetTime(kafka.LastOffset)
)

// ParseOffsetTime parses "earliest" or "latest", case insensitive
func ParseOffsetTime(s string) (OffsetTime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earliest", "first", "oldest":
		return Earliest, nil
	case "latest", "last", "newest":
		return Latest, nil
	default:
		return 0, fmt.Errorf("%w: %q, choices are earliest and latest", ErrInvalidOffsetTime, s)
	}
}

// Valid reports whether t is one of the recognized markers
func (t OffsetTime) Valid() bool {
	return t == Earliest || t == Latest
}

func (t OffsetTime) String() string {
	switch t {
	case Earliest:
		return "earliest"
	case Latest:
		return "latest"
	default:
		return fmt.Sprintf("OffsetTime(%d)", int64(t))
	}
}

// Policy is a snapshot of the fields of Config that govern offset resolution
// and out of range recovery
type Policy struct {
	ForceFromStart                       bool
	StartOffsetTime                      OffsetTime
	UseStartOffsetTimeIfOffsetOutOfRange bool
}

// Config controls how a topic is read. ForceFromStart and StartOffsetTime may
// be changed between fetch calls and take effect on the next one; callers that
// share a Config between goroutines should pass a Policy override instead.
type Config struct {
	Topic                                string
	ForceFromStart                       bool
	StartOffsetTime                      OffsetTime
	UseStartOffsetTimeIfOffsetOutOfRange bool

	// FetchSizeBytes bounds the size of a single fetch response
	FetchSizeBytes int
	FetchMaxWait   time.Duration
}

// NewConfig returns a Config for topic with the default policy
func NewConfig(topic string) (*Config, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	return &Config{
		Topic:                                topic,
		ForceFromStart:                       false,
		StartOffsetTime:                      Earliest,
		UseStartOffsetTimeIfOffsetOutOfRange: true,
		FetchSizeBytes:                       DefaultFetchSizeBytes,
		FetchMaxWait:                         DefaultFetchMaxWait,
	}, nil
}

// Validate checks the invariants of a Config built without NewConfig
func (c *Config) Validate() error {
	var errs []error
	if c.Topic == "" {
		errs = append(errs, ErrEmptyTopic)
	}
	if !c.StartOffsetTime.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidOffsetTime, int64(c.StartOffsetTime)))
	}
	if c.FetchSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("fetch size must be positive, got %d", c.FetchSizeBytes))
	}
	return errors.Join(errs...)
}

// Policy returns the current recovery policy
func (c *Config) Policy() Policy {
	return Policy{
		ForceFromStart:                       c.ForceFromStart,
		StartOffsetTime:                      c.StartOffsetTime,
		UseStartOffsetTimeIfOffsetOutOfRange: c.UseStartOffsetTimeIfOffsetOutOfRange,
	}
}
