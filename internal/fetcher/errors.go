package fetcher

import (
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/protocol"

	"github.com/pecigonzalo/kafka-spout/internal/client"
)

// ErrFailedFetch is matched by every error returned from a failed fetch or
// offset resolution
var ErrFailedFetch = errors.New("failed fetch")

// Cause tells apart the reasons a fetch can fail. It is diagnostic only,
// callers handle every cause the same way.
type Cause string

const (
	CauseConnection              Cause = "connection"
	CauseUnknownTopicOrPartition Cause = "unknown_topic_or_partition"
	CauseOffsetOutOfRange        Cause = "offset_out_of_range"
	CauseBroker                  Cause = "broker"
)

// FailedFetchError describes an unsuccessful fetch or offset resolution
type FailedFetchError struct {
	Topic     string
	Partition int
	Offset    int64
	Cause     Cause
	Err       error
}

func (e *FailedFetchError) Error() string {
	return fmt.Sprintf("failed fetch (topic: %s, partition: %d, offset: %d, cause: %s): %v",
		e.Topic, e.Partition, e.Offset, e.Cause, e.Err)
}

func (e *FailedFetchError) Unwrap() error {
	return e.Err
}

func (e *FailedFetchError) Is(target error) bool {
	return target == ErrFailedFetch
}

// CauseOf returns the cause of a failed fetch, or an empty Cause when err did
// not come from a fetch
func CauseOf(err error) Cause {
	var failed *FailedFetchError
	if errors.As(err, &failed) {
		return failed.Cause
	}
	return ""
}

// classify maps both the broker error codes and the request errors the
// client raises itself, such as a fetch answered without the topic
func classify(err error) Cause {
	switch {
	case errors.Is(err, kafka.OffsetOutOfRange):
		return CauseOffsetOutOfRange
	case errors.Is(err, kafka.UnknownTopicOrPartition),
		errors.Is(err, protocol.ErrNoTopic),
		errors.Is(err, protocol.ErrNoPartition):
		return CauseUnknownTopicOrPartition
	case errors.Is(err, protocol.ErrNoLeader):
		return CauseBroker
	}
	if _, ok := client.KafkaErrorCode(err); ok {
		return CauseBroker
	}
	return CauseConnection
}

func newFailedFetch(topic string, partition int, offset int64, err error) *FailedFetchError {
	return &FailedFetchError{
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
		Cause:     classify(err),
		Err:       err,
	}
}
