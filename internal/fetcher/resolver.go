package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/pecigonzalo/kafka-spout/internal/client"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
)

var errPartitionMissing = errors.New("malformed list offsets response: partition missing")

// ResolveOffset asks the broker for the boundary offset of a partition at the
// given marker. The broker answer is returned as is.
func (f *Fetcher) ResolveOffset(ctx context.Context, conn client.BrokerConn, topic string, partitionIndex int, marker consumer.OffsetTime) (int64, error) {
	if !marker.Valid() {
		return 0, fmt.Errorf("resolve offset: %w: %d", consumer.ErrInvalidOffsetTime, int64(marker))
	}
	f.metrics.offsetResolutions.WithLabelValues(topic, marker.String()).Inc()

	resp, err := conn.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{
			topic: {{Partition: partitionIndex, Timestamp: int64(marker)}},
		},
	})
	if err != nil {
		return 0, newFailedFetch(topic, partitionIndex, int64(marker), err)
	}

	for _, p := range resp.Topics[topic] {
		if p.Partition != partitionIndex {
			continue
		}
		if p.Error != nil {
			return 0, newFailedFetch(topic, partitionIndex, int64(marker), p.Error)
		}
		if marker == consumer.Earliest {
			return p.FirstOffset, nil
		}
		return p.LastOffset, nil
	}

	return 0, &FailedFetchError{
		Topic:     topic,
		Partition: partitionIndex,
		Offset:    int64(marker),
		Cause:     CauseBroker,
		Err:       errPartitionMissing,
	}
}

// ResolveFromConfig resolves the offset a partition should be read from when
// the caller has no offset of its own. With ForceFromStart the configured
// StartOffsetTime is used, otherwise reading starts at the latest offset.
func (f *Fetcher) ResolveFromConfig(ctx context.Context, conn client.BrokerConn, partitionIndex int, config *consumer.Config) (int64, error) {
	return f.ResolveFromPolicy(ctx, conn, config.Topic, partitionIndex, config.Policy())
}

// ResolveFromPolicy is ResolveFromConfig with an explicit policy
func (f *Fetcher) ResolveFromPolicy(ctx context.Context, conn client.BrokerConn, topic string, partitionIndex int, policy consumer.Policy) (int64, error) {
	marker := consumer.Latest
	if policy.ForceFromStart {
		marker = policy.StartOffsetTime
	}
	return f.ResolveOffset(ctx, conn, topic, partitionIndex, marker)
}
