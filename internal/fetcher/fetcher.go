// Package fetcher reads batches of records from a partition leader and
// resolves symbolic offsets.
//
// A fetch either returns a Result or an error matching ErrFailedFetch, never
// both. The only condition recovered locally is an out of range offset, when
// the consumer configuration allows it; the fetch is then retried exactly once
// from the offset found at the configured start offset time.
package fetcher

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/pecigonzalo/kafka-spout/internal/client"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
	"github.com/pecigonzalo/kafka-spout/internal/partition"
)

// Message is a single record read from a partition
type Message struct {
	Offset int64
	Key    []byte
	Value  []byte
	Time   time.Time
}

// Result is the outcome of a successful fetch. It is owned by the caller.
type Result struct {
	Messages []Message
	// NextOffset is the offset to request on the following fetch
	NextOffset int64
	// Offset is the offset the records were read from. It differs from the
	// requested offset when an out of range offset was recovered.
	Offset        int64
	Recovered     bool
	HighWatermark int64
}

// Fetcher issues fetch and list offsets requests over connections owned by the
// caller. It keeps no state between calls and is safe for concurrent use as
// long as each connection is used by a single goroutine.
type Fetcher struct {
	logger  *zerolog.Logger
	metrics *metrics
}

// NewFetcher creates a Fetcher. Metrics are registered with reg when it is not nil.
func NewFetcher(logger *zerolog.Logger, reg prometheus.Registerer) *Fetcher {
	fetcherLogger := logger.With().
		Str("component", "fetcher").
		Logger()

	return &Fetcher{
		logger:  &fetcherLogger,
		metrics: newMetrics(reg),
	}
}

// FetchMessages reads a batch of records from the partition starting at offset
func (f *Fetcher) FetchMessages(
	ctx context.Context,
	config *consumer.Config,
	conn client.BrokerConn,
	p partition.Partition,
	offset int64,
) (*Result, error) {
	return f.FetchMessagesWithPolicy(ctx, config, config.Policy(), conn, p, offset)
}

// FetchMessagesWithPolicy is FetchMessages with the recovery policy given
// explicitly instead of read from config.
func (f *Fetcher) FetchMessagesWithPolicy(
	ctx context.Context,
	config *consumer.Config,
	policy consumer.Policy,
	conn client.BrokerConn,
	p partition.Partition,
	offset int64,
) (*Result, error) {
	logger := f.logger.With().
		Str("topic", config.Topic).
		Int("partition", p.Index).
		Str("broker", p.Broker.String()).
		Logger()

	result, failed := f.fetch(ctx, config, conn, p.Index, offset)
	if failed == nil {
		return result, nil
	}

	if failed.Cause != CauseOffsetOutOfRange || !policy.UseStartOffsetTimeIfOffsetOutOfRange {
		return nil, f.fail(&logger, failed)
	}

	startOffset, err := f.ResolveOffset(ctx, conn, config.Topic, p.Index, policy.StartOffsetTime)
	if err != nil {
		logger.Error().
			Err(err).
			Int64("offset", offset).
			Stringer("startOffsetTime", policy.StartOffsetTime).
			Msg("Unable to resolve start offset for out of range offset")
		var resolveFailed *FailedFetchError
		if errors.As(err, &resolveFailed) {
			// report the offset the caller asked for, not the marker
			requested := *resolveFailed
			requested.Offset = offset
			return nil, f.fail(&logger, &requested)
		}
		return nil, err
	}

	logger.Warn().
		Int64("offset", offset).
		Stringer("startOffsetTime", policy.StartOffsetTime).
		Int64("startOffset", startOffset).
		Msg("Got fetch request with offset out of range, retrying with start offset time from configuration")

	result, failed = f.fetch(ctx, config, conn, p.Index, startOffset)
	if failed != nil {
		return nil, f.fail(&logger, failed)
	}

	f.metrics.offsetRecovered.WithLabelValues(config.Topic, strconv.Itoa(p.Index)).Inc()
	result.Recovered = true
	return result, nil
}

func (f *Fetcher) fetch(
	ctx context.Context,
	config *consumer.Config,
	conn client.BrokerConn,
	partitionIndex int,
	offset int64,
) (*Result, *FailedFetchError) {
	partitionLabel := strconv.Itoa(partitionIndex)
	f.metrics.fetchRequests.WithLabelValues(config.Topic, partitionLabel).Inc()

	resp, err := conn.Fetch(ctx, &kafka.FetchRequest{
		Topic:     config.Topic,
		Partition: partitionIndex,
		Offset:    offset,
		MinBytes:  1,
		MaxBytes:  int64(config.FetchSizeBytes),
		MaxWait:   config.FetchMaxWait,
	})
	if err == nil && resp.Error != nil {
		err = resp.Error
	}
	if err != nil {
		failed := newFailedFetch(config.Topic, partitionIndex, offset, err)
		if failed.Cause == CauseOffsetOutOfRange {
			f.metrics.offsetOutOfRange.WithLabelValues(config.Topic, partitionLabel).Inc()
		}
		return nil, failed
	}

	messages, err := readMessages(resp.Records, offset)
	if err != nil {
		return nil, newFailedFetch(config.Topic, partitionIndex, offset, err)
	}
	f.metrics.recordsFetched.WithLabelValues(config.Topic, partitionLabel).Add(float64(len(messages)))

	nextOffset := offset
	if n := len(messages); n > 0 {
		nextOffset = messages[n-1].Offset + 1
	}

	return &Result{
		Messages:      messages,
		NextOffset:    nextOffset,
		Offset:        offset,
		HighWatermark: resp.HighWatermark,
	}, nil
}

func (f *Fetcher) fail(logger *zerolog.Logger, failed *FailedFetchError) error {
	f.metrics.fetchFailed.WithLabelValues(failed.Topic, string(failed.Cause)).Inc()
	logger.Error().
		Err(failed.Err).
		Int64("offset", failed.Offset).
		Str("cause", string(failed.Cause)).
		Bool("timeout", client.IsTimeout(failed.Err)).
		Msg("Failed fetch")
	return failed
}

// readMessages drains records, skipping the ones before offset that the
// broker returns when offset falls in the middle of a record batch.
func readMessages(records kafka.RecordReader, offset int64) ([]Message, error) {
	if records == nil {
		return nil, nil
	}

	var messages []Message
	for {
		r, err := records.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return messages, nil
			}
			return nil, err
		}
		if r.Offset < offset {
			continue
		}

		key, err := readBytes(r.Key)
		if err != nil {
			return nil, err
		}
		value, err := readBytes(r.Value)
		if err != nil {
			return nil, err
		}

		messages = append(messages, Message{
			Offset: r.Offset,
			Key:    key,
			Value:  value,
			Time:   r.Time,
		})
	}
}

func readBytes(b kafka.Bytes) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	defer b.Close()
	return io.ReadAll(b)
}
