package workers

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pecigonzalo/kafka-spout/internal/client"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
	"github.com/pecigonzalo/kafka-spout/internal/fetcher"
	"github.com/pecigonzalo/kafka-spout/internal/partition"
)

// Handler receives every non empty batch read from a partition, in offset order
type Handler func(p partition.Partition, messages []fetcher.Message)

// ReaderStatus is a point in time view of a PartitionReader
type ReaderStatus struct {
	Partition partition.Partition `json:"partition"`
	Offset    int64               `json:"offset"`
	Resolved  bool                `json:"resolved"`
	Fetched   int64               `json:"fetched"`
	Recovered int64               `json:"recovered"`
	LastError string              `json:"lastError,omitempty"`
	LastPoll  time.Time           `json:"lastPoll"`
}

// PartitionReader polls a single partition leader. The offset lives in
// memory only and is lost when the reader is dropped.
type PartitionReader struct {
	partition    partition.Partition
	conn         client.BrokerConn
	fetcher      *fetcher.Fetcher
	config       *consumer.Config
	handler      Handler
	pollInterval time.Duration
	metrics      *ReaderMetrics
	logger       *zerolog.Logger

	mu     sync.Mutex
	status ReaderStatus

	cancel   context.CancelFunc
	syncStop sync.WaitGroup
}

var _ Worker = &PartitionReader{}

func NewPartitionReader(
	p partition.Partition,
	conn client.BrokerConn,
	f *fetcher.Fetcher,
	config *consumer.Config,
	handler Handler,
	pollInterval time.Duration,
	metrics *ReaderMetrics,
	logger *zerolog.Logger,
) *PartitionReader {
	readerLogger := logger.With().
		Str("component", "reader").
		Str("topic", config.Topic).
		Int("partition", p.Index).
		Str("broker", p.Broker.String()).
		Logger()

	return &PartitionReader{
		partition:    p,
		conn:         conn,
		fetcher:      f,
		config:       config,
		handler:      handler,
		pollInterval: pollInterval,
		metrics:      metrics,
		logger:       &readerLogger,
		status:       ReaderStatus{Partition: p},
	}
}

// Partition returns the partition the reader was created for
func (r *PartitionReader) Partition() partition.Partition {
	return r.partition
}

// SetOffset sets the next offset to fetch. A reader without an offset resolves
// its start offset from the consumer configuration on the first poll.
func (r *PartitionReader) SetOffset(offset int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Offset = offset
	r.status.Resolved = true
}

// Offset returns the next offset to fetch and whether it is known yet
func (r *PartitionReader) Offset() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.Offset, r.status.Resolved
}

func (r *PartitionReader) Status() ReaderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start polls the partition right away and then on every poll interval
func (r *PartitionReader) Start() {
	r.logger.Info().
		Dur("interval", r.pollInterval).
		Msg("Starting partition reader")

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.syncStop.Add(1)

	go func() {
		defer r.syncStop.Done()
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		r.poll(ctx)
		for {
			select {
			case <-ticker.C:
				r.poll(ctx)
			case <-ctx.Done():
				r.logger.Info().Msg("Stopping partition reader poll loop")
				return
			}
		}
	}()
}

// Stop cancels any in flight request and waits for the poll loop to exit
func (r *PartitionReader) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.syncStop.Wait()
	r.cancel = nil
}

func (r *PartitionReader) poll(ctx context.Context) {
	partitionLabel := strconv.Itoa(r.partition.Index)
	r.metrics.polls.WithLabelValues(r.config.Topic, partitionLabel).Inc()

	offset, resolved := r.Offset()
	if !resolved {
		start, err := r.fetcher.ResolveFromConfig(ctx, r.conn, r.partition.Index, r.config)
		if err != nil {
			r.failed(ctx, err)
			return
		}
		r.logger.Info().
			Int64("offset", start).
			Bool("forceFromStart", r.config.ForceFromStart).
			Msg("Resolved start offset")
		r.SetOffset(start)
		offset = start
	}

	result, err := r.fetcher.FetchMessages(ctx, r.config, r.conn, r.partition, offset)
	if err != nil {
		r.failed(ctx, err)
		return
	}

	if len(result.Messages) > 0 && r.handler != nil {
		r.handler(r.partition, result.Messages)
	}

	r.mu.Lock()
	r.status.Offset = result.NextOffset
	r.status.Fetched += int64(len(result.Messages))
	if result.Recovered {
		r.status.Recovered++
	}
	r.status.LastError = ""
	r.status.LastPoll = time.Now()
	r.mu.Unlock()

	r.metrics.nextOffset.WithLabelValues(r.config.Topic, partitionLabel).Set(float64(result.NextOffset))
}

func (r *PartitionReader) failed(ctx context.Context, err error) {
	// requests cut short by Stop are not failures
	if ctx.Err() != nil {
		return
	}

	r.metrics.pollErrors.WithLabelValues(r.config.Topic, strconv.Itoa(r.partition.Index)).Inc()

	// network failures are expected while leaders move, anything else is louder
	event := r.logger.Error()
	if client.IsTransientNetworkError(err) || client.IsDisconnection(err) || client.IsTimeout(err) {
		event = r.logger.Warn()
	}
	event.
		Err(err).
		Str("cause", string(fetcher.CauseOf(err))).
		Msg("Poll failed, retrying on next interval")

	r.mu.Lock()
	r.status.LastError = err.Error()
	r.status.LastPoll = time.Now()
	r.mu.Unlock()
}
