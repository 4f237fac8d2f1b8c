// Package workers defines an interface for long running workers and the
// partition readers driving the fetcher
package workers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
	"github.com/pecigonzalo/kafka-spout/internal/client"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
	"github.com/pecigonzalo/kafka-spout/internal/fetcher"
	"github.com/pecigonzalo/kafka-spout/internal/partition"
)

// Worker interface exposing main operations on workers
type Worker interface {
	Start()
	Stop()
}

// ConnectFunc returns the connection used to reach a partition leader
type ConnectFunc func(addr broker.Address) client.BrokerConn

const (
	DefaultPollInterval    = time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultLocateTimeout   = 10 * time.Second
)

type ManagerConfig struct {
	PollInterval    time.Duration `mapstructure:"poll-interval"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	LocateTimeout   time.Duration `mapstructure:"locate-timeout"`
}

// ReaderManager runs one PartitionReader per partition of a topic and keeps
// them pointed at the current leaders
type ReaderManager struct {
	config        *consumer.Config
	managerConfig ManagerConfig
	locator       partition.Locator
	connect       ConnectFunc
	fetcher       *fetcher.Fetcher
	handler       Handler
	metrics       *ReaderMetrics
	logger        *zerolog.Logger
	readerLogger  *zerolog.Logger

	mu      sync.Mutex
	readers map[int]*PartitionReader

	stop     chan struct{}
	syncStop sync.WaitGroup
}

var _ Worker = &ReaderManager{}

// NewReaderManager returns an instance of the reader manager worker
func NewReaderManager(
	config *consumer.Config,
	managerConfig ManagerConfig,
	locator partition.Locator,
	connect ConnectFunc,
	f *fetcher.Fetcher,
	handler Handler,
	metrics *ReaderMetrics,
	logger *zerolog.Logger,
) *ReaderManager {
	if managerConfig.PollInterval <= 0 {
		managerConfig.PollInterval = DefaultPollInterval
	}
	if managerConfig.RefreshInterval <= 0 {
		managerConfig.RefreshInterval = DefaultRefreshInterval
	}
	if managerConfig.LocateTimeout <= 0 {
		managerConfig.LocateTimeout = DefaultLocateTimeout
	}

	managerLogger := logger.With().
		Str("component", "manager").
		Str("topic", config.Topic).
		Logger()

	return &ReaderManager{
		config:        config,
		managerConfig: managerConfig,
		locator:       locator,
		connect:       connect,
		fetcher:       f,
		handler:       handler,
		metrics:       metrics,
		logger:        &managerLogger,
		readerLogger:  logger,
		readers:       make(map[int]*PartitionReader),
	}
}

// Start runs a first reconcile and starts a timer for periodic reconciling
func (m *ReaderManager) Start() {
	m.logger.Info().Msg("Starting reader manager")

	m.stop = make(chan struct{})
	m.syncStop.Add(1)

	m.reconcile()

	m.logger.Info().
		Dur("interval", m.managerConfig.RefreshInterval).
		Msg("Running reconciliation loop")
	ticker := time.NewTicker(m.managerConfig.RefreshInterval)
	go func() {
		defer m.syncStop.Done()
		for {
			select {
			case <-ticker.C:
				m.reconcile()
			case <-m.stop:
				ticker.Stop()
				m.logger.Info().Msg("Stopping reader manager reconcile loop")
				return
			}
		}
	}()
}

// Stop stops the reconcile timer and every reader
func (m *ReaderManager) Stop() {
	m.logger.Info().Msg("Stopping reader manager")

	// ask to stop the ticker reconcile loop and wait
	if m.stop != nil {
		close(m.stop)
		m.syncStop.Wait()
		m.stop = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for index, reader := range m.readers {
		reader.Stop()
		delete(m.readers, index)
	}

	m.logger.Info().Msg("Reader manager closed")
}

// Status returns the status of every reader ordered by partition index
func (m *ReaderManager) Status() []ReaderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]ReaderStatus, 0, len(m.readers))
	for _, reader := range m.readers {
		statuses = append(statuses, reader.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Partition.Index < statuses[j].Partition.Index
	})
	return statuses
}

func (m *ReaderManager) reconcile() {
	m.metrics.reconciles.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), m.managerConfig.LocateTimeout)
	defer cancel()

	assignment, err := m.locator.Resolve(ctx, m.config.Topic)
	if err != nil {
		m.metrics.locateError.Inc()
		m.logger.Error().Err(err).Msg("Error resolving partition assignment")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	partitions := assignment.Partitions()
	assigned := make(map[int]struct{}, len(partitions))
	for _, p := range partitions {
		assigned[p.Index] = struct{}{}
	}
	for index, reader := range m.readers {
		if _, ok := assigned[index]; ok {
			continue
		}
		reader.Stop()
		delete(m.readers, index)
		m.logger.Info().
			Int("partition", index).
			Stringer("broker", reader.Partition().Broker).
			Msg("Partition unassigned, stopping reader")
	}

	for _, p := range partitions {
		current, ok := m.readers[p.Index]
		if ok && current.Partition() == p {
			continue
		}

		reader := NewPartitionReader(
			p, m.connect(p.Broker), m.fetcher, m.config,
			m.handler, m.managerConfig.PollInterval, m.metrics, m.readerLogger,
		)

		// a new leader continues from where the previous reader stopped
		if ok {
			current.Stop()
			if offset, resolved := current.Offset(); resolved {
				reader.SetOffset(offset)
			}
			m.logger.Info().
				Int("partition", p.Index).
				Stringer("from", current.Partition().Broker).
				Stringer("to", p.Broker).
				Msg("Partition leader changed")
		}

		m.readers[p.Index] = reader
		reader.Start()
	}
}
