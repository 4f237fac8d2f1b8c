package workers

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
	"github.com/pecigonzalo/kafka-spout/internal/client/mocks"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
	"github.com/pecigonzalo/kafka-spout/internal/fetcher"
	"github.com/pecigonzalo/kafka-spout/internal/partition"
)

const mockTopicName = "fake-topic"

var mockPartition = partition.Partition{
	Broker: broker.Address{Host: "localhost", Port: 9092},
	Index:  0,
}

// recorder collects the batches passed to a Handler
type recorder struct {
	mu      sync.Mutex
	offsets []int64
}

func (r *recorder) handle(_ partition.Partition, messages []fetcher.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		r.offsets = append(r.offsets, m.Offset)
	}
}

func (r *recorder) Offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.offsets...)
}

// mockLog makes conn serve a partition log holding the offsets [first, last)
func mockLog(conn *mocks.BrokerConn, first, last int64) {
	conn.EXPECT().ListOffsets(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req *kafka.ListOffsetsRequest) (*kafka.ListOffsetsResponse, error) {
			resp := &kafka.ListOffsetsResponse{Topics: map[string][]kafka.PartitionOffsets{}}
			for topic, requests := range req.Topics {
				for _, r := range requests {
					resp.Topics[topic] = append(resp.Topics[topic], kafka.PartitionOffsets{
						Partition:   r.Partition,
						FirstOffset: first,
						LastOffset:  last,
					})
				}
			}
			return resp, nil
		}).
		Maybe()

	conn.EXPECT().Fetch(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req *kafka.FetchRequest) (*kafka.FetchResponse, error) {
			resp := &kafka.FetchResponse{Topic: req.Topic, Partition: req.Partition, HighWatermark: last}
			if req.Offset < first || req.Offset > last {
				resp.Error = kafka.OffsetOutOfRange
				return resp, nil
			}
			var records []kafka.Record
			for o := req.Offset; o < last; o++ {
				records = append(records, kafka.Record{Offset: o, Value: kafka.NewBytes([]byte("value"))})
			}
			resp.Records = kafka.NewRecordReader(records...)
			return resp, nil
		}).
		Maybe()
}

func newTestReader(t *testing.T, conn *mocks.BrokerConn, handler Handler) (*PartitionReader, *consumer.Config, *ReaderMetrics) {
	t.Helper()
	config, err := consumer.NewConfig(mockTopicName)
	require.NoError(t, err)

	metrics := NewReaderMetrics(prometheus.NewRegistry())
	f := fetcher.NewFetcher(&zerolog.Logger{}, nil)
	reader := NewPartitionReader(mockPartition, conn, f, config, handler, time.Hour, metrics, &zerolog.Logger{})
	return reader, config, metrics
}

func TestPartitionReader_poll(t *testing.T) {
	tests := []struct {
		name           string
		forceFromStart bool
		offset         *int64
		wantOffsets    []int64
		wantNext       int64
	}{
		{
			name:        "StartsAtLatest",
			wantOffsets: nil,
			wantNext:    5,
		},
		{
			name:           "ForceFromStart",
			forceFromStart: true,
			wantOffsets:    []int64{2, 3, 4},
			wantNext:       5,
		},
		{
			name:        "SetOffset",
			offset:      func() *int64 { o := int64(4); return &o }(),
			wantOffsets: []int64{4},
			wantNext:    5,
		},
		{
			name:        "SetOffsetOutOfRange",
			offset:      func() *int64 { o := int64(100); return &o }(),
			wantOffsets: []int64{2, 3, 4},
			wantNext:    5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := mocks.NewBrokerConn(t)
			mockLog(conn, 2, 5)

			rec := &recorder{}
			reader, config, metrics := newTestReader(t, conn, rec.handle)
			config.ForceFromStart = tt.forceFromStart
			if tt.offset != nil {
				reader.SetOffset(*tt.offset)
			}

			reader.poll(context.Background())

			assert.Equal(t, tt.wantOffsets, rec.Offsets())
			offset, resolved := reader.Offset()
			assert.True(t, resolved)
			assert.Equal(t, tt.wantNext, offset)

			status := reader.Status()
			assert.Equal(t, int64(len(tt.wantOffsets)), status.Fetched)
			assert.Empty(t, status.LastError)
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.polls.WithLabelValues(mockTopicName, "0")))
			assert.Equal(t, float64(tt.wantNext), testutil.ToFloat64(metrics.nextOffset.WithLabelValues(mockTopicName, "0")))
		})
	}
}

func TestPartitionReader_pollFailureKeepsOffset(t *testing.T) {
	conn := mocks.NewBrokerConn(t)
	conn.EXPECT().Fetch(mock.Anything, mock.Anything).
		Return(nil, syscall.ECONNREFUSED).
		Times(2)

	rec := &recorder{}
	reader, _, metrics := newTestReader(t, conn, rec.handle)
	reader.SetOffset(7)

	reader.poll(context.Background())
	reader.poll(context.Background())

	offset, _ := reader.Offset()
	assert.Equal(t, int64(7), offset)
	assert.Empty(t, rec.Offsets())
	assert.Contains(t, reader.Status().LastError, "connection refused")
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.pollErrors.WithLabelValues(mockTopicName, "0")))
}

func TestPartitionReader_pollResolveFailure(t *testing.T) {
	conn := mocks.NewBrokerConn(t)
	conn.EXPECT().ListOffsets(mock.Anything, mock.Anything).
		Return(nil, syscall.ECONNREFUSED).
		Once()

	reader, _, metrics := newTestReader(t, conn, nil)
	reader.poll(context.Background())

	_, resolved := reader.Offset()
	assert.False(t, resolved)
	assert.NotEmpty(t, reader.Status().LastError)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.pollErrors.WithLabelValues(mockTopicName, "0")))
}

func TestPartitionReader_pollCanceled(t *testing.T) {
	conn := mocks.NewBrokerConn(t)
	conn.EXPECT().Fetch(mock.Anything, mock.Anything).
		Return(nil, context.Canceled).
		Once()

	reader, _, metrics := newTestReader(t, conn, nil)
	reader.SetOffset(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader.poll(ctx)

	assert.Empty(t, reader.Status().LastError)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.pollErrors.WithLabelValues(mockTopicName, "0")))
}

func TestPartitionReader_StartStop(t *testing.T) {
	conn := mocks.NewBrokerConn(t)
	mockLog(conn, 0, 3)

	rec := &recorder{}
	config, err := consumer.NewConfig(mockTopicName)
	require.NoError(t, err)
	config.ForceFromStart = true

	metrics := NewReaderMetrics(nil)
	f := fetcher.NewFetcher(&zerolog.Logger{}, nil)
	reader := NewPartitionReader(mockPartition, conn, f, config, rec.handle, 10*time.Millisecond, metrics, &zerolog.Logger{})

	reader.Start()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.polls.WithLabelValues(mockTopicName, "0")) >= 3
	}, 5*time.Second, 10*time.Millisecond)
	reader.Stop()
	reader.Stop()

	// later polls find the head of the log and deliver nothing
	assert.Equal(t, []int64{0, 1, 2}, rec.Offsets())
	offset, _ := reader.Offset()
	assert.Equal(t, int64(3), offset)
}
