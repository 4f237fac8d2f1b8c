package fetcher_test

import (
	"context"
	"fmt"
	"sync"
	"syscall"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/protocol"
	fetchapi "github.com/segmentio/kafka-go/protocol/fetch"

	"github.com/pecigonzalo/kafka-spout/internal/client"
)

// memoryBroker serves fetch and list offsets requests from in-memory partition logs
type memoryBroker struct {
	mu     sync.Mutex
	addr   string
	down   bool
	topics map[string]map[int]*memoryLog
}

type memoryLog struct {
	startOffset int64
	values      [][]byte
}

func (l *memoryLog) endOffset() int64 {
	return l.startOffset + int64(len(l.values))
}

var _ client.BrokerConn = &memoryBroker{}

func newMemoryBroker(addr string) *memoryBroker {
	return &memoryBroker{
		addr:   addr,
		topics: map[string]map[int]*memoryLog{},
	}
}

func (b *memoryBroker) CreateTopic(topic string, partitions int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logs := make(map[int]*memoryLog, partitions)
	for i := 0; i < partitions; i++ {
		logs[i] = &memoryLog{}
	}
	b.topics[topic] = logs
}

func (b *memoryBroker) Produce(topic string, partition int, values ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	log := b.topics[topic][partition]
	for _, v := range values {
		log.values = append(log.values, []byte(v))
	}
}

// DeleteRecordsBefore drops the head of a partition log, as retention would
func (b *memoryBroker) DeleteRecordsBefore(topic string, partition int, offset int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	log := b.topics[topic][partition]
	drop := offset - log.startOffset
	if drop > int64(len(log.values)) {
		drop = int64(len(log.values))
	}
	log.values = log.values[drop:]
	log.startOffset += drop
}

func (b *memoryBroker) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = true
}

func (b *memoryBroker) dialError() error {
	return fmt.Errorf("dial tcp %s: connect: %w", b.addr, syscall.ECONNREFUSED)
}

func (b *memoryBroker) Fetch(_ context.Context, req *kafka.FetchRequest) (*kafka.FetchResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.down {
		return nil, b.dialError()
	}

	resp := &kafka.FetchResponse{
		Topic:     req.Topic,
		Partition: req.Partition,
	}
	// the client fails the request when the broker answers without the
	// requested topic or partition
	logs, ok := b.topics[req.Topic]
	if !ok {
		return nil, fmt.Errorf("kafka.(*Client).Fetch: %w", fetchapi.NewError(protocol.NewErrNoTopic(req.Topic)))
	}
	log, ok := logs[req.Partition]
	if !ok {
		return nil, fmt.Errorf("kafka.(*Client).Fetch: %w", fetchapi.NewError(protocol.NewErrNoPartition(req.Topic, int32(req.Partition))))
	}
	resp.HighWatermark = log.endOffset()
	resp.LogStartOffset = log.startOffset
	if req.Offset < log.startOffset || req.Offset > log.endOffset() {
		resp.Error = kafka.OffsetOutOfRange
		return resp, nil
	}

	var records []kafka.Record
	var size int64
	for o := req.Offset; o < log.endOffset(); o++ {
		v := log.values[o-log.startOffset]
		if len(records) > 0 && size+int64(len(v)) > req.MaxBytes {
			break
		}
		size += int64(len(v))
		records = append(records, kafka.Record{Offset: o, Value: kafka.NewBytes(v)})
	}
	resp.Records = kafka.NewRecordReader(records...)
	return resp, nil
}

func (b *memoryBroker) ListOffsets(_ context.Context, req *kafka.ListOffsetsRequest) (*kafka.ListOffsetsResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.down {
		return nil, b.dialError()
	}

	resp := &kafka.ListOffsetsResponse{
		Topics: make(map[string][]kafka.PartitionOffsets, len(req.Topics)),
	}
	for topic, requests := range req.Topics {
		for _, r := range requests {
			offsets := kafka.PartitionOffsets{Partition: r.Partition}
			if log, ok := b.topics[topic][r.Partition]; ok {
				offsets.FirstOffset = log.startOffset
				offsets.LastOffset = log.endOffset()
			} else {
				offsets.Error = kafka.UnknownTopicOrPartition
			}
			resp.Topics[topic] = append(resp.Topics[topic], offsets)
		}
	}
	return resp, nil
}
