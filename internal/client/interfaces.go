package client

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// BrokerConn is the kafka.Client compatible interface used to read from a
// partition leader.
//
//go:generate mockery --name BrokerConn --with-expecter --output ./mocks
type BrokerConn interface {
	Fetch(ctx context.Context, req *kafka.FetchRequest) (*kafka.FetchResponse, error)
	ListOffsets(ctx context.Context, req *kafka.ListOffsetsRequest) (*kafka.ListOffsetsResponse, error)
}

var _ BrokerConn = &kafka.Client{}

// MetadataClient is the kafka.Client compatible interface used to discover
// partition leaders.
//
//go:generate mockery --name MetadataClient --with-expecter --output ./mocks
type MetadataClient interface {
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
}

var _ MetadataClient = &kafka.Client{}
