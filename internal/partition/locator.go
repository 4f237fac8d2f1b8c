package partition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
	"github.com/pecigonzalo/kafka-spout/internal/client"
)

// Locator resolves the partition to broker assignment of a topic
type Locator interface {
	Resolve(ctx context.Context, topic string) (*Assignment, error)
}

var (
	_ Locator = (*StaticHosts)(nil)
	_ Locator = (*MetadataHosts)(nil)
)

// StaticHosts is a Locator backed by a caller supplied assignment. The same
// assignment is returned for every topic.
type StaticHosts struct {
	assignment *Assignment
}

func NewStaticHosts(assignment *Assignment) *StaticHosts {
	return &StaticHosts{assignment: assignment}
}

func (h *StaticHosts) Resolve(_ context.Context, _ string) (*Assignment, error) {
	return h.assignment, nil
}

// ParseStatic builds an Assignment from "index=host:port" entries
func ParseStatic(entries []string) (*Assignment, error) {
	assignment := NewAssignment()
	var errs []error
	for _, entry := range entries {
		indexString, addrString, ok := strings.Cut(entry, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("entry %q: expected index=host:port", entry))
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(indexString))
		if err != nil || index < 0 {
			errs = append(errs, fmt.Errorf("entry %q: partition index must be a non-negative integer", entry))
			continue
		}
		addr, err := broker.Parse(strings.TrimSpace(addrString))
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
			continue
		}
		assignment.AddPartition(index, addr)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("static partitions: %w", errors.Join(errs...))
	}
	return assignment, nil
}

// MetadataHosts is a Locator that asks the cluster for the current leader of
// every partition of the topic.
type MetadataHosts struct {
	client client.MetadataClient
	logger *zerolog.Logger
}

func NewMetadataHosts(client client.MetadataClient, logger *zerolog.Logger) *MetadataHosts {
	locatorLogger := logger.With().
		Str("component", "locator").
		Logger()

	return &MetadataHosts{
		client: client,
		logger: &locatorLogger,
	}
}

func (h *MetadataHosts) Resolve(ctx context.Context, topic string) (*Assignment, error) {
	resp, err := h.client.Metadata(ctx, &kafka.MetadataRequest{
		Topics: []string{topic},
	})
	if err != nil {
		return nil, fmt.Errorf("topic %s metadata: %w", topic, err)
	}

	// Check the topic count
	if topicCount := len(resp.Topics); topicCount != 1 {
		return nil, fmt.Errorf("unexpected topic count: %d", topicCount)
	}

	t := resp.Topics[0]
	if t.Error != nil {
		return nil, fmt.Errorf("topic %s metadata: %w", topic, t.Error)
	}

	assignment := NewAssignment()
	for _, p := range t.Partitions {
		if p.Error != nil || p.Leader.Host == "" || p.Leader.ID < 0 {
			h.logger.Warn().
				Err(p.Error).
				Str("topic", topic).
				Int("partition", p.ID).
				Msg("Partition has no available leader, leaving it unassigned")
			continue
		}
		assignment.AddPartition(p.ID, broker.Address{
			Host: p.Leader.Host,
			Port: p.Leader.Port,
		})
	}

	h.logger.Debug().
		Str("topic", topic).
		Stringer("assignment", assignment).
		Msg("Resolved partition leaders")

	return assignment, nil
}
