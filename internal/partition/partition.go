// Package partition maps topic partitions to the brokers leading them
package partition

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
)

// ErrNotFound is returned when a partition index has no known broker
var ErrNotFound = errors.New("partition not found")

// Partition identifies a partition through its current leader. A leader change
// produces a new Partition value.
type Partition struct {
	Broker broker.Address `json:"broker"`
	Index  int            `json:"index"`
}

// ID returns a stable identifier, useful as a label or a map key
func (p Partition) ID() string {
	return "partition_" + strconv.Itoa(p.Index)
}

func (p Partition) String() string {
	return fmt.Sprintf("{Index:%d, Broker:%s}", p.Index, p.Broker)
}

// Assignment maps partition indexes to the broker leading each one
type Assignment struct {
	mu         sync.RWMutex
	partitions map[int]broker.Address
}

// NewAssignment returns an empty Assignment
func NewAssignment() *Assignment {
	return &Assignment{
		partitions: make(map[int]broker.Address),
	}
}

// AddPartition registers the broker for a partition index, replacing any
// previous one.
func (a *Assignment) AddPartition(index int, addr broker.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.partitions[index] = addr
}

// Get returns the broker assigned to the partition index
func (a *Assignment) Get(index int) (broker.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	addr, ok := a.partitions[index]
	if !ok {
		return broker.Address{}, fmt.Errorf("partition %d: %w", index, ErrNotFound)
	}
	return addr, nil
}

// Partition returns the Partition value for the index
func (a *Assignment) Partition(index int) (Partition, error) {
	addr, err := a.Get(index)
	if err != nil {
		return Partition{}, err
	}
	return Partition{Broker: addr, Index: index}, nil
}

// Partitions returns every assigned partition ordered by index
func (a *Assignment) Partitions() []Partition {
	a.mu.RLock()
	defer a.mu.RUnlock()

	partitions := make([]Partition, 0, len(a.partitions))
	for index, addr := range a.partitions {
		partitions = append(partitions, Partition{Broker: addr, Index: index})
	}
	sort.Slice(partitions, func(i, j int) bool {
		return partitions[i].Index < partitions[j].Index
	})
	return partitions
}

// Len returns the number of assigned partitions
func (a *Assignment) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.partitions)
}

func (a *Assignment) String() string {
	var parts []string
	for _, p := range a.Partitions() {
		parts = append(parts, fmt.Sprintf("%d=%s", p.Index, p.Broker))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
