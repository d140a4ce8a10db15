package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// Memory is a map backed provider. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	descriptors map[string]spacing.Descriptor
}

// NewMemory creates a provider holding the given descriptors, keyed by ImageID.
func NewMemory(descriptors ...spacing.Descriptor) *Memory {
	m := &Memory{descriptors: make(map[string]spacing.Descriptor, len(descriptors))}
	for _, d := range descriptors {
		m.descriptors[d.ImageID] = d
	}
	return m
}

// Put stores d under its ImageID, replacing any previous descriptor.
func (m *Memory) Put(d spacing.Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.descriptors[d.ImageID] = d
}

// Delete removes the descriptor of imageID.
func (m *Memory) Delete(imageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.descriptors, imageID)
}

// Len returns the number of stored descriptors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.descriptors)
}

// Descriptor implements Provider.
func (m *Memory) Descriptor(ctx context.Context, imageID string) (spacing.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return spacing.Descriptor{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.descriptors[imageID]
	if !ok {
		return spacing.Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, imageID)
	}
	return d, nil
}
