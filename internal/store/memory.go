package store

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory keeps records in process memory. It backs tests and the "memory"
// driver used for local development; nothing survives a restart.
type Memory struct {
	mu      sync.Mutex
	stamper stamper
	records []recordStamp
}

func NewMemory() *Memory {
	return &Memory{stamper: defaultStamper()}
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Append(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapError("store.memory.Append", err, nil)
	}
	rec, err := m.stamper.stamp()
	if err != nil {
		return mapError("store.memory.Append", err, func(error) bool { return true })
	}

	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, mapError("store.memory.Count", err, nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapError("store.memory.Clear", err, nil)
	}
	m.mu.Lock()
	m.records = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
