// Package events publishes counter change notifications. Publication is
// best-effort: the counter's HTTP responses never depend on it.
package events

import (
	"context"
	"time"
)

// CounterChanged is emitted after every mutating counter action.
type CounterChanged struct {
	Action     string    `json:"action"`
	Count      int64     `json:"count"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev CounterChanged) error
	Close() error
}

// Nop discards every event. It is used when publishing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, CounterChanged) error { return nil }
func (Nop) Close() error                                   { return nil }
