package counter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sundayezeilo/wxcounter/internal/errx"
	"github.com/sundayezeilo/wxcounter/internal/events"
	"github.com/sundayezeilo/wxcounter/internal/httpx"
	"github.com/sundayezeilo/wxcounter/internal/store"
)

/***************
 * Mocks
 ***************/

// mockRepository implements Repository for testing.
type mockRepository struct {
	appendFunc func(ctx context.Context) error
	countFunc  func(ctx context.Context) (int64, error)
	clearFunc  func(ctx context.Context) error

	appends, clears, counts int
}

func (m *mockRepository) Append(ctx context.Context) error {
	m.appends++
	if m.appendFunc != nil {
		return m.appendFunc(ctx)
	}
	return nil
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	m.counts++
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockRepository) Clear(ctx context.Context) error {
	m.clears++
	if m.clearFunc != nil {
		return m.clearFunc(ctx)
	}
	return nil
}

// recordingPublisher keeps every event it is handed.
type recordingPublisher struct {
	events []events.CounterChanged
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.CounterChanged) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newMemoryService(t *testing.T) Service {
	t.Helper()
	return NewService(store.NewMemory(), nil)
}

func mustSubmit(t *testing.T, svc Service, a Action) int64 {
	t.Helper()
	n, err := svc.Submit(context.Background(), a)
	if err != nil {
		t.Fatalf("Submit(%v) error: %v", a, err)
	}
	return n
}

/***************
 * Behaviour over a real store
 ***************/

func TestService_IncrementsAccumulate(t *testing.T) {
	for _, n := range []int{0, 1, 7, 25} {
		svc := newMemoryService(t)
		for range n {
			mustSubmit(t, svc, Increment)
		}
		got, err := svc.Count(context.Background())
		if err != nil {
			t.Fatalf("Count() error: %v", err)
		}
		if got != int64(n) {
			t.Errorf("after %d increments Count() = %d", n, got)
		}
	}
}

func TestService_ClearResets(t *testing.T) {
	svc := newMemoryService(t)
	for range 4 {
		mustSubmit(t, svc, Increment)
	}

	if got := mustSubmit(t, svc, Clear); got != 0 {
		t.Errorf("first clear = %d, want 0", got)
	}
	if got := mustSubmit(t, svc, Clear); got != 0 {
		t.Errorf("second clear = %d, want 0", got)
	}
}

func TestService_UnknownDoesNotMutate(t *testing.T) {
	svc := newMemoryService(t)
	mustSubmit(t, svc, Increment)
	mustSubmit(t, svc, Increment)

	if got := mustSubmit(t, svc, Unknown); got != 2 {
		t.Errorf("Submit(Unknown) = %d, want 2", got)
	}
}

func TestService_Scenario(t *testing.T) {
	svc := newMemoryService(t)

	steps := []struct {
		action Action
		want   int64
	}{
		{Increment, 1},
		{Increment, 2},
		{Increment, 3},
		{Unknown, 3},
		{Clear, 0},
	}
	for i, step := range steps {
		if got := mustSubmit(t, svc, step.action); got != step.want {
			t.Errorf("step %d (%v) = %d, want %d", i, step.action, got, step.want)
		}
	}

	got, err := svc.Count(context.Background())
	if err != nil || got != 0 {
		t.Errorf("final Count() = %d, %v; want 0, nil", got, err)
	}
}

/***************
 * Dispatch and errors
 ***************/

func TestService_Dispatch(t *testing.T) {
	tests := []struct {
		action                  Action
		wantAppends, wantClears int
	}{
		{Increment, 1, 0},
		{Clear, 0, 1},
		{Unknown, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			repo := &mockRepository{}
			if _, err := NewService(repo, nil).Submit(context.Background(), tt.action); err != nil {
				t.Fatal(err)
			}
			if repo.appends != tt.wantAppends || repo.clears != tt.wantClears {
				t.Errorf("appends=%d clears=%d, want %d/%d", repo.appends, repo.clears, tt.wantAppends, tt.wantClears)
			}
			if repo.counts != 1 {
				t.Errorf("counts = %d, want 1", repo.counts)
			}
		})
	}
}

func TestService_StoreErrors(t *testing.T) {
	storeErr := errx.E("store.mysql.Append", errx.Unavailable, errors.New("dial tcp: i/o timeout"))

	t.Run("append failure skips count", func(t *testing.T) {
		repo := &mockRepository{appendFunc: func(context.Context) error { return storeErr }}
		_, err := NewService(repo, nil).Submit(context.Background(), Increment)

		if !errors.Is(err, storeErr) {
			t.Fatalf("Submit() error = %v, want wrapped store error", err)
		}
		if got := errx.KindOf(err); got != errx.Unavailable {
			t.Errorf("KindOf() = %v, want Unavailable", got)
		}
		if got := errx.OpOf(err); got != "counter.service.Submit" {
			t.Errorf("OpOf() = %q", got)
		}
		if repo.counts != 0 {
			t.Errorf("Count called %d times after failed append", repo.counts)
		}
	})

	t.Run("count failure after clear", func(t *testing.T) {
		repo := &mockRepository{countFunc: func(context.Context) (int64, error) { return 0, storeErr }}
		_, err := NewService(repo, nil).Submit(context.Background(), Clear)
		if !errors.Is(err, storeErr) {
			t.Fatalf("Submit() error = %v", err)
		}
	})

	t.Run("count failure on read", func(t *testing.T) {
		repo := &mockRepository{countFunc: func(context.Context) (int64, error) { return 0, storeErr }}
		_, err := NewService(repo, nil).Count(context.Background())
		if got := errx.OpOf(err); got != "counter.service.Count" {
			t.Errorf("OpOf() = %q", got)
		}
	})
}

/***************
 * Events
 ***************/

func TestService_PublishesMutations(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	repo := &mockRepository{countFunc: func(context.Context) (int64, error) { return 5, nil }}
	svc := NewService(repo, &ServiceConfig{
		Publisher: pub,
		Now:       func() time.Time { return at },
	})

	ctx := httpx.WithRequestID(context.Background(), "req-7")
	for _, a := range []Action{Increment, Unknown, Clear} {
		if _, err := svc.Submit(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Count(ctx); err != nil {
		t.Fatal(err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	want := events.CounterChanged{Action: "inc", Count: 5, RequestID: "req-7", OccurredAt: at}
	if pub.events[0] != want {
		t.Errorf("event[0] = %+v, want %+v", pub.events[0], want)
	}
	if pub.events[1].Action != "clear" {
		t.Errorf("event[1].Action = %q, want clear", pub.events[1].Action)
	}
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	pub := &recordingPublisher{err: errors.New("channel/connection is not open")}
	svc := NewService(store.NewMemory(), &ServiceConfig{
		Publisher: pub,
		Logger:    slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	n, err := svc.Submit(context.Background(), Increment)
	if err != nil {
		t.Fatalf("Submit() error = %v, publish failures must not surface", err)
	}
	if n != 1 {
		t.Errorf("Submit() = %d, want 1", n)
	}
	if !bytes.Contains(logs.Bytes(), []byte("failed to publish counter event")) {
		t.Errorf("expected a warning in logs, got %s", logs.String())
	}
}
