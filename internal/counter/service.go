package counter

import (
	"context"
	"log/slog"
	"time"

	"github.com/sundayezeilo/wxcounter/internal/errx"
	"github.com/sundayezeilo/wxcounter/internal/events"
	"github.com/sundayezeilo/wxcounter/internal/httpx"
)

// Service defines the counter operations.
type Service interface {
	// Submit applies action and returns the count observed afterwards.
	Submit(ctx context.Context, action Action) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceConfig holds optional collaborators of the service.
type ServiceConfig struct {
	Publisher events.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	publisher := config.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := config.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}

func (s *service) Submit(ctx context.Context, action Action) (int64, error) {
	const op = "counter.service.Submit"

	var err error
	switch action {
	case Increment:
		err = s.repo.Append(ctx)
	case Clear:
		err = s.repo.Clear(ctx)
	}
	if err != nil {
		return 0, errx.Wrap(op, err)
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, errx.Wrap(op, err)
	}

	if action.Mutates() {
		s.notify(ctx, action, n)
	}
	return n, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	const op = "counter.service.Count"

	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, errx.Wrap(op, err)
	}
	return n, nil
}

// notify publishes the change; a failure is logged and otherwise ignored.
func (s *service) notify(ctx context.Context, action Action, n int64) {
	ev := events.CounterChanged{
		Action:     action.String(),
		Count:      n,
		RequestID:  httpx.GetRequestID(ctx),
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish counter event",
			"request_id", ev.RequestID,
			"action", ev.Action,
			"error", err.Error(),
		)
	}
}
