package counter

import "context"

// Repository is the record store as the counter sees it. The counter value
// is always Count(); nothing is cached in between.
type Repository interface {
	Append(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}
