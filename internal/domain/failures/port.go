package failures

import "context"

// Repository defines persistence for pipeline failures
type Repository interface {
	Save(ctx context.Context, f *Failure) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]*Failure, error)
}
