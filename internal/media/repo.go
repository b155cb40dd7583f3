package media

import "context"

// Repo defines persistence operations for media assets. Create assigns the
// ID and timestamps.
type Repo interface {
	Create(ctx context.Context, asset Asset) (Asset, error)
	GetByID(ctx context.Context, id string) (Asset, error)
	List(ctx context.Context, limit, offset int) ([]Asset, error)
	Delete(ctx context.Context, id string) error
}
