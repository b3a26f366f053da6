package catalog

import "context"

type Repository interface {
	AdoptionStates(ctx context.Context) ([]Entry, error)
	FollowUpTypes(ctx context.Context) ([]Entry, error)
	FollowUpStates(ctx context.Context) ([]Entry, error)
}

// Cache es un read-through opcional delante del Repository.
// Get retorna false en miss sin error.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}
