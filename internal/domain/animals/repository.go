package animals

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("animal not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (Animal, error)
}
