package assets

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no asset has the requested ID.
var ErrNotFound = errors.New("asset not found")

// Store persists the register. List returns assets newest first.
type Store interface {
	List(ctx context.Context) ([]Asset, error)
	Get(ctx context.Context, id int) (Asset, error)
	Create(ctx context.Context, a Asset) (Asset, error)
	Update(ctx context.Context, a Asset) error
	Delete(ctx context.Context, id int) error
}

// NotFound wraps ErrNotFound with the ID.
func NotFound(id int) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
