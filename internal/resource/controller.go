// Package resource implements the fetch, submit and refetch cycle shared by
// the category and transaction pages.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotConfirmed is returned by Remove when the user has not confirmed the
// deletion yet. No backend call is made.
var ErrNotConfirmed = errors.New("resource: deletion not confirmed")

// ValidationError wraps a form validation failure. No backend call is made
// when Submit returns one.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Form is a submittable form state.
type Form interface {
	Validate() error
}

// Backend is the REST resource behind a Controller.
type Backend[T any, F Form] interface {
	List(ctx context.Context, token string) ([]T, error)
	Create(ctx context.Context, token string, form F) error
	Update(ctx context.Context, token string, id int64, form F) error
	Delete(ctx context.Context, token string, id int64) error
}

// Controller drives one resource collection. It holds no per-user state;
// every call takes the session token explicitly.
type Controller[T any, F Form] struct {
	name    string
	backend Backend[T, F]
	idOf    func(T) int64
	logger  *slog.Logger
}

func NewController[T any, F Form](name string, backend Backend[T, F], idOf func(T) int64, logger *slog.Logger) *Controller[T, F] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[T, F]{
		name:    name,
		backend: backend,
		idOf:    idOf,
		logger:  logger.With("resource", name),
	}
}

// FetchAll lists the collection. A nil result becomes an empty slice so
// callers never render "no data" differently from "empty".
func (c *Controller[T, F]) FetchAll(ctx context.Context, token string) ([]T, error) {
	items, err := c.backend.List(ctx, token)
	if items == nil {
		items = []T{}
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to fetch collection", "error", err)
		return items, fmt.Errorf("list %s: %w", c.name, err)
	}
	return items, nil
}

// Submit validates form and then updates editingID, or creates a new entity
// when editingID is zero. On success it returns the refetched collection.
func (c *Controller[T, F]) Submit(ctx context.Context, token string, editingID int64, form F) ([]T, error) {
	if err := form.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	var err error
	if editingID != 0 {
		err = c.backend.Update(ctx, token, editingID, form)
	} else {
		err = c.backend.Create(ctx, token, form)
	}
	if err != nil {
		op := "create"
		if editingID != 0 {
			op = "update"
		}
		c.logger.WarnContext(ctx, "Failed to save entity", "operation", op, "id", editingID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", op, c.name, err)
	}

	c.logger.InfoContext(ctx, "Entity saved", "id", editingID)
	return c.FetchAll(ctx, token)
}

// Edit finds id in items and converts it to form state. The form is a copy;
// concurrent edits of the same entity resolve as last write wins.
func (c *Controller[T, F]) Edit(items []T, id int64, toForm func(T) F) (F, bool) {
	for _, item := range items {
		if c.idOf(item) == id {
			return toForm(item), true
		}
	}
	var zero F
	return zero, false
}

// Find returns the entity with id from items.
func (c *Controller[T, F]) Find(items []T, id int64) (T, bool) {
	for _, item := range items {
		if c.idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Remove deletes id once the deletion is confirmed and returns the
// refetched collection.
func (c *Controller[T, F]) Remove(ctx context.Context, token string, id int64, confirmed bool) ([]T, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	if err := c.backend.Delete(ctx, token, id); err != nil {
		c.logger.WarnContext(ctx, "Failed to delete entity", "id", id, "error", err)
		return nil, fmt.Errorf("delete %s %d: %w", c.name, id, err)
	}
	c.logger.InfoContext(ctx, "Entity deleted", "id", id)
	return c.FetchAll(ctx, token)
}
