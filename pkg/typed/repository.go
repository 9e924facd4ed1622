// Package typed layers compile-time element types over the raw
// metadata store. A Model carries both the element ID and the decoded
// struct, plus an active-record style Save.
package typed

import (
	"context"
	"fmt"

	"github.com/veikko/jamb/pkg/core"
)

// Model wraps a raw core.Element with a typed payload.
type Model[T any] struct {
	ID    string
	Data  T
	Saver Saver[T]
}

// Saver decouples the model from the concrete repository or service
// it came from.
type Saver[T any] interface {
	Save(ctx context.Context, m *Model[T]) error
}

// Save persists the model through the store it was loaded from.
func (m *Model[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("model is detached (missing Saver)")
	}
	return m.Saver.Save(ctx, m)
}

// Repository wraps a core.Repository with typed access.
type Repository[T any] struct {
	repo core.Repository
}

// NewRepository creates a typed wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo}
}

// Save persists a typed model.
func (r *Repository[T]) Save(ctx context.Context, m *Model[T]) error {
	el, err := core.ToElement(m.ID, m.Data)
	if err != nil {
		return err
	}
	if m.Saver == nil {
		m.Saver = r
	}
	return r.repo.Save(ctx, el)
}

// Get retrieves and decodes one element.
func (r *Repository[T]) Get(ctx context.Context, id string) (*Model[T], error) {
	el, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromElement(el, Saver[T](r))
}

// List returns all elements decoded into the typed model.
func (r *Repository[T]) List(ctx context.Context) ([]*Model[T], error) {
	els, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*Model[T], 0, len(els))
	for _, el := range els {
		m, err := fromElement(el, Saver[T](r))
		if err != nil {
			return nil, fmt.Errorf("failed to decode element %s: %w", el.ID, err)
		}
		result = append(result, m)
	}
	return result, nil
}

// Delete removes an element by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

func fromElement[T any](el core.Element, saver Saver[T]) (*Model[T], error) {
	data, err := core.FromElement[T](el)
	if err != nil {
		return nil, err
	}
	return &Model[T]{
		ID:    el.ID,
		Data:  data,
		Saver: saver,
	}, nil
}
