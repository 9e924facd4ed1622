package typed

import (
	"context"

	"github.com/veikko/jamb/pkg/core"
)

// Service wraps a core.Service with typed access, keeping the
// service's validation and transaction support.
type Service[T any] struct {
	svc *core.Service
}

// NewService creates a typed service wrapper.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Save persists a typed model through the service.
func (s *Service[T]) Save(ctx context.Context, m *Model[T]) error {
	el, err := core.ToElement(m.ID, m.Data)
	if err != nil {
		return err
	}
	if m.Saver == nil {
		m.Saver = s
	}
	return s.svc.SaveElement(ctx, el)
}

// Get retrieves one element via the service.
func (s *Service[T]) Get(ctx context.Context, id string) (*Model[T], error) {
	el, err := s.svc.GetElement(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromElement(el, Saver[T](s))
}

// List retrieves all elements via the service.
func (s *Service[T]) List(ctx context.Context) ([]*Model[T], error) {
	els, err := s.svc.ListElements(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*Model[T], 0, len(els))
	for _, el := range els {
		m, err := fromElement(el, Saver[T](s))
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

// Delete removes an element via the service.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.svc.DeleteElement(ctx, id)
}

// Watch observes plan changes matching the pattern.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}

// WithTransaction executes fn inside a typed transaction.
func (s *Service[T]) WithTransaction(ctx context.Context, fn func(tx *Transaction[T]) error) error {
	return s.svc.WithTransaction(ctx, func(coreTx core.Transaction) error {
		return fn(&Transaction[T]{tx: coreTx})
	})
}

// Transaction wraps a core.Transaction for typed operations.
type Transaction[T any] struct {
	tx core.Transaction
}

// Save stages a typed model within the transaction.
func (t *Transaction[T]) Save(ctx context.Context, m *Model[T]) error {
	el, err := core.ToElement(m.ID, m.Data)
	if err != nil {
		return err
	}
	if m.Saver == nil {
		m.Saver = t
	}
	return t.tx.Save(ctx, el)
}

// Get retrieves a model within the transaction.
func (t *Transaction[T]) Get(ctx context.Context, id string) (*Model[T], error) {
	el, err := t.tx.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromElement(el, Saver[T](t))
}

// Delete stages a removal within the transaction.
func (t *Transaction[T]) Delete(ctx context.Context, id string) error {
	return t.tx.Delete(ctx, id)
}
