package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Service handles the business logic for plan elements.
type Service struct {
	repo Repository
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SaveElement saves an element with business validation.
func (s *Service) SaveElement(ctx context.Context, el Element) error {
	if el.ID == "" {
		return errors.New("element ID cannot be empty")
	}
	return s.repo.Save(ctx, el)
}

// GetElement retrieves an element.
func (s *Service) GetElement(ctx context.Context, id string) (Element, error) {
	if id == "" {
		return Element{}, errors.New("element ID cannot be empty")
	}
	return s.repo.Get(ctx, id)
}

// ListElements retrieves all elements.
func (s *Service) ListElements(ctx context.Context) ([]Element, error) {
	return s.repo.List(ctx)
}

// DeleteElement removes an element.
func (s *Service) DeleteElement(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("element ID cannot be empty")
	}
	return s.repo.Delete(ctx, id)
}

// Selection filters elements by glob pattern and typed fields. Zero
// fields match everything; all set fields must match.
type Selection struct {
	Pattern  string
	Category Category
	Level    string
}

// Select returns the elements matching sel, sorted by ID.
// Returns ErrNoSelection when nothing matches; the caller maps that to
// a cancelled run, not a failure.
func (s *Service) Select(ctx context.Context, sel Selection) ([]Element, error) {
	if sel.Pattern != "" {
		if !doublestar.ValidatePattern(sel.Pattern) {
			return nil, fmt.Errorf("invalid selection pattern: %s", sel.Pattern)
		}
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []Element
	for _, el := range all {
		if sel.Category != "" && el.Category() != sel.Category {
			continue
		}
		if sel.Pattern != "" {
			ok, err := doublestar.Match(sel.Pattern, el.ID)
			if err != nil {
				return nil, fmt.Errorf("selection pattern failed: %w", err)
			}
			if !ok {
				continue
			}
		}
		if sel.Level != "" {
			lvl, _ := el.Metadata["level"].(string)
			if !strings.EqualFold(lvl, sel.Level) {
				continue
			}
		}
		out = append(out, el)
	}

	if len(out) == 0 {
		return nil, ErrNoSelection
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Walls returns all wall elements, decoded.
func (s *Service) Walls(ctx context.Context) ([]Wall, error) {
	els, err := s.Select(ctx, Selection{Category: CategoryWall})
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			return nil, nil
		}
		return nil, err
	}

	walls := make([]Wall, 0, len(els))
	for _, el := range els {
		w, err := FromElement[Wall](el)
		if err != nil {
			return nil, err
		}
		if w.ID == "" {
			w.ID = el.ID
		}
		walls = append(walls, w)
	}
	return walls, nil
}

// Opening loads one opening and its host wall, validating kinds.
func (s *Service) Opening(ctx context.Context, id string) (Opening, Wall, error) {
	el, err := s.GetElement(ctx, id)
	if err != nil {
		return Opening{}, Wall{}, err
	}
	if el.Category() != CategoryOpening {
		return Opening{}, Wall{}, fmt.Errorf("%s: %w", id, ErrWrongKind)
	}

	op, err := FromElement[Opening](el)
	if err != nil {
		return Opening{}, Wall{}, err
	}
	if op.ID == "" {
		op.ID = el.ID
	}
	if op.Host == "" {
		return Opening{}, Wall{}, fmt.Errorf("opening %s has no host wall", id)
	}

	hostEl, err := s.GetElement(ctx, op.Host)
	if err != nil {
		return Opening{}, Wall{}, fmt.Errorf("host wall %s: %w", op.Host, err)
	}
	if hostEl.Category() != CategoryWall {
		return Opening{}, Wall{}, fmt.Errorf("host %s: %w", op.Host, ErrWrongKind)
	}

	host, err := FromElement[Wall](hostEl)
	if err != nil {
		return Opening{}, Wall{}, err
	}
	if host.ID == "" {
		host.ID = hostEl.ID
	}

	return op, host, nil
}

// WithTransaction executes a function within a transaction. The
// transaction is rolled back entirely if fn returns an error, so a
// failed run never leaves partial state in the plan.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return errors.New("repository does not support transactions")
	}

	tx, err := tr.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	msg := "batch transaction"
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return tx.Commit(ctx, msg)
}

// Begin initiates a transaction manually.
// Exposed for power users or custom workflows.
func (s *Service) Begin(ctx context.Context) (Transaction, error) {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return nil, errors.New("repository does not support transactions")
	}
	return tr.Begin(ctx)
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	return w.Watch(ctx, pattern)
}
