package core

import "context"

// Repository defines the contract for storing and retrieving elements.
// Adhering to this interface keeps the domain independent of the
// underlying storage mechanism (filesystem, SQL, in-memory).
type Repository interface {
	// Save persists an element. It creates if not exists, or updates if it does.
	Save(ctx context.Context, el Element) error

	// Get retrieves an element by its ID.
	Get(ctx context.Context, id string) (Element, error)

	// List returns all available elements.
	List(ctx context.Context) ([]Element, error)

	// Delete removes an element by its ID.
	Delete(ctx context.Context, id string) error

	// Initialize ensures the underlying storage is ready (e.g. create
	// directories, revision init).
	Initialize(ctx context.Context) error
}

type contextKey string

// ChangeReasonKey is the context key for passing specific change reasons
// (revision messages) during Save/Delete operations.
const ChangeReasonKey contextKey = "change_reason"

// Transaction defines the contract for a unit of work. A command run
// mutates the plan only through one of these: either every staged
// change lands, or none do.
type Transaction interface {
	// Save stages an element for persistence.
	Save(ctx context.Context, el Element) error

	// Get retrieves an element, preferring the staged version if it exists.
	Get(ctx context.Context, id string) (Element, error)

	// List returns all available elements, including staged ones.
	List(ctx context.Context) ([]Element, error)

	// Delete stages an element for removal.
	Delete(ctx context.Context, id string) error

	// Commit applies all staged changes atomically.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional extends Repository to support transactions.
type Transactional interface {
	Repository

	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}

// Watchable is implemented by repositories that can report external
// changes to the plan.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
