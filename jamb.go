package jamb

import (
	"log/slog"

	"github.com/veikko/jamb/internal/platform"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/typed"
)

// Version is the library version reported by the CLI.
const Version = "0.3.0"

// --- Types ---

// Model is a public alias for the typed element model.
type Model[T any] = typed.Model[T]

// TypedRepository is a public alias for the typed repository.
type TypedRepository[T any] = typed.Repository[T]

// TypedService is a public alias for the typed service.
type TypedService[T any] = typed.Service[T]

// --- Configuration ---

// Option defines a functional option for configuring a plan.
type Option = platform.Option

// WithSerializer registers a serializer for a file extension (e.g.
// ".json"). The value must implement the filesystem adapter's
// Serializer interface.
func WithSerializer(ext string, s any) Option {
	return platform.WithSerializer(ext, s)
}

// WithAutoInit enables automatic plan setup (directory creation and
// revision init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables the plan revision history.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the plan into a temporary directory (useful for
// demos and tests).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist requires the plan directory to already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory name (e.g. ".jamb").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the sandbox applied under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler sets the callback invoked when the watcher
// hits a non-fatal error.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens (or creates) a plan and returns its domain service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// --- Typed Factories ---

// NewTypedRepository creates a type-safe wrapper around an existing repository.
func NewTypedRepository[T any](repo core.Repository) *typed.Repository[T] {
	return typed.NewRepository[T](repo)
}

// NewTypedService creates a type-safe wrapper around an existing service.
func NewTypedService[T any](svc *core.Service) *typed.Service[T] {
	return typed.NewService[T](svc)
}

// OpenTypedRepository simplifies creating a TypedRepository from a path.
func OpenTypedRepository[T any](path string, opts ...Option) (*typed.Repository[T], error) {
	repo, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewRepository[T](repo), nil
}

// OpenTypedService simplifies creating a TypedService from a path.
func OpenTypedService[T any](path string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc), nil
}

// --- Safety & Utils ---

// ResolvePlanPath determines the actual plan directory per safety rules.
func ResolvePlanPath(userPath string, forceTemp bool) string {
	return platform.ResolvePlanPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindPlanRoot walks upward for a plan root indicator.
func FindPlanRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
