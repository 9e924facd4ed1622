package platform

import (
	"log/slog"

	"github.com/veikko/jamb/pkg/core"
)

// options holds the internal configuration assembled by Option funcs.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	adapter     string
	config      map[string]interface{}
	serializers map[string]any
}

// Option defines a functional option for configuring a plan.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:     "fs",
		config:      make(map[string]interface{}),
		serializers: make(map[string]any),
	}
}

// WithSerializer registers a custom serializer for an extension. The
// value must implement the adapter's Serializer interface (e.g.
// fs.Serializer); validation happens during Init.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithAutoInit enables automatic plan setup (directory creation and
// revision init).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables the revision history. Enabled by
// default; passing false gives a plain-directory plan.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versionless"] = !enabled
	}
}

// WithForceTemp forces the plan into a temporary directory (useful for
// demos and tests).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the plan directory to already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter (e.g. a mock). The
// default filesystem adapter is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory name. Defaults to ".jamb".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithWatcherErrorHandler registers a callback for errors in the
// Watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

/// WithReadOnly enables read-only mode: writes return ErrReadOnly,
// initialization is skipped, and the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox applied under `go run`. By
// default (true) the plan is re-rooted into a temporary directory so a
// stray demo cannot touch real drawings.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
