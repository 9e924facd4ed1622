package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veikko/jamb/pkg/adapters/fs"
	"github.com/veikko/jamb/pkg/core"
)

// Init builds and initializes the repository for a plan. The uri is
// adapter-specific; for "fs" it is the plan directory path.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error

	switch o.adapter {
	case "fs":
		repo, err = initFS(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func initFS(path string, o *options) (core.Repository, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	versionless, _ := o.config["versionless"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only access is inherently safe; explicit opt-out also
	// bypasses the sandbox.
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolvePlanPath(path, useTemp)

	if IsDevRun() && o.logger != nil {
		if bypassSafety {
			if isReadOnly {
				o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
			} else {
				o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
			}
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}

	if systemDir == "" {
		systemDir = ".jamb"
	}

	// When versioning is not explicitly configured, detect it: an
	// existing .git means a versioned plan; an existing system dir
	// without .git means the plan was created versionless.
	if _, ok := o.config["versionless"]; !ok {
		gitPath := filepath.Join(resolvedPath, ".git")
		systemPath := filepath.Join(resolvedPath, systemDir)

		if _, err := os.Stat(gitPath); err == nil {
			versionless = false
		} else if autoInit {
			if _, err := os.Stat(systemPath); err == nil {
				versionless = true
			} else {
				versionless = false
			}
		} else {
			versionless = true
		}

		if versionless && o.logger != nil {
			o.logger.Debug("auto-detected versionless mode", "reason", ".git missing")
		}
	}

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	repo := fs.NewRepository(fs.Config{
		Path:         resolvedPath,
		AutoInit:     autoInit,
		Versionless:  versionless,
		MustExist:    mustExist || (!autoInit && !useTemp),
		Logger:       o.logger,
		SystemDir:    systemDir,
		ErrorHandler: errorHandler,
		ReadOnly:     isReadOnly,
	})

	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		repo.RegisterSerializer(ext, serializer)
	}

	return repo, nil
}
