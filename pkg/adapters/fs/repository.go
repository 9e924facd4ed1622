package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/revision"
)

// matchPattern reports whether the element ID matches the doublestar
// glob. Invalid patterns match nothing.
func matchPattern(pattern, id string) bool {
	ok, err := doublestar.Match(pattern, id)
	return err == nil && ok
}

// DefaultExt is the extension given to elements saved without one.
const DefaultExt = ".yaml"

// Repository implements core.Repository over a plan directory: one
// serialized file per element, grouped by category subdirectory.
type Repository struct {
	Path   string
	rev    *revision.Client
	cache  *cache
	config Config

	serializers map[string]Serializer

	mu            sync.RWMutex
	readOnly      bool
	watcherActive bool
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path        string
	AutoInit    bool
	Versionless bool // disable the revision history entirely
	MustExist   bool
	ReadOnly    bool
	Logger      *slog.Logger
	SystemDir   string // e.g. ".jamb"
	// ErrorHandler receives watcher errors that would otherwise only be logged.
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = ".jamb"
	}
	return &Repository{
		Path:        config.Path,
		rev:         revision.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(),
		readOnly:    config.ReadOnly,
	}
}

// RegisterSerializer adds or replaces the serializer for an extension.
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

func (r *Repository) serializer(ext string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[ext]
	return s, ok
}

func (r *Repository) extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	return NewTransaction(r), nil
}

// Initialize performs the necessary setup for the repository
// (mkdir, revision init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("plan path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("plan path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create plan directory: %w", err)
		}
	}

	if !r.config.Versionless {
		if !revision.IsInstalled() {
			return fmt.Errorf("git is not installed")
		}

		if !r.rev.IsRepo() {
			if r.config.AutoInit {
				if err := r.rev.Init(); err != nil {
					return fmt.Errorf("failed to init revision history: %w", err)
				}
			} else {
				return fmt.Errorf("path has no revision history: %s", r.Path)
			}
		}

		if err := r.ensureIgnore(); err != nil {
			return fmt.Errorf("failed to ensure ignore file: %w", err)
		}
	}

	return nil
}

// ensureIgnore keeps the system directory and lock file out of the
// revision history.
func (r *Repository) ensureIgnore() error {
	path := filepath.Join(r.Path, ".gitignore")
	entries := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock", TempFilePrefix + "*"}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	content := string(existing)
	var missing []string
	for _, e := range entries {
		if !strings.Contains(content, e) {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0644)
}

// elementPath resolves an element ID to its file path and extension.
func (r *Repository) elementPath(id string) (fullPath, ext string) {
	ext = filepath.Ext(id)
	filename := id
	if ext == "" {
		ext = DefaultExt
		filename = id + ext
	}
	return filepath.Join(r.Path, filepath.FromSlash(filename)), ext
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("element has no ID")
	}
	if strings.HasPrefix(id, "/") || strings.Contains(id, "..") {
		return fmt.Errorf("invalid element ID: %s", id)
	}
	return nil
}

// Save persists an element to the filesystem and, unless versionless,
// records a revision. The change reason can be passed via context.
func (r *Repository) Save(ctx context.Context, el core.Element) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	if err := validateID(el.ID); err != nil {
		return err
	}

	fullPath, ext := r.elementPath(el.ID)
	s, ok := r.serializer(ext)
	if !ok {
		return fmt.Errorf("no serializer for %s", ext)
	}

	data, err := s.Serialize(el.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize element: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if !r.config.Versionless {
		unlock, err := r.rev.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		defer unlock()

		rel, err := filepath.Rel(r.Path, fullPath)
		if err != nil {
			return err
		}
		if err := r.rev.Add(rel); err != nil {
			return fmt.Errorf("failed to stage revision: %w", err)
		}

		msg := "update " + el.ID
		if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
			msg = val
		}
		if err := r.rev.Commit(msg); err != nil {
			return fmt.Errorf("failed to record revision: %w", err)
		}
	}

	return nil
}

// Get retrieves an element from the filesystem.
func (r *Repository) Get(ctx context.Context, id string) (core.Element, error) {
	if err := validateID(id); err != nil {
		return core.Element{}, err
	}

	fullPath, ext := r.elementPath(id)

	f, err := os.Open(fullPath)
	if os.IsNotExist(err) && filepath.Ext(id) == "" {
		// The default extension missed; try the alternates.
		for _, altExt := range r.extensions() {
			if altExt == DefaultExt {
				continue
			}
			alt := filepath.Join(r.Path, filepath.FromSlash(id)+altExt)
			if f, err = os.Open(alt); err == nil {
				ext = altExt
				break
			}
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return core.Element{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
		}
		return core.Element{}, err
	}
	defer f.Close()

	s, ok := r.serializer(ext)
	if !ok {
		return core.Element{}, fmt.Errorf("no serializer for %s", ext)
	}

	meta, err := s.Parse(f)
	if err != nil {
		return core.Element{}, fmt.Errorf("failed to parse element %s: %w", id, err)
	}

	return core.Element{ID: strings.TrimSuffix(id, filepath.Ext(id)), Metadata: meta}, nil
}

// List returns all elements in the plan, sorted by ID. Parse failures
// on individual files are logged and skipped so one corrupt file does
// not hide the rest of the plan.
func (r *Repository) List(ctx context.Context) ([]core.Element, error) {
	if err := r.cache.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to load index cache", "error", err)
	}

	seen := make(map[string]bool)
	var els []core.Element

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == r.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializer(ext); !ok {
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		id := strings.TrimSuffix(relPath, ext)

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()
		seen[relPath] = true

		if entry, hit := r.cache.Get(relPath, mtime); hit {
			els = append(els, core.Element{ID: entry.ID, Metadata: entry.Metadata})
			return nil
		}

		el, err := r.Get(ctx, id)
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Warn("failed to parse element during list", "id", id, "error", err)
			}
			return nil // continue walking
		}

		r.cache.Set(relPath, &indexEntry{
			ID:           el.ID,
			Metadata:     el.Metadata,
			LastModified: mtime,
		})
		els = append(els, el)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk plan dir: %w", err)
	}

	r.cache.Prune(seen)
	if !r.readOnly {
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index cache", "error", err)
		}
	}

	sort.Slice(els, func(i, j int) bool { return els[i].ID < els[j].ID })
	return els, nil
}

// Delete removes an element and, unless versionless, records the removal.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	if err := validateID(id); err != nil {
		return err
	}

	fullPath, _ := r.elementPath(id)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}

	if r.config.Versionless {
		return os.Remove(fullPath)
	}

	unlock, err := r.rev.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlock()

	rel, err := filepath.Rel(r.Path, fullPath)
	if err != nil {
		return err
	}
	if err := r.rev.Rm(rel); err != nil {
		return fmt.Errorf("failed to remove element: %w", err)
	}

	msg := "delete " + id
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := r.rev.Commit(msg); err != nil {
		return fmt.Errorf("failed to record revision: %w", err)
	}
	return nil
}

// resolveID converts an absolute file path back to an element ID.
func (r *Repository) resolveID(path string) (string, error) {
	rel, err := filepath.Rel(r.Path, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	if _, ok := r.serializer(ext); !ok {
		return "", fmt.Errorf("not an element file: %s", path)
	}
	return strings.TrimSuffix(rel, ext), nil
}

// shouldIgnore filters watcher events down to element files matching
// the pattern.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) {
		return true
	}

	rel, err := filepath.Rel(r.Path, event.Name)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, r.config.SystemDir) || strings.HasPrefix(rel, ".git") {
		return true
	}

	id, err := r.resolveID(event.Name)
	if err != nil {
		return true
	}
	if pattern == "" {
		return false
	}
	return !matchPattern(pattern, id)
}

// mapEventType converts an fsnotify op into a domain event type.
// Chmod-only events return "" and are dropped.
func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// recursiveAdd registers the plan directory tree with the watcher.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != r.Path && (name == ".git" || name == r.config.SystemDir) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// Watch emits an event for each external change to the plan matching
// the given doublestar pattern. The channel closes when ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	events := make(chan core.Event, 16)
	worker := newWatchWorker(r, pattern, events)
	if err := worker.Start(ctx); err != nil {
		close(events)
		return nil, err
	}
	return events, nil
}

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

// Reconcile compares the index cache with the filesystem and returns
// the events that happened while the watcher was not looking (e.g.
// during a revision lock or before a cold start).
func (r *Repository) Reconcile(ctx context.Context) ([]core.Event, error) {
	before := make(map[string]*indexEntry)
	r.cache.Range(func(relPath string, entry *indexEntry) bool {
		before[relPath] = entry
		return true
	})

	var events []core.Event
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != r.Path && (name == ".git" || name == r.config.SystemDir) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializer(ext); !ok {
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		id := strings.TrimSuffix(relPath, ext)
		seen[relPath] = true

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()

		prev, existed := before[relPath]
		if existed && prev.LastModified.Equal(mtime) {
			return nil
		}

		el, err := r.Get(ctx, id)
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Warn("failed to parse element during reconcile", "id", id, "error", err)
			}
			return nil
		}
		r.cache.Set(relPath, &indexEntry{ID: el.ID, Metadata: el.Metadata, LastModified: mtime})

		eType := core.EventModify
		if !existed {
			eType = core.EventCreate
		}
		events = append(events, core.Event{Type: eType, ID: id, Timestamp: time.Now().Unix()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk plan dir: %w", err)
	}

	for relPath, entry := range before {
		if !seen[relPath] {
			r.cache.Delete(relPath)
			events = append(events, core.Event{Type: core.EventDelete, ID: entry.ID, Timestamp: time.Now().Unix()})
		}
	}

	if !r.readOnly {
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index cache", "error", err)
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	r.recordReconcile()
	return events, nil
}

func (r *Repository) recordReconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}
