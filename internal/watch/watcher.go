// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

var (
	// DescriptorPatterns select the files a catalog reads.
	DescriptorPatterns = []string{"**/module.cue", "**/aggregate.cue"}

	defaultIgnores = []string{
		"**/.git/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories to watch recursively. Missing roots are
		// skipped with a warning.
		Roots []string
		// Patterns are doublestar globs matched against paths relative to
		// their root. Empty means DescriptorPatterns.
		Patterns []string
		// Ignore adds to the built-in ignore patterns.
		Ignore   []string
		Debounce time.Duration
		// OnChange receives the absolute paths changed in one debounce window.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher monitors Roots and fires OnChange after matching files change.
	// Run must be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		patterns []string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every directory under its roots.
func New(cfg Config) (*Watcher, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = DescriptorPatterns
	}
	if err := validatePatterns(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", r, err)
		}
		if !slices.Contains(roots, abs) {
			roots = append(roots, abs)
		}
	}
	if len(roots) == 0 {
		return nil, errors.New("watch: no roots to watch")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		patterns: patterns,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
	}
	for _, root := range roots {
		if err := w.addTree(root, nil); err != nil {
			fsw.Close() //nolint:errcheck // already failing
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the absolute roots being watched.
func (w *Watcher) Roots() []string { return slices.Clone(w.roots) }

// Run processes events until ctx is cancelled. Callbacks never overlap; a
// window that closes while one is running is retried after the next quiet
// period.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}

		w.logger.Debug("descriptors changed", "paths", changed)
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("change handler failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			changed := []string{evt.Name}
			if evt.Has(fsnotify.Create) {
				changed = append(changed, w.maybeAddDir(evt.Name)...)
			}
			changed = slices.DeleteFunc(changed, func(p string) bool { return !w.relevant(p) })
			if len(changed) == 0 {
				continue
			}

			mu.Lock()
			for _, p := range changed {
				pending[p] = struct{}{}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// addTree watches every directory under root and passes each file found
// to visit, when set.
func (w *Watcher) addTree(root string, visit func(string)) error {
	if _, err := os.Stat(root); err != nil {
		w.logger.Warn("not watching missing root", "root", root)
		return nil
	}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping inaccessible path", "path", path, "err", err)
			return nil //nolint:nilerr // skip, keep walking
		}
		if !d.IsDir() {
			if visit != nil {
				visit(path)
			}
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.ignored(rel+"/") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

// maybeAddDir extends the watch to a directory created after startup and
// returns the files already inside it, which produced no events of their own.
func (w *Watcher) maybeAddDir(path string) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	var files []string
	if err := w.addTree(path, func(p string) { files = append(files, p) }); err != nil {
		w.logger.Warn("watch new directory", "path", path, "err", err)
	}
	return files
}

// relative returns path relative to the innermost root containing it.
func (w *Watcher) relative(path string) (string, bool) {
	best, found := "", false
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(rel) < len(best) {
			best, found = rel, true
		}
	}
	return filepath.ToSlash(best), found
}

func (w *Watcher) relevant(path string) bool {
	rel, ok := w.relative(path)
	if !ok || w.ignored(rel) {
		return false
	}
	return matchAny(w.patterns, rel)
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
