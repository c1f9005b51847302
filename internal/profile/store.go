// Package profile loads patient profiles from YAML and keeps a hot-reloadable snapshot
package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
)

// reloadDebounce is the quiet period after the last write before a reload
const reloadDebounce = 100 * time.Millisecond

// Store holds the current profile snapshot. Readers always see a complete
// profile; reloads replace the snapshot as a whole.
type Store struct {
	path    string
	current atomic.Pointer[models.PatientProfile]

	mu       sync.Mutex
	onReload func(*models.PatientProfile)
}

// NewStore loads the profile at path. An empty path yields a store holding Defaults.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		s.current.Store(Defaults())
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore returns a store serving a fixed profile
func NewStaticStore(p *models.PatientProfile) *Store {
	s := &Store{}
	s.current.Store(p)
	return s
}

// Path returns the file backing the store, if any
func (s *Store) Path() string {
	return s.path
}

// Current returns the active profile snapshot. Callers must not modify it.
func (s *Store) Current() *models.PatientProfile {
	return s.current.Load()
}

// Set replaces the snapshot with a copy of p
func (s *Store) Set(p *models.PatientProfile) error {
	if err := Validate(p); err != nil {
		return err
	}
	s.current.Store(p.Clone())
	return nil
}

// OnReload registers a callback invoked after each successful file reload
func (s *Store) OnReload(fn func(*models.PatientProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = fn
}

// Reload re-reads the backing file. On error the previous snapshot stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	p, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(p)

	s.mu.Lock()
	fn := s.onReload
	s.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return nil
}

// Watch reloads the profile whenever its file is written, until ctx is done
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create profile watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch profile dir %s: %w", dir, err)
	}
	logging.Logger(logging.SourceProfile).Info("Watching profile", "path", s.path)

	go s.eventLoop(ctx, fsWatcher)
	return nil
}

func (s *Store) eventLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	logger := logging.Logger(logging.SourceProfile)

	// Each event restarts the timer, so a save that truncates and then
	// writes is read once, after the last write
	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			debounce.Reset(reloadDebounce)
			pending = debounce.C

		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				logger.Warn("Profile reload failed, keeping previous", "path", s.path, "error", err)
				continue
			}
			logger.Info("Profile reloaded", "path", s.path)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("Profile watcher error", "error", err)
		}
	}
}
