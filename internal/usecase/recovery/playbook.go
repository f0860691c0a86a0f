package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

// Playbook is the recovery guidance served to victims, loaded from a TOML
// file so support staff can edit scenarios without a redeploy.
type Playbook struct {
	Version   int        `toml:"version"`
	Scenarios []Scenario `toml:"scenarios"`
}

type Scenario struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Severity string `toml:"severity"`
	Helpline string `toml:"helpline"`
	Steps    []Step `toml:"steps"`
}

type Step struct {
	Title  string `toml:"title"`
	Detail string `toml:"detail"`
}

// Store holds the current playbook and reloads it when the file changes.
// A broken edit keeps the last good copy in service.
type Store struct {
	path string

	mu      sync.RWMutex
	current Playbook
}

func NewStore(ctx context.Context, path string) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("playbook path is required")
	}

	store := &Store{path: trimmed}

	playbook, err := loadPlaybook(trimmed)
	if err != nil {
		// Serve an empty playbook rather than refusing to start; the watcher
		// picks the file up once it becomes readable.
		logging.Warn(
			logging.WithAttrs(ctx, slog.String("component", "usecase.recovery")),
			"playbook unavailable at startup",
			slog.String("path", trimmed),
			slog.Any("err", errs.Loggable(err)),
		)
		return store, nil
	}

	store.current = playbook
	return store, nil
}

// Scenarios returns the current guidance, ordered as authored.
func (s *Store) Scenarios() []Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Scenario, len(s.current.Scenarios))
	copy(out, s.current.Scenarios)
	return out
}

// Watch reloads the playbook on file changes until ctx is done. It returns
// once the watcher is installed; reloads happen on a background goroutine.
func (s *Store) Watch(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create playbook watcher")
	}

	// Watch the directory: editors replace files on save, which would drop a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return errs.Wrapf(err, "watch playbook directory %q", filepath.Dir(s.path))
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.recovery"),
		slog.String("path", s.path),
	)

	go func() {
		defer func() {
			_ = watcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.reload(logCtx)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn(logCtx, "playbook watcher error", slog.Any("err", errs.Loggable(watchErr)))
			}
		}
	}()

	return nil
}

func (s *Store) reload(ctx context.Context) {
	playbook, err := loadPlaybook(s.path)
	if err != nil {
		logging.Warn(ctx, "playbook reload failed, keeping last good copy", slog.Any("err", errs.Loggable(err)))
		return
	}

	s.mu.Lock()
	s.current = playbook
	s.mu.Unlock()

	logging.Info(ctx, "playbook reloaded", slog.Int("scenarios", len(playbook.Scenarios)))
}

func loadPlaybook(path string) (Playbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Playbook{}, err
	}

	var playbook Playbook
	if err := toml.Unmarshal(raw, &playbook); err != nil {
		return Playbook{}, errs.Wrap(err, "parse playbook")
	}
	if err := validatePlaybook(playbook); err != nil {
		return Playbook{}, err
	}
	return playbook, nil
}

func validatePlaybook(playbook Playbook) error {
	if playbook.Version != 1 {
		return fmt.Errorf("unsupported playbook version %d: expected version = 1", playbook.Version)
	}

	seen := make(map[string]struct{}, len(playbook.Scenarios))
	for _, scenario := range playbook.Scenarios {
		id := strings.TrimSpace(scenario.ID)
		if id == "" {
			return errors.New("scenario id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate scenario id %q", id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(scenario.Title) == "" {
			return fmt.Errorf("scenario %q has no title", id)
		}
		if len(scenario.Steps) == 0 {
			return fmt.Errorf("scenario %q has no steps", id)
		}
	}
	return nil
}
