package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// TutorialWatcher reports tutorial notebooks that changed on disk.
type TutorialWatcher struct {
	dir          string
	watcher      *fsnotify.Watcher
	onChange     func(name string)
	debounceTime time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewTutorialWatcher watches dir and calls onChange with the tutorial name
// once writes to its notebook have settled for debounce.
func NewTutorialWatcher(dir string, debounce time.Duration, onChange func(name string)) (*TutorialWatcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tutorials directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &TutorialWatcher{
		dir:          absDir,
		watcher:      watcher,
		onChange:     onChange,
		debounceTime: debounce,
		pending:      map[string]*time.Timer{},
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *TutorialWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch tutorials directory %s: %w", w.dir, err)
	}
	slog.Info("Watching tutorials", logfields.Path(w.dir))
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops watching and cancels pending notifications.
func (w *TutorialWatcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	for name, t := range w.pending {
		t.Stop()
		delete(w.pending, name)
	}
	w.mu.Unlock()
	return err
}

func (w *TutorialWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if name, ok := tutorialName(event.Name); ok {
				slog.Debug("Tutorial change detected", logfields.Tutorial(name), "op", event.Op.String())
				w.schedule(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Tutorial watcher error", logfields.Error(err))
		}
	}
}

func (w *TutorialWatcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[name]; ok {
		t.Stop()
	}
	w.pending[name] = time.AfterFunc(w.debounceTime, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(name)
	})
}

// tutorialName maps a changed path to a tutorial name, ignoring hidden files
// and executor output.
func tutorialName(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, notebook.Extension) {
		return "", false
	}
	if strings.HasSuffix(base, ".executed"+notebook.Extension) {
		return "", false
	}
	return strings.TrimSuffix(base, notebook.Extension), true
}
