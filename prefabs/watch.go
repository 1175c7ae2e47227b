package prefabs

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long a file must stay quiet before its change is reported.
// Editors often write a file several times per save; those writes coalesce
// into one Change.
var Debounce = 100 * time.Millisecond

// Change is a modified definition or script file.
type Change struct {
	Path   string
	Script bool
}

// Watcher reports changes to definition and script files in the watched
// directories. Both channels are closed once the watcher stops.
type Watcher struct {
	Changes chan Change
	Errors  chan error

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		fs:      fs,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and waits for its goroutine. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.Errors)
	defer close(w.Changes)

	pending := make(map[string]Change)
	settle := time.NewTimer(Debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if change, ok := classify(event.Name); ok {
				pending[event.Name] = change
				settle.Reset(Debounce)
			}

		case <-settle.C:
			if !w.flush(ctx, pending) {
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// drop when the reader is behind
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// flush sends the settled changes in path order. It reports false when the
// watcher was cancelled mid-send.
func (w *Watcher) flush(ctx context.Context, pending map[string]Change) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		select {
		case w.Changes <- pending[p]:
			delete(pending, p)
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func classify(path string) (Change, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Change{Path: path}, true
	case ".tengo":
		return Change{Path: path, Script: true}, true
	}
	return Change{}, false
}
