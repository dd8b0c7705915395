package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Holder publishes the live portfolio to concurrent readers.
type Holder struct {
	current atomic.Pointer[Portfolio]
}

func NewHolder(p *Portfolio) *Holder {
	h := &Holder{}
	h.current.Store(p)
	return h
}

func (h *Holder) Get() *Portfolio { return h.current.Load() }

// Swap replaces the live portfolio and returns the previous one.
func (h *Holder) Swap(p *Portfolio) *Portfolio { return h.current.Swap(p) }

// Watcher reloads a content file into a Holder whenever it changes on disk.
// A file that fails to load is logged and the previous content stays live.
type Watcher struct {
	path     string
	holder   *Holder
	log      *zap.Logger
	debounce time.Duration

	// OnReload, if set, runs after each successful reload.
	OnReload func(*Portfolio)

	mu      sync.Mutex
	pending *time.Timer
	// inflight tracks scheduled and running reloads.
	inflight sync.WaitGroup
	reloads  atomic.Int64
}

func NewWatcher(path string, holder *Holder, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		log:      log,
		debounce: 250 * time.Millisecond,
	}
}

// Reloads counts successful reloads.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

// Run watches the file's directory until ctx is done. Editors often replace
// files through a rename, so the directory is watched rather than the file.
// Run returns only after a reload already under way has finished.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create content watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching content file", zap.String("path", w.path))

	defer func() {
		w.mu.Lock()
		if w.pending != nil && w.pending.Stop() {
			w.inflight.Done()
		}
		w.pending = nil
		w.mu.Unlock()
		w.inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("content watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil && w.pending.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.pending = time.AfterFunc(w.debounce, func() {
		defer w.inflight.Done()
		w.reload()
	})
}

func (w *Watcher) reload() {
	p, err := Load(w.path)
	if err != nil {
		w.log.Warn("content reload rejected, keeping previous content", zap.Error(err))
		return
	}
	w.holder.Swap(p)
	w.reloads.Add(1)
	w.log.Info("content reloaded", zap.String("path", w.path))
	if w.OnReload != nil {
		w.OnReload(p)
	}
}
