package ml

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader watches the artifact directory and swaps in a freshly loaded
// registry when the files change. Each registry stays immutable; readers
// always see either the old complete set or the new complete set.
type Reloader struct {
	dir      string
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	current  atomic.Pointer[Registry]
	debounce time.Duration
}

func NewReloader(dir string, logger *zap.Logger) (*Reloader, error) {
	registry, err := LoadRegistry(dir)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	r := &Reloader{
		dir:      dir,
		logger:   logger,
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
	}
	r.current.Store(registry)
	return r, nil
}

func (r *Reloader) Registry() *Registry {
	return r.current.Load()
}

// Run blocks until ctx is cancelled. Artifact writes are debounced so a
// multi-file training run triggers a single reload.
func (r *Reloader) Run(ctx context.Context) {
	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			timer.Reset(r.debounce)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("artifact watcher error", zap.Error(err))
		case <-timer.C:
			r.reload()
		}
	}
}

func (r *Reloader) reload() {
	registry, err := LoadRegistry(r.dir)
	if err != nil {
		// keep serving from the previous registry
		r.logger.Warn("artifact reload failed, keeping previous models",
			zap.String("dir", r.dir), zap.Error(err))
		return
	}
	r.current.Store(registry)
	r.logger.Info("model artifacts reloaded",
		zap.String("dir", r.dir),
		zap.Int("num_features", registry.Contract().Len()),
		zap.Int("best_knn_k", registry.Metadata().BestKNNK))
}

func (r *Reloader) Close() error {
	return r.watcher.Close()
}
