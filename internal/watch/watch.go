// Package watch reruns the simulation whenever the parameter cache file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/solarloop/internal/paramcache"
	"github.com/Agrid-Dev/solarloop/internal/ports"
)

type CacheWatcher struct {
	svc  ports.LoopService
	path string
}

func New(svc ports.LoopService, path string) *CacheWatcher {
	return &CacheWatcher{svc: svc, path: filepath.Clean(path)}
}

// Run blocks until ctx is done. The parent directory is watched so that
// editors replacing the file by rename are still seen.
func (w *CacheWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	log.WithField("path", w.path).Info("watching parameter cache")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("cache watcher error")
		}
	}
}

// reload keeps the current run when the file is mid-write or malformed.
func (w *CacheWatcher) reload() {
	p, err := paramcache.Load(w.path, w.svc.Params().Derating)
	if err != nil {
		log.WithError(err).Debug("cache reload skipped")
		return
	}
	if p == w.svc.Params() {
		return
	}
	if err := w.svc.Rerun(p); err != nil {
		log.WithError(err).Warn("rerun after cache change failed")
		return
	}
	log.WithFields(log.Fields{
		"path":     w.path,
		"duration": p.Duration,
	}).Info("parameter cache reloaded")
}
