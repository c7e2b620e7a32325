package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"impractical.co/jrblog"
)

// reloadDelay is how long the watcher waits for changes to stop before
// reloading.
const reloadDelay = 300 * time.Millisecond

// watcher calls reload once files below its directories stop changing.
type watcher struct {
	fsw    *fsnotify.Watcher
	reload func(context.Context) error
	delay  time.Duration
}

// newWatcher watches every directory below dirs. fsnotify doesn't watch
// recursively, so each is added on its own, and directories created later
// are added as they appear.
func newWatcher(dirs []string, reload func(context.Context) error) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}
	w := &watcher{fsw: fsw, reload: reload, delay: reloadDelay}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("error watching %s: %w", root, err)
	}
	return nil
}

// Close stops watching.
func (w *watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is done or the watcher is closed.
func (w *watcher) Run(ctx context.Context) {
	log := jrblog.Logger(ctx)
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.DebugContext(ctx, "file changed", "file", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.WarnContext(ctx, "error watching new directory", "dir", event.Name, "error", err)
					}
				}
			}
			timer.Reset(w.delay)
		case <-timer.C:
			if err := w.reload(ctx); err != nil {
				log.ErrorContext(ctx, "error reloading, still serving the previous content", "error", err)
				continue
			}
			log.InfoContext(ctx, "reloaded content")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}
