package indexer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"voicechat/backend/internal/log"
)

// Watcher monitors a directory tree and reports files that were written or
// created.
type Watcher struct {
	watcher *fsnotify.Watcher
}

// NewWatcher creates and returns a new Watcher.
func NewWatcher() (*Watcher, error) {
	fsnWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: fsnWatcher}, nil
}

// Run watches root until ctx is done, calling onChange for every file that
// is created or written. Directories created while running are watched too.
// onChange runs on the watcher goroutine.
func (w *Watcher) Run(ctx context.Context, root string, onChange func(path string)) error {
	defer w.watcher.Close()

	if err := w.addTree(root); err != nil {
		return err
	}
	log.Logger.Infow("started watching directory", "root", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if !SkipDir(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						log.Logger.Warnw("could not watch new directory", "path", event.Name, "error", err)
					}
				}
				continue
			}
			if SkipFile(info.Name()) {
				continue
			}
			log.Logger.Debugw("file event", "path", event.Name, "op", event.Op.String())
			onChange(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Logger.Errorw("watcher error", "error", err)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == root {
				return w.watcher.Add(path)
			}
			return nil
		}
		if path != root && SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
