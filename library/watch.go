package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"retroplayer/models"
)

// watchDebounce is how long the watcher waits after the last file event
// before ingesting, so a file still being copied is read once at the end.
var watchDebounce = 500 * time.Millisecond

// Watch ingests audio files that appear under root, including new
// subdirectories, until ctx is done. onAdded receives each batch of
// tracks that made it into the library and may be nil.
func (l *Library) Watch(ctx context.Context, root string, onAdded func([]models.Track)) error {
	logger := l.logger.WithField("method", "Watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	addRecursive := func(dir string) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			if err := watcher.Add(path); err != nil {
				logger.Warnf("failed to watch %s: %v", path, err)
			}
			return nil
		})
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to resolve path %s: %w", root, err)
	}
	addRecursive(absRoot)
	logger.Infof("Watching %d directories under %s", len(watcher.WatchList()), absRoot)

	var (
		pendingMutex sync.Mutex
		pending      = map[string]bool{}
		timer        *time.Timer
	)
	flush := func() {
		pendingMutex.Lock()
		paths := lo.Keys(pending)
		pending = map[string]bool{}
		pendingMutex.Unlock()

		known := lo.SliceToMap(l.List(), func(t models.Track) (string, bool) { return t.SourceID, true })
		tracks, err := l.Ingest(paths)
		if err != nil {
			logger.Warnf("some watched files could not be ingested: %v", err)
		}
		fresh := lo.Reject(tracks, func(t models.Track, _ int) bool { return known[t.SourceID] })
		if len(fresh) > 0 && onAdded != nil {
			onAdded(fresh)
		}
	}
	queue := func(path string) {
		pendingMutex.Lock()
		defer pendingMutex.Unlock()
		pending[path] = true
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, flush)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if event.Has(fsnotify.Create) {
						addRecursive(event.Name)
						// files copied in with the directory raise no events of their own
						_ = filepath.WalkDir(event.Name, func(path string, d fs.DirEntry, err error) error {
							if err == nil && !d.IsDir() && Supported(path) {
								queue(path)
							}
							return nil
						})
					}
					continue
				}
				if Supported(event.Name) {
					queue(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("watch error: %v", err)
			}
		}
	}()
	return nil
}
