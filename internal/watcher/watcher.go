// Package watcher rebuilds graphs when watched source files change.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codescope/codescope/internal/callgraph"
)

// skipDirs are directory names never watched. They are either generated
// output or too noisy to be useful.
var skipDirs = map[string]bool{
	".git":         true,
	".codescope":   true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// Watcher monitors a repository tree for source file changes and invokes a
// callback with the batch of changed paths after a quiet period.
type Watcher interface {
	// Start begins watching. The callback receives absolute paths of files
	// changed since the last invocation.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops watching and releases resources. Idempotent.
	Stop() error
}

type repoWatcher struct {
	watcher      *fsnotify.Watcher
	rootDir      string
	debounceTime time.Duration
	callback     func(files []string)
	ctx          context.Context
	cancel       context.CancelFunc

	accumulated   map[string]bool
	accumulatedMu sync.Mutex

	debounceTimer *time.Timer
	timerMu       sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher over the repository root. Only files with supported
// source extensions trigger the callback.
func New(rootDir string) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	rw := &repoWatcher{
		watcher:      fsw,
		rootDir:      rootDir,
		debounceTime: 500 * time.Millisecond,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	if err := rw.addDirectoriesRecursively(rootDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return rw, nil
}

func (rw *repoWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	rw.callback = callback
	rw.ctx, rw.cancel = context.WithCancel(ctx)

	go rw.watch()
	return nil
}

func (rw *repoWatcher) Stop() error {
	var err error
	rw.stopOnce.Do(func() {
		if rw.cancel != nil {
			rw.cancel()
			<-rw.doneCh
		} else {
			// Never started
			close(rw.doneCh)
		}
		err = rw.watcher.Close()
	})
	return err
}

func (rw *repoWatcher) watch() {
	defer close(rw.doneCh)

	rebuildCh := make(chan struct{}, 1)

	for {
		select {
		case <-rw.ctx.Done():
			rw.stopDebounceTimer()
			return

		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}

			// New directories need to be added to the watch set
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := rw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if !rw.shouldProcessEvent(event) {
				continue
			}

			rw.accumulatedMu.Lock()
			rw.accumulated[event.Name] = true
			rw.accumulatedMu.Unlock()

			rw.resetDebounceTimer(rebuildCh)

		case <-rebuildCh:
			rw.fireCallback()

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// fireCallback drains the accumulated set and invokes the callback.
func (rw *repoWatcher) fireCallback() {
	rw.accumulatedMu.Lock()
	if len(rw.accumulated) == 0 {
		rw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(rw.accumulated))
	for file := range rw.accumulated {
		files = append(files, file)
	}
	rw.accumulated = make(map[string]bool)
	rw.accumulatedMu.Unlock()

	rw.callback(files)
}

func (rw *repoWatcher) resetDebounceTimer(rebuildCh chan struct{}) {
	rw.timerMu.Lock()
	defer rw.timerMu.Unlock()

	if rw.debounceTimer != nil {
		if !rw.debounceTimer.Stop() {
			select {
			case <-rw.debounceTimer.C:
			default:
			}
		}
	}

	rw.debounceTimer = time.AfterFunc(rw.debounceTime, func() {
		select {
		case rebuildCh <- struct{}{}:
		default:
		}
	})
}

func (rw *repoWatcher) stopDebounceTimer() {
	rw.timerMu.Lock()
	defer rw.timerMu.Unlock()

	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
		rw.debounceTimer = nil
	}
}

// shouldProcessEvent filters to write/create/remove events on supported
// source files.
func (rw *repoWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	return callgraph.IsSupported(event.Name)
}

// addDirectoriesRecursively adds the tree under rootPath to the watch set,
// skipping generated and VCS directories.
func (rw *repoWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !info.IsDir() {
			return nil
		}
		if skipDirs[info.Name()] && path != rootPath {
			return filepath.SkipDir
		}

		if err := rw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
