package phpscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before it
// reindexes.
const DefaultDebounce = 300 * time.Millisecond

// Watch indexes root, then reindexes changed files until ctx is done.
// Bursts of events are coalesced: a batch is indexed once no event has
// arrived for debounce. onBatch, when non-nil, is called after each batch.
func (ix *Indexer) Watch(ctx context.Context, root string, debounce time.Duration, onBatch func(IndexStats, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("phpscan: watch %s: %w", root, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("phpscan: watch: %w", err)
	}
	defer w.Close()

	if err := ix.watchTree(w, abs, abs); err != nil {
		return err
	}

	stats, err := ix.IndexDirectory(ctx, abs)
	if onBatch != nil {
		onBatch(stats, err)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ix.handleEvent(w, abs, ev, pending) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Warn("watch error", "err", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			stats, err := ix.IndexFiles(ctx, paths)
			ix.logger.Info("reindexed", "files", len(paths), "scanned", stats.Scanned, "removed", stats.Removed)
			if onBatch != nil {
				onBatch(stats, err)
			}
		}
	}
}

// handleEvent records the files an event touches in pending and reports
// whether anything was recorded. New directories are watched and their
// files queued.
func (ix *Indexer) handleEvent(w *fsnotify.Watcher, root string, ev fsnotify.Event, pending map[string]bool) bool {
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(filepath.Base(ev.Name), ".") || ix.excludedDir(rel) {
				return false
			}
			if err := ix.watchTree(w, root, ev.Name); err != nil {
				ix.logger.Warn("watch new directory", "dir", ev.Name, "err", err)
			}
			found, err := ix.listFiles(root, ev.Name)
			if err != nil {
				return false
			}
			for _, p := range found {
				pending[p] = true
			}
			return len(found) > 0
		}
	}

	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if !ix.matches(rel) {
		return false
	}
	pending[ev.Name] = true
	return true
}

// watchTree adds dir and every directory under it that is not hidden or
// excluded. Exclude patterns are matched relative to root.
func (ix *Indexer) watchTree(w *fsnotify.Watcher, root, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == root {
			return w.Add(path)
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(root, path); err == nil && ix.excludedDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		return fmt.Errorf("phpscan: watch %s: %w", dir, err)
	}
	return nil
}
