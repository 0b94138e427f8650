package phpscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/phpscan/internal/store"
)

// workItem is a file that changed since it was last indexed.
type workItem struct {
	path    string
	content []byte
	hash    string
}

// scanned is what a worker hands back for commit.
type scanned struct {
	batch  *store.Batch
	failed bool
	err    error
}

// IndexFiles indexes the given files using a three-phase pipeline:
//
//	Phase A (serial):   read, hash and skip unchanged files; drop vanished ones.
//	Phase B (parallel): scan through a worker pool, one Parser per worker.
//	Phase C (serial):   commit each file's batch to SQLite.
//
// A file with a syntax error is committed as failed and counted in
// IndexStats.Failed; it is not an error.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) (IndexStats, error) {
	var stats IndexStats

	// ---- Phase A: change detection ----
	var items []workItem
	for _, path := range paths {
		item, skip, err := ix.prepareFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := ix.store.DeleteFile(path); err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("remove %s: %w", path, err))
				continue
			}
			stats.Removed++
		case err != nil:
			stats.Errors = append(stats.Errors, fmt.Errorf("prepare %s: %w", path, err))
		case skip:
			stats.Skipped++
		default:
			items = append(items, item)
		}
	}

	// ---- Phase B: parallel scanning ----
	results := make([]scanned, len(items))
	if len(items) > 0 {
		workers := min(ix.workers, len(items))
		work := make(chan int)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(work)
			for i := range items {
				if err := gctx.Err(); err != nil {
					return err
				}
				select {
				case work <- i:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
		for range workers {
			g.Go(func() error {
				p := NewParser(WithVersion(ix.version), WithLogger(ix.logger))
				c := NewCollector()
				c.Register(p, true, true, true, true, false)
				for i := range work {
					results[i] = ix.scanFile(gctx, p, c, items[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, fmt.Errorf("phpscan: indexing: %w", err)
		}
	}

	// ---- Phase C: serial commit ----
	for i, res := range results {
		path := items[i].path
		if res.err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("scan %s: %w", path, res.err))
			continue
		}
		if _, err := ix.store.CommitBatch(res.batch); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("commit %s: %w", path, err))
			continue
		}
		stats.Scanned++
		if res.failed {
			stats.Failed++
			ix.logger.Warn("indexed with syntax error", "file", path, "error", res.batch.File.Error, "line", res.batch.File.ErrorLine)
			continue
		}
		ix.logger.Debug("indexed", "file", path,
			"classes", len(res.batch.Classes),
			"functions", len(res.batch.Functions),
		)
	}

	if len(stats.Errors) > 0 {
		return stats, fmt.Errorf("phpscan: indexing had %d error(s): %w", len(stats.Errors), stats.Errors[0])
	}
	return stats, nil
}

// prepareFile does Phase A work for a single file. skip is true when the
// content and dialect match what was last indexed.
func (ix *Indexer) prepareFile(path string) (workItem, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, err
	}
	hash := store.ContentHash(content)

	oldHash, oldVersion, ok, err := ix.store.FileHash(path)
	if err != nil {
		return workItem{}, false, err
	}
	if ok && oldHash == hash && oldVersion == ix.version.String() {
		return workItem{}, true, nil
	}
	return workItem{path: path, content: content, hash: hash}, false, nil
}

// scanFile does Phase B work for a single file. A file with a syntax error
// keeps only its file record.
func (ix *Indexer) scanFile(ctx context.Context, p *Parser, c *Collector, item workItem) scanned {
	c.Reset()
	res := p.Scan(ctx, item.path, item.content)

	f := store.File{
		Path:        item.path,
		Hash:        item.hash,
		Version:     ix.version.String(),
		Success:     res.Success,
		LastIndexed: time.Now(),
	}
	if res.Success {
		return scanned{batch: toBatch(f, &c.Declarations)}
	}

	var synErr *SyntaxError
	if !errors.As(res.Err, &synErr) {
		return scanned{err: res.Err}
	}
	f.Error = synErr.Message
	f.ErrorLine = synErr.Line
	return scanned{batch: store.NewBatch(f), failed: true}
}
