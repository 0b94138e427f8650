package phpscan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jward/phpscan/internal/store"
)

// Indexer keeps a SQLite navigation index of a PHP tree up to date: file
// discovery, change detection, parallel scanning and serial commits.
type Indexer struct {
	store   *store.Store
	workers int
	version Version
	include []string
	exclude []string
	logger  *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithWorkers sets how many files are scanned at once. The default is
// runtime.NumCPU().
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithIndexVersion sets the PHP dialect files are scanned as. Changing it
// rescans every file on the next run.
func WithIndexVersion(v Version) IndexerOption {
	return func(ix *Indexer) {
		ix.version = v
	}
}

// WithInclude sets the doublestar patterns, relative to the indexed root,
// that select files. The default is "**/*.php".
func WithInclude(patterns ...string) IndexerOption {
	return func(ix *Indexer) {
		if len(patterns) > 0 {
			ix.include = patterns
		}
	}
}

// WithExclude sets doublestar patterns, relative to the indexed root, for
// files and directories to leave out.
func WithExclude(patterns ...string) IndexerOption {
	return func(ix *Indexer) {
		ix.exclude = patterns
	}
}

// WithIndexLogger sets the logger. The default is slog.Default().
func WithIndexLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// NewIndexer opens (or creates) the index at dbPath.
func NewIndexer(dbPath string, opts ...IndexerOption) (*Indexer, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("phpscan: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("phpscan: migrate: %w", err)
	}

	ix := &Indexer{
		store:   s,
		workers: runtime.NumCPU(),
		version: PHP54,
		include: []string{"**/*.php"},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Close releases the database.
func (ix *Indexer) Close() error {
	return ix.store.Close()
}

// Store returns the underlying Store for direct access.
func (ix *Indexer) Store() *store.Store {
	return ix.store
}

// Query returns a QueryBuilder over the index.
func (ix *Indexer) Query() *QueryBuilder {
	return &QueryBuilder{store: ix.store}
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	// Scanned files were new or changed and have been rescanned.
	Scanned int `json:"scanned"`
	// Skipped files were unchanged since the last run.
	Skipped int `json:"skipped"`
	// Failed files were scanned but hold a syntax error. They are
	// recorded, so they are not rescanned until they change.
	Failed int `json:"failed"`
	// Removed files were in the index but no longer exist.
	Removed int     `json:"removed"`
	Errors  []error `json:"-"`
}

func (s *IndexStats) add(o IndexStats) {
	s.Scanned += o.Scanned
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Removed += o.Removed
	s.Errors = append(s.Errors, o.Errors...)
}

// IndexDirectory indexes every matching file under root and drops indexed
// files under root that no longer exist or no longer match.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (IndexStats, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return IndexStats{}, fmt.Errorf("phpscan: index %s: %w", root, err)
	}
	paths, err := ix.listFiles(abs, abs)
	if err != nil {
		return IndexStats{}, err
	}

	var stats IndexStats
	stale, err := ix.stalePaths(abs, paths)
	if err != nil {
		return stats, err
	}
	if len(stale) > 0 {
		if err := ix.store.DeleteFiles(stale); err != nil {
			return stats, fmt.Errorf("phpscan: prune: %w", err)
		}
		stats.Removed = len(stale)
	}

	run, err := ix.IndexFiles(ctx, paths)
	stats.add(run)
	return stats, err
}

// stalePaths returns the indexed paths under root that are not in current.
func (ix *Indexer) stalePaths(root string, current []string) ([]string, error) {
	indexed, err := ix.store.Paths(root + string(filepath.Separator))
	if err != nil {
		return nil, fmt.Errorf("phpscan: list indexed: %w", err)
	}
	keep := make(map[string]bool, len(current))
	for _, p := range current {
		keep[p] = true
	}
	var stale []string
	for _, p := range indexed {
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	return stale, nil
}

// listFiles walks dir, which is root or a directory below it, and returns
// the absolute paths of matching files, sorted. Patterns are matched
// against paths relative to root. Hidden directories are never entered.
func (ix *Indexer) listFiles(root, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || ix.excludedDir(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if ix.matches(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("phpscan: walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// matches reports whether a root-relative, slash-separated file path is
// included and not excluded.
func (ix *Indexer) matches(rel string) bool {
	for _, p := range ix.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range ix.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// excludedDir reports whether everything below a root-relative directory
// is excluded.
func (ix *Indexer) excludedDir(rel string) bool {
	for _, p := range ix.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel+"/*"); ok && strings.HasSuffix(p, "/**") {
			return true
		}
	}
	return false
}

// toBatch converts what a Collector saw in one file into a store batch.
func toBatch(f store.File, decl *Declarations) *store.Batch {
	b := store.NewBatch(f)

	classIDs := make(map[string]int64, len(decl.Classes))
	for _, c := range decl.Classes {
		classIDs[c.Name] = b.AddClass(store.Class{
			Name:      c.Name,
			Namespace: c.Namespace,
			FullName:  c.FullName(),
			Signature: c.Signature,
			Comment:   c.Comment,
			Line:      c.Line,
		})
	}

	for _, p := range decl.Properties {
		id, ok := classIDs[p.Class]
		if !ok {
			continue
		}
		kind := store.KindProperty
		if p.IsConst {
			kind = store.KindConst
		}
		b.AddMember(store.Member{
			ClassID:    id,
			Kind:       kind,
			Name:       p.Name,
			TypeExpr:   p.Type,
			Comment:    p.Comment,
			Visibility: p.Visibility.String(),
			IsStatic:   p.IsStatic,
			Line:       p.Line,
		})
	}
	for _, m := range decl.Methods {
		id, ok := classIDs[m.Class]
		if !ok {
			continue
		}
		b.AddMember(store.Member{
			ClassID:    id,
			Kind:       store.KindMethod,
			Name:       m.Name,
			TypeExpr:   m.ReturnType,
			Signature:  m.Signature,
			Comment:    m.Comment,
			Visibility: m.Visibility.String(),
			IsStatic:   m.IsStatic,
			Line:       m.Line,
		})
	}
	for _, end := range decl.MethodEnds {
		if id, ok := classIDs[end.Class]; ok {
			b.SetMethodEnd(id, end.Name, end.Pos)
		}
	}
	for _, tu := range decl.TraitUses {
		if id, ok := classIDs[tu.Class]; ok {
			b.AddMember(store.Member{ClassID: id, Kind: store.KindTrait, Name: tu.Trait})
		}
	}

	for _, fn := range decl.Functions {
		b.AddFunction(store.Function{
			Name:       fn.Name,
			Signature:  fn.Signature,
			ReturnType: fn.ReturnType,
			Comment:    fn.Comment,
			Line:       fn.Line,
		})
	}
	for _, end := range decl.FunctionEnds {
		b.SetFunctionEnd(end.Name, end.Pos)
	}
	for _, d := range decl.Defines {
		b.AddDefine(store.Define{Name: d.Name, Value: d.Value, Comment: d.Comment, Line: d.Line})
	}
	for _, inc := range decl.Includes {
		b.AddInclude(store.Include{Target: inc.File, Line: inc.Line})
	}
	for _, v := range decl.Variables {
		b.AddVariable(store.Variable{
			ClassName:    v.Class,
			FunctionName: v.Function,
			Name:         v.Name,
			Type:         v.Type,
			DocType:      v.DocType,
		})
	}
	return b
}
