package phpscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/phpscan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, opts ...IndexerOption) *Indexer {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ix, err := NewIndexer(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

// copyProject copies the fixture project into a fresh directory.
func copyProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(filepath.Join("testdata", "php", "project"))))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewIndexer_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewIndexer("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestIndexer_Defaults(t *testing.T) {
	t.Parallel()
	ix := newTestIndexer(t)
	assert.Positive(t, ix.workers)
	assert.Equal(t, PHP54, ix.version)
	assert.Equal(t, []string{"**/*.php"}, ix.include)
	require.NotNil(t, ix.Store())
	require.NotNil(t, ix.Query())
}

func TestIndexer_Matches(t *testing.T) {
	t.Parallel()
	ix := newTestIndexer(t, WithExclude("vendor/**", "**/*_test.php"))

	assert.True(t, ix.matches("src/Repo.php"))
	assert.True(t, ix.matches("index.php"))
	assert.False(t, ix.matches("README.md"))
	assert.False(t, ix.matches("vendor/acme/Lib.php"))
	assert.False(t, ix.matches("src/Repo_test.php"))

	assert.True(t, ix.excludedDir("vendor"))
	assert.False(t, ix.excludedDir("src"))
}

// =============================================================================
// IndexDirectory
// =============================================================================

func TestIndexDirectory_IndexesMatchingFiles(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t, WithWorkers(2), WithExclude("vendor/**"))

	stats, err := ix.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Zero(t, stats.Failed)

	paths, err := ix.Store().Paths("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src", "Repo.php"),
		filepath.Join(dir, "src", "helpers.php"),
	}, paths)
}

func TestIndexDirectory_SkipsUnchanged(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t, WithExclude("vendor/**"))
	ctx := context.Background()

	_, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)

	stats, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Zero(t, stats.Scanned)
	assert.Equal(t, 2, stats.Skipped)
}

func TestIndexDirectory_RescansOnVersionChange(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	ix, err := NewIndexer(dbPath, WithExclude("vendor/**"))
	require.NoError(t, err)
	_, err = ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	ix, err = NewIndexer(dbPath, WithExclude("vendor/**"), WithIndexVersion(PHP53))
	require.NoError(t, err)
	defer ix.Close()
	stats, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
}

func TestIndexDirectory_ReindexesChangedFile(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t, WithExclude("vendor/**"))
	ctx := context.Background()

	_, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "src", "helpers.php"), "<?php\nfunction renamed_helper() {}\n")
	stats, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Skipped)

	fns, err := ix.Query().Functions("helper_format")
	require.NoError(t, err)
	assert.Empty(t, fns)
	fns, err = ix.Query().Functions("renamed_helper")
	require.NoError(t, err)
	assert.Len(t, fns, 1)
}

func TestIndexDirectory_RemovesDeletedFiles(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t, WithExclude("vendor/**"))
	ctx := context.Background()

	_, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "src", "helpers.php")))
	stats, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)

	fns, err := ix.Query().Functions("helper_format")
	require.NoError(t, err)
	assert.Empty(t, fns)
}

func TestIndexDirectory_SkipsHiddenDirs(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t)

	_, err := ix.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)

	classes, err := ix.Query().Classes("Cached")
	require.NoError(t, err)
	assert.Empty(t, classes)

	// vendor is only skipped when excluded
	classes, err = ix.Query().Classes("AcmeLib")
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}

func TestIndexDirectory_RecordsSyntaxErrors(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	writeFile(t, filepath.Join(dir, "src", "broken.php"), "<?php\nclass Broken {\n\tfunction f( {\n}\n")
	ix := newTestIndexer(t, WithExclude("vendor/**"))
	ctx := context.Background()

	stats, err := ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Failed)

	failed, err := ix.Query().Failures()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(dir, "src", "broken.php"), failed[0].Path)
	assert.NotEmpty(t, failed[0].Error)
	assert.Positive(t, failed[0].ErrorLine)

	// an unchanged broken file is not rescanned
	stats, err = ix.IndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
}

func TestIndexFiles_MissingFileIsRemoved(t *testing.T) {
	t.Parallel()
	ix := newTestIndexer(t)
	stats, err := ix.IndexFiles(context.Background(), []string{filepath.Join(t.TempDir(), "gone.php")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
}

func TestIndexFiles_CanceledContext(t *testing.T) {
	t.Parallel()
	dir := copyProject(t)
	ix := newTestIndexer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.IndexFiles(ctx, []string{
		filepath.Join(dir, "src", "Repo.php"),
		filepath.Join(dir, "src", "helpers.php"),
	})
	require.Error(t, err)
}

// =============================================================================
// Batch conversion
// =============================================================================

func TestToBatch(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, true, true, true, false)
	res := p.ScanFile(filepath.Join("testdata", "php", "user.php"))
	require.True(t, res.Success, res.Error)

	b := toBatch(store.File{Path: "user.php"}, &c.Declarations)
	require.Len(t, b.Classes, 1)
	assert.Equal(t, "UserClass", b.Classes[0].FullName)

	require.Len(t, b.Members, 4)
	for _, m := range b.Members {
		assert.Equal(t, b.Classes[0].ID, m.ClassID)
	}
	assert.Equal(t, store.KindProperty, b.Members[0].Kind)
	assert.Equal(t, store.KindConst, b.Members[1].Kind)
	assert.Equal(t, store.KindMethod, b.Members[2].Kind)
	assert.Positive(t, b.Members[2].EndPos)

	require.Len(t, b.Functions, 1)
	assert.Positive(t, b.Functions[0].EndPos)
	require.Len(t, b.Defines, 1)
	assert.Len(t, b.Variables, 3)
}
