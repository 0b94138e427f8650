package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// commitTestFile stores a file with one class holding a property and a
// method, one function, one define and one include.
func commitTestFile(t *testing.T, s *Store, path, className string) int64 {
	t.Helper()
	b := NewBatch(File{Path: path, Hash: "abc123", Version: "5.4", Success: true, LastIndexed: time.Now().Truncate(time.Second)})
	classID := b.AddClass(Class{Name: className, Namespace: `App`, FullName: `App\` + className, Signature: "class " + className, Line: 3})
	b.AddMember(Member{ClassID: classID, Kind: KindProperty, Name: "name", TypeExpr: "string", Visibility: "private", Line: 4})
	b.AddMember(Member{ClassID: classID, Kind: KindMethod, Name: "getName", Signature: "public function getName()", TypeExpr: "string", Visibility: "public", Line: 6})
	b.SetMethodEnd(classID, "getName", 120)
	b.AddFunction(Function{Name: "helper", Signature: "function helper($a)", Line: 10})
	b.SetFunctionEnd("helper", 200)
	b.AddDefine(Define{Name: "MAX", Value: "5000", Line: 12})
	b.AddInclude(Include{Target: "lib/util.php", Line: 1})
	b.AddVariable(Variable{FunctionName: "helper", Name: "$a", Type: "primitive"})
	id, err := s.CommitBatch(b)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	expectedTables := []string{
		"files", "classes", "members", "functions", "defines", "includes", "variables",
	}

	for _, table := range expectedTables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// File operations
// =============================================================================

func TestFile_CommitAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := commitTestFile(t, s, "/src/User.php", "User")

	got, err := s.FileByPath("/src/User.php")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, "5.4", got.Version)
	assert.True(t, got.Success)
	assert.Empty(t, got.Error)
}

func TestFile_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.FileByPath("/nonexistent.php")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFile_Hash(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")

	hash, version, ok, err := s.FileHash("/src/User.php")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", hash)
	assert.Equal(t, "5.4", version)

	_, _, ok, err = s.FileHash("/src/Missing.php")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_FailedScanIsRecorded(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatch(File{Path: "/bad.php", Hash: "ff", Version: "5.4", Error: "syntax error, unexpected '}'", ErrorLine: 7})
	_, err := s.CommitBatch(b)
	require.NoError(t, err)

	got, err := s.FileByPath("/bad.php")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, 7, got.ErrorLine)
	assert.Contains(t, got.Error, "unexpected")

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedFiles)
}

func TestPaths_Prefix(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/proj/a/One.php", "One")
	commitTestFile(t, s, "/proj/b/Two.php", "Two")
	commitTestFile(t, s, "/other/Three.php", "Three")

	paths, err := s.Paths("/proj/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/a/One.php", "/proj/b/Two.php"}, paths)

	all, err := s.Paths("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// Replace & Delete
// =============================================================================

func TestCommitBatch_ReplacesPreviousRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")
	commitTestFile(t, s, "/src/User.php", "Customer")

	old, err := s.FindClasses("User")
	require.NoError(t, err)
	assert.Empty(t, old)

	classes, err := s.FindClasses("Customer")
	require.NoError(t, err)
	require.Len(t, classes, 1)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Classes: 1, Members: 2, Functions: 1, Defines: 1, Includes: 1, Variables: 1}, st)
}

func TestCommitBatch_UnknownClassID(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatch(File{Path: "/x.php", Hash: "1", Version: "5.4", Success: true})
	b.AddMember(Member{ClassID: -42, Kind: KindMethod, Name: "orphan"})

	_, err := s.CommitBatch(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")

	got, err := s.FileByPath("/x.php")
	require.NoError(t, err)
	assert.Nil(t, got, "failed commit must roll back")
}

func TestDeleteFile_Cascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")
	commitTestFile(t, s, "/src/Order.php", "Order")

	require.NoError(t, s.DeleteFile("/src/User.php"))
	require.NoError(t, s.DeleteFile("/src/never-indexed.php"))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, 1, st.Classes)
	assert.Equal(t, 2, st.Members)
}

func TestDeleteFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/a.php", "A")
	commitTestFile(t, s, "/b.php", "B")
	commitTestFile(t, s, "/c.php", "C")

	require.NoError(t, s.DeleteFiles([]string{"/a.php", "/c.php"}))
	require.NoError(t, s.DeleteFiles(nil))

	paths, err := s.Paths("")
	require.NoError(t, err)
	assert.Equal(t, []string{"/b.php"}, paths)
}

// =============================================================================
// Queries
// =============================================================================

func TestFindClasses_ShortAndQualified(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")

	for _, name := range []string{"User", "user", `App\User`, `\App\User`, `app\USER`} {
		classes, err := s.FindClasses(name)
		require.NoError(t, err)
		require.Len(t, classes, 1, name)
		assert.Equal(t, "/src/User.php", classes[0].Path)
		assert.Equal(t, `App\User`, classes[0].FullName)
		assert.Equal(t, 3, classes[0].Line)
	}

	none, err := s.FindClasses(`Other\User`)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClassMembers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")

	classes, err := s.FindClasses("User")
	require.NoError(t, err)
	require.Len(t, classes, 1)

	members, err := s.ClassMembers(classes[0].ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, KindProperty, members[0].Kind)
	assert.Equal(t, "name", members[0].Name)
	assert.Equal(t, "private", members[0].Visibility)

	assert.Equal(t, KindMethod, members[1].Kind)
	assert.Equal(t, "getName", members[1].Name)
	assert.Equal(t, 120, members[1].EndPos)
}

func TestFindFunctions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/a.php", "A")
	commitTestFile(t, s, "/b.php", "B")

	fns, err := s.FindFunctions("HELPER")
	require.NoError(t, err)
	require.Len(t, fns, 2)
	assert.Equal(t, "/a.php", fns[0].Path)
	assert.Equal(t, "/b.php", fns[1].Path)
	assert.Equal(t, 200, fns[0].EndPos)
}

func TestFileDeclarations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/src/User.php", "User")

	decl, err := s.FileDeclarations("/src/User.php")
	require.NoError(t, err)
	require.NotNil(t, decl)
	assert.Len(t, decl.Classes, 1)
	assert.Len(t, decl.Functions, 1)
	require.Len(t, decl.Defines, 1)
	assert.Equal(t, "5000", decl.Defines[0].Value)
	require.Len(t, decl.Includes, 1)
	assert.Equal(t, "lib/util.php", decl.Includes[0].Target)
	require.Len(t, decl.Variables, 1)
	assert.Equal(t, "$a", decl.Variables[0].Name)

	missing, err := s.FileDeclarations("/nope.php")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIncludersOf(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	commitTestFile(t, s, "/a.php", "A")
	commitTestFile(t, s, "/b.php", "B")

	paths, err := s.IncludersOf("/proj/lib/util.php")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.php", "/b.php"}, paths)

	none, err := s.IncludersOf("other.php")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("<?php echo 1;"))
	assert.Equal(t, a, ContentHash([]byte("<?php echo 1;")))
	assert.NotEqual(t, a, ContentHash([]byte("<?php echo 2;")))
	assert.NotEmpty(t, a)
}
