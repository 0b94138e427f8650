package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests drive rootCmd and share its flag globals, so they do not run
// in parallel.

type envelope struct {
	Command    string          `json:"command"`
	Results    json.RawMessage `json:"results"`
	TotalCount *int            `json:"total_count"`
	Error      string          `json:"error"`
}

// execute runs the CLI with fresh flag values and returns what it printed
// to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagDB, flagFormat, flagVersion, flagVerbose = "", "json", "", false
	flagConfig = filepath.Join(t.TempDir(), "missing.toml")
	flagForce, flagRules = false, ""
	errorHandled = false

	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func decode(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	return env
}

func copyProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(filepath.Join("..", "..", "testdata", "php", "project"))))
	return dir
}

func TestCLI_Scan(t *testing.T) {
	out, err := execute(t, "scan", filepath.Join("..", "..", "testdata", "php", "user.php"))
	require.NoError(t, err)

	env := decode(t, out)
	assert.Equal(t, "scan", env.Command)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 1, *env.TotalCount)

	var scans []CLIScan
	require.NoError(t, json.Unmarshal(env.Results, &scans))
	require.Len(t, scans, 1)
	assert.True(t, scans[0].Success)
	require.NotNil(t, scans[0].Declarations)
	require.Len(t, scans[0].Declarations.Classes, 1)
	assert.Equal(t, "UserClass", scans[0].Declarations.Classes[0].Name)
}

func TestCLI_LintFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.php")
	bad := filepath.Join(dir, "bad.php")
	require.NoError(t, os.WriteFile(good, []byte("<?php\n$a = 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("<?php\nclass {\n"), 0o644))

	out, err := execute(t, "lint", good, bad)
	assert.ErrorContains(t, err, "1 of 2 file(s)")

	var lints []CLILint
	require.NoError(t, json.Unmarshal(decode(t, out).Results, &lints))
	require.Len(t, lints, 2)
	assert.True(t, lints[0].Success)
	assert.False(t, lints[1].Success)
	assert.Positive(t, lints[1].Line)
}

func TestCLI_Expr(t *testing.T) {
	out, err := execute(t, "expr", "$this->repo->")
	require.NoError(t, err)

	var sym CLISymbol
	require.NoError(t, json.Unmarshal(decode(t, out).Results, &sym))
	assert.Equal(t, "$this", sym.Lexeme)
	assert.Equal(t, []string{"$this", "->repo", "->"}, sym.Chain)
}

func TestCLI_InvalidVersion(t *testing.T) {
	_, err := execute(t, "--version", "php7", "expr", "$a")
	assert.ErrorContains(t, err, `unknown version "php7"`)
}

func TestCLI_IndexAndQuery(t *testing.T) {
	dir := copyProject(t)
	db := filepath.Join(t.TempDir(), "index.db")

	_, err := execute(t, "--db", db, "index", dir)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "query", "class", `\App\Repo`)
	require.NoError(t, err)
	env := decode(t, out)
	assert.Equal(t, "class", env.Command)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 1, *env.TotalCount)

	out, err = execute(t, "--db", db, "query", "function", "helper_format")
	require.NoError(t, err)
	assert.Equal(t, 1, *decode(t, out).TotalCount)

	out, err = execute(t, "--db", db, "query", "dependents", "helpers.php")
	require.NoError(t, err)
	var paths []string
	require.NoError(t, json.Unmarshal(decode(t, out).Results, &paths))
	assert.Equal(t, []string{filepath.Join(dir, "src", "Repo.php")}, paths)
}

func TestCLI_QueryWithoutIndex(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")

	out, err := execute(t, "--db", db, "query", "stats")
	assert.ErrorContains(t, err, "database not found")
	assert.True(t, errorHandled)
	assert.Contains(t, decode(t, out).Error, "database not found")
}

func TestCLI_Check(t *testing.T) {
	dir := copyProject(t)
	rules := filepath.Join(dir, "rules")
	require.NoError(t, os.Mkdir(rules, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rules, "classes.risor"), []byte(`
for _, c := range classes {
    report(c["line"], "class " + c["name"])
}
`), 0o644))
	db := filepath.Join(t.TempDir(), "none.db")

	out, err := execute(t, "--db", db, "check", "--rules", rules, dir)
	assert.ErrorContains(t, err, "1 finding(s)")

	env := decode(t, out)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 1, *env.TotalCount)
	assert.Contains(t, string(env.Results), "class Repo")
}
