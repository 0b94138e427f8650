// Package runtime runs lint rules written in Risor against the
// declarations of a scanned PHP file.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/phpscan"
	"github.com/jward/phpscan/internal/store"
)

// Finding is one problem reported by a rule.
type Finding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Runtime embeds a Risor VM and exposes a file's declarations, the index
// and a few host functions to rule scripts.
type Runtime struct {
	reader  store.Reader
	logger  *slog.Logger
	version phpscan.Version
	libDir  string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithStore gives rules read access to the index through find_class,
// find_function, class_members and includers_of.
func WithStore(r store.Reader) Option {
	return func(rt *Runtime) {
		rt.reader = r
	}
}

// WithLogger sets the logger behind the log global.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithVersion sets the dialect used by parse_expression.
func WithVersion(v phpscan.Version) Option {
	return func(rt *Runtime) {
		rt.version = v
	}
}

// WithLibDir lets rule scripts import shared modules from dir.
func WithLibDir(dir string) Option {
	return func(rt *Runtime) {
		rt.libDir = dir
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:  slog.Default(),
		version: phpscan.PHP54,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Check evaluates script against the declarations of the file at path and
// returns what it reported.
func (r *Runtime) Check(ctx context.Context, path string, decl *phpscan.Declarations, script string) ([]Finding, error) {
	return r.eval(ctx, path, decl, "<inline>", script)
}

// CheckFile evaluates the rule script stored at scriptPath.
func (r *Runtime) CheckFile(ctx context.Context, path string, decl *phpscan.Declarations, scriptPath string) ([]Finding, error) {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading rule %s: %w", scriptPath, err)
	}
	return r.eval(ctx, path, decl, ruleName(scriptPath), string(src))
}

// CheckDir evaluates every *.risor file under rulesDir, in path order. A
// failing rule does not stop the others; their errors are joined.
func (r *Runtime) CheckDir(ctx context.Context, path string, decl *phpscan.Declarations, rulesDir string) ([]Finding, error) {
	scripts, err := RuleFiles(rulesDir)
	if err != nil {
		return nil, err
	}
	var (
		findings []Finding
		errs     []error
	)
	for _, script := range scripts {
		found, err := r.CheckFile(ctx, path, decl, script)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		findings = append(findings, found...)
	}
	return findings, errors.Join(errs...)
}

// RuleFiles lists the *.risor files under dir, sorted.
func RuleFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: listing rules in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func ruleName(scriptPath string) string {
	return strings.TrimSuffix(filepath.Base(scriptPath), ".risor")
}

func (r *Runtime) eval(ctx context.Context, path string, decl *phpscan.Declarations, rule, source string) ([]Finding, error) {
	if decl == nil {
		decl = &phpscan.Declarations{}
	}
	rep := &reporter{file: path, rule: rule}
	globals := r.buildGlobals(path, decl, rep)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("runtime: rule %s: %w", rule, err)
	}
	return rep.findings, nil
}

// buildImporter returns a Risor importer for the shared rule library, or
// nil when none is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	if r.libDir == "" {
		return nil
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	return importer.NewLocalImporter(importer.LocalImporterOptions{
		GlobalNames: names,
		SourceDir:   r.libDir,
		Extensions:  []string{".risor"},
	})
}

// buildGlobals constructs the full set of globals exposed to rules.
func (r *Runtime) buildGlobals(path string, decl *phpscan.Declarations, rep *reporter) map[string]any {
	globals := map[string]any{
		"file":             object.NewString(path),
		"classes":          classesToList(decl.Classes),
		"properties":       propertiesToList(decl.Properties),
		"methods":          methodsToList(decl.Methods),
		"functions":        functionsToList(decl.Functions),
		"variables":        variablesToList(decl.Variables),
		"includes":         includesToList(decl.Includes),
		"defines":          definesToList(decl.Defines),
		"report":           makeReportFn(rep),
		"query":            makeQueryFn(path),
		"parse_expression": makeParseExpressionFn(r.version),
		"log":              mustProxy(&logObject{logger: r.logger.With("rule", rep.rule, "file", path)}),
	}
	if r.reader != nil {
		globals["find_class"] = makeFindClassFn(r.reader)
		globals["find_function"] = makeFindFunctionFn(r.reader)
		globals["class_members"] = makeClassMembersFn(r.reader)
		globals["includers_of"] = makeIncludersOfFn(r.reader)
	}
	return globals
}

// reporter collects the findings of one rule run.
type reporter struct {
	mu       sync.Mutex
	file     string
	rule     string
	findings []Finding
}

func (r *reporter) add(line int, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, Finding{File: r.file, Line: line, Rule: r.rule, Message: msg})
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
