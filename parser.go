package phpscan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jward/phpscan/internal/grammar"
	"github.com/jward/phpscan/internal/semantic"
)

// Parser scans PHP source and reports what it finds to the registered
// observers.
//
// A Parser owns one engine and is not safe for concurrent use; concurrent
// scans need their own Parsers.
type Parser struct {
	engine  *semantic.Engine
	version Version
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithVersion sets the PHP dialect. The default is PHP54.
func WithVersion(v Version) Option {
	return func(p *Parser) {
		p.version = v
	}
}

// WithLogger sets the logger used for scan diagnostics. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser returns a Parser with no observers.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		engine:  semantic.NewEngine(),
		version: PHP54,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetVersion changes the PHP dialect for later scans.
func (p *Parser) SetVersion(v Version) {
	p.version = v
}

// Version returns the PHP dialect.
func (p *Parser) Version() Version {
	return p.version
}

// SetClassObserver registers o; nil unregisters.
func (p *Parser) SetClassObserver(o ClassObserver) {
	p.engine.SetClassObserver(o)
}

// SetClassMemberObserver registers o; nil unregisters.
func (p *Parser) SetClassMemberObserver(o ClassMemberObserver) {
	p.engine.SetClassMemberObserver(o)
}

// SetFunctionObserver registers o; nil unregisters.
func (p *Parser) SetFunctionObserver(o FunctionObserver) {
	p.engine.SetFunctionObserver(o)
}

// SetVariableObserver registers o; nil unregisters.
func (p *Parser) SetVariableObserver(o VariableObserver) {
	p.engine.SetVariableObserver(o)
}

// SetExpressionObserver registers o; nil unregisters.
func (p *Parser) SetExpressionObserver(o ExpressionObserver) {
	p.engine.SetExpressionObserver(o)
}

// Stats returns the engine counters of the last scan.
func (p *Parser) Stats() Stats {
	return p.engine.Stats()
}

// variant picks the cheapest walk that still serves every registered
// observer.
func (p *Parser) variant() grammar.Variant {
	if p.engine.Capabilities().Any(semantic.CapVariable | semantic.CapExpression) {
		return grammar.Full
	}
	return grammar.Resource
}

// ScanFile scans the file at path.
func (p *Parser) ScanFile(path string) ScanResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return unavailable(path, err)
	}
	return p.Scan(context.Background(), path, src)
}

// ScanReader scans everything r yields. name identifies the source in the
// result.
func (p *Parser) ScanReader(r io.Reader, name string) ScanResult {
	src, err := io.ReadAll(r)
	if err != nil {
		return unavailable(name, err)
	}
	return p.Scan(context.Background(), name, src)
}

// ScanString scans src.
func (p *Parser) ScanString(src string) ScanResult {
	return p.Scan(context.Background(), "", []byte(src))
}

// Scan scans src, which is identified by name in the result.
func (p *Parser) Scan(ctx context.Context, name string, src []byte) ScanResult {
	return p.run(ctx, name, src, p.variant())
}

// LintFile checks the file at path for syntax errors. No observer is
// called.
func (p *Parser) LintFile(path string) ScanResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return unavailable(path, err)
	}
	return p.run(context.Background(), path, src, grammar.Lint)
}

// LintReader checks everything r yields for syntax errors.
func (p *Parser) LintReader(r io.Reader, name string) ScanResult {
	src, err := io.ReadAll(r)
	if err != nil {
		return unavailable(name, err)
	}
	return p.run(context.Background(), name, src, grammar.Lint)
}

// LintString checks src for syntax errors.
func (p *Parser) LintString(src string) ScanResult {
	return p.run(context.Background(), "", []byte(src), grammar.Lint)
}

func (p *Parser) run(ctx context.Context, name string, src []byte, variant grammar.Variant) ScanResult {
	res := ScanResult{File: name, Success: true}
	p.engine.Reset()
	synErr, err := grammar.Run(ctx, src, p.engine, variant, p.version)
	if err != nil {
		res.Success = false
		res.Error = err.Error()
		res.Err = fmt.Errorf("phpscan: scan %s: %w", name, err)
		p.logger.Warn("scan failed", "file", name, "err", err)
		return res
	}
	if variant != grammar.Lint {
		res.Scope = p.engine.Scope()
	}
	if synErr != nil {
		res.Success = false
		res.Error = synErr.Message
		res.LineNumber = synErr.Line
		res.CharacterPosition = synErr.Pos
		res.Err = synErr
	}
	stats := p.engine.Stats()
	p.logger.Debug("scanned",
		"file", name,
		"variant", variant.String(),
		"version", p.version.String(),
		"success", res.Success,
		"materialized", stats.MaterializedValues,
		"skipped", stats.SkippedValues,
	)
	return res
}

// ParseExpression parses a single expression such as "$a->b()->c" and
// returns it as a Symbol. The snippet may end in a dangling "->", "::" or
// "\"; the operator is kept as an empty trailing step so callers can tell
// an incomplete access from a complete one. Registered observers are not
// called.
func (p *Parser) ParseExpression(snippet string) Symbol {
	s := strings.TrimSpace(snippet)
	var dangling string
	for _, op := range []string{"->", "::", semantic.NamespaceSeparator} {
		if strings.HasSuffix(s, op) {
			dangling = op
			s = strings.TrimSuffix(s, op)
			break
		}
	}
	if !strings.HasSuffix(s, ";") {
		s += ";"
	}

	var capture firstExpression
	e := semantic.NewEngine()
	e.SetExpressionObserver(&capture)
	if _, err := grammar.Run(context.Background(), []byte("<?php "+s), e, grammar.Full, p.version); err != nil {
		p.logger.Warn("parse expression", "snippet", snippet, "err", err)
	}

	sym := semantic.SymbolFromExpression(capture.expr)
	switch dangling {
	case "->", "::":
		sym.Chain = append(sym.Chain, dangling)
	case semantic.NamespaceSeparator:
		if len(sym.Chain) > 0 {
			sym.Chain[0] += dangling
		}
	}
	return sym
}

// firstExpression keeps the first expression of a parse.
type firstExpression struct {
	expr semantic.Expression
	seen bool
}

func (f *firstExpression) ExpressionFound(expr semantic.Expression) {
	if !f.seen {
		f.expr, f.seen = expr, true
	}
}
