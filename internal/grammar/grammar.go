// Package grammar drives a semantic.Engine from a tree-sitter PHP parse.
//
// The driver walks the syntax tree in document order and calls the engine
// the way a grammar with semantic actions would: one event per recognized
// construct, with the source spans of the tokens involved. The walk stops
// at the first syntax error; events for constructs that complete after the
// error are never emitted.
package grammar

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/jward/phpscan/internal/semantic"
)

// Variant selects how much of the source the driver walks.
type Variant int

const (
	// Lint only checks the source for syntax errors.
	Lint Variant = iota
	// Resource walks declarations and top level statements but skips
	// function and method bodies.
	Resource
	// Full walks everything.
	Full
)

func (v Variant) String() string {
	switch v {
	case Lint:
		return "lint"
	case Resource:
		return "resource"
	case Full:
		return "full"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Dialect is the PHP language version the source is checked against.
type Dialect int

const (
	// PHP53 rejects traits, short array syntax and dereferencing the result
	// of a call or of a parenthesized instantiation.
	PHP53 Dialect = iota
	// PHP54 accepts the PHP 5.4 syntax.
	PHP54
)

func (d Dialect) String() string {
	switch d {
	case PHP53:
		return "5.3"
	case PHP54:
		return "5.4"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// SyntaxError is the first syntax error of a source.
type SyntaxError struct {
	Message string
	// Line is 1-based.
	Line int
	// Pos is the character offset of the offending token.
	Pos int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Language returns the tree-sitter PHP grammar.
func Language() *sitter.Language {
	return php.GetLanguage()
}

// Parse parses src as PHP. The caller must close the returned tree.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

// Run parses src and feeds the engine. The returned SyntaxError is nil when
// the source is valid for the dialect; err is only set when the source
// could not be parsed at all.
func Run(ctx context.Context, src []byte, e *semantic.Engine, variant Variant, dialect Dialect) (*SyntaxError, error) {
	tree, err := Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	d := newDriver(src, e, variant, dialect)
	d.findError(root)
	if variant == Lint {
		return d.synErr, nil
	}
	d.program(root)
	return d.synErr, nil
}
