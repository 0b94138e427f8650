package phpscan

import (
	"github.com/jward/phpscan/internal/grammar"
	"github.com/jward/phpscan/internal/semantic"
)

// Public type aliases for the engine types that observers receive. These
// are Go type aliases (=), so no conversion is needed between the
// internal and public names.

type Symbol = semantic.Symbol
type SymbolType = semantic.SymbolType
type Expression = semantic.Expression
type ExpressionKind = semantic.ExpressionKind
type QualifiedName = semantic.QualifiedName
type Visibility = semantic.Visibility
type Scope = semantic.Scope
type Stats = semantic.Stats

type ClassObserver = semantic.ClassObserver
type ClassMemberObserver = semantic.ClassMemberObserver
type FunctionObserver = semantic.FunctionObserver
type VariableObserver = semantic.VariableObserver
type ExpressionObserver = semantic.ExpressionObserver

// Version is the PHP dialect a source is parsed as.
type Version = grammar.Dialect

const (
	PHP53 = grammar.PHP53
	PHP54 = grammar.PHP54
)

const (
	Public    = semantic.Public
	Protected = semantic.Protected
	Private   = semantic.Private
)

const (
	Primitive = semantic.Primitive
	Object    = semantic.Object
	Array     = semantic.Array
	Unknown   = semantic.Unknown
)

const (
	ScalarExpression       = semantic.ScalarExpression
	VariableExpression     = semantic.VariableExpression
	ArrayExpression        = semantic.ArrayExpression
	FunctionCallExpression = semantic.FunctionCallExpression
	NewInstanceExpression  = semantic.NewInstanceExpression
	UnknownExpression      = semantic.UnknownExpression
)

// ParseVersion maps "php53"/"5.3" and "php54"/"5.4" to a Version.
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "php53", "5.3", "53":
		return PHP53, true
	case "php54", "5.4", "54", "":
		return PHP54, true
	}
	return PHP54, false
}
