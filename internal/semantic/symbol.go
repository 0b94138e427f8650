package semantic

import "fmt"

// SymbolType classifies what a Symbol holds.
type SymbolType int

const (
	Primitive SymbolType = iota
	Object
	Array
	Unknown
)

func (t SymbolType) String() string {
	switch t {
	case Object:
		return "object"
	case Array:
		return "array"
	case Unknown:
		return "unknown"
	default:
		return "primitive"
	}
}

func (t SymbolType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names String returns.
func (t *SymbolType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "primitive":
		*t = Primitive
	case "object":
		*t = Object
	case "array":
		*t = Array
	case "unknown":
		*t = Unknown
	default:
		return fmt.Errorf("semantic: unknown symbol type %q", text)
	}
	return nil
}

// Symbol is the declaration form handed to variable observers and
// returned by expression parsing.
type Symbol struct {
	Lexeme     string
	Type       SymbolType
	Chain      []string
	PhpDocType string
	Comment    string
}

// SymbolTypeOf maps an expression variant to its symbol classification.
func SymbolTypeOf(kind ExpressionKind) SymbolType {
	switch kind {
	case ArrayExpression:
		return Array
	case FunctionCallExpression, NewInstanceExpression, VariableExpression:
		return Object
	case UnknownExpression:
		return Unknown
	default:
		return Primitive
	}
}

// SymbolFromExpression converts a finished expression into a Symbol.
//
// A static access with no leading identifier leaves both lexeme and chain
// empty; the expression's qualified name then stands in for both.
func SymbolFromExpression(expr Expression) Symbol {
	s := Symbol{
		Lexeme:  expr.Lexeme,
		Type:    SymbolTypeOf(expr.Kind),
		Comment: expr.Comment,
	}
	if len(expr.Chain) > 0 {
		s.Chain = append([]string(nil), expr.Chain...)
	}
	if s.Lexeme == "" && len(s.Chain) == 0 {
		if name := expr.Name.Render(); name != "" {
			s.Lexeme = name
			s.Chain = []string{name}
		}
	}
	return s
}
