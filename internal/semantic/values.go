package semantic

// Token classifies the token a SemanticValue was produced from.
type Token int

const (
	TokenNone Token = iota
	TokenIdentifier
	TokenVariable
	TokenLiteral
	TokenKeyword
	TokenOperator
	TokenAmpersand
	TokenBrace
	TokenExpression
)

// SemanticValue is the payload of one token handed to the engine.
//
// Lexeme and Comment are only filled in while the engine is materializing
// values (see Engine.Value); otherwise they are empty and only Kind and
// Pos are meaningful.
type SemanticValue struct {
	Kind    Token
	Lexeme  string
	Comment string
	// Pos is the 0-based character offset of the token.
	Pos int
}

// Span is a half-open byte range into the scanned source.
type Span struct {
	Start, End int
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Stats counts engine work for one scan.
type Stats struct {
	// MaterializedValues is the number of values whose text was copied
	// out of the source.
	MaterializedValues int
	// SkippedValues is the number of values handed over while the engine
	// was not materializing.
	SkippedValues int
}
