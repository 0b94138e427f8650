package semantic

// ExpressionKind tags the variant of an Expression.
type ExpressionKind int

const (
	ScalarExpression ExpressionKind = iota
	VariableExpression
	ArrayExpression
	FunctionCallExpression
	NewInstanceExpression
	UnknownExpression
)

func (k ExpressionKind) String() string {
	switch k {
	case VariableExpression:
		return "variable"
	case ArrayExpression:
		return "array"
	case FunctionCallExpression:
		return "function_call"
	case NewInstanceExpression:
		return "new"
	case UnknownExpression:
		return "unknown"
	default:
		return "scalar"
	}
}

// Expression is a flat access-path view of one expression: a base lexeme
// followed by a chain of access steps such as "->prop", "::CONST" or
// "func()". It carries no precedence or arithmetic structure.
type Expression struct {
	Kind ExpressionKind
	// Lexeme is the literal text (scalars), variable name, or raw text
	// (unknown expressions).
	Lexeme string
	// Name is the qualified name the expression refers to, if any.
	Name QualifiedName
	// Chain holds the access steps, each prefixed with its operator.
	Chain []string
	// CallArguments are the argument expressions bound to the last call
	// step.
	CallArguments []Expression
	Comment       string
}

// AppendToChain adds one access step.
func (e *Expression) AppendToChain(op, name string, isCall bool) {
	step := op + name
	if isCall {
		step += "()"
	}
	e.Chain = append(e.Chain, step)
}

// Clone returns a deep copy, so observers can keep it.
func (e Expression) Clone() Expression {
	c := e
	c.Name = e.Name.Clone()
	if e.Chain != nil {
		c.Chain = append([]string(nil), e.Chain...)
	}
	if e.CallArguments != nil {
		c.CallArguments = make([]Expression, len(e.CallArguments))
		for i := range e.CallArguments {
			c.CallArguments[i] = e.CallArguments[i].Clone()
		}
	}
	return c
}
