package semantic

import "strings"

// ======================================================================
// Pending expressions
// ======================================================================

func (e *Engine) push(expr Expression) {
	e.pending = append(e.pending, expr)
}

func (e *Engine) last() *Expression {
	if len(e.pending) == 0 {
		return nil
	}
	return &e.pending[len(e.pending)-1]
}

// ExpressionPushScalar pushes a literal.
func (e *Engine) ExpressionPushScalar(v SemanticValue) {
	if e.collect() {
		e.push(Expression{Kind: ScalarExpression, Lexeme: v.Lexeme})
	}
}

// ExpressionPushArray pushes an array literal.
func (e *Engine) ExpressionPushArray(v SemanticValue) {
	if e.collect() {
		e.push(Expression{Kind: ArrayExpression, Lexeme: v.Lexeme})
	}
}

// ExpressionPushVariable pushes a variable; its name seeds the chain.
func (e *Engine) ExpressionPushVariable(v SemanticValue) {
	if !e.collect() {
		return
	}
	expr := Expression{Kind: VariableExpression, Lexeme: v.Lexeme, Comment: v.Comment}
	if v.Lexeme != "" {
		expr.Chain = []string{v.Lexeme}
	}
	e.push(expr)
}

// ExpressionPushNewInstance pushes an instantiation of the class in the
// current qualified name.
func (e *Engine) ExpressionPushNewInstance() {
	if !e.collect() {
		return
	}
	name := e.resolvedClassName()
	expr := Expression{Kind: NewInstanceExpression, Name: ParseQualifiedName(name)}
	if name != "" {
		expr.Chain = []string{name}
	}
	e.push(expr)
}

// ExpressionPushUnknown pushes an expression that cannot be modeled.
func (e *Engine) ExpressionPushUnknown(v SemanticValue) {
	if e.collect() {
		e.push(Expression{Kind: UnknownExpression, Lexeme: v.Lexeme, Comment: v.Comment})
	}
}

// ExpressionPushClassName pushes a reference to the class in the current
// qualified name, as the base of a static call.
func (e *Engine) ExpressionPushClassName() {
	if !e.collect() {
		return
	}
	name := e.resolvedClassName()
	expr := Expression{Kind: VariableExpression, Lexeme: name, Name: ParseQualifiedName(name)}
	if name != "" {
		expr.Chain = []string{name}
	}
	e.push(expr)
}

// CurrentExpressionAppendToChain adds an access step to the last pending
// expression. A call step takes the arguments collected since the matching
// CallArgumentsStart.
func (e *Engine) CurrentExpressionAppendToChain(op, name SemanticValue, isCall bool) {
	if !e.active {
		return
	}
	var frame callFrame
	if isCall {
		frame = e.popCall()
	}
	if !e.collecting {
		return
	}
	if expr := e.last(); expr != nil {
		expr.AppendToChain(op.Lexeme, name.Lexeme, isCall)
		if isCall {
			expr.CallArguments = frame.args
		}
	}
}

// CurrentExpressionAsStaticMember turns the last pushed variable into a
// static property access on the class in the current qualified name:
// $DEFAULT becomes MyClass with chain [MyClass, ::$DEFAULT].
func (e *Engine) CurrentExpressionAsStaticMember(op SemanticValue) {
	if !e.collect() {
		return
	}
	expr := e.last()
	if expr == nil || len(expr.Chain) == 0 {
		return
	}
	name := e.resolvedClassName()
	expr.Chain[0] = op.Lexeme + expr.Lexeme
	expr.Chain = append([]string{name}, expr.Chain...)
	expr.Lexeme = name
	expr.Name = ParseQualifiedName(name)
}

// CurrentExpressionPushAsClassConstant pushes MyClass::CONST with the class
// name as the first chain entry.
func (e *Engine) CurrentExpressionPushAsClassConstant(op, constant SemanticValue) {
	if !e.collect() {
		return
	}
	name := e.resolvedClassName()
	e.push(Expression{
		Kind:   ScalarExpression,
		Name:   ParseQualifiedName(name),
		Lexeme: name,
		Chain:  []string{name, op.Lexeme + constant.Lexeme},
	})
}

// CurrentExpressionAppendIndex adds an indexing step to the last pending
// expression.
func (e *Engine) CurrentExpressionAppendIndex() {
	if !e.collect() {
		return
	}
	if expr := e.last(); expr != nil {
		expr.Chain = append(expr.Chain, "[]")
	}
}

// ExpressionDetach drops the last pending expression, e.g. an index
// operand that is not part of the access path.
func (e *Engine) ExpressionDetach() {
	if e.collect() && len(e.pending) > 0 {
		e.pending = e.pending[:len(e.pending)-1]
	}
}

// ClearExpressions ends a statement.
func (e *Engine) ClearExpressions() {
	if !e.active {
		return
	}
	e.pending = e.pending[:0]
	e.calls = e.calls[:0]
	e.qname.Clear()
	e.assigned = false
}

// ExpressionFound reports the first expression of the statement.
func (e *Engine) ExpressionFound() {
	if !e.collect() || !e.caps.Has(CapExpression) || e.assigned {
		return
	}
	var expr Expression
	switch {
	case len(e.pending) > 0:
		expr = e.pending[0].Clone()
	case !e.qname.IsEmpty():
		// a bare name such as "MyClass;"
	default:
		return
	}
	expr.Name = e.qname.Clone()
	e.observers.expression.ExpressionFound(expr)
}

// ======================================================================
// Calls
// ======================================================================

func (e *Engine) popCall() callFrame {
	if len(e.calls) == 0 {
		return callFrame{}
	}
	f := e.calls[len(e.calls)-1]
	e.calls = e.calls[:len(e.calls)-1]
	return f
}

// FunctionCallStart begins a call to the function in the current
// qualified name.
func (e *Engine) FunctionCallStart() {
	if !e.active {
		return
	}
	raw := e.qname.Render()
	e.calls = append(e.calls, callFrame{
		raw:     raw,
		name:    e.ns.resolveFunction(raw),
		comment: e.qname.Comment(),
	})
}

// CallArgumentsStart begins the argument list of a method call, static
// call or instantiation.
func (e *Engine) CallArgumentsStart() {
	if e.active {
		e.calls = append(e.calls, callFrame{})
	}
}

// ExpressionAsCallArgument moves the last pending expression into the
// arguments of the innermost call, so it is not reported on its own.
func (e *Engine) ExpressionAsCallArgument() {
	if !e.collect() || len(e.pending) == 0 || len(e.calls) == 0 {
		return
	}
	top := &e.calls[len(e.calls)-1]
	top.args = append(top.args, e.pending[len(e.pending)-1])
	e.pending = e.pending[:len(e.pending)-1]
}

// CurrentExpressionPushAsFunctionCall pushes the innermost function call
// as an expression with chain [name()].
func (e *Engine) CurrentExpressionPushAsFunctionCall() {
	if !e.collect() || len(e.calls) == 0 {
		return
	}
	top := e.calls[len(e.calls)-1]
	if top.name == "" {
		return
	}
	e.push(Expression{
		Kind:          FunctionCallExpression,
		Name:          ParseQualifiedName(top.name),
		Comment:       top.comment,
		CallArguments: top.args,
		Chain:         []string{top.name + "()"},
	})
}

// CallArgumentsEnd closes the argument list opened by CallArgumentsStart
// and binds it to the last pending expression.
func (e *Engine) CallArgumentsEnd() {
	if !e.active {
		return
	}
	f := e.popCall()
	if expr := e.last(); e.collecting && expr != nil {
		expr.CallArguments = f.args
	}
}

// CallArgumentsDiscard closes the frame opened by CallArgumentsStart and
// drops what it collected, e.g. the operands of an operator.
func (e *Engine) CallArgumentsDiscard() {
	if e.active {
		e.popCall()
	}
}

// FunctionCallEnd closes a function call. define('NAME', value) is
// reported as a constant declaration.
func (e *Engine) FunctionCallEnd(line int) {
	if !e.active {
		return
	}
	f := e.popCall()
	if len(f.args) == 2 && strings.EqualFold(f.raw, "define") {
		e.observers.class.DefineDeclarationFound(f.args[0].Lexeme, f.args[1].Lexeme, f.comment, line)
	}
}

// ======================================================================
// Variable bindings
// ======================================================================

// AssignmentExpressionFound reports the assignment of the second pending
// expression to the first, then clears the pending list. Chained
// assignments only see their first two operands.
func (e *Engine) AssignmentExpressionFound() {
	if !e.collect() || len(e.pending) < 2 {
		return
	}
	dest, src := e.pending[0], e.pending[1]
	e.pending = e.pending[:0]
	e.assigned = true
	if !e.caps.Has(CapVariable) || strings.EqualFold(dest.Lexeme, "$this") {
		return
	}
	sym := Symbol{
		Lexeme:  dest.Lexeme,
		Type:    SymbolTypeOf(src.Kind),
		Comment: dest.Comment,
	}
	if len(src.Chain) > 0 {
		sym.Chain = append([]string(nil), src.Chain...)
	}
	e.observers.variable.VariableFound(e.class.Name, e.member.Name, sym, sym.Comment)
}

func (e *Engine) bindVariable(v SemanticValue, chain []string) {
	if !e.caps.Has(CapVariable) || v.Lexeme == "" {
		return
	}
	sym := Symbol{Lexeme: v.Lexeme, Type: Object, Chain: chain, Comment: v.Comment}
	e.observers.variable.VariableFound(e.class.Name, e.member.Name, sym, sym.Comment)
}

// ExceptionCatchFound reports the variable of a catch clause; the
// exception class is the current qualified name.
func (e *Engine) ExceptionCatchFound(v SemanticValue) {
	if !e.collect() {
		return
	}
	var chain []string
	if name := e.resolvedClassName(); name != "" {
		chain = []string{name}
	}
	e.bindVariable(v, chain)
}

// GlobalVariableFound reports a variable imported with global.
func (e *Engine) GlobalVariableFound(v SemanticValue) {
	if e.collect() {
		e.bindVariable(v, nil)
	}
}

// StaticVariableFound reports a function static variable.
func (e *Engine) StaticVariableFound(v SemanticValue) {
	if e.collect() {
		e.bindVariable(v, nil)
	}
}

// ListVariableFound reports a variable bound by list() destructuring.
func (e *Engine) ListVariableFound(v SemanticValue) {
	if e.collect() {
		e.bindVariable(v, nil)
	}
}

// ForeachVariableFound reports the last pending expression as a foreach
// key or value variable.
func (e *Engine) ForeachVariableFound() {
	if !e.collect() {
		return
	}
	if expr := e.last(); expr != nil {
		e.bindVariable(SemanticValue{Lexeme: expr.Lexeme, Comment: expr.Comment}, nil)
	}
}
