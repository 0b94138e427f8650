package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpscan/internal/semantic"
)

// expr walks one expression and leaves exactly one expression pending on
// the engine (when it collects).
func (d *driver) expr(n *sitter.Node) {
	if n == nil || d.stop(n) {
		return
	}
	switch n.Type() {
	case "variable_name":
		d.e.ExpressionPushVariable(d.value(semantic.TokenVariable, n))
	case "string", "encapsed_string":
		d.e.ExpressionPushScalar(d.e.Value(semantic.TokenLiteral, d.src, d.stringSpan(n), semantic.Span{}, d.charPos(int(n.StartByte()))))
	case "integer", "float", "boolean", "null", "heredoc", "nowdoc", "name", "qualified_name":
		d.e.ExpressionPushScalar(d.bare(semantic.TokenLiteral, n))
	case "array_creation_expression":
		d.e.ExpressionPushArray(d.bare(semantic.TokenExpression, n))
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil {
			d.expr(inner)
		}
	case "error_suppression_expression", "clone_expression":
		if inner := firstNamed(n); inner != nil {
			d.expr(inner)
		}
	case "assignment_expression", "reference_assignment_expression":
		d.assignment(n)
	case "member_access_expression", "nullsafe_member_access_expression":
		d.memberAccess(n, false)
	case "member_call_expression", "nullsafe_member_call_expression":
		d.memberAccess(n, true)
	case "function_call_expression":
		d.functionCall(n)
	case "scoped_call_expression":
		d.scopedCall(n)
	case "scoped_property_access_expression":
		d.scopedProperty(n)
	case "class_constant_access_expression":
		d.classConstant(n)
	case "object_creation_expression":
		d.newInstance(n)
	case "subscript_expression":
		d.subscript(n)
	case "include_expression", "include_once_expression",
		"require_expression", "require_once_expression":
		d.include(n)
	case "anonymous_function_creation_expression", "anonymous_function", "arrow_function":
		d.e.ExpressionPushUnknown(d.bare(semantic.TokenExpression, n))
	default:
		d.unknown(n)
	}
}

// stringSpan is the span of a string literal without its quotes.
func (d *driver) stringSpan(n *sitter.Node) semantic.Span {
	s := span(n)
	text := d.src[s.Start:s.End]
	if len(text) > 0 && (text[0] == 'b' || text[0] == 'B') {
		s.Start++
		text = text[1:]
	}
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') && text[len(text)-1] == text[0] {
		s.Start++
		s.End--
	}
	return s
}

// unknown pushes n as an opaque expression. Its operands are still walked
// so calls and assignments inside it are reported, but what they push is
// dropped.
func (d *driver) unknown(n *sitter.Node) {
	d.e.CallArgumentsStart()
	for _, c := range namedChildren(n) {
		if d.stop(c) {
			break
		}
		if isStatement(c) {
			continue
		}
		d.expr(c)
		d.e.ExpressionAsCallArgument()
	}
	d.e.CallArgumentsDiscard()
	d.e.ExpressionPushUnknown(d.bare(semantic.TokenExpression, n))
}

func (d *driver) assignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		d.unknown(n)
		return
	}
	switch left.Type() {
	case "list_literal", "array_creation_expression":
		d.expr(right)
		if d.done(n) {
			d.listBindings(left)
		}
		return
	}
	d.expr(left)
	d.expr(right)
	if d.done(n) {
		d.e.AssignmentExpressionFound()
	}
}

// memberName returns the operator token and member name of an access or
// call on an object.
func (d *driver) memberName(n *sitter.Node) (op, name semantic.SemanticValue) {
	if tok := childOfType(n, "->", "?->"); tok != nil {
		op = d.bare(semantic.TokenOperator, tok)
	}
	if m := n.ChildByFieldName("name"); m != nil {
		name = d.bare(semantic.TokenIdentifier, m)
	}
	return op, name
}

func (d *driver) memberAccess(n *sitter.Node, isCall bool) {
	obj := n.ChildByFieldName("object")
	if obj == nil {
		obj = firstNamed(n)
	}
	d.expr(obj)
	op, name := d.memberName(n)
	if isCall {
		d.e.CallArgumentsStart()
		d.arguments(n.ChildByFieldName("arguments"))
	}
	if !d.done(n) {
		return
	}
	d.e.CurrentExpressionAppendToChain(op, name, isCall)
}

func (d *driver) arguments(args *sitter.Node) {
	if args == nil {
		return
	}
	for _, a := range namedChildren(args) {
		if d.stop(a) {
			return
		}
		x := a
		switch a.Type() {
		case "argument", "variadic_unpacking":
			// skip the label of a named argument
			x = lastNamed(a)
		}
		if x == nil {
			continue
		}
		d.expr(x)
		d.e.ExpressionAsCallArgument()
	}
}

func (d *driver) functionCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil {
		d.unknown(n)
		return
	}
	if !isNameNode(fn) {
		// $f(), $obj->prop(), (function () {})()
		d.expr(fn)
		d.e.CallArgumentsStart()
		d.arguments(args)
		if d.done(n) {
			d.e.CurrentExpressionAppendToChain(semantic.SemanticValue{}, semantic.SemanticValue{}, true)
		}
		return
	}
	d.qualifiedName(fn)
	d.e.FunctionCallStart()
	d.arguments(args)
	if !d.done(n) {
		return
	}
	d.e.CurrentExpressionPushAsFunctionCall()
	d.e.FunctionCallEnd(line(n.EndPoint()))
}

// scope returns the class part of a scoped access.
func scope(n *sitter.Node) *sitter.Node {
	if s := n.ChildByFieldName("scope"); s != nil {
		return s
	}
	return firstNamed(n)
}

func (d *driver) scopeOperator(n *sitter.Node) semantic.SemanticValue {
	if tok := childOfType(n, "::"); tok != nil {
		return d.bare(semantic.TokenOperator, tok)
	}
	return d.e.Text(semantic.TokenOperator, "::", d.charPos(int(n.StartByte())))
}

func (d *driver) scopedCall(n *sitter.Node) {
	s := scope(n)
	if isNameNode(s) {
		d.qualifiedName(s)
		d.e.ExpressionPushClassName()
	} else {
		d.expr(s)
	}
	var name semantic.SemanticValue
	if m := n.ChildByFieldName("name"); m != nil {
		name = d.bare(semantic.TokenIdentifier, m)
	}
	d.e.CallArgumentsStart()
	d.arguments(n.ChildByFieldName("arguments"))
	if !d.done(n) {
		return
	}
	d.e.CurrentExpressionAppendToChain(d.scopeOperator(n), name, true)
}

func (d *driver) scopedProperty(n *sitter.Node) {
	s := scope(n)
	prop := n.ChildByFieldName("name")
	if prop == nil {
		prop = lastNamed(n)
	}
	if s == nil || prop == nil || !d.done(n) {
		return
	}
	if !isNameNode(s) {
		d.expr(s)
		d.e.CurrentExpressionAppendToChain(d.scopeOperator(n), d.bare(semantic.TokenVariable, prop), false)
		return
	}
	d.qualifiedName(s)
	d.e.ExpressionPushVariable(d.bare(semantic.TokenVariable, prop))
	d.e.CurrentExpressionAsStaticMember(d.scopeOperator(n))
}

func (d *driver) classConstant(n *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) < 2 {
		d.unknown(n)
		return
	}
	if !d.done(n) {
		return
	}
	s, constant := cs[0], cs[len(cs)-1]
	if !isNameNode(s) {
		d.expr(s)
		d.e.CurrentExpressionAppendToChain(d.scopeOperator(n), d.bare(semantic.TokenIdentifier, constant), false)
		return
	}
	d.qualifiedName(s)
	d.e.CurrentExpressionPushAsClassConstant(d.scopeOperator(n), d.bare(semantic.TokenIdentifier, constant))
}

func (d *driver) newInstance(n *sitter.Node) {
	var class, args *sitter.Node
	for _, c := range namedChildren(n) {
		switch {
		case c.Type() == "arguments":
			args = c
		case class == nil:
			class = c
		}
	}
	if class == nil || !isNameNode(class) {
		// new $className, new class {...}
		d.unknown(n)
		return
	}
	d.qualifiedName(class)
	d.e.ExpressionPushNewInstance()
	d.e.CallArgumentsStart()
	d.arguments(args)
	d.e.CallArgumentsEnd()
}

func (d *driver) subscript(n *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) == 0 {
		d.unknown(n)
		return
	}
	d.expr(cs[0])
	if len(cs) > 1 {
		d.expr(cs[1])
		d.e.ExpressionDetach()
	}
	d.e.CurrentExpressionAppendIndex()
}

func (d *driver) include(n *sitter.Node) {
	d.e.CallArgumentsStart()
	if operand := firstNamed(n); operand != nil {
		d.expr(operand)
		d.e.ExpressionAsCallArgument()
	}
	if !d.done(n) {
		return
	}
	d.e.IncludeFound(line(n.EndPoint()))
	d.e.ExpressionPushUnknown(d.bare(semantic.TokenExpression, n))
}
