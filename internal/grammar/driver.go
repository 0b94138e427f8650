package grammar

import (
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpscan/internal/semantic"
)

// driver walks one syntax tree.
type driver struct {
	src     []byte
	e       *semantic.Engine
	full    bool
	dialect Dialect

	// errAt is the byte offset of the first syntax error, or -1.
	errAt  int
	synErr *SyntaxError
	// halted is set once the walk reached errAt.
	halted bool

	// comments holds every comment node in document order; nextComment is
	// the first one not yet handed to the engine as a type hint.
	comments    []*sitter.Node
	nextComment int

	ascii               bool
	runeBase, runeCount int
}

func newDriver(src []byte, e *semantic.Engine, variant Variant, dialect Dialect) *driver {
	d := &driver{
		src:     src,
		e:       e,
		full:    variant == Full,
		dialect: dialect,
		errAt:   -1,
		ascii:   true,
	}
	for _, b := range src {
		if b >= utf8.RuneSelf {
			d.ascii = false
			break
		}
	}
	return d
}

// charPos converts a byte offset to a character offset. Offsets mostly
// arrive in increasing order, so the count is carried forward.
func (d *driver) charPos(off int) int {
	if d.ascii {
		return off
	}
	if off > len(d.src) {
		off = len(d.src)
	}
	if off < d.runeBase {
		d.runeBase, d.runeCount = 0, 0
	}
	d.runeCount += utf8.RuneCount(d.src[d.runeBase:off])
	d.runeBase = off
	return d.runeCount
}

// stop reports whether n lies at or beyond the first error. The walk never
// enters such nodes.
func (d *driver) stop(n *sitter.Node) bool {
	if d.halted {
		return true
	}
	if d.errAt >= 0 && int(n.StartByte()) >= d.errAt {
		d.halted = true
		return true
	}
	return false
}

// done reports whether n completes before the first error, i.e. whether
// its completion event may be emitted.
func (d *driver) done(n *sitter.Node) bool {
	if d.halted {
		return false
	}
	if d.errAt >= 0 && int(n.EndByte()) > d.errAt {
		d.halted = true
		return false
	}
	return true
}

// ======================================================================
// Token values
// ======================================================================

func span(n *sitter.Node) semantic.Span {
	return semantic.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// value is the token value of n carrying the doc comment right before it.
func (d *driver) value(kind semantic.Token, n *sitter.Node) semantic.SemanticValue {
	var doc semantic.Span
	if d.e.Collecting() {
		doc = d.docBefore(int(n.StartByte()))
	}
	return d.valueDoc(kind, n, doc)
}

// bare is the token value of n without a comment.
func (d *driver) bare(kind semantic.Token, n *sitter.Node) semantic.SemanticValue {
	return d.valueDoc(kind, n, semantic.Span{})
}

func (d *driver) valueDoc(kind semantic.Token, n *sitter.Node, doc semantic.Span) semantic.SemanticValue {
	return d.e.Value(kind, d.src, span(n), doc, d.charPos(int(n.StartByte())))
}

// closing is the value of the last token of n, e.g. a closing brace.
func (d *driver) closing(n *sitter.Node) semantic.SemanticValue {
	end := int(n.EndByte())
	s := semantic.Span{Start: end - 1, End: end}
	return d.e.Value(semantic.TokenBrace, d.src, s, semantic.Span{}, d.charPos(s.Start))
}

func line(p sitter.Point) int {
	return int(p.Row) + 1
}

// ======================================================================
// Comments
// ======================================================================

func (d *driver) collectComments(n *sitter.Node) {
	if n.Type() == "comment" {
		d.comments = append(d.comments, n)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		d.collectComments(n.Child(i))
	}
}

func (d *driver) isDoc(c *sitter.Node) bool {
	s := d.src[c.StartByte():c.EndByte()]
	return len(s) > 4 && s[0] == '/' && s[1] == '*' && s[2] == '*'
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}

// docBefore returns the doc comment among the comments that immediately
// precede off, separated from it by whitespace only.
func (d *driver) docBefore(off int) semantic.Span {
	i := sort.Search(len(d.comments), func(i int) bool {
		return int(d.comments[i].EndByte()) > off
	}) - 1
	for ; i >= 0; i-- {
		c := d.comments[i]
		if !isBlank(d.src[c.EndByte():off]) {
			break
		}
		if d.isDoc(c) {
			return span(c)
		}
		off = int(c.StartByte())
	}
	return semantic.Span{}
}

// flushComments hands the plain comments before off to the engine as
// local variable type hints.
func (d *driver) flushComments(off int) {
	for d.nextComment < len(d.comments) {
		c := d.comments[d.nextComment]
		if int(c.StartByte()) >= off {
			return
		}
		d.nextComment++
		if d.isDoc(c) || !d.e.Collecting() {
			continue
		}
		d.e.NotifyLocalVariableTypeHint(d.e.Value(semantic.TokenNone, d.src, semantic.Span{}, span(c), d.charPos(int(c.StartByte()))))
	}
}

// skipComments drops the comments before off, e.g. those of a body that
// is not walked.
func (d *driver) skipComments(off int) {
	for d.nextComment < len(d.comments) && int(d.comments[d.nextComment].StartByte()) < off {
		d.nextComment++
	}
}

// ======================================================================
// Tree helpers
// ======================================================================

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func childrenOfType(n *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// namedChildren returns the named children of n that are not comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func lastNamed(n *sitter.Node) *sitter.Node {
	if cs := namedChildren(n); len(cs) > 0 {
		return cs[len(cs)-1]
	}
	return nil
}

func isNameNode(n *sitter.Node) bool {
	switch n.Type() {
	case "name", "qualified_name", "namespace_name", "relative_scope":
		return true
	}
	return false
}

// nameText is the source of a name node without embedded whitespace or
// comments.
func (d *driver) nameText(n *sitter.Node) string {
	if n.ChildCount() == 0 {
		return n.Content(d.src)
	}
	var b strings.Builder
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "comment" {
			return
		}
		if n.ChildCount() == 0 {
			b.WriteString(n.Content(d.src))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return b.String()
}

// ======================================================================
// Statements
// ======================================================================

func (d *driver) program(root *sitter.Node) {
	if !d.e.Active() {
		return
	}
	d.collectComments(root)
	d.statements(root)
}

// statements walks the statements of a program, block or namespace body.
func (d *driver) statements(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if d.stop(c) {
			return
		}
		if n.Type() == "ERROR" && !complete(c) {
			// only the whole statements leading a recovered region count
			d.halted = true
			return
		}
		d.statement(c)
	}
	if !d.halted && n.Type() == "compound_statement" {
		d.flushComments(int(n.EndByte()))
	}
}

// controlFlow lists the statements whose children are conditions,
// clauses and nested statements, walked generically.
var controlFlow = map[string]bool{
	"if_statement":      true,
	"else_clause":       true,
	"else_if_clause":    true,
	"while_statement":   true,
	"do_statement":      true,
	"for_statement":     true,
	"switch_statement":  true,
	"switch_block":      true,
	"case_statement":    true,
	"default_statement": true,
	"colon_block":       true,
	"declare_statement": true,
	"finally_clause":    true,
}

var ignoredStatements = map[string]bool{
	"comment":               true,
	"php_tag":               true,
	"text":                  true,
	"text_interpolation":    true,
	"empty_statement":       true,
	"named_label_statement": true,
	"goto_statement":        true,
	"break_statement":       true,
	"continue_statement":    true,
	"declare_directive":     true,
	"enum_declaration":      true,
	"attribute_list":        true,
}

func isStatement(n *sitter.Node) bool {
	t := n.Type()
	return controlFlow[t] || ignoredStatements[t] || strings.HasSuffix(t, "_statement") ||
		strings.HasSuffix(t, "_declaration") || strings.HasSuffix(t, "_definition") || t == "catch_clause"
}

func (d *driver) statement(n *sitter.Node) {
	d.flushComments(int(n.StartByte()))
	switch t := n.Type(); {
	case ignoredStatements[t]:
	case t == "namespace_definition":
		d.namespaceDefinition(n)
	case t == "namespace_use_declaration":
		d.namespaceUse(n)
	case t == "class_declaration", t == "interface_declaration", t == "trait_declaration":
		d.classDeclaration(n)
	case t == "function_definition":
		d.functionDefinition(n)
	case t == "const_declaration":
		d.constDeclaration(n)
	case t == "expression_statement":
		d.expressionStatement(n)
	case t == "compound_statement", t == "ERROR":
		d.statements(n)
	case t == "foreach_statement":
		d.foreach(n)
	case t == "try_statement":
		d.try(n)
	case t == "catch_clause":
		d.catch(n)
	case t == "global_declaration":
		d.global(n)
	case t == "function_static_declaration":
		d.static(n)
	case controlFlow[t]:
		d.control(n)
	default:
		// echo, return, unset and friends: only their expressions matter
		d.expressions(n)
	}
}

// expressions walks each expression child of n as its own statement.
func (d *driver) expressions(n *sitter.Node) {
	for _, c := range namedChildren(n) {
		if d.stop(c) {
			return
		}
		if isStatement(c) {
			d.statement(c)
			continue
		}
		d.expr(c)
		d.e.ClearExpressions()
	}
}

func (d *driver) control(n *sitter.Node) {
	d.expressions(n)
}

func (d *driver) expressionStatement(n *sitter.Node) {
	x := firstNamed(n)
	if x == nil {
		return
	}
	d.e.ClearExpressions()
	if isNameNode(x) {
		// a bare constant or class name
		d.qualifiedName(x)
	} else {
		d.expr(x)
	}
	if !d.done(x) {
		return
	}
	d.e.ExpressionFound()
	d.e.ClearExpressions()
}

// constDeclaration handles `const NAME = value;` outside a class.
func (d *driver) constDeclaration(n *sitter.Node) {
	doc := semantic.Span{}
	if d.e.Collecting() {
		doc = d.docBefore(int(n.StartByte()))
	}
	for _, el := range childrenOfType(n, "const_element") {
		if d.stop(el) {
			return
		}
		name := childOfType(el, "name")
		if name == nil {
			continue
		}
		d.e.ClearExpressions()
		if v := constValue(el); v != nil {
			d.expr(v)
		}
		if !d.done(el) {
			return
		}
		d.e.ConstantDeclarationFound(d.valueDoc(semantic.TokenIdentifier, name, doc), line(el.EndPoint()))
	}
}

// constValue is the value expression of a const_element.
func constValue(el *sitter.Node) *sitter.Node {
	if v := el.ChildByFieldName("value"); v != nil {
		return v
	}
	cs := namedChildren(el)
	if len(cs) > 1 {
		return cs[len(cs)-1]
	}
	return nil
}

func (d *driver) foreach(n *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) == 0 {
		return
	}
	d.e.ClearExpressions()
	subject := cs[0]
	d.expr(subject)
	var body []*sitter.Node
	if len(cs) > 1 {
		binding := cs[1]
		if d.stop(binding) {
			return
		}
		if binding.Type() == "pair" {
			for _, c := range namedChildren(binding) {
				d.foreachBinding(c)
			}
		} else {
			d.foreachBinding(binding)
		}
		body = cs[2:]
	}
	if !d.done(cs[0]) {
		return
	}
	d.e.ClearExpressions()
	for _, c := range body {
		if d.stop(c) {
			return
		}
		d.statement(c)
	}
}

func (d *driver) foreachBinding(n *sitter.Node) {
	switch n.Type() {
	case "by_ref":
		if v := childOfType(n, "variable_name"); v != nil {
			d.foreachBinding(v)
		}
	case "variable_name":
		d.e.ExpressionPushVariable(d.value(semantic.TokenVariable, n))
		d.e.ForeachVariableFound()
	case "list_literal", "array_creation_expression":
		d.listBindings(n)
	}
}

// listBindings reports every variable bound by a destructuring pattern.
func (d *driver) listBindings(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "variable_name":
			d.e.ListVariableFound(d.value(semantic.TokenVariable, c))
		case "comment":
		default:
			d.listBindings(c)
		}
	}
}

func (d *driver) try(n *sitter.Node) {
	for _, c := range namedChildren(n) {
		if d.stop(c) {
			return
		}
		d.statement(c)
	}
}

func (d *driver) catch(n *sitter.Node) {
	d.e.ClearExpressions()
	typ := n.ChildByFieldName("type")
	if typ == nil {
		typ = childOfType(n, "type_list", "qualified_name", "name", "named_type")
	}
	if typ != nil {
		if name := firstName(typ); name != nil {
			d.qualifiedName(name)
		}
	}
	v := n.ChildByFieldName("name")
	if v == nil {
		v = childOfType(n, "variable_name")
	}
	if v != nil && d.done(v) {
		d.e.ExceptionCatchFound(d.bare(semantic.TokenVariable, v))
	}
	d.e.ClearExpressions()
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "compound_statement")
	}
	if body != nil && !d.stop(body) {
		d.statement(body)
	}
}

// firstName returns the first name or qualified_name at or under n.
func firstName(n *sitter.Node) *sitter.Node {
	if n.Type() == "name" || n.Type() == "qualified_name" {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := firstName(n.NamedChild(i)); c != nil {
			return c
		}
	}
	return nil
}

func (d *driver) global(n *sitter.Node) {
	for _, v := range childrenOfType(n, "variable_name") {
		if !d.done(v) {
			return
		}
		d.e.GlobalVariableFound(d.bare(semantic.TokenVariable, v))
	}
	d.e.ClearExpressions()
}

func (d *driver) static(n *sitter.Node) {
	for _, sv := range childrenOfType(n, "static_variable_declaration") {
		if d.stop(sv) {
			return
		}
		name := sv.ChildByFieldName("name")
		if name == nil {
			name = childOfType(sv, "variable_name")
		}
		if v := sv.ChildByFieldName("value"); v != nil {
			d.expr(v)
		}
		if name == nil || !d.done(sv) {
			return
		}
		d.e.StaticVariableFound(d.bare(semantic.TokenVariable, name))
		d.e.ClearExpressions()
	}
}
