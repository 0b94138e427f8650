package grammar

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpscan/internal/semantic"
)

// qualifiedName loads a name node into the engine's current qualified
// name. Segments go in rightmost first; the leftmost one carries the doc
// comment that precedes the name.
func (d *driver) qualifiedName(n *sitter.Node) {
	d.e.QualifiedNameClear()
	if !d.e.Collecting() {
		return
	}
	d.qualifiedNameText(d.nameText(n), n)
}

func (d *driver) qualifiedNameText(text string, n *sitter.Node) {
	parts := strings.Split(text, semantic.NamespaceSeparator)
	pos := d.charPos(int(n.StartByte()))
	for i := len(parts) - 1; i > 0; i-- {
		d.e.QualifiedNameAddSegment(d.e.Text(semantic.TokenIdentifier, parts[i], pos))
	}
	first := d.e.Text(semantic.TokenIdentifier, parts[0], pos)
	if doc := d.docBefore(int(n.StartByte())); !doc.Empty() {
		first.Comment = string(d.src[doc.Start:doc.End])
	}
	d.e.QualifiedNameGrabFirstSegmentAndComment(first)
}

// ======================================================================
// Namespaces
// ======================================================================

func (d *driver) namespaceDefinition(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "namespace_name")
	}
	if name != nil {
		d.qualifiedName(name)
	} else {
		d.e.QualifiedNameClear()
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "compound_statement")
	}
	if body != nil && d.stop(body) || body == nil && !d.done(n) {
		return
	}
	d.e.NamespaceDeclarationFound(line(n.StartPoint()))
	if body == nil {
		return
	}
	d.statements(body)
	if d.done(body) {
		d.e.NamespaceEnd()
	}
}

// namespaceUse handles `use A\B as C, D;` and group uses
// `use A\{B, C as D};`.
func (d *driver) namespaceUse(n *sitter.Node) {
	if group := childOfType(n, "namespace_use_group"); group != nil {
		var prefix string
		if p := childOfType(n, "namespace_name", "qualified_name", "name"); p != nil {
			prefix = strings.TrimPrefix(d.nameText(p), semantic.NamespaceSeparator)
		}
		for _, clause := range namedChildren(group) {
			if clause.Type() == "comment" {
				continue
			}
			d.useClause(clause, prefix, line(n.StartPoint()))
			if d.halted {
				return
			}
		}
		return
	}
	for _, clause := range childrenOfType(n, "namespace_use_clause") {
		d.useClause(clause, "", line(n.StartPoint()))
		if d.halted {
			return
		}
	}
}

func (d *driver) useClause(clause *sitter.Node, prefix string, ln int) {
	if d.stop(clause) {
		return
	}
	var target, alias *sitter.Node
	seenAs := false
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "as":
			seenAs = true
		case "namespace_aliasing_clause":
			alias = childOfType(c, "name")
		case "name", "qualified_name", "namespace_name":
			if seenAs {
				alias = c
			} else if target == nil {
				target = c
			}
		}
	}
	if target == nil || !d.done(clause) {
		return
	}
	d.e.QualifiedNameClear()
	if d.e.Collecting() {
		text := d.nameText(target)
		if prefix != "" {
			text = prefix + semantic.NamespaceSeparator + text
		}
		d.qualifiedNameText(strings.TrimPrefix(text, semantic.NamespaceSeparator), target)
	}
	if alias == nil {
		d.e.NamespaceUseFound(nil, ln)
		return
	}
	a := d.bare(semantic.TokenIdentifier, alias)
	d.e.NamespaceUseFound(&a, ln)
}

// ======================================================================
// Classes
// ======================================================================

func hasChild(n *sitter.Node, types ...string) bool {
	return childOfType(n, types...) != nil
}

func (d *driver) classDeclaration(n *sitter.Node) {
	kind := n.Type()
	head := n.Child(0)
	if head.Type() == "attribute_list" && n.ChildCount() > 1 {
		head = n.Child(1)
	}
	d.e.ClassStart(
		d.valueDoc(semantic.TokenKeyword, head, d.docOf(n)),
		hasChild(n, "abstract_modifier", "abstract"),
		hasChild(n, "final_modifier", "final"),
		kind == "interface_declaration",
		kind == "trait_declaration",
	)
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "name")
	}
	if name != nil {
		d.e.ClassSetName(d.bare(semantic.TokenIdentifier, name))
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list")
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if d.stop(c) {
			return
		}
		switch c.Type() {
		case "base_clause":
			for j, parent := range namedChildren(c) {
				if !isNameNode(parent) {
					continue
				}
				d.qualifiedName(parent)
				if kind == "interface_declaration" {
					d.e.ClassAddImplements()
				} else if j == 0 {
					d.e.ClassSetExtends()
				}
			}
		case "class_interface_clause":
			d.e.QualifiedNameClear()
			for _, iface := range namedChildren(c) {
				if isNameNode(iface) {
					d.qualifiedName(iface)
					d.e.ClassAddImplements()
				}
			}
		}
	}
	if body == nil || d.stop(body) {
		return
	}
	d.e.ClassFound(line(body.StartPoint()))
	d.members(body)
	if !d.done(body) {
		return
	}
	d.e.ClassEnd(line(body.EndPoint()))
}

// docOf is the doc comment of a declaration, or an empty span when values
// are not collected.
func (d *driver) docOf(n *sitter.Node) semantic.Span {
	if !d.e.Collecting() {
		return semantic.Span{}
	}
	return d.docBefore(int(n.StartByte()))
}

func (d *driver) members(body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if d.stop(c) {
			return
		}
		d.flushComments(int(c.StartByte()))
		switch c.Type() {
		case "method_declaration":
			d.method(c)
		case "property_declaration":
			d.property(c)
		case "const_declaration":
			d.classConst(c)
		case "use_declaration":
			d.traitUse(c)
		}
	}
	if !d.halted {
		d.skipComments(int(body.EndByte()))
	}
}

// modifiers applies the member modifiers of n. The first token of the
// declaration carries doc; the returned bool reports whether a modifier
// consumed it.
func (d *driver) modifiers(n *sitter.Node, doc semantic.Span) bool {
	used := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		t := c.Type()
		switch t {
		case "visibility_modifier", "static_modifier", "abstract_modifier",
			"final_modifier", "var_modifier", "readonly_modifier":
		default:
			continue
		}
		if !used {
			d.e.ClassMemberAppendComment(d.valueDoc(semantic.TokenKeyword, c, doc))
			used = true
		}
		switch t {
		case "visibility_modifier":
			d.visibility(c)
		case "var_modifier":
			d.e.ClassMemberSetPublic()
		case "static_modifier":
			d.e.ClassMemberSetStatic()
		case "abstract_modifier":
			d.e.ClassMemberSetAbstract()
		case "final_modifier":
			d.e.ClassMemberSetFinal()
		}
	}
	return used
}

func (d *driver) visibility(n *sitter.Node) {
	switch strings.ToLower(n.Content(d.src)) {
	case "protected":
		d.e.ClassMemberSetProtected()
	case "private":
		d.e.ClassMemberSetPrivate()
	default:
		d.e.ClassMemberSetPublic()
	}
}

// functionHeader returns the function keyword, its doc comment unless a
// modifier took it, and the return-by-reference marker.
func (d *driver) functionHeader(n *sitter.Node, doc semantic.Span, docUsed bool) (fn, ref semantic.SemanticValue) {
	if kw := childOfType(n, "function"); kw != nil {
		if docUsed {
			doc = semantic.Span{}
		}
		fn = d.valueDoc(semantic.TokenKeyword, kw, doc)
	}
	if r := childOfType(n, "reference_modifier", "&"); r != nil {
		ref = d.bare(semantic.TokenAmpersand, r)
	}
	return fn, ref
}

func (d *driver) method(n *sitter.Node) {
	d.e.ClassMemberClear()
	d.e.ParametersListClear()
	doc := d.docOf(n)
	used := d.modifiers(n, doc)
	fn, ref := d.functionHeader(n, doc, used)
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	d.e.ClassMemberSetNameAndReturnReference(d.bare(semantic.TokenIdentifier, name), ref, fn)

	params := n.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	d.parameters(params)
	if !d.done(params) {
		return
	}
	d.e.ClassMemberFound(false, line(params.EndPoint()))

	end := n
	if body := n.ChildByFieldName("body"); body != nil {
		d.body(body)
		end = body
	}
	if !d.done(n) {
		return
	}
	d.e.ClassMethodEnd(d.closing(end))
}

// body walks a function or method body, or skips it in the resource
// variant.
func (d *driver) body(body *sitter.Node) {
	if !d.full {
		d.skipComments(int(body.EndByte()))
		return
	}
	d.statements(body)
}

func (d *driver) property(n *sitter.Node) {
	doc := d.docOf(n)
	for _, el := range childrenOfType(n, "property_element") {
		if d.stop(el) {
			return
		}
		d.e.ClassMemberClear()
		d.e.ClearExpressions()
		d.modifiers(n, doc)
		name := el.ChildByFieldName("name")
		if name == nil {
			name = childOfType(el, "variable_name")
		}
		if name == nil {
			continue
		}
		d.e.ClassMemberSetNameAndReturnReference(d.bare(semantic.TokenVariable, name), semantic.SemanticValue{}, semantic.SemanticValue{})
		if v := propertyDefault(el); v != nil {
			d.expr(v)
		}
		if !d.done(el) {
			return
		}
		d.e.ClassMemberFound(true, line(n.EndPoint()))
		d.e.ClearExpressions()
	}
}

func propertyDefault(el *sitter.Node) *sitter.Node {
	if v := el.ChildByFieldName("default_value"); v != nil {
		return v
	}
	if init := childOfType(el, "property_initializer"); init != nil {
		return firstNamed(init)
	}
	return nil
}

func (d *driver) classConst(n *sitter.Node) {
	doc := d.docOf(n)
	kw := childOfType(n, "const")
	for _, el := range childrenOfType(n, "const_element") {
		if d.stop(el) {
			return
		}
		name := childOfType(el, "name")
		if name == nil {
			continue
		}
		d.e.ClassMemberClear()
		d.e.ClearExpressions()
		var keyword semantic.SemanticValue
		if kw != nil {
			keyword = d.valueDoc(semantic.TokenKeyword, kw, doc)
		}
		d.e.ClassMemberSetConst(d.bare(semantic.TokenIdentifier, name), keyword)
		if vis := childOfType(n, "visibility_modifier"); vis != nil {
			d.visibility(vis)
		}
		if v := constValue(el); v != nil {
			d.expr(v)
		}
		if !d.done(el) {
			return
		}
		d.e.ClassMemberFound(true, line(el.EndPoint()))
		d.e.ClearExpressions()
	}
}

// traitUse handles `use A, B { A::m insteadof B; m as protected n; }`.
func (d *driver) traitUse(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if d.stop(c) {
			return
		}
		switch c.Type() {
		case "name", "qualified_name":
			d.qualifiedName(c)
			if !d.done(c) {
				return
			}
			d.e.TraitUseFound()
		case "use_list":
			for _, clause := range namedChildren(c) {
				if d.stop(clause) {
					return
				}
				d.traitClause(clause)
			}
		}
	}
}

func (d *driver) traitClause(n *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) == 0 {
		return
	}
	switch n.Type() {
	case "use_instead_of_clause", "use_as_clause":
	default:
		return
	}
	d.e.TraitClearAdaptation()
	d.e.ClassMemberClear()
	if ref := cs[0]; ref.Type() == "class_constant_access_expression" {
		parts := namedChildren(ref)
		if len(parts) < 2 {
			return
		}
		d.qualifiedName(parts[0])
		d.e.TraitAliasMethodFromQualifiedName(d.bare(semantic.TokenIdentifier, parts[len(parts)-1]))
	} else {
		d.e.TraitAliasMethod(d.bare(semantic.TokenIdentifier, ref))
	}
	if !d.done(n) {
		return
	}
	if n.Type() == "use_instead_of_clause" {
		d.e.TraitAliasFound(nil)
		return
	}
	var alias *semantic.SemanticValue
	for _, c := range cs[1:] {
		switch c.Type() {
		case "visibility_modifier":
			d.visibility(c)
		case "name":
			v := d.bare(semantic.TokenIdentifier, c)
			alias = &v
		}
	}
	d.e.TraitAliasFound(alias)
}

// ======================================================================
// Functions
// ======================================================================

func (d *driver) functionDefinition(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	fn, ref := d.functionHeader(n, d.docOf(n), false)
	d.e.FunctionStart(d.bare(semantic.TokenIdentifier, name), ref, fn)
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	d.parameters(params)
	if !d.done(params) {
		return
	}
	d.e.FunctionFound(line(params.EndPoint()))
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	d.body(body)
	if !d.done(body) {
		return
	}
	d.e.FunctionEnd(d.closing(body))
}

func (d *driver) parameters(n *sitter.Node) {
	for _, p := range namedChildren(n) {
		if d.stop(p) {
			return
		}
		switch p.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}
		d.parameterType(p.ChildByFieldName("type"))
		if dv := p.ChildByFieldName("default_value"); dv != nil {
			d.expr(dv)
		}
		name := p.ChildByFieldName("name")
		if name == nil {
			name = childOfType(p, "variable_name")
		}
		if name == nil || !d.done(p) {
			return
		}
		byRef := hasChild(p, "reference_modifier", "&")
		d.e.ParameterSetName(d.bare(semantic.TokenVariable, name), byRef)
	}
}

// parameterType opens a parameter with its type hint: a class name goes
// through the qualified name so it gets resolved, anything else is kept as
// written.
func (d *driver) parameterType(t *sitter.Node) {
	if t == nil {
		d.e.ParameterStart()
		return
	}
	for {
		switch t.Type() {
		case "type_list", "optional_type", "named_type", "union_type":
			if cs := namedChildren(t); len(cs) == 1 {
				t = cs[0]
				continue
			}
		}
		break
	}
	if t.Type() == "name" || t.Type() == "qualified_name" {
		d.qualifiedName(t)
		d.e.ParameterStartWithClassName()
		return
	}
	d.e.ParameterStartWithType(d.bare(semantic.TokenIdentifier, t))
}
