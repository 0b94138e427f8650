package grammar

import (
	"bytes"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// findError records the first syntax error in document order: an ERROR or
// MISSING node, or a construct the dialect does not accept.
func (d *driver) findError(root *sitter.Node) {
	var (
		at      = -1
		message string
		errLine int
	)
	consider := func(off, ln int, msg string) {
		if at >= 0 && off >= at {
			return
		}
		at, message, errLine = off, msg, ln
	}

	if root.HasError() {
		if n := firstBroken(root); n != nil {
			consider(d.locate(n))
		}
	}
	if d.dialect == PHP53 {
		if n, tok := d.firstDialectViolation(root); n != nil {
			consider(int(n.StartByte()), line(n.StartPoint()), fmt.Sprintf("syntax error, unexpected '%s'", tok))
		}
	}
	if at < 0 {
		return
	}
	d.errAt = at
	d.synErr = &SyntaxError{Message: message, Line: errLine, Pos: d.charPos(at)}
}

// firstBroken returns the first ERROR or MISSING node under n.
func firstBroken(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if b := firstBroken(n.Child(i)); b != nil {
			return b
		}
	}
	return nil
}

// locate returns the offset, line and message of the error in the broken
// node n. Complete statements leading an ERROR node are skipped; a
// construct left open at end of input is reported there.
func (d *driver) locate(n *sitter.Node) (int, int, string) {
	if n.IsMissing() {
		if d.atEOF(int(n.StartByte())) {
			return d.eof()
		}
		return int(n.StartByte()), line(n.StartPoint()), fmt.Sprintf("syntax error, missing '%s'", n.Type())
	}
	rest := brokenTail(n)
	if len(rest) == 0 {
		return int(n.StartByte()), line(n.StartPoint()), d.unexpected(n)
	}
	if unclosed(rest) && d.atEOF(int(n.EndByte())) {
		return d.eof()
	}
	first := rest[0]
	if first.Type() == "ERROR" || first.IsMissing() {
		return d.locate(first)
	}
	if first.HasError() {
		return d.locate(firstBroken(first))
	}
	return int(first.StartByte()), line(first.StartPoint()), d.unexpected(first)
}

// brokenTail returns the children of the ERROR node n after its leading
// complete statements.
func brokenTail(n *sitter.Node) []*sitter.Node {
	var rest []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if rest == nil && complete(c) {
			continue
		}
		rest = append(rest, c)
	}
	return rest
}

// complete reports whether n is a whole statement without errors.
func complete(n *sitter.Node) bool {
	return n.Type() != "ERROR" && !n.IsMissing() && !n.HasError() && n.IsNamed() && isStatement(n)
}

// unclosed reports whether the tokens of ns open more brackets than they
// close.
func unclosed(ns []*sitter.Node) bool {
	depth := 0
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			switch n.Type() {
			case "{", "(", "[":
				depth++
			case "}", ")", "]":
				depth--
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	for _, n := range ns {
		walk(n)
	}
	return depth > 0
}

// atEOF reports whether only whitespace follows off.
func (d *driver) atEOF(off int) bool {
	if off >= len(d.src) {
		return true
	}
	return len(bytes.TrimSpace(d.src[off:])) == 0
}

// eof locates an error at the end of the last non-blank line.
func (d *driver) eof() (int, int, string) {
	end := len(bytes.TrimRight(d.src, " \t\r\n\v\f"))
	return end, bytes.Count(d.src[:end], []byte("\n")) + 1, "syntax error, unexpected end of file"
}

// unexpected names the first token of n.
func (d *driver) unexpected(n *sitter.Node) string {
	leaf := n
	for leaf.ChildCount() > 0 {
		leaf = leaf.Child(0)
	}
	tok := strings.TrimSpace(leaf.Content(d.src))
	if tok == "" || int(leaf.StartByte()) >= len(d.src) {
		return "syntax error, unexpected end of file"
	}
	if i := strings.IndexAny(tok, " \t\r\n"); i > 0 {
		tok = tok[:i]
	}
	return fmt.Sprintf("syntax error, unexpected '%s'", tok)
}

// firstDialectViolation returns the first node using PHP 5.4 syntax, with
// the token the 5.3 grammar would have stopped at.
func (d *driver) firstDialectViolation(n *sitter.Node) (*sitter.Node, string) {
	switch n.Type() {
	case "trait_declaration":
		return n, "trait"
	case "use_declaration":
		if p := n.Parent(); p != nil && p.Type() == "declaration_list" {
			return n, "use"
		}
	case "array_creation_expression":
		if first := n.Child(0); first != nil && first.Type() == "[" {
			return first, "["
		}
	case "subscript_expression":
		if obj := n.NamedChild(0); obj != nil && isCall(obj) {
			if tok := childOfType(n, "["); tok != nil {
				return tok, "["
			}
		}
	case "member_access_expression", "member_call_expression":
		if obj := n.ChildByFieldName("object"); obj != nil && obj.Type() == "parenthesized_expression" {
			if inner := firstNamed(obj); inner != nil && inner.Type() == "object_creation_expression" {
				if tok := childOfType(n, "->"); tok != nil {
					return tok, "->"
				}
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if v, tok := d.firstDialectViolation(n.Child(i)); v != nil {
			return v, tok
		}
	}
	return nil, ""
}

func isCall(n *sitter.Node) bool {
	switch n.Type() {
	case "function_call_expression", "member_call_expression",
		"nullsafe_member_call_expression", "scoped_call_expression":
		return true
	}
	return false
}
