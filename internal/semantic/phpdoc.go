package semantic

import (
	"strings"
	"unicode"
)

const docDelimiters = " \t\n\v\f\r"

// docTokens splits a doc comment into whitespace separated tokens.
type docTokens struct {
	fields []string
	next   int
}

func newDocTokens(comment string) *docTokens {
	return &docTokens{
		fields: strings.FieldsFunc(comment, func(r rune) bool {
			return strings.ContainsRune(docDelimiters, r)
		}),
	}
}

// Next returns the next token, or false when the comment is exhausted.
func (t *docTokens) Next() (string, bool) {
	if t.next >= len(t.fields) {
		return "", false
	}
	tok := t.fields[t.next]
	t.next++
	return tok, true
}

// fillNameOrType stores tok as a name when it starts with "$" and as a type
// otherwise.
func fillNameOrType(tok string, name, typ *string) {
	if strings.HasPrefix(tok, "$") {
		*name = tok
	} else {
		*typ = tok
	}
}

// ReturnTypeFromDoc returns the word following the @var or @return marker
// in a doc comment. The marker match is case sensitive.
func ReturnTypeFromDoc(comment string, varAnnotation bool) string {
	marker := "@return"
	if varAnnotation {
		marker = "@var"
	}
	pos := strings.Index(comment, marker)
	if pos < 0 {
		return ""
	}
	rest := strings.TrimLeftFunc(comment[pos+len(marker):], unicode.IsSpace)
	if end := strings.IndexFunc(rest, unicode.IsSpace); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// VarHint is one "@var $name Type" pair found in a comment.
type VarHint struct {
	Name string
	Type string
}

// ScanVarHints returns the local variable hints in a comment. Name and type
// may appear in either order; a hint missing either half is skipped.
func ScanVarHints(comment string) []VarHint {
	var hints []VarHint
	toks := newDocTokens(comment)
	tok, ok := toks.Next()
	for ok {
		if !strings.EqualFold(tok, "@var") {
			tok, ok = toks.Next()
			continue
		}
		var hint VarHint
		tok, ok = toks.Next()
		if ok {
			fillNameOrType(tok, &hint.Name, &hint.Type)
			tok, ok = toks.Next()
			if ok {
				fillNameOrType(tok, &hint.Name, &hint.Type)
				if hint.Name != "" && hint.Type != "" {
					hints = append(hints, hint)
					tok, ok = toks.Next()
				}
			}
		}
	}
	return hints
}

// MagicProperty is a property declared with @property, @property-read or
// @property-write.
type MagicProperty struct {
	Name string
	Type string
}

// MagicMethod is a method declared with @method.
type MagicMethod struct {
	Name       string
	ReturnType string
	Signature  string
}

func isPropertyAnnotation(tok string) bool {
	return strings.EqualFold(tok, "@property") ||
		strings.EqualFold(tok, "@property-read") ||
		strings.EqualFold(tok, "@property-write")
}

// ScanMagicMembers returns the members a class doc comment declares, in
// the order they appear.
//
// A @method annotation reads the return type, then the name, then
// consumes tokens into the signature until one ends with ")":
//
//	@method Integer getAge() getAge(int $a, int $b) returns the age
//
// yields name "getAge" and signature "public function getAge(int $a, int $b)".
func ScanMagicMembers(comment string) ([]MagicProperty, []MagicMethod) {
	var (
		props   []MagicProperty
		methods []MagicMethod
	)
	toks := newDocTokens(comment)
	tok, ok := toks.Next()
	for ok {
		switch {
		case isPropertyAnnotation(tok):
			var p MagicProperty
			if tok, ok = toks.Next(); !ok {
				return props, methods
			}
			fillNameOrType(tok, &p.Name, &p.Type)
			if tok, ok = toks.Next(); !ok {
				return props, methods
			}
			fillNameOrType(tok, &p.Name, &p.Type)
			if p.Name != "" && p.Type != "" {
				props = append(props, p)
			}
			// the second token is examined again by the loop
		case strings.EqualFold(tok, "@method"):
			var m MagicMethod
			if tok, ok = toks.Next(); !ok {
				return props, methods
			}
			m.ReturnType = tok
			if tok, ok = toks.Next(); !ok {
				return props, methods
			}
			m.Name = tok
			var sig strings.Builder
			sig.WriteString("public function ")
			for tok, ok = toks.Next(); ok; tok, ok = toks.Next() {
				sig.WriteString(tok)
				if strings.HasSuffix(tok, ")") {
					break
				}
				sig.WriteByte(' ')
			}
			m.Name = strings.TrimSuffix(m.Name, "()")
			m.Signature = sig.String()
			methods = append(methods, m)
			if !ok {
				return props, methods
			}
		default:
			tok, ok = toks.Next()
		}
	}
	return props, methods
}
