package semantic

import (
	"fmt"
	"strings"
)

// Visibility is the access level of a class member or trait alias.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts the names String returns.
func (v *Visibility) UnmarshalText(text []byte) error {
	switch string(text) {
	case "public":
		*v = Public
	case "protected":
		*v = Protected
	case "private":
		*v = Private
	default:
		return fmt.Errorf("semantic: unknown visibility %q", text)
	}
	return nil
}

// ClassSymbol is the class, interface or trait whose header is being parsed.
type ClassSymbol struct {
	Name        string
	Comment     string
	Extends     QualifiedName
	Implements  []QualifiedName
	IsAbstract  bool
	IsFinal     bool
	IsInterface bool
	IsTrait     bool
}

// Clear resets the class to empty.
func (c *ClassSymbol) Clear() {
	c.Name = ""
	c.Comment = ""
	c.Extends.Clear()
	c.Implements = c.Implements[:0]
	c.IsAbstract = false
	c.IsFinal = false
	c.IsInterface = false
	c.IsTrait = false
}

// Signature renders the class header, e.g.
// "abstract class Foo extends Bar implements Baz, Qux".
func (c *ClassSymbol) Signature() string {
	var b strings.Builder
	switch {
	case c.IsInterface:
		b.WriteString("interface ")
	case c.IsAbstract:
		b.WriteString("abstract class ")
	default:
		b.WriteString("class ")
	}
	b.WriteString(c.Name)
	if extends := c.Extends.Render(); extends != "" {
		b.WriteString(" extends ")
		b.WriteString(extends)
	}
	if len(c.Implements) > 0 {
		// an interface lists its own supertypes with extends
		if c.IsInterface {
			b.WriteString(" extends ")
		} else {
			b.WriteString(" implements ")
		}
		for i := range c.Implements {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Implements[i].Render())
		}
	}
	return b.String()
}

// ClassMemberSymbol is the property, constant or method being declared.
// The zero value is a public member.
type ClassMemberSymbol struct {
	Name              string
	Comment           string
	Visibility        Visibility
	IsStatic          bool
	IsConst           bool
	IsAbstract        bool
	IsFinal           bool
	IsReturnReference bool
}

// Clear resets the member to a public, unnamed member.
func (m *ClassMemberSymbol) Clear() {
	*m = ClassMemberSymbol{}
}

// AppendComment adds the value's doc comment to the member's comment.
// Modifiers and the function keyword may each carry part of it.
func (m *ClassMemberSymbol) AppendComment(v SemanticValue) {
	m.Comment += v.Comment
}

// SetNameAndReturnReference names the member. ref is the token that
// follows the function keyword; fn is the function keyword itself.
func (m *ClassMemberSymbol) SetNameAndReturnReference(name, ref, fn SemanticValue) {
	if name.Lexeme != "" {
		m.Name = name.Lexeme
	}
	m.IsReturnReference = ref.Kind == TokenAmpersand
	m.Comment += fn.Comment
}

// SetConst turns the member into a class constant.
func (m *ClassMemberSymbol) SetConst(name, keyword SemanticValue) {
	m.Visibility = Public
	m.IsStatic = true
	m.IsConst = true
	m.IsAbstract = false
	m.IsFinal = false
	m.IsReturnReference = false
	if name.Lexeme != "" {
		m.Name = name.Lexeme
	}
	m.Comment += keyword.Comment
}

// MethodSignature renders the member as a method declaration followed by
// the given parameter list.
func (m *ClassMemberSymbol) MethodSignature(params string) string {
	var b strings.Builder
	b.WriteString(m.Visibility.String())
	b.WriteByte(' ')
	if m.IsStatic {
		b.WriteString("static ")
	}
	if m.IsAbstract {
		b.WriteString("abstract ")
	}
	if m.IsFinal {
		b.WriteString("final ")
	}
	if m.IsReturnReference {
		b.WriteString("function& ")
	} else {
		b.WriteString("function ")
	}
	b.WriteString(m.Name)
	b.WriteString(params)
	return b.String()
}

// TraitAdaptation is one insteadof or as clause of a trait use block.
type TraitAdaptation struct {
	TraitReference QualifiedName
	Method         string
	Alias          string
	Visibility     Visibility
}

// Clear resets the clause; visibility goes back to public.
func (t *TraitAdaptation) Clear() {
	t.TraitReference.Clear()
	t.Method = ""
	t.Alias = ""
	t.Visibility = Public
}
