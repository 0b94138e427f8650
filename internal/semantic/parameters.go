package semantic

import "strings"

// Parameter is one formal parameter: its name (with a leading "&" when
// passed by reference) and an optional type hint.
type Parameter struct {
	Name string
	Type string
}

// ParameterList accumulates the formal parameters of the function or
// method currently being declared.
type ParameterList struct {
	params []Parameter
}

// Clear drops every parameter.
func (p *ParameterList) Clear() {
	p.params = p.params[:0]
}

// StartParameter opens an untyped, unnamed parameter slot.
func (p *ParameterList) StartParameter() {
	p.params = append(p.params, Parameter{})
}

// StartParameterWithType opens an unnamed parameter slot with a type hint.
func (p *ParameterList) StartParameterWithType(typeName string) {
	p.params = append(p.params, Parameter{Type: typeName})
}

// SetCurrentName names the most recently started slot.
func (p *ParameterList) SetCurrentName(v SemanticValue, byReference bool) {
	if len(p.params) == 0 {
		return
	}
	name := v.Lexeme
	if byReference {
		name = "&" + name
	}
	p.params[len(p.params)-1].Name = name
}

// Len returns the number of parameters.
func (p *ParameterList) Len() int {
	return len(p.params)
}

// At returns the i-th parameter.
func (p *ParameterList) At(i int) Parameter {
	return p.params[i]
}

// Render returns "(type1 name1, name2, ...)".
func (p *ParameterList) Render() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, param := range p.params {
		if i > 0 {
			b.WriteString(", ")
		}
		if param.Type != "" {
			b.WriteString(param.Type)
			b.WriteByte(' ')
		}
		b.WriteString(param.Name)
	}
	b.WriteByte(')')
	return b.String()
}
