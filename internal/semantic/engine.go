package semantic

import "strings"

// Scope is the declarative context the engine is in: the namespace, and
// the class and function or method being declared, if any.
type Scope struct {
	Namespace string `json:"namespace"`
	Class     string `json:"class,omitempty"`
	Function  string `json:"function,omitempty"`
}

// callFrame is a call whose arguments are being parsed.
type callFrame struct {
	// raw is the function name as written; name is the resolved name.
	raw     string
	name    string
	comment string
	args    []Expression
}

// Engine turns the semantic events of one scan into observer callbacks.
//
// The grammar driver calls the engine as it recognizes constructs; the
// engine keeps one in-progress instance of each declaration being built
// and notifies observers synchronously when a declaration completes.
//
// An Engine is not safe for concurrent use. Concurrent scans need their
// own engines.
type Engine struct {
	observers *Registry
	caps      Capability
	// active is true when any observer is registered. It is recomputed on
	// registration only.
	active bool
	// collecting gates expression and variable bookkeeping. It is turned
	// off for method bodies nobody asked to inspect.
	collecting bool

	class   ClassSymbol
	member  ClassMemberSymbol
	trait   TraitAdaptation
	qname   QualifiedName
	params  ParameterList
	pending []Expression
	calls   []callFrame
	// assigned is set once an assignment consumed the pending list of the
	// current statement.
	assigned bool
	ns       namespaceScope
	stats    Stats
}

// NewEngine returns an engine with no observers.
func NewEngine() *Engine {
	e := &Engine{observers: NewRegistry()}
	e.Reset()
	return e
}

// SetClassObserver registers o; nil unregisters.
func (e *Engine) SetClassObserver(o ClassObserver) {
	e.observers.SetClass(o)
	e.refresh()
}

// SetClassMemberObserver registers o; nil unregisters.
func (e *Engine) SetClassMemberObserver(o ClassMemberObserver) {
	e.observers.SetMember(o)
	e.refresh()
}

// SetFunctionObserver registers o; nil unregisters.
func (e *Engine) SetFunctionObserver(o FunctionObserver) {
	e.observers.SetFunction(o)
	e.refresh()
}

// SetVariableObserver registers o; nil unregisters.
func (e *Engine) SetVariableObserver(o VariableObserver) {
	e.observers.SetVariable(o)
	e.refresh()
}

// SetExpressionObserver registers o; nil unregisters.
func (e *Engine) SetExpressionObserver(o ExpressionObserver) {
	e.observers.SetExpression(o)
	e.refresh()
}

func (e *Engine) refresh() {
	e.caps = e.observers.Capabilities()
	e.active = e.caps != 0
	e.collecting = e.active
}

// Capabilities returns the kinds of registered observers.
func (e *Engine) Capabilities() Capability {
	return e.caps
}

// Active reports whether any observer is registered.
func (e *Engine) Active() bool {
	return e.active
}

// Collecting reports whether values are currently materialized.
func (e *Engine) Collecting() bool {
	return e.active && e.collecting
}

// Reset prepares the engine for a new scan.
func (e *Engine) Reset() {
	e.class.Clear()
	e.member.Clear()
	e.trait.Clear()
	e.qname.Clear()
	e.params.Clear()
	e.pending = e.pending[:0]
	e.calls = e.calls[:0]
	e.assigned = false
	e.ns.reset()
	e.stats = Stats{}
	e.collecting = e.active
}

// Stats returns the counters of the current scan.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Scope returns the current declarative context.
func (e *Engine) Scope() Scope {
	return Scope{
		Namespace: e.ns.current,
		Class:     e.class.Name,
		Function:  e.member.Name,
	}
}

// Value is the token source: it builds the SemanticValue of one token from
// the source bytes. Text is only copied while the engine is collecting.
func (e *Engine) Value(kind Token, src []byte, lexeme, comment Span, pos int) SemanticValue {
	v := SemanticValue{Kind: kind, Pos: pos}
	if !e.active || !e.collecting {
		e.stats.SkippedValues++
		return v
	}
	e.stats.MaterializedValues++
	if !lexeme.Empty() {
		v.Lexeme = string(src[lexeme.Start:lexeme.End])
	}
	if !comment.Empty() {
		v.Comment = string(src[comment.Start:comment.End])
	}
	return v
}

// Text builds a value for a token that has no source span of its own.
func (e *Engine) Text(kind Token, text string, pos int) SemanticValue {
	v := SemanticValue{Kind: kind, Pos: pos}
	if !e.active || !e.collecting {
		e.stats.SkippedValues++
		return v
	}
	e.stats.MaterializedValues++
	v.Lexeme = text
	return v
}

func (e *Engine) collect() bool {
	return e.active && e.collecting
}

func (e *Engine) resolvedClassName() string {
	return e.ns.resolveClass(e.qname.Render())
}

func (e *Engine) resolveDocType(t string) string {
	if t == "" {
		return t
	}
	return e.ns.resolveClass(t)
}

// ======================================================================
// Classes
// ======================================================================

// ClassStart begins a class header. head is the first token of the
// declaration, which carries the doc comment.
func (e *Engine) ClassStart(head SemanticValue, isAbstract, isFinal, isInterface, isTrait bool) {
	if !e.active {
		return
	}
	e.class.Clear()
	e.class.Comment += head.Comment
	e.class.IsAbstract = isAbstract
	e.class.IsFinal = isFinal
	e.class.IsInterface = isInterface
	e.class.IsTrait = isTrait
}

// ClassSetName names the class being declared.
func (e *Engine) ClassSetName(name SemanticValue) {
	if !e.active {
		return
	}
	if name.Lexeme != "" {
		e.class.Name = name.Lexeme
	}
}

// ClassSetExtends takes the current qualified name as the parent class.
func (e *Engine) ClassSetExtends() {
	if !e.active {
		return
	}
	e.class.Extends = ParseQualifiedName(e.resolvedClassName())
}

// ClassAddImplements appends the current qualified name to the implemented
// interfaces and clears it.
func (e *Engine) ClassAddImplements() {
	if !e.active {
		return
	}
	e.class.Implements = append(e.class.Implements, ParseQualifiedName(e.resolvedClassName()))
	e.qname.Clear()
}

// ClassFound completes the class header.
func (e *Engine) ClassFound(line int) {
	if !e.active {
		return
	}
	e.observers.class.ClassFound(e.class.Name, e.class.Signature(), e.class.Comment, line)
	if e.caps.Has(CapMember) {
		e.notifyMagicMembers(line)
	}
	e.member.Clear()
}

// ClassEnd closes the class body.
func (e *Engine) ClassEnd(line int) {
	if !e.active {
		return
	}
	e.class.Clear()
	e.member.Clear()
}

func (e *Engine) notifyMagicMembers(line int) {
	if e.class.Comment == "" {
		return
	}
	props, methods := ScanMagicMembers(e.class.Comment)
	for _, p := range props {
		e.observers.member.PropertyFound(e.class.Name, p.Name, e.resolveDocType(p.Type), "", Public, false, false, line)
	}
	for _, m := range methods {
		e.observers.member.MethodFound(e.class.Name, m.Name, m.Signature, e.resolveDocType(m.ReturnType), "", Public, false, line)
	}
}

// ======================================================================
// Class members
// ======================================================================

// ClassMemberClear starts a new member with public visibility.
func (e *Engine) ClassMemberClear() {
	if !e.active {
		return
	}
	e.member.Clear()
}

// ClassMemberSetPublic marks the member public.
func (e *Engine) ClassMemberSetPublic() {
	if e.active {
		e.member.Visibility = Public
	}
}

// ClassMemberSetProtected marks the member protected.
func (e *Engine) ClassMemberSetProtected() {
	if e.active {
		e.member.Visibility = Protected
	}
}

// ClassMemberSetPrivate marks the member private.
func (e *Engine) ClassMemberSetPrivate() {
	if e.active {
		e.member.Visibility = Private
	}
}

// ClassMemberSetStatic marks the member static.
func (e *Engine) ClassMemberSetStatic() {
	if e.active {
		e.member.IsStatic = true
	}
}

// ClassMemberSetAbstract marks the member abstract.
func (e *Engine) ClassMemberSetAbstract() {
	if e.active {
		e.member.IsAbstract = true
	}
}

// ClassMemberSetFinal marks the member final.
func (e *Engine) ClassMemberSetFinal() {
	if e.active {
		e.member.IsFinal = true
	}
}

// ClassMemberAppendComment adds the comment carried by a modifier.
func (e *Engine) ClassMemberAppendComment(v SemanticValue) {
	if e.active {
		e.member.AppendComment(v)
	}
}

// ClassMemberSetNameAndReturnReference names a method or property. ref is
// the token after the function keyword and fn the keyword itself; both
// are zero values for properties.
func (e *Engine) ClassMemberSetNameAndReturnReference(name, ref, fn SemanticValue) {
	if e.active {
		e.member.SetNameAndReturnReference(name, ref, fn)
	}
}

// ClassMemberSetConst turns the member into a class constant.
func (e *Engine) ClassMemberSetConst(name, keyword SemanticValue) {
	if e.active {
		e.member.SetConst(name, keyword)
	}
}

// ClassMemberFound completes a property, constant or method declaration.
func (e *Engine) ClassMemberFound(isProperty bool, line int) {
	if !e.active {
		return
	}
	m := &e.member
	if isProperty {
		if e.caps.Has(CapMember) {
			typ := e.resolveDocType(ReturnTypeFromDoc(m.Comment, true))
			e.observers.member.PropertyFound(e.class.Name, m.Name, typ, m.Comment, m.Visibility, m.IsConst, m.IsStatic, line)
		}
		e.collecting = true
		return
	}
	if e.caps.Has(CapMember) {
		typ := e.resolveDocType(ReturnTypeFromDoc(m.Comment, false))
		sig := m.MethodSignature(e.params.Render())
		e.observers.member.MethodFound(e.class.Name, m.Name, sig, typ, m.Comment, m.Visibility, m.IsStatic, line)
	}
	e.notifyParameters()

	// skip the method body unless someone wants its variables
	e.collecting = e.caps.Any(CapVariable | CapExpression)
}

// ClassMethodEnd closes a method body; end is its closing brace.
func (e *Engine) ClassMethodEnd(end SemanticValue) {
	if !e.active {
		return
	}
	e.observers.member.MethodEnd(e.class.Name, e.member.Name, end.Pos)
	e.member.Clear()
	e.params.Clear()
	e.collecting = true
}

// ======================================================================
// Traits
// ======================================================================

// TraitUseFound reports the current qualified name as a used trait.
func (e *Engine) TraitUseFound() {
	if !e.active {
		return
	}
	e.observers.member.TraitUseFound(e.class.Name, e.resolvedClassName())
}

// TraitClearAdaptation starts a new insteadof or as clause.
func (e *Engine) TraitClearAdaptation() {
	if e.active {
		e.trait.Clear()
	}
}

// TraitAliasMethod starts a clause that names a method without a trait.
func (e *Engine) TraitAliasMethod(method SemanticValue) {
	if !e.active {
		return
	}
	e.trait.TraitReference.Clear()
	e.trait.Method = method.Lexeme
}

// TraitAliasMethodFromQualifiedName starts a Trait::method clause; the
// trait is the current qualified name.
func (e *Engine) TraitAliasMethodFromQualifiedName(method SemanticValue) {
	if !e.active {
		return
	}
	e.trait.TraitReference = ParseQualifiedName(e.resolvedClassName())
	e.trait.Method = method.Lexeme
}

// TraitAliasFound completes an insteadof or as clause. alias is nil for
// clauses without a new name. The visibility comes from the member
// modifiers set since the last ClassMemberClear.
func (e *Engine) TraitAliasFound(alias *SemanticValue) {
	if !e.active {
		return
	}
	if alias != nil && alias.Lexeme != "" {
		e.trait.Alias = alias.Lexeme
	}
	e.trait.Visibility = e.member.Visibility
	e.observers.member.TraitAliasFound(e.class.Name, e.trait.TraitReference.Render(), e.trait.Method, e.trait.Alias, e.trait.Visibility)
}

// ======================================================================
// Functions and parameters
// ======================================================================

// FunctionStart begins a function declaration. fn is the function keyword,
// which carries the doc comment.
func (e *Engine) FunctionStart(name, ref, fn SemanticValue) {
	if !e.active {
		return
	}
	e.member.Clear()
	e.member.SetNameAndReturnReference(name, ref, fn)
	e.params.Clear()
}

// FunctionFound completes a function signature.
func (e *Engine) FunctionFound(line int) {
	if !e.active {
		return
	}
	if e.caps.Has(CapFunction) {
		sig := e.member.MethodSignature(e.params.Render())
		// functions have no visibility
		if i := strings.Index(sig, "function"); i >= 0 {
			sig = sig[i:]
		}
		typ := e.resolveDocType(ReturnTypeFromDoc(e.member.Comment, false))
		e.observers.function.FunctionFound(e.member.Name, sig, typ, e.member.Comment, line)
	}
	e.notifyParameters()
}

// FunctionEnd closes a function body; end is its closing brace.
func (e *Engine) FunctionEnd(end SemanticValue) {
	if !e.active {
		return
	}
	e.observers.function.FunctionEnd(e.member.Name, end.Pos)
	e.member.Clear()
	e.params.Clear()
	e.collecting = true
}

// ParametersListClear drops the parameters collected so far.
func (e *Engine) ParametersListClear() {
	if e.active {
		e.params.Clear()
	}
}

// ParameterStart opens an untyped parameter.
func (e *Engine) ParameterStart() {
	if e.active {
		e.params.StartParameter()
	}
}

// ParameterStartWithType opens a parameter hinted with a built-in type.
func (e *Engine) ParameterStartWithType(typ SemanticValue) {
	if e.active {
		e.params.StartParameterWithType(typ.Lexeme)
	}
}

// ParameterStartWithClassName opens a parameter hinted with the class in
// the current qualified name.
func (e *Engine) ParameterStartWithClassName() {
	if e.active {
		e.params.StartParameterWithType(e.resolvedClassName())
	}
}

// ParameterSetName names the parameter opened last.
func (e *Engine) ParameterSetName(name SemanticValue, byReference bool) {
	if e.active {
		e.params.SetCurrentName(name, byReference)
	}
}

// notifyParameters reports each parameter as a variable, then drops the
// expressions built from default values.
func (e *Engine) notifyParameters() {
	if e.caps.Has(CapVariable) {
		for i := 0; i < e.params.Len(); i++ {
			p := e.params.At(i)
			sym := Symbol{Lexeme: p.Name, Type: Primitive}
			if p.Type != "" {
				sym.Type = Object
				sym.Chain = []string{p.Type}
			}
			e.observers.variable.VariableFound(e.class.Name, e.member.Name, sym, "")
		}
	}
	e.ClearExpressions()
}

// ======================================================================
// Qualified names and namespaces
// ======================================================================

// QualifiedNameClear empties the current qualified name.
func (e *Engine) QualifiedNameClear() {
	if e.active {
		e.qname.Clear()
	}
}

// QualifiedNameAddSegment appends one segment. Segments arrive rightmost
// first; an absolute name ends with an empty segment.
func (e *Engine) QualifiedNameAddSegment(v SemanticValue) {
	if e.collect() {
		e.qname.AddSegment(v.Lexeme)
	}
}

// QualifiedNameGrabFirstSegmentAndComment appends a segment and keeps its
// doc comment with the name.
func (e *Engine) QualifiedNameGrabFirstSegmentAndComment(v SemanticValue) {
	if e.collect() {
		e.qname.GrabFirstSegmentAndComment(v)
	}
}

// NamespaceDeclarationFound enters the namespace in the current qualified
// name; an empty name is the global namespace.
func (e *Engine) NamespaceDeclarationFound(line int) {
	if !e.active {
		return
	}
	e.ns.enter(e.qname.Render())
	e.observers.class.NamespaceDeclarationFound(e.ns.current, line)
	e.qname.Clear()
}

// NamespaceEnd leaves a braced namespace block.
func (e *Engine) NamespaceEnd() {
	if e.active {
		e.ns.reset()
	}
}

// NamespaceUseFound imports the current qualified name under alias, or
// under its last segment when alias is nil.
func (e *Engine) NamespaceUseFound(alias *SemanticValue, line int) {
	if !e.active {
		return
	}
	var a string
	if alias != nil {
		a = alias.Lexeme
	}
	full, a := e.ns.use(e.qname.Render(), a)
	e.observers.class.NamespaceUseFound(full, a, line)
	e.qname.Clear()
}

// ======================================================================
// File level declarations
// ======================================================================

// IncludeFound reports an include or require. The operand is collected
// between CallArgumentsStart and this call; only a single literal operand
// is reported as the target.
func (e *Engine) IncludeFound(line int) {
	if !e.active {
		return
	}
	f := e.popCall()
	var file string
	if len(f.args) == 1 && f.args[0].Kind == ScalarExpression {
		file = f.args[0].Lexeme
	}
	e.observers.class.IncludeFound(file, line)
}

// ConstantDeclarationFound reports `const NAME = value;` outside a class,
// taking the value from the pending expression.
func (e *Engine) ConstantDeclarationFound(name SemanticValue, line int) {
	if !e.active {
		return
	}
	var value string
	if len(e.pending) > 0 {
		value = e.pending[0].Lexeme
	}
	e.observers.class.DefineDeclarationFound(name.Lexeme, value, name.Comment, line)
	e.ClearExpressions()
}

// NotifyLocalVariableTypeHint scans a plain comment for @var hints.
func (e *Engine) NotifyLocalVariableTypeHint(comment SemanticValue) {
	if !e.active || !e.caps.Has(CapVariable) || comment.Comment == "" {
		return
	}
	for _, hint := range ScanVarHints(comment.Comment) {
		sym := Symbol{Lexeme: hint.Name, Type: Object, PhpDocType: e.resolveDocType(hint.Type)}
		e.observers.variable.VariableFound(e.class.Name, e.member.Name, sym, comment.Comment)
	}
}
