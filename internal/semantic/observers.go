package semantic

// ClassObserver receives file level declarations: classes, constants
// declared with define() or const, includes and namespaces.
type ClassObserver interface {
	ClassFound(className, signature, comment string, line int)
	DefineDeclarationFound(variableName, variableValue, comment string, line int)
	// IncludeFound receives the included file when the target is a
	// literal, and an empty string otherwise.
	IncludeFound(file string, line int)
	NamespaceDeclarationFound(namespaceName string, line int)
	NamespaceUseFound(namespaceName, alias string, line int)
}

// ClassMemberObserver receives class members, including the magic members
// declared in class doc comments.
type ClassMemberObserver interface {
	PropertyFound(className, propertyName, propertyType, comment string, visibility Visibility, isConst, isStatic bool, line int)
	MethodFound(className, methodName, signature, returnType, comment string, visibility Visibility, isStatic bool, line int)
	// MethodEnd receives the character offset of the method's closing
	// brace.
	MethodEnd(className, methodName string, pos int)
	TraitUseFound(className, fullyQualifiedTraitName string)
	TraitAliasFound(className, traitUsedClassName, traitMethodName, alias string, visibility Visibility)
}

// FunctionObserver receives top level functions.
type FunctionObserver interface {
	FunctionFound(functionName, signature, returnType, comment string, line int)
	FunctionEnd(functionName string, pos int)
}

// VariableObserver receives variables as they are assigned, bound or
// hinted. className and methodName are empty outside classes and
// functions.
type VariableObserver interface {
	VariableFound(className, methodName string, symbol Symbol, comment string)
}

// ExpressionObserver receives the first expression of every expression
// statement.
type ExpressionObserver interface {
	ExpressionFound(expr Expression)
}

// Capability is a set of observer kinds.
type Capability uint8

const (
	CapClass Capability = 1 << iota
	CapMember
	CapFunction
	CapVariable
	CapExpression
)

// Has reports whether every kind in o is in c.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

// Any reports whether c shares a kind with o.
func (c Capability) Any(o Capability) bool {
	return c&o != 0
}

// Registry holds at most one observer per capability. Unset slots hold
// no-op observers, so the engine never checks for nil.
type Registry struct {
	class      ClassObserver
	member     ClassMemberObserver
	function   FunctionObserver
	variable   VariableObserver
	expression ExpressionObserver
	caps       Capability
}

// NewRegistry returns a registry with no observers.
func NewRegistry() *Registry {
	r := &Registry{}
	r.SetClass(nil)
	r.SetMember(nil)
	r.SetFunction(nil)
	r.SetVariable(nil)
	r.SetExpression(nil)
	return r
}

func (r *Registry) mark(c Capability, set bool) {
	if set {
		r.caps |= c
	} else {
		r.caps &^= c
	}
}

// SetClass registers o; nil unregisters.
func (r *Registry) SetClass(o ClassObserver) {
	r.mark(CapClass, o != nil)
	if o == nil {
		o = nopObserver{}
	}
	r.class = o
}

// SetMember registers o; nil unregisters.
func (r *Registry) SetMember(o ClassMemberObserver) {
	r.mark(CapMember, o != nil)
	if o == nil {
		o = nopObserver{}
	}
	r.member = o
}

// SetFunction registers o; nil unregisters.
func (r *Registry) SetFunction(o FunctionObserver) {
	r.mark(CapFunction, o != nil)
	if o == nil {
		o = nopObserver{}
	}
	r.function = o
}

// SetVariable registers o; nil unregisters.
func (r *Registry) SetVariable(o VariableObserver) {
	r.mark(CapVariable, o != nil)
	if o == nil {
		o = nopObserver{}
	}
	r.variable = o
}

// SetExpression registers o; nil unregisters.
func (r *Registry) SetExpression(o ExpressionObserver) {
	r.mark(CapExpression, o != nil)
	if o == nil {
		o = nopObserver{}
	}
	r.expression = o
}

// Capabilities returns the kinds of registered observers.
func (r *Registry) Capabilities() Capability {
	return r.caps
}

type nopObserver struct{}

func (nopObserver) ClassFound(string, string, string, int) {}
func (nopObserver) DefineDeclarationFound(string, string, string, int) {}
func (nopObserver) IncludeFound(string, int) {}
func (nopObserver) NamespaceDeclarationFound(string, int) {}
func (nopObserver) NamespaceUseFound(string, string, int) {}
func (nopObserver) PropertyFound(string, string, string, string, Visibility, bool, bool, int) {}
func (nopObserver) MethodFound(string, string, string, string, string, Visibility, bool, int) {}
func (nopObserver) MethodEnd(string, string, int) {}
func (nopObserver) TraitUseFound(string, string) {}
func (nopObserver) TraitAliasFound(string, string, string, string, Visibility) {}
func (nopObserver) FunctionFound(string, string, string, string, int) {}
func (nopObserver) FunctionEnd(string, int) {}
func (nopObserver) VariableFound(string, string, Symbol, string) {}
func (nopObserver) ExpressionFound(Expression) {}
