package phpscan

import "github.com/jward/phpscan/internal/semantic"

// Class is a class, interface or trait header.
type Class struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Signature string `json:"signature"`
	Comment   string `json:"comment,omitempty"`
	Line      int    `json:"line"`
}

// FullName is the class name qualified with its namespace.
func (c Class) FullName() string {
	if c.Namespace == "" || c.Namespace == semantic.GlobalNamespace {
		return c.Name
	}
	return c.Namespace + semantic.NamespaceSeparator + c.Name
}

// Define is a constant declared with define() or const.
type Define struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
	Line    int    `json:"line"`
}

// Include is an include or require. File is empty for computed targets.
type Include struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Namespace is a namespace declaration.
type Namespace struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Use is a namespace import.
type Use struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Line  int    `json:"line"`
}

// Property is a property or class constant, including magic properties.
type Property struct {
	Class      string     `json:"class"`
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	Visibility Visibility `json:"visibility"`
	IsConst    bool       `json:"is_const"`
	IsStatic   bool       `json:"is_static"`
	Line       int        `json:"line"`
}

// Method is a method, including magic methods.
type Method struct {
	Class      string     `json:"class"`
	Name       string     `json:"name"`
	Signature  string     `json:"signature"`
	ReturnType string     `json:"return_type,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	Visibility Visibility `json:"visibility"`
	IsStatic   bool       `json:"is_static"`
	Line       int        `json:"line"`
}

// End marks the closing brace of a method or function body.
type End struct {
	Class string `json:"class,omitempty"`
	Name  string `json:"name"`
	Pos   int    `json:"pos"`
}

// TraitUse is a trait used by a class.
type TraitUse struct {
	Class string `json:"class"`
	Trait string `json:"trait"`
}

// TraitAlias is one insteadof or as clause of a trait use block.
type TraitAlias struct {
	Class      string     `json:"class"`
	Trait      string     `json:"trait,omitempty"`
	Method     string     `json:"method"`
	Alias      string     `json:"alias,omitempty"`
	Visibility Visibility `json:"visibility"`
}

// Function is a top level function.
type Function struct {
	Name       string `json:"name"`
	Signature  string `json:"signature"`
	ReturnType string `json:"return_type,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Line       int    `json:"line"`
}

// Variable is a variable found in a function, method or the file body.
type Variable struct {
	Class    string   `json:"class,omitempty"`
	Function string   `json:"function,omitempty"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Chain    []string `json:"chain,omitempty"`
	DocType  string   `json:"doc_type,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// Declarations is everything a Collector saw during one or more scans.
type Declarations struct {
	Classes      []Class      `json:"classes,omitempty"`
	Defines      []Define     `json:"defines,omitempty"`
	Includes     []Include    `json:"includes,omitempty"`
	Namespaces   []Namespace  `json:"namespaces,omitempty"`
	Uses         []Use        `json:"uses,omitempty"`
	Properties   []Property   `json:"properties,omitempty"`
	Methods      []Method     `json:"methods,omitempty"`
	MethodEnds   []End        `json:"method_ends,omitempty"`
	TraitUses    []TraitUse   `json:"trait_uses,omitempty"`
	TraitAliases []TraitAlias `json:"trait_aliases,omitempty"`
	Functions    []Function   `json:"functions,omitempty"`
	FunctionEnds []End        `json:"function_ends,omitempty"`
	Variables    []Variable   `json:"variables,omitempty"`
	Expressions  []Expression `json:"-"`
}

// Collector implements every observer interface and records each
// callback in its Declarations.
type Collector struct {
	Declarations
	namespace string
}

var (
	_ ClassObserver       = (*Collector)(nil)
	_ ClassMemberObserver = (*Collector)(nil)
	_ FunctionObserver    = (*Collector)(nil)
	_ VariableObserver    = (*Collector)(nil)
	_ ExpressionObserver  = (*Collector)(nil)
)

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{namespace: semantic.GlobalNamespace}
}

// Register installs c as the given kinds of observer on p.
func (c *Collector) Register(p *Parser, classes, members, functions, variables, expressions bool) {
	if classes {
		p.SetClassObserver(c)
	}
	if members {
		p.SetClassMemberObserver(c)
	}
	if functions {
		p.SetFunctionObserver(c)
	}
	if variables {
		p.SetVariableObserver(c)
	}
	if expressions {
		p.SetExpressionObserver(c)
	}
}

// Reset forgets everything collected so far.
func (c *Collector) Reset() {
	c.Declarations = Declarations{}
	c.namespace = semantic.GlobalNamespace
}

func (c *Collector) ClassFound(className, signature, comment string, line int) {
	c.Classes = append(c.Classes, Class{Name: className, Namespace: c.namespace, Signature: signature, Comment: comment, Line: line})
}

func (c *Collector) DefineDeclarationFound(name, value, comment string, line int) {
	c.Defines = append(c.Defines, Define{Name: name, Value: value, Comment: comment, Line: line})
}

func (c *Collector) IncludeFound(file string, line int) {
	c.Includes = append(c.Includes, Include{File: file, Line: line})
}

func (c *Collector) NamespaceDeclarationFound(name string, line int) {
	c.namespace = name
	c.Namespaces = append(c.Namespaces, Namespace{Name: name, Line: line})
}

func (c *Collector) NamespaceUseFound(name, alias string, line int) {
	c.Uses = append(c.Uses, Use{Name: name, Alias: alias, Line: line})
}

func (c *Collector) PropertyFound(className, propertyName, propertyType, comment string, visibility Visibility, isConst, isStatic bool, line int) {
	c.Properties = append(c.Properties, Property{
		Class: className, Name: propertyName, Type: propertyType, Comment: comment,
		Visibility: visibility, IsConst: isConst, IsStatic: isStatic, Line: line,
	})
}

func (c *Collector) MethodFound(className, methodName, signature, returnType, comment string, visibility Visibility, isStatic bool, line int) {
	c.Methods = append(c.Methods, Method{
		Class: className, Name: methodName, Signature: signature, ReturnType: returnType,
		Comment: comment, Visibility: visibility, IsStatic: isStatic, Line: line,
	})
}

func (c *Collector) MethodEnd(className, methodName string, pos int) {
	c.MethodEnds = append(c.MethodEnds, End{Class: className, Name: methodName, Pos: pos})
}

func (c *Collector) TraitUseFound(className, traitName string) {
	c.TraitUses = append(c.TraitUses, TraitUse{Class: className, Trait: traitName})
}

func (c *Collector) TraitAliasFound(className, traitUsedClassName, traitMethodName, alias string, visibility Visibility) {
	c.TraitAliases = append(c.TraitAliases, TraitAlias{
		Class: className, Trait: traitUsedClassName, Method: traitMethodName, Alias: alias, Visibility: visibility,
	})
}

func (c *Collector) FunctionFound(functionName, signature, returnType, comment string, line int) {
	c.Functions = append(c.Functions, Function{Name: functionName, Signature: signature, ReturnType: returnType, Comment: comment, Line: line})
}

func (c *Collector) FunctionEnd(functionName string, pos int) {
	c.FunctionEnds = append(c.FunctionEnds, End{Name: functionName, Pos: pos})
}

func (c *Collector) VariableFound(className, methodName string, symbol Symbol, comment string) {
	c.Variables = append(c.Variables, Variable{
		Class:    className,
		Function: methodName,
		Name:     symbol.Lexeme,
		Type:     symbol.Type.String(),
		Chain:    symbol.Chain,
		DocType:  symbol.PhpDocType,
		Comment:  comment,
	})
}

func (c *Collector) ExpressionFound(expr Expression) {
	c.Expressions = append(c.Expressions, expr)
}
