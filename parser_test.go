package phpscan

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFixture(t *testing.T, name string, classes, members, functions, variables bool) (*Collector, ScanResult) {
	t.Helper()
	p := NewParser()
	c := NewCollector()
	c.Register(p, classes, members, functions, variables, false)
	res := p.ScanFile(filepath.Join("testdata", "php", name))
	return c, res
}

// =============================================================================
// Declarations
// =============================================================================

func TestScanFile_Classes(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "user.php", true, false, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Classes, 1)
	cls := c.Classes[0]
	assert.Equal(t, "UserClass", cls.Name)
	assert.Equal(t, "abstract class UserClass", cls.Signature)
	assert.Contains(t, cls.Comment, "This is a class comment")
	assert.Equal(t, 9, cls.Line)
	assert.Equal(t, `\`, cls.Namespace)
	assert.Equal(t, "UserClass", cls.FullName())
}

func TestScanFile_Define(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "user.php", true, false, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Defines, 1)
	assert.Equal(t, "MAX_TIME", c.Defines[0].Name)
	assert.Equal(t, "5000", c.Defines[0].Value)
	assert.Contains(t, c.Defines[0].Comment, "This is a define comment")
	assert.Equal(t, 5, c.Defines[0].Line)
}

func TestScanFile_Members(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "user.php", false, true, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Properties, 2)
	name := c.Properties[0]
	assert.Equal(t, "UserClass", name.Class)
	assert.Equal(t, "$name", name.Name)
	assert.Equal(t, "string", name.Type)
	assert.Equal(t, Private, name.Visibility)
	assert.False(t, name.IsConst)
	assert.Equal(t, 13, name.Line)

	max := c.Properties[1]
	assert.Equal(t, "MAX", max.Name)
	assert.True(t, max.IsConst)
	assert.True(t, max.IsStatic)
	assert.Equal(t, Public, max.Visibility)
	assert.Equal(t, 15, max.Line)

	require.Len(t, c.Methods, 2)
	get := c.Methods[0]
	assert.Equal(t, "getName", get.Name)
	assert.Equal(t, "public function getName()", get.Signature)
	assert.Equal(t, "string", get.ReturnType)
	assert.Equal(t, Public, get.Visibility)
	assert.Equal(t, 20, get.Line)

	set := c.Methods[1]
	assert.Equal(t, "setName", set.Name)
	assert.Equal(t, "protected abstract function setName($name)", set.Signature)
	assert.Equal(t, Protected, set.Visibility)
	assert.Equal(t, 24, set.Line)

	require.Len(t, c.MethodEnds, 2)
	assert.Equal(t, "getName", c.MethodEnds[0].Name)
	assert.Equal(t, "setName", c.MethodEnds[1].Name)
	assert.Less(t, c.MethodEnds[0].Pos, c.MethodEnds[1].Pos)
}

func TestScanFile_Functions(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "user.php", false, false, true, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Functions, 1)
	fn := c.Functions[0]
	assert.Equal(t, "printUser", fn.Name)
	assert.Equal(t, "function printUser(UserClass $user)", fn.Signature)
	assert.Equal(t, 27, fn.Line)

	require.Len(t, c.FunctionEnds, 1)
	assert.Equal(t, "printUser", c.FunctionEnds[0].Name)
	assert.Positive(t, c.FunctionEnds[0].Pos)
}

func TestScanFile_Variables(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "user.php", false, false, false, true)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Variables, 3)

	param := c.Variables[0]
	assert.Equal(t, "UserClass", param.Class)
	assert.Equal(t, "setName", param.Function)
	assert.Equal(t, "$name", param.Name)
	assert.Equal(t, "primitive", param.Type)

	user := c.Variables[1]
	assert.Empty(t, user.Class)
	assert.Equal(t, "printUser", user.Function)
	assert.Equal(t, "$user", user.Name)
	assert.Equal(t, "object", user.Type)
	assert.Equal(t, []string{"UserClass"}, user.Chain)

	name := c.Variables[2]
	assert.Equal(t, "printUser", name.Function)
	assert.Equal(t, "$name", name.Name)
	assert.Equal(t, "object", name.Type)
	assert.Equal(t, []string{"$user", "->getName()"}, name.Chain)
}

func TestScanFile_ResourceVariantSkipsBodies(t *testing.T) {
	t.Parallel()

	src := "<?php\nclass A {\n\tfunction f() {\n\t\t$x = new B();\n\t\t$y = $x->run();\n\t}\n}\n"

	declOnly := NewParser()
	declOnly.SetClassObserver(NewCollector())
	res := declOnly.ScanString(src)
	require.True(t, res.Success)

	withVars := NewParser()
	vars := NewCollector()
	vars.Register(withVars, true, false, false, true, false)
	res = withVars.ScanString(src)
	require.True(t, res.Success)

	assert.Len(t, vars.Variables, 2)
	assert.Less(t, declOnly.Stats().MaterializedValues, withVars.Stats().MaterializedValues)
}

func TestScanFile_Namespaces(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "namespaced.php", true, false, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Namespaces, 1)
	assert.Equal(t, `\App\Models`, c.Namespaces[0].Name)
	assert.Equal(t, 2, c.Namespaces[0].Line)

	require.Len(t, c.Uses, 1)
	assert.Equal(t, `\Vendor\Lib\Client`, c.Uses[0].Name)
	assert.Equal(t, "HttpClient", c.Uses[0].Alias)
	assert.Equal(t, 4, c.Uses[0].Line)

	require.Len(t, c.Classes, 1)
	cls := c.Classes[0]
	assert.Equal(t, "User", cls.Name)
	assert.Equal(t, `\App\Models`, cls.Namespace)
	assert.Equal(t, `\App\Models\User`, cls.FullName())
	assert.Equal(t, `class User extends \App\Models\Base implements \JsonSerializable`, cls.Signature)
}

func TestScanFile_Includes(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "includes.php", true, false, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Includes, 2)
	assert.Equal(t, Include{File: "lib/util.php", Line: 2}, c.Includes[0])
	assert.Equal(t, Include{File: "", Line: 3}, c.Includes[1])
}

func TestScanFile_Traits(t *testing.T) {
	t.Parallel()
	c, res := scanFixture(t, "traits.php", true, true, false, false)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.TraitUses, 1)
	assert.Equal(t, TraitUse{Class: "Greeter", Trait: "Greets"}, c.TraitUses[0])
}

func TestScan_PHP53RejectsTraits(t *testing.T) {
	t.Parallel()
	path := filepath.Join("testdata", "php", "traits.php")

	res := NewParser(WithVersion(PHP53)).LintFile(path)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Positive(t, res.LineNumber)

	res = NewParser(WithVersion(PHP54)).LintFile(path)
	assert.True(t, res.Success, res.Error)
}

func TestScan_MagicMembers(t *testing.T) {
	t.Parallel()
	src := `<?php
/**
 * @property int $id
 * @method Integer getAge() getAge(int $a, int $b) returns the age
 */
class Magic {
}
`
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, true, false, false, false)
	res := p.ScanString(src)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Properties, 1)
	assert.Equal(t, "Magic", c.Properties[0].Class)
	assert.Equal(t, "$id", c.Properties[0].Name)
	assert.Equal(t, "int", c.Properties[0].Type)

	require.Len(t, c.Methods, 1)
	assert.Equal(t, "getAge", c.Methods[0].Name)
	assert.Equal(t, "Integer", c.Methods[0].ReturnType)
	assert.Equal(t, "public function getAge(int $a, int $b)", c.Methods[0].Signature)
}

func TestScan_LocalVarHint(t *testing.T) {
	t.Parallel()
	src := `<?php
function load() {
	/* @var $repo Repository */
	$repo->find();
}
`
	p := NewParser()
	c := NewCollector()
	c.Register(p, false, false, false, true, false)
	res := p.ScanString(src)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Variables, 1)
	assert.Equal(t, "load", c.Variables[0].Function)
	assert.Equal(t, "$repo", c.Variables[0].Name)
	assert.Equal(t, "Repository", c.Variables[0].DocType)
}

func TestScan_Expressions(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, false, false, false, false, true)
	res := p.ScanString("<?php\n$a->b()->c;\n$x = 1;\n")
	require.True(t, res.Success, res.Error)

	// assignments are reported to variable observers, not as expressions
	require.Len(t, c.Expressions, 1)
	assert.Equal(t, VariableExpression, c.Expressions[0].Kind)
	assert.Equal(t, []string{"$a", "->b()", "->c"}, c.Expressions[0].Chain)
}

func TestScan_TraitAdaptations(t *testing.T) {
	t.Parallel()
	src := `<?php
class Talker {
	use A, B {
		A::smallTalk insteadof B;
		B::bigTalk insteadof A;
		B::bigTalk as protected talk;
	}
}
`
	p := NewParser()
	c := NewCollector()
	c.Register(p, false, true, false, false, false)
	res := p.ScanString(src)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []TraitUse{{Class: "Talker", Trait: "A"}, {Class: "Talker", Trait: "B"}}, c.TraitUses)
	assert.Equal(t, []TraitAlias{
		{Class: "Talker", Trait: "A", Method: "smallTalk", Visibility: Public},
		{Class: "Talker", Trait: "B", Method: "bigTalk", Visibility: Public},
		{Class: "Talker", Trait: "B", Method: "bigTalk", Alias: "talk", Visibility: Protected},
	}, c.TraitAliases)
}

func TestScan_CallArgumentIsNotAVariable(t *testing.T) {
	t.Parallel()
	src := "<?php\nfunction f() {\n\t$newUser = fix($user);\n}\n"
	p := NewParser()
	c := NewCollector()
	c.Register(p, false, false, false, true, false)
	res := p.ScanString(src)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Variables, 1)
	assert.Equal(t, "$newUser", c.Variables[0].Name)
	assert.Equal(t, "f", c.Variables[0].Function)
	assert.Equal(t, "object", c.Variables[0].Type)
}

func TestScan_NamespaceResolutionInChains(t *testing.T) {
	t.Parallel()
	src := `<?php
namespace First;
use Second\Child as C;

$a = new MyClass();
$b = new \Other\Thing();
$c = new C\MyClass();
`
	p := NewParser()
	c := NewCollector()
	c.Register(p, false, false, false, true, false)
	res := p.ScanString(src)
	require.True(t, res.Success, res.Error)

	require.Len(t, c.Variables, 3)
	assert.Equal(t, []string{`\First\MyClass`}, c.Variables[0].Chain)
	assert.Equal(t, []string{`\Other\Thing`}, c.Variables[1].Chain)
	assert.Equal(t, []string{`\Second\Child\MyClass`}, c.Variables[2].Chain)
}

func TestScan_Idempotent(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, true, true, true, true)

	first := p.ScanFile(filepath.Join("testdata", "php", "user.php"))
	firstDecl := c.Declarations
	c.Reset()
	second := p.ScanFile(filepath.Join("testdata", "php", "user.php"))

	assert.Equal(t, first, second)
	assert.Equal(t, firstDecl, c.Declarations)
}

// =============================================================================
// Errors
// =============================================================================

func TestScan_SyntaxError(t *testing.T) {
	t.Parallel()
	p := NewParser()
	p.SetClassObserver(NewCollector())
	res := p.ScanString("<?php\nclass A {\n\tfunction f( {\n}\n")

	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error, "syntax error"), res.Error)
	assert.Positive(t, res.LineNumber)

	var synErr *SyntaxError
	require.True(t, errors.As(res.Err, &synErr))
	assert.Equal(t, res.LineNumber, synErr.Line)
}

func TestScan_UnclosedBlockKeepsEarlierDeclarations(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, false, true, false, false)

	res := p.ScanString("<?php\nclass A {}\nfunction g() {}\nclass B { function x() {\n")
	assert.False(t, res.Success)
	assert.Equal(t, "syntax error, unexpected end of file", res.Error)
	assert.Equal(t, 4, res.LineNumber)

	var classes, functions []string
	for _, cls := range c.Classes {
		classes = append(classes, cls.Name)
	}
	for _, fn := range c.Functions {
		functions = append(functions, fn.Name)
	}
	require.NotEmpty(t, classes)
	assert.Equal(t, "A", classes[0])
	assert.Contains(t, functions, "g")
}

func TestLintString(t *testing.T) {
	t.Parallel()
	p := NewParser()

	assert.True(t, p.LintString("<?php\n$a = 1;\n").Success)

	res := p.LintString("<?php\n$a = ;\n")
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.LineNumber)
	assert.Empty(t, res.Scope.Class)
}

func TestScanFile_Missing(t *testing.T) {
	t.Parallel()
	res := NewParser().ScanFile(filepath.Join(t.TempDir(), "missing.php"))

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.True(t, errors.Is(res.Err, ErrSourceUnavailable))
	assert.Zero(t, res.LineNumber)
}

func TestScanReader(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, false, false, false, false)

	res := p.ScanReader(strings.NewReader("<?php\nclass FromReader {}\n"), "reader.php")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "reader.php", res.File)
	require.Len(t, c.Classes, 1)
	assert.Equal(t, "FromReader", c.Classes[0].Name)
}

// =============================================================================
// ParseExpression
// =============================================================================

func TestParseExpression(t *testing.T) {
	t.Parallel()
	tests := []struct {
		snippet string
		lexeme  string
		chain   []string
		typ     SymbolType
	}{
		{snippet: "$a", lexeme: "$a", chain: []string{"$a"}, typ: Object},
		{snippet: "$a->b()", lexeme: "$a", chain: []string{"$a", "->b()"}, typ: Object},
		{snippet: "$a->b->c", lexeme: "$a", chain: []string{"$a", "->b", "->c"}, typ: Object},
		{snippet: "$a->", lexeme: "$a", chain: []string{"$a", "->"}, typ: Object},
		{snippet: "$this->repo->", lexeme: "$this", chain: []string{"$this", "->repo", "->"}, typ: Object},
		{snippet: "Foo::bar()", lexeme: "Foo", chain: []string{"Foo", "::bar()"}, typ: Object},
		{snippet: "(new Foo)->method", lexeme: "", chain: []string{"Foo", "->method"}, typ: Object},
		{snippet: `\App\Models\`, lexeme: `\App\Models`, chain: []string{`\App\Models\`}, typ: Primitive},
	}
	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.snippet, func(t *testing.T) {
			sym := p.ParseExpression(tt.snippet)
			assert.Equal(t, tt.lexeme, sym.Lexeme)
			assert.Equal(t, tt.chain, sym.Chain)
			assert.Equal(t, tt.typ, sym.Type)
		})
	}
}

func TestParseExpression_DoesNotNotifyObservers(t *testing.T) {
	t.Parallel()
	p := NewParser()
	c := NewCollector()
	c.Register(p, true, true, true, true, true)

	p.ParseExpression("$a->b()")
	assert.Empty(t, c.Expressions)
	assert.Empty(t, c.Variables)
}

func TestParseVersion(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"php53", "5.3", "53"} {
		v, ok := ParseVersion(s)
		assert.True(t, ok, s)
		assert.Equal(t, PHP53, v, s)
	}
	for _, s := range []string{"php54", "5.4", "54", ""} {
		v, ok := ParseVersion(s)
		assert.True(t, ok, s)
		assert.Equal(t, PHP54, v, s)
	}
	_, ok := ParseVersion("php8")
	assert.False(t, ok)
}
