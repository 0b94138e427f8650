package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedName_RenderReversesSegments(t *testing.T) {
	t.Parallel()
	var q QualifiedName
	assert.True(t, q.IsEmpty())
	assert.Equal(t, "", q.Render())

	q.AddSegment("Foo")
	q.AddSegment("Child")
	q.AddSegment("First")
	assert.Equal(t, `First\Child\Foo`, q.Render())

	q.AddSegment("")
	assert.Equal(t, `\First\Child\Foo`, q.Render())

	q.Clear()
	assert.True(t, q.IsEmpty())
}

func TestQualifiedName_Comment(t *testing.T) {
	t.Parallel()
	var q QualifiedName
	q.GrabFirstSegmentAndComment(SemanticValue{Lexeme: "Foo", Comment: "/** doc */"})
	assert.Equal(t, "Foo", q.Render())
	assert.Equal(t, "/** doc */", q.Comment())
}

func TestQualifiedName_CloneIsIndependent(t *testing.T) {
	t.Parallel()
	q := ParseQualifiedName(`App\Models`)
	c := q.Clone()
	q.AddSegment("Vendor")

	assert.Equal(t, `App\Models`, c.Render())
	assert.Equal(t, `Vendor\App\Models`, q.Render())
}

func TestParseQualifiedName(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"Foo", `App\Models\User`, `\App\Models\User`} {
		assert.Equal(t, name, ParseQualifiedName(name).Render(), name)
	}
	assert.True(t, ParseQualifiedName("").IsEmpty())
}

func TestNamespaceScope_ResolveClass(t *testing.T) {
	t.Parallel()
	var n namespaceScope
	n.reset()
	assert.Equal(t, "Foo", n.resolveClass("Foo"))
	assert.Equal(t, `\Foo`, n.resolveClass(`namespace\Foo`))

	n.enter(`App\Models`)
	full, alias := n.use(`Vendor\Lib\Client`, "HttpClient")
	assert.Equal(t, `\Vendor\Lib\Client`, full)
	assert.Equal(t, "HttpClient", alias)
	_, alias = n.use(`Vendor\Lib\Request`, "")
	assert.Equal(t, "Request", alias)

	tests := []struct {
		in, want string
	}{
		{"User", `\App\Models\User`},
		{`Sub\User`, `\App\Models\Sub\User`},
		{`\JsonSerializable`, `\JsonSerializable`},
		{"httpclient", `\Vendor\Lib\Client`},
		{`HttpClient\Options`, `\Vendor\Lib\Client\Options`},
		{"Request", `\Vendor\Lib\Request`},
		{`namespace\Base`, `\App\Models\Base`},
		{"self", "self"},
		{"array", "array"},
		{"$className", "$className"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.resolveClass(tt.in), tt.in)
	}
}

func TestNamespaceScope_EnterForgetsAliases(t *testing.T) {
	t.Parallel()
	var n namespaceScope
	n.reset()
	n.enter("First")
	n.use(`Lib\Thing`, "")
	n.enter("Second")

	assert.Equal(t, `\Second\Thing`, n.resolveClass("Thing"))
}

func TestNamespaceScope_ResolveFunction(t *testing.T) {
	t.Parallel()
	var n namespaceScope
	n.reset()
	n.enter("App")
	n.use(`Vendor\Util`, "")

	assert.Equal(t, "strlen", n.resolveFunction("strlen"))
	assert.Equal(t, `\strlen`, n.resolveFunction(`\strlen`))
	assert.Equal(t, `\Vendor\Util\format`, n.resolveFunction(`Util\format`))
	assert.Equal(t, `\App\helpers\format`, n.resolveFunction(`helpers\format`))
	assert.Equal(t, `\App\format`, n.resolveFunction(`namespace\format`))
}
