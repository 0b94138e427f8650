package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberRecorder struct {
	nopObserver
	methods []string
}

func (r *memberRecorder) MethodFound(_, name, _, _, _ string, _ Visibility, _ bool, _ int) {
	r.methods = append(r.methods, name)
}

var methodSrc = []byte("run")

// declareMethod feeds the events of a method header and returns after
// the header is complete, i.e. where its body would start.
func declareMethod(e *Engine) {
	e.ClassMemberClear()
	name := e.Value(TokenIdentifier, methodSrc, Span{Start: 0, End: 3}, Span{}, 0)
	e.ClassMemberSetNameAndReturnReference(name, SemanticValue{}, SemanticValue{})
	e.ClassMemberFound(false, 1)
}

func TestEngine_MemberOnlySkipsMethodBodies(t *testing.T) {
	t.Parallel()
	rec := &memberRecorder{}
	e := NewEngine()
	e.SetClassMemberObserver(rec)
	require.True(t, e.Collecting())

	declareMethod(e)
	assert.Equal(t, []string{"run"}, rec.methods)
	assert.False(t, e.Collecting())
	assert.Equal(t, Stats{MaterializedValues: 1}, e.Stats())

	v := e.Value(TokenVariable, methodSrc, Span{Start: 0, End: 3}, Span{}, 0)
	assert.Empty(t, v.Lexeme)
	assert.Equal(t, Stats{MaterializedValues: 1, SkippedValues: 1}, e.Stats())

	e.ClassMethodEnd(SemanticValue{Kind: TokenBrace, Pos: 10})
	assert.True(t, e.Collecting())

	v = e.Value(TokenVariable, methodSrc, Span{Start: 0, End: 3}, Span{}, 0)
	assert.Equal(t, "run", v.Lexeme)
	assert.Equal(t, Stats{MaterializedValues: 2, SkippedValues: 1}, e.Stats())
}

func TestEngine_CollectingResumes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		resume func(e *Engine)
	}{
		{"method end", func(e *Engine) { e.ClassMethodEnd(SemanticValue{}) }},
		{"function end", func(e *Engine) { e.FunctionEnd(SemanticValue{}) }},
		{"property", func(e *Engine) {
			e.ClassMemberClear()
			e.ClassMemberFound(true, 2)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewEngine()
			e.SetClassMemberObserver(&memberRecorder{})

			declareMethod(e)
			require.False(t, e.Collecting())
			tt.resume(e)
			assert.True(t, e.Collecting())
		})
	}
}

func TestEngine_BodyObserversKeepCollecting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		register func(e *Engine, rec *memberRecorder)
	}{
		{"variable", func(e *Engine, rec *memberRecorder) { e.SetVariableObserver(rec) }},
		{"expression", func(e *Engine, rec *memberRecorder) { e.SetExpressionObserver(rec) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &memberRecorder{}
			e := NewEngine()
			e.SetClassMemberObserver(rec)
			tt.register(e, rec)

			declareMethod(e)
			assert.True(t, e.Collecting())

			v := e.Value(TokenVariable, methodSrc, Span{Start: 0, End: 3}, Span{}, 0)
			assert.Equal(t, "run", v.Lexeme)
			assert.Equal(t, Stats{MaterializedValues: 2}, e.Stats())
		})
	}
}

func TestEngine_ResetRestoresCollecting(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	e.SetClassMemberObserver(&memberRecorder{})

	declareMethod(e)
	require.False(t, e.Collecting())
	e.Reset()
	assert.True(t, e.Collecting())
	assert.Equal(t, Stats{}, e.Stats())
}

func TestEngine_InactiveSkipsEverything(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	assert.False(t, e.Active())
	assert.False(t, e.Collecting())

	v := e.Value(TokenIdentifier, methodSrc, Span{Start: 0, End: 3}, Span{}, 0)
	assert.Empty(t, v.Lexeme)
	assert.Equal(t, Stats{SkippedValues: 1}, e.Stats())
}
