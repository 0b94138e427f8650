package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_FakeIDsAreNegative(t *testing.T) {
	t.Parallel()
	b := NewBatch(File{Path: "/a.php"})

	id1 := b.AddClass(Class{Name: "Foo"})
	id2 := b.AddClass(Class{Name: "Bar"})
	assert.Negative(t, id1, "batched IDs should be negative")
	assert.Negative(t, id2)
	assert.NotEqual(t, id1, id2)

	b.AddMember(Member{ClassID: id2, Kind: KindMethod, Name: "run"})
	require.Len(t, b.Members, 1)
	assert.Negative(t, b.Members[0].ID)
	assert.Equal(t, id2, b.Members[0].ClassID)
}

func TestBatch_SetMethodEndPicksLastMatch(t *testing.T) {
	t.Parallel()
	b := NewBatch(File{Path: "/a.php"})
	foo := b.AddClass(Class{Name: "Foo"})
	bar := b.AddClass(Class{Name: "Bar"})
	b.AddMember(Member{ClassID: foo, Kind: KindMethod, Name: "run"})
	b.AddMember(Member{ClassID: bar, Kind: KindMethod, Name: "run"})
	b.AddMember(Member{ClassID: bar, Kind: KindProperty, Name: "run"})

	b.SetMethodEnd(bar, "run", 99)
	assert.Zero(t, b.Members[0].EndPos)
	assert.Equal(t, 99, b.Members[1].EndPos)
	assert.Zero(t, b.Members[2].EndPos)
}

func TestBatch_CommitRemapsClassIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatch(File{Path: "/two.php", Hash: "1", Version: "5.4", Success: true})
	a := b.AddClass(Class{Name: "A", FullName: "A", Namespace: `\`})
	c := b.AddClass(Class{Name: "C", FullName: "C", Namespace: `\`})
	b.AddMember(Member{ClassID: c, Kind: KindConst, Name: "X"})
	b.AddMember(Member{ClassID: a, Kind: KindTrait, Name: `\T`})

	_, err := s.CommitBatch(b)
	require.NoError(t, err)

	cs, err := s.FindClasses("C")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Positive(t, cs[0].ID)

	members, err := s.ClassMembers(cs[0].ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "X", members[0].Name)
	assert.Equal(t, KindConst, members[0].Kind)
}
