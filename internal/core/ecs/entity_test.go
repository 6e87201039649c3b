package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityIDPacksKind(t *testing.T) {
	id := NewEntityID(2, 42)
	assert.EqualValues(t, 2, id.Kind())
	assert.EqualValues(t, 42, id.Index())
	assert.EqualValues(t, 2<<24|42, uint32(id))
}

func TestEntityPoolReusesDestroyedIndex(t *testing.T) {
	p := NewEntityPool(3)
	a := p.Create()
	b := p.Create()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))
	p.Destroy(a) // already destroyed

	c := p.Create()
	assert.Equal(t, a, c)
	assert.True(t, p.Alive(c))
}

func TestEntityPoolRejectsOtherKinds(t *testing.T) {
	p := NewEntityPool(1)
	id := p.Create()
	other := NewEntityID(2, id.Index())
	assert.False(t, p.Alive(other))
	p.Destroy(other)
	assert.True(t, p.Alive(id))
}

func TestStoreIteratesInIDOrder(t *testing.T) {
	s := NewStore[string]()
	a, b, c := "a", "b", "c"
	s.Set(NewEntityID(2, 5), &c)
	s.Set(NewEntityID(1, 9), &a)
	s.Set(NewEntityID(2, 1), &b)
	s.Set(NewEntityID(1, 9), &a)

	var got []string
	s.Each(func(_ EntityID, v *string) { got = append(got, *v) })
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 3, s.Len())

	s.Remove(NewEntityID(2, 1))
	s.Remove(NewEntityID(7, 7))
	assert.False(t, s.Has(NewEntityID(2, 1)))
	got = got[:0]
	s.Each(func(_ EntityID, v *string) { got = append(got, *v) })
	assert.Equal(t, []string{"a", "c"}, got)
}
