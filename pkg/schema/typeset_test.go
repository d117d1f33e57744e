package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeSetBasics(t *testing.T) {
	reg := animalRegistry(t)
	elephant := reg.LookupByName("Elephant")
	giraffe := reg.LookupByName("Giraffe")

	s := NewTypeSet(elephant)
	s.Add(giraffe)
	s.Add(Wildcard)

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(elephant))
	assert.True(t, s.HasWildcard())
	assert.Equal(t, []string{WildcardName, "Elephant", "Giraffe"}, s.Names())

	c := s.Clone()
	assert.True(t, s.Equal(c))
	c.Add(reg.LookupByName("Zoo"))
	assert.False(t, s.Equal(c), "clone is independent")
}

func TestTypeSetEqual(t *testing.T) {
	reg := animalRegistry(t)
	elephant := reg.LookupByName("Elephant")
	giraffe := reg.LookupByName("Giraffe")

	assert.True(t, NewTypeSet(elephant, giraffe).Equal(NewTypeSet(giraffe, elephant)))
	assert.False(t, NewTypeSet(elephant).Equal(NewTypeSet(giraffe)))
	assert.False(t, NewTypeSet(elephant).Equal(NewTypeSet(elephant, Wildcard)))
}

func TestTypeSetNormalize(t *testing.T) {
	reg := animalRegistry(t)
	elephant := reg.LookupByName("Elephant")

	t.Run("wildcard widens to all registered types", func(t *testing.T) {
		s := NewTypeSet(Wildcard)
		s.Normalize(reg)
		assert.Equal(t, []string{WildcardName, "Elephant", "Giraffe", "Zoo"}, s.Names())
	})

	t.Run("no wildcard leaves set unchanged", func(t *testing.T) {
		s := NewTypeSet(elephant)
		s.Normalize(reg)
		assert.Equal(t, []string{"Elephant"}, s.Names())
	})
}
