package refpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

// zooRegistry builds the registry shared across refpath tests. Elephant and
// Giraffe are Animals with a same-signature parent field (same storage ID,
// own-type target); Zoo references animals; Safari and "Safari.park" exist
// to exercise dot-split disambiguation of qualified steps.
func zooRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()

	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:       "Elephant",
		StorageID:  10,
		Supertypes: []string{"Animal"},
		Fields: []*schema.Field{
			{Name: "parent", StorageID: 21, Kind: schema.KindReference, Targets: []string{"Elephant"}},
			{Name: "name", StorageID: 22, Kind: schema.KindSimple},
			{Name: "friends", StorageID: 23, Kind: schema.KindList, Subs: []*schema.Field{
				{Name: schema.SubElement, StorageID: 24, Kind: schema.KindReference, Targets: []string{"Elephant"}},
			}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:       "Giraffe",
		StorageID:  11,
		Supertypes: []string{"Animal"},
		Fields: []*schema.Field{
			{Name: "parent", StorageID: 21, Kind: schema.KindReference, Targets: []string{"Giraffe"}},
			{Name: "friend", StorageID: 25, Kind: schema.KindReference, Targets: []string{"Giraffe"}},
			{Name: "height", StorageID: 26, Kind: schema.KindSimple},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Zoo",
		StorageID: 12,
		Fields: []*schema.Field{
			{Name: "star", StorageID: 31, Kind: schema.KindReference, Targets: []string{"Animal"}},
			{Name: "exhibit", StorageID: 32, Kind: schema.KindReference},
			{Name: "animals", StorageID: 33, Kind: schema.KindList, Subs: []*schema.Field{
				{Name: schema.SubElement, StorageID: 34, Kind: schema.KindReference, Targets: []string{"Animal"}},
			}},
			{Name: "census", StorageID: 38, Kind: schema.KindMap, Subs: []*schema.Field{
				{Name: schema.SubKey, StorageID: 39, Kind: schema.KindSimple},
				{Name: schema.SubValue, StorageID: 40, Kind: schema.KindSimple},
			}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Safari",
		StorageID: 14,
		Fields: []*schema.Field{
			{Name: "park", StorageID: 35, Kind: schema.KindList, Subs: []*schema.Field{
				{Name: schema.SubElement, StorageID: 36, Kind: schema.KindReference, Targets: []string{"Animal"}},
			}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Safari.park",
		StorageID: 15,
		Fields: []*schema.Field{
			{Name: "element", StorageID: 37, Kind: schema.KindReference, Targets: []string{"Animal"}},
		},
	}))
	return reg
}

func startSet(reg *schema.Registry, names ...string) schema.TypeSet {
	s := schema.NewTypeSet()
	for _, n := range names {
		s.Add(reg.LookupByName(n))
	}
	return s
}

func TestResolveZeroLengthPath(t *testing.T) {
	reg := zooRegistry(t)
	start := startSet(reg, "Elephant", "Giraffe")

	p, err := Resolve(reg, start, "")
	require.NoError(t, err)

	assert.Equal(t, "", p.String())
	assert.Equal(t, 0, p.Size())
	assert.True(t, p.IsSingular())
	assert.Empty(t, p.ReferenceFields())
	assert.True(t, p.StartingTypes().Equal(p.TargetTypes()))
	assert.Equal(t, []string{"Elephant", "Giraffe"}, p.TargetTypes().Names())
}

func TestResolveForwardParent(t *testing.T) {
	// Both starting types declare a same-signature parent reference field
	// returning their own type.
	reg := zooRegistry(t)

	p, err := Resolve(reg, startSet(reg, "Elephant", "Giraffe"), "->parent")
	require.NoError(t, err)

	assert.Equal(t, "->parent", p.String())
	assert.Equal(t, []int{21}, p.ReferenceFields())
	assert.True(t, p.IsSingular())
	assert.Equal(t, []string{"Elephant", "Giraffe"}, p.TargetTypes().Names())
	assert.Equal(t, []string{"Elephant", "Giraffe"}, p.StartingTypes().Names())
}

func TestResolveForwardChain(t *testing.T) {
	reg := zooRegistry(t)

	p, err := Resolve(reg, startSet(reg, "Elephant"), "->parent->parent")
	require.NoError(t, err)
	assert.Equal(t, []int{21, 21}, p.ReferenceFields())
	assert.True(t, p.IsSingular())

	sets := p.TypeSets()
	require.Len(t, sets, 3)
	for _, ts := range sets {
		assert.Equal(t, []string{"Elephant"}, ts.Names())
	}
}

func TestResolveComplexSubField(t *testing.T) {
	reg := zooRegistry(t)

	t.Run("explicit sub-field", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "->friends.element")
		require.NoError(t, err)
		assert.Equal(t, []int{24}, p.ReferenceFields())
		assert.False(t, p.IsSingular(), "collection hop fans out")
	})

	t.Run("single sub-field defaults", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "->friends")
		require.NoError(t, err)
		assert.Equal(t, []int{24}, p.ReferenceFields())
		assert.False(t, p.IsSingular())
	})

	t.Run("storage ID suffix accepted", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "->friends.element#24")
		require.NoError(t, err)
		assert.Equal(t, []int{24}, p.ReferenceFields())
	})
}

func TestResolveUnconstrainedFanOut(t *testing.T) {
	// A forward step through an unconstrained reference field fans out to
	// the full registered-type set plus the wildcard.
	reg := zooRegistry(t)

	p, err := Resolve(reg, startSet(reg, "Zoo"), "->exhibit")
	require.NoError(t, err)

	target := p.TargetTypes()
	assert.True(t, target.HasWildcard())
	assert.Equal(t, reg.Types().Len()+1, target.Len())
	assert.False(t, p.StartingTypes().HasWildcard())
}

func TestResolveThroughWildcardBoundary(t *testing.T) {
	// After an unconstrained hop, the wildcard cursor cannot resolve a
	// forward field, but concrete cursors that can survive.
	reg := zooRegistry(t)

	p, err := Resolve(reg, startSet(reg, "Zoo"), "->exhibit->parent")
	require.NoError(t, err)
	assert.Equal(t, []int{32, 21}, p.ReferenceFields())
	assert.Equal(t, []string{"Elephant", "Giraffe"}, p.TargetTypes().Names())
}

func TestResolvePruningNarrowsStartTypes(t *testing.T) {
	reg := zooRegistry(t)

	p, err := Resolve(reg, startSet(reg, "Elephant", "Zoo"), "->parent")
	require.NoError(t, err)
	assert.Equal(t, []string{"Elephant"}, p.StartingTypes().Names())
}

func TestResolvePruningExhaustion(t *testing.T) {
	reg := zooRegistry(t)

	_, err := Resolve(reg, startSet(reg, "Zoo"), "->parent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedField)
	assert.ErrorContains(t, err, `"->parent"`)
}

func TestResolvePrefersConcreteCursorError(t *testing.T) {
	reg := zooRegistry(t)
	start := startSet(reg, "Elephant")
	start.Add(schema.Wildcard)

	_, err := Resolve(reg, start, "->bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedField)
	assert.ErrorContains(t, err, "Elephant", "concrete-type failure beats wildcard failure")
}

func TestResolveNonReferenceField(t *testing.T) {
	reg := zooRegistry(t)

	_, err := Resolve(reg, startSet(reg, "Elephant"), "->name")
	assert.ErrorIs(t, err, ErrNotReference)
}

func TestResolveInverse(t *testing.T) {
	reg := zooRegistry(t)

	t.Run("concrete qualifier", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "<-Zoo.star")
		require.NoError(t, err)
		assert.Equal(t, []int{-31}, p.ReferenceFields())
		assert.False(t, p.IsSingular())
		assert.Equal(t, []string{"Zoo"}, p.TargetTypes().Names())
	})

	t.Run("supertype qualifier keeps only referriers whose bounds admit the current type", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "<-Animal.parent")
		require.NoError(t, err)
		assert.Equal(t, []int{-21}, p.ReferenceFields())
		// Giraffe.parent can only refer to Giraffes.
		assert.Equal(t, []string{"Elephant"}, p.TargetTypes().Names())
	})

	t.Run("complex sub-field qualifier", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Giraffe"), "<-Zoo.animals.element")
		require.NoError(t, err)
		assert.Equal(t, []int{-34}, p.ReferenceFields())
		assert.Equal(t, []string{"Zoo"}, p.TargetTypes().Names())
	})

	t.Run("field cannot refer to starting type", func(t *testing.T) {
		_, err := Resolve(reg, startSet(reg, "Elephant"), "<-Giraffe.friend")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCannotRefer)
		assert.ErrorContains(t, err, "Giraffe.friend")
		assert.ErrorContains(t, err, "Elephant")
	})

	t.Run("unqualified inverse step", func(t *testing.T) {
		_, err := Resolve(reg, startSet(reg, "Elephant"), "<-parent")
		assert.ErrorIs(t, err, ErrUnresolvedField)
	})

	t.Run("unknown qualifier type", func(t *testing.T) {
		_, err := Resolve(reg, startSet(reg, "Elephant"), "<-Walrus.friend")
		assert.ErrorIs(t, err, ErrUnresolvedField)
	})
}

func TestResolveInverseFromWildcard(t *testing.T) {
	reg := zooRegistry(t)
	start := schema.NewTypeSet(schema.Wildcard)

	t.Run("unconstrained field can refer to untyped objects", func(t *testing.T) {
		p, err := Resolve(reg, start.Clone(), "<-Zoo.exhibit")
		require.NoError(t, err)
		assert.Equal(t, []int{-32}, p.ReferenceFields())
		assert.Equal(t, []string{"Zoo"}, p.TargetTypes().Names())
	})

	t.Run("constrained field cannot", func(t *testing.T) {
		_, err := Resolve(reg, start.Clone(), "<-Zoo.star")
		assert.ErrorIs(t, err, ErrCannotRefer)
	})
}

func TestResolveDotSplitDisambiguation(t *testing.T) {
	reg := zooRegistry(t)

	t.Run("only one split resolves", func(t *testing.T) {
		// "Zoo.animals" is no type, so only the ("Zoo", "animals.element")
		// split survives.
		p, err := Resolve(reg, startSet(reg, "Elephant"), "<-Zoo.animals.element")
		require.NoError(t, err)
		assert.Equal(t, []int{-34}, p.ReferenceFields())
	})

	t.Run("both splits resolve differently", func(t *testing.T) {
		// ("Safari.park", "element") and ("Safari", "park.element") both
		// resolve, to different fields; never silently pick one.
		_, err := Resolve(reg, startSet(reg, "Elephant"), "<-Safari.park.element")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAmbiguousPath)
		assert.ErrorContains(t, err, "Safari.park.element")
	})
}

func TestResolveQualifiedForwardStep(t *testing.T) {
	reg := zooRegistry(t)

	t.Run("supertype qualifier", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "->Animal.parent")
		require.NoError(t, err)
		assert.Equal(t, []int{21}, p.ReferenceFields())
	})

	t.Run("concrete qualifier", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Elephant"), "->Elephant.parent")
		require.NoError(t, err)
		assert.Equal(t, []int{21}, p.ReferenceFields())
	})

	t.Run("qualifier not covering current type", func(t *testing.T) {
		_, err := Resolve(reg, startSet(reg, "Zoo"), "->Animal.parent")
		assert.ErrorIs(t, err, ErrUnresolvedField)
	})
}

func TestResolveForwardPrefersUnqualified(t *testing.T) {
	// A step parseable both as a bare "field.subfield" and as a qualified
	// "Type.field" must take the unqualified reading.
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:       "Elephant",
		StorageID:  10,
		Supertypes: []string{"Animal"},
		Fields: []*schema.Field{
			// A set field named after the supertype, to force the clash.
			{Name: "Animal", StorageID: 21, Kind: schema.KindSet, Subs: []*schema.Field{
				{Name: schema.SubElement, StorageID: 22, Kind: schema.KindReference, Targets: []string{"Giraffe"}},
			}},
			{Name: "element", StorageID: 23, Kind: schema.KindReference, Targets: []string{"Elephant"}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:       "Giraffe",
		StorageID:  11,
		Supertypes: []string{"Animal"},
	}))

	p, err := Resolve(reg, startSet(reg, "Elephant"), "->Animal.element")
	require.NoError(t, err)
	assert.Equal(t, []int{22}, p.ReferenceFields(),
		"bare field Animal with sub-field element wins over type Animal, field element")
	assert.Equal(t, []string{"Giraffe"}, p.TargetTypes().Names())
}

func TestResolveAmbiguousFieldSequences(t *testing.T) {
	// Two starting types resolve the same step text to structurally
	// different fields; the path must fail rather than silently mean two
	// things.
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Lion",
		StorageID: 10,
		Fields: []*schema.Field{
			{Name: "parent", StorageID: 21, Kind: schema.KindReference, Targets: []string{"Lion"}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Tiger",
		StorageID: 11,
		Fields: []*schema.Field{
			{Name: "parent", StorageID: 41, Kind: schema.KindReference, Targets: []string{"Tiger"}},
		},
	}))

	start := startSet(reg, "Lion", "Tiger")
	start.Add(schema.Wildcard)

	_, err := Resolve(reg, start, "->parent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousPath)
	assert.ErrorContains(t, err, "different fields in different types")
}

func TestResolveMixedStructureSingularity(t *testing.T) {
	// The same step text resolves to the same storage ID in both starting
	// types, but for Tiger it is a list's element sub-field: one surviving
	// cursor fans out through a collection, so the path is not singular.
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Lion",
		StorageID: 10,
		Fields: []*schema.Field{
			{Name: "pal", StorageID: 24, Kind: schema.KindReference, Targets: []string{"Lion"}},
		},
	}))
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Tiger",
		StorageID: 11,
		Fields: []*schema.Field{
			{Name: "pal", StorageID: 23, Kind: schema.KindList, Subs: []*schema.Field{
				{Name: schema.SubElement, StorageID: 24, Kind: schema.KindReference, Targets: []string{"Tiger"}},
			}},
		},
	}))

	p, err := Resolve(reg, startSet(reg, "Lion", "Tiger"), "->pal")
	require.NoError(t, err)
	assert.Equal(t, []int{24}, p.ReferenceFields())
	assert.False(t, p.IsSingular(),
		"a collection hop for any starting type makes the whole path non-singular")
}

func TestResolveForwardNoRegisteredTargets(t *testing.T) {
	// Registering types directly skips the schema loader's target check, so
	// a field may name only unregistered target types. The step must fail
	// with a descriptive error rather than zero successors and no cause.
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterType(&schema.ModelType{
		Name:      "Lion",
		StorageID: 10,
		Fields: []*schema.Field{
			{Name: "ghost", StorageID: 21, Kind: schema.KindReference, Targets: []string{"Phantom"}},
		},
	}))

	_, err := Resolve(reg, startSet(reg, "Lion"), "->ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCannotRefer)
	assert.ErrorContains(t, err, `"->ghost"`)
	assert.ErrorContains(t, err, "no registered target types")
	assert.NotContains(t, err.Error(), "%!w")
}

func TestResolveEmptyStartTypes(t *testing.T) {
	reg := zooRegistry(t)
	_, err := Resolve(reg, schema.NewTypeSet(), "->parent")
	assert.ErrorIs(t, err, ErrEmptyStartTypes)
}

func TestResolveMalformedPath(t *testing.T) {
	reg := zooRegistry(t)
	_, err := Resolve(reg, startSet(reg, "Elephant"), "parent")
	assert.ErrorIs(t, err, ErrMalformedPath)
}

func TestRoundTrip(t *testing.T) {
	reg := zooRegistry(t)
	paths := []string{
		"",
		"->parent",
		"->friends.element",
		"->friends.element#24",
		"<-Zoo.animals.element",
		"->parent<-Animal.parent",
	}
	for _, raw := range paths {
		p, err := Resolve(reg, startSet(reg, "Elephant"), raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, p.String())
	}
}

func TestSingularityMonotonicity(t *testing.T) {
	reg := zooRegistry(t)

	tests := []struct {
		path     string
		singular bool
	}{
		{"", true},
		{"->parent", true},
		{"->parent->parent", true},
		{"->friends.element", false},
		{"->friends.element->parent", false},
		{"->parent<-Animal.parent", false},
		{"<-Animal.parent->parent", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := Resolve(reg, startSet(reg, "Elephant"), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.singular, p.IsSingular())
		})
	}
}

func TestKeyFilters(t *testing.T) {
	reg := zooRegistry(t)

	t.Run("adjacent type ranges coalesce", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Zoo"), "->star")
		require.NoError(t, err)

		filters := p.KeyFilters()
		require.Len(t, filters, 2)

		require.Len(t, filters[0], 1)
		assert.Equal(t, schema.TypePrefix(12), filters[0][0].Start)
		assert.Equal(t, schema.TypePrefix(13), filters[0][0].End)

		// Elephant (10) and Giraffe (11) are adjacent storage IDs.
		require.Len(t, filters[1], 1)
		assert.Equal(t, schema.TypePrefix(10), filters[1][0].Start)
		assert.Equal(t, schema.TypePrefix(12), filters[1][0].End)
	})

	t.Run("wildcard boundary yields nil filter", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Zoo"), "->exhibit")
		require.NoError(t, err)

		filters := p.KeyFilters()
		require.Len(t, filters, 2)
		assert.NotNil(t, filters[0])
		assert.Nil(t, filters[1], "no filtering narrows a wildcard boundary")
	})

	t.Run("computed once", func(t *testing.T) {
		p, err := Resolve(reg, startSet(reg, "Zoo"), "->star")
		require.NoError(t, err)
		first := p.KeyFilters()
		second := p.KeyFilters()
		assert.Same(t, &first[0], &second[0])
	})
}
