package refpath

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

// ReferencePath is a resolved, validated chain-of-references expression.
// It holds the signed field storage-ID sequence (positive = forward hop,
// negative = inverse hop), the set of model types possible after each hop,
// and the singularity flag. A ReferencePath is immutable after Resolve
// returns and safe for concurrent use.
type ReferencePath struct {
	path       string
	fieldIDs   []int
	typeSets   []schema.TypeSet // len == len(fieldIDs)+1; element i = types after i hops
	singular   bool
	filterOnce sync.Once
	filters    [][]schema.KeyRange
}

// Resolve parses and statically resolves a path expression against a
// registry, starting from the given candidate types (which may include the
// wildcard). It never returns a partially resolved path: on any failure the
// error quotes the path and wraps one of the package sentinels.
func Resolve(reg *schema.Registry, startTypes schema.TypeSet, path string) (*ReferencePath, error) {
	if startTypes.Len() == 0 {
		return nil, ErrEmptyStartTypes
	}
	steps, err := tokenize(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	cursors := make([]*cursor, 0, startTypes.Len())
	for _, t := range startTypes.Sorted() {
		cursors = append(cursors, newCursor(t))
	}

	for i, st := range steps {
		var next []*cursor
		var bestErr error
		var bestConcrete bool
		for _, c := range cursors {
			succ, err := c.advance(reg, st)
			if err != nil {
				// A failed cursor is pruned, not fatal; remember the most
				// specific error in case every cursor fails. Errors from
				// concrete-type cursors beat errors from wildcard cursors.
				if bestErr == nil || (c.typ != nil && !bestConcrete) {
					bestErr = err
					bestConcrete = c.typ != nil
				}
				continue
			}
			next = append(next, succ...)
		}
		if len(next) == 0 {
			if bestErr == nil {
				bestErr = fmt.Errorf("%w: no candidate type admits the step", ErrUnresolvedField)
			}
			return nil, fmt.Errorf("invalid path %q: step %d (%q): %w", path, i+1, st, bestErr)
		}
		cursors = next
	}

	// Every surviving cursor must have traversed the identical signed
	// field sequence; otherwise the path means different things depending
	// on the starting type.
	fieldIDs := cursors[0].fieldIDs()
	for _, c := range cursors[1:] {
		if !slices.Equal(fieldIDs, c.fieldIDs()) {
			return nil, fmt.Errorf(
				"invalid path %q: %w: traversal of different fields in different types",
				path, ErrAmbiguousPath)
		}
	}

	typeSets := make([]schema.TypeSet, len(steps)+1)
	for i := range typeSets {
		typeSets[i] = schema.NewTypeSet()
	}
	// Cursors agreeing on the signed field sequence can still disagree on
	// singularity: the same storage ID may be a plain reference field in one
	// type and a complex sub-field in another. The path is singular only if
	// every surviving cursor is.
	singular := true
	for _, c := range cursors {
		singular = singular && c.singular
		for i, t := range c.typeChain() {
			typeSets[i].Add(t)
		}
	}
	for _, ts := range typeSets {
		ts.Normalize(reg)
	}

	return &ReferencePath{
		path:     path,
		fieldIDs: fieldIDs,
		typeSets: typeSets,
		singular: singular,
	}, nil
}

// String returns the original path expression.
func (p *ReferencePath) String() string { return p.path }

// Size returns the number of steps.
func (p *ReferencePath) Size() int { return len(p.fieldIDs) }

// IsSingular reports whether the path identifies at most one target object:
// no inverse steps and no forward steps through complex sub-fields.
func (p *ReferencePath) IsSingular() bool { return p.singular }

// ReferenceFields returns the signed storage-ID sequence of the traversed
// fields; a negative ID encodes an inverse hop.
func (p *ReferencePath) ReferenceFields() []int {
	return slices.Clone(p.fieldIDs)
}

// TypeSets returns the per-boundary type sets: element i is the set of
// model types possible after i hops, possibly containing the wildcard.
func (p *ReferencePath) TypeSets() []schema.TypeSet {
	out := make([]schema.TypeSet, len(p.typeSets))
	for i, ts := range p.typeSets {
		out[i] = ts.Clone()
	}
	return out
}

// StartingTypes returns the types the path can start from after pruning.
func (p *ReferencePath) StartingTypes() schema.TypeSet {
	return p.typeSets[0].Clone()
}

// TargetTypes returns the types possible at the end of the path.
func (p *ReferencePath) TargetTypes() schema.TypeSet {
	return p.typeSets[len(p.typeSets)-1].Clone()
}

// KeyFilters returns one key-range list per step boundary, for pruning
// object-ID ranges during traversal. Element i is nil when no filtering
// narrows the search at boundary i, i.e. the boundary's type set contains
// the wildcard and therefore every type. Computed on first call and cached;
// the returned slices are shared and must not be modified.
func (p *ReferencePath) KeyFilters() [][]schema.KeyRange {
	p.filterOnce.Do(func() {
		p.filters = make([][]schema.KeyRange, len(p.typeSets))
		for i, ts := range p.typeSets {
			if ts.HasWildcard() {
				continue
			}
			types := ts.Sorted()
			slices.SortFunc(types, func(a, b *schema.ModelType) int {
				return a.StorageID - b.StorageID
			})
			var ranges []schema.KeyRange
			for _, t := range types {
				r := schema.TypeKeyRange(t)
				if n := len(ranges); n > 0 && bytes.Equal(ranges[n-1].End, r.Start) {
					ranges[n-1].End = r.End // coalesce adjacent storage IDs
					continue
				}
				ranges = append(ranges, r)
			}
			p.filters[i] = ranges
		}
	})
	return p.filters
}
