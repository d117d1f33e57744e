package schema

import "sort"

// Wildcard is the placeholder for "an object whose concrete model type is
// unknown or unregistered". It is the nil entry in a TypeSet.
var Wildcard *ModelType

// WildcardName is the display spelling of the wildcard placeholder.
const WildcardName = "*"

// TypeSet is a set of model types. The nil entry represents the wildcard
// (untyped) placeholder. A TypeSet containing the wildcard is only sound
// when it also contains every registered type; Normalize enforces that.
type TypeSet map[*ModelType]struct{}

// NewTypeSet returns a set holding the given types.
func NewTypeSet(types ...*ModelType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a type (nil for the wildcard) into the set.
func (s TypeSet) Add(t *ModelType) { s[t] = struct{}{} }

// Contains reports whether the set holds the given type.
func (s TypeSet) Contains(t *ModelType) bool {
	_, ok := s[t]
	return ok
}

// HasWildcard reports whether the set holds the wildcard placeholder.
func (s TypeSet) HasWildcard() bool { return s.Contains(nil) }

// Len returns the number of entries, counting the wildcard.
func (s TypeSet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s TypeSet) Clone() TypeSet {
	c := make(TypeSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// AddAll inserts every entry of other into s.
func (s TypeSet) AddAll(other TypeSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Equal reports whether both sets hold exactly the same entries.
func (s TypeSet) Equal(other TypeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Sorted returns the entries ordered by name, with the wildcard first.
// The deterministic order keeps resolution output and error text stable.
func (s TypeSet) Sorted() []*ModelType {
	out := make([]*ModelType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == nil {
			return true
		}
		if out[j] == nil {
			return false
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns the sorted entry names, spelling the wildcard as "*".
func (s TypeSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		if t == nil {
			names = append(names, WildcardName)
		} else {
			names = append(names, t.Name)
		}
	}
	return names
}

// Normalize widens a wildcard-bearing set to include every registered type,
// preserving the invariant that "could be untyped" implies "could be
// anything". Sets without the wildcard are returned unchanged.
func (s TypeSet) Normalize(reg *Registry) TypeSet {
	if !s.HasWildcard() {
		return s
	}
	for _, t := range reg.Types().Sorted() {
		s.Add(t)
	}
	return s
}
