package schema

// Registry is the set of registered model types and the subtype lattice
// derived from their supertype declarations. A registry is built once at
// startup (usually by the schema loader) and then read-only; path
// resolution reads it without locking.
type Registry struct {
	byName map[string]*ModelType
	byID   map[int]*ModelType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*ModelType),
		byID:   make(map[int]*ModelType),
	}
}

// RegisterType validates and adds a model type. Returns ErrInvalidName,
// ErrInvalidStorageID, ErrTypeExists, or ErrDuplicateStorageID when the
// type or its fields are malformed or collide with an earlier registration.
func (r *Registry) RegisterType(t *ModelType) error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if t.StorageID <= 0 {
		return ErrInvalidStorageID
	}
	if _, ok := r.byName[t.Name]; ok {
		return ErrTypeExists
	}
	if _, ok := r.byID[t.StorageID]; ok {
		return ErrDuplicateStorageID
	}
	if err := t.index(); err != nil {
		return err
	}
	r.byName[t.Name] = t
	r.byID[t.StorageID] = t
	return nil
}

// LookupByName returns the registered type with the given name, or nil.
func (r *Registry) LookupByName(name string) *ModelType {
	return r.byName[name]
}

// LookupByStorageID returns the registered type with the given storage ID,
// or nil.
func (r *Registry) LookupByStorageID(id int) *ModelType {
	return r.byID[id]
}

// Types returns the set of all registered types (no wildcard).
func (r *Registry) Types() TypeSet {
	s := make(TypeSet, len(r.byName))
	for _, t := range r.byName {
		s.Add(t)
	}
	return s
}

// AssignableTo returns every registered type assignable to the given name.
// The name may be a registered type name (yielding that type plus any
// subtypes naming it as a supertype) or a pure supertype name. An empty
// result means the name is unknown to the lattice.
func (r *Registry) AssignableTo(name string) TypeSet {
	s := make(TypeSet)
	for _, t := range r.byName {
		if t.IsA(name) {
			s.Add(t)
		}
	}
	return s
}

// KnownTypeName reports whether the name denotes a registered type or
// appears as a supertype of one.
func (r *Registry) KnownTypeName(name string) bool {
	return len(r.AssignableTo(name)) > 0
}

// ReferenceTargets returns the set of types an instance held by the given
// reference field may have. An unconstrained field (no target bounds) fans
// out to every registered type plus the wildcard, since it may hold an
// object of an unregistered type. A constrained field fans out to the union
// of types assignable to each bound.
func (r *Registry) ReferenceTargets(f *Field) TypeSet {
	if len(f.Targets) == 0 {
		s := r.Types()
		s.Add(Wildcard)
		return s
	}
	s := make(TypeSet)
	for _, bound := range f.Targets {
		s.AddAll(r.AssignableTo(bound))
	}
	return s
}

// CanReferTo reports whether the given reference field may hold an instance
// of type t (nil for the wildcard). Unconstrained fields can refer to
// anything, including untyped objects; constrained fields can never refer
// to the wildcard because an unknown type satisfies no bound.
func (r *Registry) CanReferTo(f *Field, t *ModelType) bool {
	if len(f.Targets) == 0 {
		return true
	}
	if t == nil {
		return false
	}
	for _, bound := range f.Targets {
		if t.IsA(bound) {
			return true
		}
	}
	return false
}
