package schema

// ModelType is a registered object schema type. It is identified by a stable
// name and a positive numeric storage ID, declares zero or more fields, and
// may name supertypes, which place it in the registry's subtype lattice.
// Supertype names need not themselves be registered types; they act as
// abstract type names that AssignableTo queries can resolve.
type ModelType struct {
	Name       string
	StorageID  int
	Supertypes []string
	Fields     []*Field

	byName map[string]*Field
}

// Field returns the top-level field with the given name, or nil.
func (t *ModelType) Field(name string) *Field {
	return t.byName[name]
}

// IsA reports whether the type is assignable to the given type name: the
// name is the type's own name or one of its declared supertypes.
func (t *ModelType) IsA(name string) bool {
	if t.Name == name {
		return true
	}
	for _, s := range t.Supertypes {
		if s == name {
			return true
		}
	}
	return false
}

// index builds the field-name lookup table and wires sub-field and
// declaring-type back-pointers. Called once during registration.
func (t *ModelType) index() error {
	t.byName = make(map[string]*Field, len(t.Fields))
	seenID := make(map[int]string)
	for _, f := range t.Fields {
		if f.Name == "" {
			return ErrInvalidName
		}
		if _, ok := t.byName[f.Name]; ok {
			return ErrDuplicateField
		}
		t.byName[f.Name] = f
		f.declaredBy = t
		if err := checkSubFields(f); err != nil {
			return err
		}
		for _, g := range append([]*Field{f}, f.Subs...) {
			if g.StorageID <= 0 {
				return ErrInvalidStorageID
			}
			if _, ok := seenID[g.StorageID]; ok {
				return ErrDuplicateStorageID
			}
			seenID[g.StorageID] = g.Name
		}
		for _, sf := range f.Subs {
			sf.parent = f
			sf.declaredBy = t
		}
	}
	return nil
}

// checkSubFields validates the sub-field structure for the field's kind.
func checkSubFields(f *Field) error {
	switch f.Kind {
	case KindSimple, KindReference:
		if len(f.Subs) != 0 {
			return ErrInvalidSubFields
		}
	case KindSet, KindList:
		if len(f.Subs) != 1 || f.Subs[0].Name != SubElement {
			return ErrInvalidSubFields
		}
	case KindMap:
		if len(f.Subs) != 2 || f.Subs[0].Name != SubKey || f.Subs[1].Name != SubValue {
			return ErrInvalidSubFields
		}
	default:
		return ErrUnknownFieldKind
	}
	for _, sf := range f.Subs {
		if sf.Kind != KindSimple && sf.Kind != KindReference {
			return ErrInvalidSubFields
		}
		if len(sf.Subs) != 0 {
			return ErrInvalidSubFields
		}
	}
	return nil
}
