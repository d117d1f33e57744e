package schema

// FieldKind is the closed set of field shapes a model type can declare.
type FieldKind int

const (
	KindSimple    FieldKind = iota // atomic value, never a traversal hop
	KindReference                  // object identifier, traversal hop
	KindSet                        // complex: one "element" sub-field
	KindList                       // complex: one "element" sub-field
	KindMap                        // complex: "key" and "value" sub-fields
)

// String returns the schema-file spelling of the kind.
func (k FieldKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindReference:
		return "reference"
	case KindSet:
		return "set"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Complex sub-field names.
const (
	SubElement = "element"
	SubKey     = "key"
	SubValue   = "value"
)

// Field is one field of a model type, or a named sub-field of a complex
// field. StorageID is stable and unique within the declaring model type,
// counting sub-fields. Targets applies to reference fields only: the names
// (concrete or supertype) an instance held by the field may have; an empty
// Targets means the field is unconstrained and may refer to any object.
type Field struct {
	Name      string
	StorageID int
	Kind      FieldKind
	Targets   []string
	Subs      []*Field

	parent     *Field
	declaredBy *ModelType
}

// IsComplex reports whether the field is a set, list, or map.
func (f *Field) IsComplex() bool {
	return f.Kind == KindSet || f.Kind == KindList || f.Kind == KindMap
}

// Parent returns the complex field this field is a sub-field of, or nil for
// a top-level field.
func (f *Field) Parent() *Field { return f.parent }

// DeclaredBy returns the model type that declares this field.
func (f *Field) DeclaredBy() *ModelType { return f.declaredBy }

// Sub returns the named sub-field of a complex field, or nil.
func (f *Field) Sub(name string) *Field {
	for _, sf := range f.Subs {
		if sf.Name == name {
			return sf
		}
	}
	return nil
}

// SubNames returns the names of the field's sub-fields in declaration order.
func (f *Field) SubNames() []string {
	names := make([]string, len(f.Subs))
	for i, sf := range f.Subs {
		names[i] = sf.Name
	}
	return names
}

// FullName returns "parent.name" for a sub-field and the plain name
// otherwise. This is the spelling a path step uses to address the field.
func (f *Field) FullName() string {
	if f.parent != nil {
		return f.parent.Name + "." + f.Name
	}
	return f.Name
}
