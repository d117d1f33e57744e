package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema definition file structure. Example:
//
//	types:
//	  - name: Elephant
//	    storage_id: 10
//	    supertypes: [Animal]
//	    fields:
//	      - name: parent
//	        storage_id: 11
//	        kind: reference
//	        targets: [Elephant]
//	      - name: friends
//	        storage_id: 12
//	        kind: list
//	        element:
//	          storage_id: 13
//	          kind: reference
type schemaFile struct {
	Types []typeDef `yaml:"types"`
}

type typeDef struct {
	Name       string     `yaml:"name"`
	StorageID  int        `yaml:"storage_id"`
	Supertypes []string   `yaml:"supertypes"`
	Fields     []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name      string    `yaml:"name"`
	StorageID int       `yaml:"storage_id"`
	Kind      string    `yaml:"kind"`
	Targets   []string  `yaml:"targets"`
	Element   *fieldDef `yaml:"element"`
	Key       *fieldDef `yaml:"key"`
	Value     *fieldDef `yaml:"value"`
}

// Parse builds a registry from YAML schema-definition bytes. It validates
// type and field structure via RegisterType, then checks that every
// reference target names a registered type or a declared supertype.
func Parse(data []byte) (*Registry, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	reg := NewRegistry()
	for _, td := range sf.Types {
		t := &ModelType{
			Name:       td.Name,
			StorageID:  td.StorageID,
			Supertypes: td.Supertypes,
		}
		for _, fd := range td.Fields {
			f, err := buildField(fd)
			if err != nil {
				return nil, fmt.Errorf("type %q field %q: %w", td.Name, fd.Name, err)
			}
			t.Fields = append(t.Fields, f)
		}
		if err := reg.RegisterType(t); err != nil {
			return nil, fmt.Errorf("type %q: %w", td.Name, err)
		}
	}

	if err := checkTargets(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFile builds a registry from a YAML schema-definition file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// buildField converts a field definition into a Field, recursing into
// complex sub-field definitions.
func buildField(fd fieldDef) (*Field, error) {
	kind, err := parseKind(fd.Kind)
	if err != nil {
		return nil, err
	}
	f := &Field{
		Name:      fd.Name,
		StorageID: fd.StorageID,
		Kind:      kind,
		Targets:   fd.Targets,
	}
	sub := func(name string, def *fieldDef) error {
		if def == nil {
			return fmt.Errorf("%w: missing %q sub-field", ErrInvalidSubFields, name)
		}
		sf, err := buildField(*def)
		if err != nil {
			return err
		}
		sf.Name = name
		f.Subs = append(f.Subs, sf)
		return nil
	}
	switch kind {
	case KindSet, KindList:
		if err := sub(SubElement, fd.Element); err != nil {
			return nil, err
		}
	case KindMap:
		if err := sub(SubKey, fd.Key); err != nil {
			return nil, err
		}
		if err := sub(SubValue, fd.Value); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// parseKind maps the schema-file kind spelling onto FieldKind. A missing
// kind defaults to simple.
func parseKind(s string) (FieldKind, error) {
	switch s {
	case "", "simple":
		return KindSimple, nil
	case "reference":
		return KindReference, nil
	case "set":
		return KindSet, nil
	case "list":
		return KindList, nil
	case "map":
		return KindMap, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFieldKind, s)
	}
}

// checkTargets verifies that every reference-field target bound resolves to
// at least one registered type through the lattice.
func checkTargets(reg *Registry) error {
	for _, t := range reg.Types().Sorted() {
		for _, f := range t.Fields {
			for _, g := range append([]*Field{f}, f.Subs...) {
				if g.Kind != KindReference {
					continue
				}
				for _, bound := range g.Targets {
					if !reg.KnownTypeName(bound) {
						return fmt.Errorf("type %q field %q: %w: %q",
							t.Name, g.FullName(), ErrUnknownTarget, bound)
					}
				}
			}
		}
	}
	return nil
}
