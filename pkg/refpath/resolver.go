package refpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

// SubFieldMode controls how FindField treats complex fields and explicit
// sub-field components.
type SubFieldMode int

const (
	// SubFieldForbidden rejects tokens naming a sub-field; a complex field
	// is returned whole.
	SubFieldForbidden SubFieldMode = iota

	// SubFieldTraversal requires a traversable (simple or reference)
	// result; a bare complex field with exactly one sub-field defaults to
	// that sub-field.
	SubFieldTraversal
)

// FindField resolves a field-name token against a model type. Token
// grammar: "name", "name#storageID", "name.subname", or
// "name.subname#storageID". The optional "#storageID" suffix disambiguates
// same-named fields; when present, the resolved field's storage ID must
// match.
//
// Returns (nil, nil) when the base name simply does not exist in the type.
// That outcome prunes a resolution candidate rather than aborting; callers
// treat it differently from a structural error.
func FindField(t *schema.ModelType, token string, mode SubFieldMode) (*schema.Field, error) {
	name := token

	var wantID int
	if i := strings.IndexByte(name, '#'); i >= 0 {
		id, err := strconv.Atoi(name[i+1:])
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid storage ID suffix in %q", ErrUnresolvedField, token)
		}
		wantID = id
		name = name[:i]
	}

	var subName string
	if i := strings.IndexByte(name, '.'); i >= 0 {
		subName = name[i+1:]
		name = name[:i]
	}

	f := t.Field(name)
	if f == nil {
		return nil, nil
	}

	switch {
	case subName != "":
		if mode == SubFieldForbidden {
			return nil, fmt.Errorf("%w: sub-field not allowed in %q", ErrUnresolvedField, token)
		}
		if !f.IsComplex() {
			return nil, fmt.Errorf("%w: field %q of type %q has no sub-fields",
				ErrUnresolvedField, name, t.Name)
		}
		sf := f.Sub(subName)
		if sf == nil {
			return nil, fmt.Errorf("%w: field %q of type %q has no sub-field %q (valid: %s)",
				ErrUnresolvedField, name, t.Name, subName, strings.Join(f.SubNames(), ", "))
		}
		f = sf
	case f.IsComplex() && mode == SubFieldTraversal:
		if len(f.Subs) != 1 {
			return nil, fmt.Errorf("%w: field %q of type %q requires a sub-field (valid: %s)",
				ErrUnresolvedField, name, t.Name, strings.Join(f.SubNames(), ", "))
		}
		f = f.Subs[0]
	}

	if wantID != 0 && f.StorageID != wantID {
		return nil, fmt.Errorf("%w: field %q of type %q has storage ID %d, not %d",
			ErrUnresolvedField, f.FullName(), t.Name, f.StorageID, wantID)
	}
	return f, nil
}
