package refpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

// cursor is the per-candidate-type resolution state. Cursors are immutable:
// advancing produces successor cursors holding a back-pointer to their
// predecessor, so step histories are shared chains rather than copied
// arrays. A cursor's type is nil for the wildcard (untyped) placeholder.
type cursor struct {
	prev     *cursor
	stepID   int // signed storage ID of the step that produced this cursor; 0 at start
	typ      *schema.ModelType
	singular bool
	depth    int
}

// newCursor returns a starting cursor for one candidate type.
func newCursor(t *schema.ModelType) *cursor {
	return &cursor{typ: t, singular: true}
}

// typeName renders the cursor's current type for error text.
func (c *cursor) typeName() string {
	if c.typ == nil {
		return "untyped object"
	}
	return "type " + c.typ.Name
}

// fieldIDs returns the signed storage-ID sequence from the start cursor to
// this one, in step order.
func (c *cursor) fieldIDs() []int {
	ids := make([]int, c.depth)
	for cur := c; cur.depth > 0; cur = cur.prev {
		ids[cur.depth-1] = cur.stepID
	}
	return ids
}

// typeChain returns the model type at every step boundary from the start
// cursor to this one; element i is the type after i hops.
func (c *cursor) typeChain() []*schema.ModelType {
	chain := make([]*schema.ModelType, c.depth+1)
	for cur := c; ; cur = cur.prev {
		chain[cur.depth] = cur.typ
		if cur.depth == 0 {
			break
		}
	}
	return chain
}

// advance resolves one step against this cursor's current type and returns
// the successor cursors, one per distinct resulting model type. An error
// prunes this cursor only; the driver decides whether the step as a whole
// fails.
func (c *cursor) advance(reg *schema.Registry, st step) ([]*cursor, error) {
	if st.inverse {
		return c.advanceInverse(reg, st.text)
	}
	return c.advanceForward(reg, st.text)
}

// advanceForward resolves an unqualified forward step. The bare field-name
// interpretation is tried first; the type-qualified "TypeName.field" form
// is only attempted when bare resolution finds no field. The ordering is a
// fixed precedence, not an accident of error handling.
func (c *cursor) advanceForward(reg *schema.Registry, text string) ([]*cursor, error) {
	if c.typ == nil {
		return nil, fmt.Errorf("%w: untyped objects have no fields (step %q)", ErrUnresolvedField, text)
	}

	f, bareErr := FindField(c.typ, text, SubFieldTraversal)
	if f == nil {
		qf, qerr := c.forwardQualified(reg, text)
		if qerr != nil {
			// The bare interpretation's failure is the more useful report
			// when both readings fail.
			if bareErr != nil {
				return nil, bareErr
			}
			return nil, qerr
		}
		f = qf
	}
	if f.Kind != schema.KindReference {
		return nil, fmt.Errorf("%w: field %q of type %q is a %s field (step %q)",
			ErrNotReference, f.FullName(), c.typ.Name, f.Kind, text)
	}

	targets := reg.ReferenceTargets(f)
	if targets.Len() == 0 {
		// Target bounds naming no registered type are reachable when types
		// were registered directly rather than loaded from a schema file.
		return nil, fmt.Errorf("%w: field %q of type %q has no registered target types (step %q)",
			ErrCannotRefer, f.FullName(), c.typ.Name, text)
	}

	singular := c.singular && f.Parent() == nil
	var next []*cursor
	for _, t := range targets.Sorted() {
		next = append(next, &cursor{
			prev:     c,
			stepID:   f.StorageID,
			typ:      t,
			singular: singular,
			depth:    c.depth + 1,
		})
	}
	return next, nil
}

// forwardQualified is the fallback interpretation of a forward step as
// "TypeName.field". The named type must cover this cursor's current type.
func (c *cursor) forwardQualified(reg *schema.Registry, text string) (*schema.Field, error) {
	i := strings.IndexByte(text, '.')
	if i < 0 {
		return nil, fmt.Errorf("%w: no field %q in %s", ErrUnresolvedField, text, c.typeName())
	}
	typeName, fieldToken := text[:i], text[i+1:]
	scope := reg.AssignableTo(typeName)
	if scope.Len() == 0 {
		return nil, fmt.Errorf("%w: no field %q in %s", ErrUnresolvedField, text, c.typeName())
	}
	if !scope.Contains(c.typ) {
		return nil, fmt.Errorf("%w: step %q names type %q, which does not cover %s",
			ErrUnresolvedField, text, typeName, c.typeName())
	}
	f, err := FindField(c.typ, fieldToken, SubFieldTraversal)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no field %q in %s", ErrUnresolvedField, fieldToken, c.typeName())
	}
	return f, nil
}

// inverseCandidate is one successful interpretation of a qualified inverse
// step: the matched reference field and the types that declare it within
// the qualifier's scope.
type inverseCandidate struct {
	field *schema.Field
	types schema.TypeSet
}

// advanceInverse resolves a "TypeName.fieldName" inverse step. Because "."
// separates type-name, field-name, and sub-field components ambiguously,
// the text is split at the last dot and, when a second dot exists, at the
// second-to-last dot; both interpretations are resolved independently and
// must agree, or exactly one must succeed.
func (c *cursor) advanceInverse(reg *schema.Registry, text string) ([]*cursor, error) {
	last := strings.LastIndexByte(text, '.')
	if last < 0 {
		return nil, fmt.Errorf("%w: inverse step %q must be qualified as TypeName.field",
			ErrUnresolvedField, text)
	}

	splits := [][2]string{{text[:last], text[last+1:]}}
	if prev := strings.LastIndexByte(text[:last], '.'); prev >= 0 {
		splits = append(splits, [2]string{text[:prev], text[prev+1:]})
	}

	var cands []*inverseCandidate
	var errs []error
	for _, sp := range splits {
		cand, err := c.resolveInverse(reg, sp[0], sp[1])
		if err != nil {
			if errors.Is(err, ErrAmbiguousPath) {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		cands = append(cands, cand)
	}

	var cand *inverseCandidate
	switch len(cands) {
	case 0:
		return nil, preferredError(errs)
	case 1:
		cand = cands[0]
	default:
		if cands[0].field.StorageID != cands[1].field.StorageID || !cands[0].types.Equal(cands[1].types) {
			return nil, fmt.Errorf("%w: step %q resolves both as %q.%q and as %q.%q",
				ErrAmbiguousPath, text, splits[0][0], splits[0][1], splits[1][0], splits[1][1])
		}
		cand = cands[0]
	}

	var next []*cursor
	for _, t := range cand.types.Sorted() {
		next = append(next, &cursor{
			prev:   c,
			stepID: -cand.field.StorageID,
			typ:    t,
			// Inverse traversal can fan out to arbitrarily many referrers.
			singular: false,
			depth:    c.depth + 1,
		})
	}
	return next, nil
}

// resolveInverse resolves one (typeName, fieldToken) interpretation of an
// inverse step. The matched field must be a reference field declared
// consistently by the types assignable to typeName, and it must be able to
// refer to this cursor's current type.
func (c *cursor) resolveInverse(reg *schema.Registry, typeName, fieldToken string) (*inverseCandidate, error) {
	scope := reg.AssignableTo(typeName)
	if scope.Len() == 0 {
		return nil, fmt.Errorf("%w: %w %q in inverse step", ErrUnresolvedField, errUnknownType, typeName)
	}

	var match *schema.Field
	var incompat error
	types := schema.NewTypeSet()
	for _, t := range scope.Sorted() {
		f, err := FindField(t, fieldToken, SubFieldTraversal)
		if err != nil || f == nil || f.Kind != schema.KindReference {
			// This scope member does not declare the field; prune it.
			continue
		}
		if match != nil && match.StorageID != f.StorageID {
			return nil, fmt.Errorf("%w: field %q means different fields in different %q types",
				ErrAmbiguousPath, fieldToken, typeName)
		}
		if match == nil {
			match = f
		}
		// The declaring type only counts as a referrer when its own bounds
		// admit the current type.
		if !reg.CanReferTo(f, c.typ) {
			if incompat == nil {
				incompat = fmt.Errorf("%w: %s.%s cannot refer to %s",
					ErrCannotRefer, typeName, f.FullName(), c.typeName())
			}
			continue
		}
		types.Add(t)
	}
	if match == nil {
		return nil, fmt.Errorf("%w: no reference field %q in types assignable to %q",
			ErrUnresolvedField, fieldToken, typeName)
	}
	if types.Len() == 0 {
		return nil, incompat
	}
	return &inverseCandidate{field: match, types: types}, nil
}

// errUnknownType marks a split whose qualifier resolved to no type at all;
// such errors lose to any split that at least found the type.
var errUnknownType = errors.New("unknown type")

// preferredError picks the most diagnostically useful of the per-split
// errors: a type-incompatibility over a plain unresolved name, and a
// resolved-type failure over an unknown-type failure.
func preferredError(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	for _, err := range errs {
		if errors.Is(err, ErrCannotRefer) {
			return err
		}
	}
	for _, err := range errs {
		if !errors.Is(err, errUnknownType) {
			return err
		}
	}
	return errs[0]
}
