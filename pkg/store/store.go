// Package store implements the object layer of Larder: objects of
// registered model types persisted as field-indexed entries in the ordered
// key/value store. Each object occupies one contiguous key range:
// type prefix, then the 16-byte object UUID, then the field storage ID.
// Path execution (walking object graphs) is not done here; this layer only
// creates, reads, and deletes objects and field values.
// See docs/ARCHITECTURE.md § Object Store.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/internal/kv"
	"github.com/mesh-intelligence/larder/pkg/refpath"
	"github.com/mesh-intelligence/larder/pkg/schema"
)

// Object layer errors.
var (
	ErrUnknownType    = errors.New("unknown model type")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidID      = errors.New("invalid object ID")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidValue   = errors.New("invalid field value")
)

// Ref is a stored reference-field value: the identity of another object.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// meta is the value stored under an object's marker key.
type meta struct {
	CreatedAt time.Time `json:"created_at"`
}

// Store persists objects of registered model types in the key/value store.
type Store struct {
	reg *schema.Registry
	kv  *kv.Store
}

// New returns an object store over the given registry and attached
// key/value store.
func New(reg *schema.Registry, kvs *kv.Store) *Store {
	return &Store{reg: reg, kv: kvs}
}

// newObjectID generates a UUID v7 for object IDs, falling back to v4 if
// v7 generation fails.
func newObjectID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Create persists a new empty object of the named type and returns its ID.
func (s *Store) Create(typeName string) (string, error) {
	t := s.reg.LookupByName(typeName)
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	id := newObjectID()
	value, err := json.Marshal(meta{CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := s.kv.Put(objectKey(t, id), value); err != nil {
		return "", err
	}
	return id.String(), nil
}

// Exists reports whether an object of the named type with the given ID is
// persisted.
func (s *Store) Exists(typeName, id string) (bool, error) {
	t, u, err := s.resolveObject(typeName, id)
	if err != nil {
		return false, err
	}
	_, err = s.kv.Get(objectKey(t, u))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an object and all its field values. Returns
// ErrObjectNotFound if the object does not exist.
func (s *Store) Delete(typeName, id string) error {
	t, u, err := s.resolveObject(typeName, id)
	if err != nil {
		return err
	}

	start := objectKey(t, u)
	n, err := s.kv.DeleteRange(start, prefixEnd(start))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

// SetField stores a field value on an existing object. The field token
// follows the resolver grammar ("name" or "name#storageID"; sub-field
// components are not accepted — complex values are stored whole). Simple
// fields take any JSON-encodable value; reference fields take a Ref whose
// target must exist and satisfy the field's bounds; set and list fields
// take a slice, map fields a map.
func (s *Store) SetField(typeName, id, fieldToken string, value any) error {
	t, u, err := s.resolveObject(typeName, id)
	if err != nil {
		return err
	}
	if ok, err := s.Exists(typeName, id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s %s", ErrObjectNotFound, typeName, id)
	}

	f, err := refpath.FindField(t, fieldToken, refpath.SubFieldForbidden)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownField, err)
	}
	if f == nil {
		return fmt.Errorf("%w: no field %q in type %q", ErrUnknownField, fieldToken, typeName)
	}

	encoded, err := s.encodeValue(f, value)
	if err != nil {
		return err
	}
	return s.kv.Put(fieldKey(t, u, f.StorageID), encoded)
}

// GetField returns a field value previously stored with SetField. A field
// that was never set returns ErrObjectNotFound for missing objects and
// (nil, nil) for missing values on existing objects.
func (s *Store) GetField(typeName, id, fieldToken string) (any, error) {
	t, u, err := s.resolveObject(typeName, id)
	if err != nil {
		return nil, err
	}

	f, err := refpath.FindField(t, fieldToken, refpath.SubFieldForbidden)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownField, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no field %q in type %q", ErrUnknownField, fieldToken, typeName)
	}

	raw, err := s.kv.Get(fieldKey(t, u, f.StorageID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		if ok, err := s.Exists(typeName, id); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrObjectNotFound, typeName, id)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if f.Kind == schema.KindReference {
		var ref Ref
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		return ref, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// ObjectIDs returns the IDs of every persisted object of the named type,
// in key order.
func (s *Store) ObjectIDs(typeName string) ([]string, error) {
	t := s.reg.LookupByName(typeName)
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	r := schema.TypeKeyRange(t)
	pairs, err := s.kv.Scan(r.Start, r.End)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range pairs {
		// Marker keys are exactly prefix + UUID; field keys are longer.
		if len(p.Key) != schema.TypePrefixLen+16 {
			continue
		}
		u, err := uuid.FromBytes(p.Key[schema.TypePrefixLen:])
		if err != nil {
			continue
		}
		ids = append(ids, u.String())
	}
	return ids, nil
}

// encodeValue validates a field value against the field's shape and
// returns its stored encoding.
func (s *Store) encodeValue(f *schema.Field, value any) ([]byte, error) {
	switch f.Kind {
	case schema.KindReference:
		ref, ok := value.(Ref)
		if !ok {
			return nil, fmt.Errorf("%w: reference field %q takes a Ref", ErrInvalidValue, f.Name)
		}
		target := s.reg.LookupByName(ref.Type)
		if target == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, ref.Type)
		}
		if !s.reg.CanReferTo(f, target) {
			return nil, fmt.Errorf("%w: field %q cannot refer to type %q", ErrInvalidValue, f.Name, ref.Type)
		}
		if ok, err := s.Exists(ref.Type, ref.ID); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrObjectNotFound, ref.Type, ref.ID)
		}
		return json.Marshal(ref)
	case schema.KindSet, schema.KindList:
		if _, ok := value.([]any); !ok {
			return nil, fmt.Errorf("%w: %s field %q takes a slice", ErrInvalidValue, f.Kind, f.Name)
		}
	case schema.KindMap:
		if _, ok := value.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: map field %q takes a map", ErrInvalidValue, f.Name)
		}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return encoded, nil
}

// resolveObject validates the type name and object ID and returns the
// model type plus parsed UUID.
func (s *Store) resolveObject(typeName, id string) (*schema.ModelType, uuid.UUID, error) {
	t := s.reg.LookupByName(typeName)
	if t == nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return t, u, nil
}

// objectKey is the marker key for an object: type prefix + UUID bytes.
func objectKey(t *schema.ModelType, u uuid.UUID) []byte {
	key := schema.TypePrefix(t.StorageID)
	return append(key, u[:]...)
}

// fieldKey addresses one field value of an object.
func fieldKey(t *schema.ModelType, u uuid.UUID, storageID int) []byte {
	key := objectKey(t, u)
	var fid [4]byte
	binary.BigEndian.PutUint32(fid[:], uint32(storageID))
	return append(key, fid[:]...)
}

// prefixEnd returns the smallest key greater than every key beginning with
// prefix. Returns nil only for an all-0xff prefix, which object keys never
// produce.
func prefixEnd(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
