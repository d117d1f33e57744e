package schema

import "encoding/binary"

// TypePrefixLen is the byte length of a model-type key prefix.
const TypePrefixLen = 4

// TypePrefix returns the fixed-width big-endian key prefix for a type
// storage ID. Fixed width keeps byte order and numeric order aligned, so a
// type's objects occupy one contiguous range of the key/value store.
func TypePrefix(storageID int) []byte {
	p := make([]byte, TypePrefixLen)
	binary.BigEndian.PutUint32(p, uint32(storageID))
	return p
}

// KeyRange is a half-open [Start, End) range of storage keys.
type KeyRange struct {
	Start []byte
	End   []byte
}

// TypeKeyRange returns the key range covering every object of the type.
func TypeKeyRange(t *ModelType) KeyRange {
	return KeyRange{
		Start: TypePrefix(t.StorageID),
		End:   TypePrefix(t.StorageID + 1),
	}
}
