// Package schema defines model types, fields, and the type registry for the
// Larder storage system, along with the key-prefix encoding that maps model
// types onto ranges of the ordered key/value store.
// See docs/ARCHITECTURE.md § Model Registry.
package schema
