// Package refpath resolves bidirectional chain-of-references expressions
// against a model registry. A path like "->friend<-Zoo.star" is statically
// resolved into an ordered sequence of signed field storage IDs plus the set
// of model types possible after each hop, without touching stored objects.
// The resolved plan feeds change-notification registration, cascading
// copies, and index-query filtering.
// See docs/ARCHITECTURE.md § Reference Paths.
package refpath
