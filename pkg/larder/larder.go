// Package larder wires the Larder components into a single handle: the
// model registry loaded from a schema definition, the object store over the
// key/value backend, and the reference-path cache.
// See docs/ARCHITECTURE.md § System Components.
package larder

import (
	"fmt"

	"github.com/mesh-intelligence/larder/internal/kv"
	"github.com/mesh-intelligence/larder/pkg/refpath"
	"github.com/mesh-intelligence/larder/pkg/schema"
	"github.com/mesh-intelligence/larder/pkg/store"
)

// Version is the larder release version.
const Version = "0.1.0"

// Config holds the parameters for Open.
type Config struct {
	DataDir    string // key/value store location
	SchemaFile string // YAML schema-definition file
	CacheSize  int    // path cache bound; <= 0 selects the default
}

// Larder is an opened instance: a frozen registry, the object store, and
// the memoizing path cache. Close releases the key/value store.
type Larder struct {
	Registry *schema.Registry
	Objects  *store.Store
	Paths    *refpath.Cache

	kvs *kv.Store
}

// Open loads the schema, attaches the key/value store, and returns a ready
// instance.
func Open(cfg Config) (*Larder, error) {
	reg, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	kvs := kv.New()
	if err := kvs.Attach(kv.Config{DataDir: cfg.DataDir}); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}

	return &Larder{
		Registry: reg,
		Objects:  store.New(reg, kvs),
		Paths:    refpath.NewCache(reg, cfg.CacheSize),
		kvs:      kvs,
	}, nil
}

// Resolve resolves a path expression starting from the named types, going
// through the path cache. Type names may be concrete or supertype names;
// unknown names fail resolution.
func (l *Larder) Resolve(startTypeNames []string, path string) (*refpath.ReferencePath, error) {
	start := schema.NewTypeSet()
	for _, name := range startTypeNames {
		s := l.Registry.AssignableTo(name)
		if s.Len() == 0 {
			return nil, fmt.Errorf("%w: %q", schema.ErrUnknownType, name)
		}
		start.AddAll(s)
	}
	return l.Paths.Get(start, path)
}

// Close detaches the key/value store. Idempotent.
func (l *Larder) Close() error {
	return l.kvs.Detach()
}
