// Package schema provides the schema-lookup service used during
// reference resolution: which tables are known to exist, keyed by
// (platform, environment), plus the temp-table predicate.
//
// Catalogs are populated once at the start of an extraction run and are
// read-mostly afterwards; lookups are safe for concurrent use across
// extraction workers.
package schema

import (
	"strings"
	"sync"
)

// Catalog holds the known tables of one (platform, environment) pair.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]string // full_name (db.schema.name, lowercased) → type
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]string)}
}

// AddTable registers a table (or view) under db.schema.name.
func (c *Catalog) AddTable(db, schema, name, objType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[key(db, schema, name)] = objType
}

// Lookup reports the object type registered for db.schema.name.
func (c *Catalog) Lookup(db, schema, name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	typ, ok := c.tables[key(db, schema, name)]
	return typ, ok
}

// Len returns the number of registered tables.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

func key(db, schema, name string) string {
	return strings.ToLower(db + "." + schema + "." + name)
}

// Registry maps (platform, environment) to its catalog. A single
// registry is shared across all workers of a run; it is not mutated
// once the run starts.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{catalogs: make(map[string]*Catalog)}
}

// Get returns the catalog for (platform, env), creating it on first use.
func (r *Registry) Get(platform, env string) *Catalog {
	k := strings.ToLower(platform + "|" + env)

	r.mu.RLock()
	c, ok := r.catalogs[k]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.catalogs[k]; ok {
		return c
	}
	c = NewCatalog()
	r.catalogs[k] = c
	return c
}

// TempTablePredicate returns an is-temp-table predicate matching the
// given name prefixes (case-insensitive). Temp objects are excluded
// from lineage; they are not catalog entities.
func TempTablePredicate(prefixes ...string) func(string) bool {
	if len(prefixes) == 0 {
		prefixes = []string{"#", "tmp_", "temp_"}
	}
	lowered := make([]string, len(prefixes))
	for i, p := range prefixes {
		lowered[i] = strings.ToLower(p)
	}
	return func(name string) bool {
		n := strings.ToLower(name)
		// Only the bare object name decides temp-ness.
		if i := strings.LastIndexByte(n, '.'); i >= 0 {
			n = n[i+1:]
		}
		for _, p := range lowered {
			if strings.HasPrefix(n, p) {
				return true
			}
		}
		return false
	}
}
