package schema

import (
	"sync"
	"testing"
)

func TestCatalogLookupIsCaseInsensitive(t *testing.T) {
	c := NewCatalog()
	c.AddTable("SalesDB", "dbo", "Orders", "TABLE")

	typ, ok := c.Lookup("salesdb", "DBO", "orders")
	if !ok {
		t.Fatal("Lookup() missed a registered table under different case")
	}
	if typ != "TABLE" {
		t.Errorf("Lookup() type = %q, want TABLE", typ)
	}

	if _, ok := c.Lookup("salesdb", "dbo", "missing"); ok {
		t.Error("Lookup() found an unregistered table")
	}
}

func TestCatalogLen(t *testing.T) {
	c := NewCatalog()
	if c.Len() != 0 {
		t.Fatalf("empty catalog Len() = %d", c.Len())
	}
	c.AddTable("db", "s", "a", "TABLE")
	c.AddTable("db", "s", "A", "TABLE") // same key
	c.AddTable("db", "s", "b", "VIEW")
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestRegistryReturnsSameCatalog(t *testing.T) {
	r := NewRegistry()
	a := r.Get("postgres", "PROD")
	b := r.Get("Postgres", "prod")
	if a != b {
		t.Error("Get() must return the same catalog for the same (platform, env) regardless of case")
	}
	other := r.Get("postgres", "DEV")
	if a == other {
		t.Error("Get() must separate catalogs per environment")
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	catalogs := make([]*Catalog, 16)
	for i := range catalogs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			catalogs[i] = r.Get("postgres", "PROD")
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(catalogs); i++ {
		if catalogs[i] != catalogs[0] {
			t.Fatal("concurrent Get() returned distinct catalogs")
		}
	}
}

func TestTempTablePredicate(t *testing.T) {
	isTemp := TempTablePredicate()

	tests := []struct {
		name string
		want bool
	}{
		{"#work", true},
		{"tmp_orders", true},
		{"TEMP_batch", true},
		{"orders", false},
		{"template_registry", false}, // "temp_" prefix only, not "temp"
		{"db.schema.#work", true},    // bare object name decides
		{"db.tmp_schema.orders", false},
	}
	for _, tt := range tests {
		if got := isTemp(tt.name); got != tt.want {
			t.Errorf("isTemp(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTempTablePredicateCustomPrefixes(t *testing.T) {
	isTemp := TempTablePredicate("stg_")
	if !isTemp("stg_orders") {
		t.Error("custom prefix not matched")
	}
	if isTemp("tmp_orders") {
		t.Error("default prefixes must not apply when custom prefixes are given")
	}
}
