package lineage

import (
	"testing"

	"github.com/leapstack-labs/leapcatalog/internal/schema"
)

// refsByRole collects resolved full names per role for easy assertions.
func refsByRole(t *testing.T, refs []TableRef) (reads, writes, calls []string) {
	t.Helper()
	for _, r := range refs {
		if !r.Resolved {
			continue
		}
		switch r.Role {
		case RoleWrite:
			writes = append(writes, r.FullName())
		case RoleCall:
			calls = append(calls, r.FullName())
		default:
			reads = append(reads, r.FullName())
		}
	}
	return reads, writes, calls
}

func assertNames(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %q, want %q", label, i, got[i], want[i])
		}
	}
}

func TestResolveSelect(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve("SELECT a, b FROM orders o JOIN customers c ON o.cid = c.id", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	reads, writes, _ := refsByRole(t, refs)
	assertNames(t, "reads", reads, []string{"db.dbo.orders", "db.dbo.customers"})
	assertNames(t, "writes", writes, nil)
}

func TestResolveInsertSelect(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve(
		"INSERT INTO analytics.metrics SELECT day, count(*) FROM raw.events GROUP BY day",
		"db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	reads, writes, _ := refsByRole(t, refs)
	assertNames(t, "reads", reads, []string{"db.raw.events"})
	assertNames(t, "writes", writes, []string{"db.analytics.metrics"})
}

func TestResolveWriteStatements(t *testing.T) {
	tests := []struct {
		name  string
		stmt  string
		write string
	}{
		{"update", "UPDATE inventory SET qty = qty - 1 WHERE id = 3", "db.dbo.inventory"},
		{"delete", "DELETE FROM dbo.stale_rows WHERE ts < now()", "db.dbo.stale_rows"},
		{"truncate", "TRUNCATE TABLE staging.load_buffer", "db.staging.load_buffer"},
		{"merge", "MERGE INTO dim.customers t USING staging.customers s ON t.id = s.id", "db.dim.customers"},
		{"create table", "CREATE TABLE reports.daily (d date)", "db.reports.daily"},
		{"create or replace view", "CREATE OR REPLACE VIEW v_sales AS SELECT * FROM sales", "db.dbo.v_sales"},
		{"create table if not exists", "CREATE TABLE IF NOT EXISTS audit.log (id int)", "db.audit.log"},
		{"select into", "SELECT * INTO backup.orders FROM orders", "db.backup.orders"},
	}
	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := r.Resolve(tt.stmt, "db", "dbo")
			if err != nil {
				t.Fatal(err)
			}
			_, writes, _ := refsByRole(t, refs)
			if len(writes) == 0 || writes[0] != tt.write {
				t.Errorf("writes = %v, want first %q", writes, tt.write)
			}
		})
	}
}

func TestResolveMergeUsingReads(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve(
		"MERGE INTO dim.customers t USING staging.customers s ON t.id = s.id "+
			"WHEN MATCHED THEN UPDATE SET t.name = s.name WHEN NOT MATCHED THEN INSERT VALUES (s.id, s.name)",
		"db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	reads, writes, _ := refsByRole(t, refs)
	assertNames(t, "reads", reads, []string{"db.staging.customers"})
	// The MATCHED clauses must not produce phantom writes.
	assertNames(t, "writes", writes, []string{"db.dim.customers"})
}

func TestResolveForUpdateIsNotAWrite(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve("SELECT * FROM accounts WHERE id = 1 FOR UPDATE", "db", "public")
	if err != nil {
		t.Fatal(err)
	}
	_, writes, _ := refsByRole(t, refs)
	if len(writes) != 0 {
		t.Errorf("FOR UPDATE produced writes: %v", writes)
	}
}

func TestResolveCTENamesExcluded(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve(
		"WITH recent AS (SELECT * FROM orders WHERE d > '2024-01-01') "+
			"INSERT INTO summary SELECT * FROM recent",
		"db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	reads, writes, _ := refsByRole(t, refs)
	assertNames(t, "reads", reads, []string{"db.dbo.orders"})
	assertNames(t, "writes", writes, []string{"db.dbo.summary"})
}

func TestResolveTableFunctionSkipped(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve("SELECT * FROM generate_series(1, 10)", "db", "public")
	if err != nil {
		t.Fatal(err)
	}
	reads, _, _ := refsByRole(t, refs)
	if len(reads) != 0 {
		t.Errorf("table function registered as a read: %v", reads)
	}
}

func TestResolveCall(t *testing.T) {
	tests := []struct {
		stmt string
		want string
	}{
		{"CALL refresh_metrics()", "db.dbo.refresh_metrics"},
		{"EXEC dbo.update_inventory", "db.dbo.update_inventory"},
		{"EXECUTE audit.log_run @id = 1", "db.audit.log_run"},
	}
	r := NewResolver(nil)
	for _, tt := range tests {
		refs, err := r.Resolve(tt.stmt, "db", "dbo")
		if err != nil {
			t.Fatal(err)
		}
		_, _, calls := refsByRole(t, refs)
		assertNames(t, "calls", calls, []string{tt.want})
	}
}

func TestResolveQualification(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"one part", "DELETE FROM orders", "db.dbo.orders"},
		{"two parts", "DELETE FROM sales.orders", "db.sales.orders"},
		{"three parts", "DELETE FROM other.sales.orders", "other.sales.orders"},
		{"four parts drops server", "DELETE FROM srv.other.sales.orders", "other.sales.orders"},
	}
	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := r.Resolve(tt.stmt, "db", "dbo")
			if err != nil {
				t.Fatal(err)
			}
			_, writes, _ := refsByRole(t, refs)
			assertNames(t, "writes", writes, []string{tt.want})
		})
	}
}

func TestResolveMissingDefaultsLeavesUnresolved(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve("DELETE FROM orders", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %v, want one", refs)
	}
	if refs[0].Resolved {
		t.Error("reference with no qualifying defaults must stay unresolved")
	}
	if refs[0].Raw != "orders" {
		t.Errorf("Raw = %q, want orders", refs[0].Raw)
	}
}

func TestResolveCatalogGatesResolution(t *testing.T) {
	cat := schema.NewCatalog()
	cat.AddTable("db", "dbo", "orders", "TABLE")
	r := NewResolver(cat)

	refs, err := r.Resolve("SELECT * FROM orders, unknown_table", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	var resolved, unresolved int
	for _, ref := range refs {
		if ref.Resolved {
			resolved++
		} else {
			unresolved++
		}
	}
	if resolved != 1 || unresolved != 1 {
		t.Errorf("resolved = %d, unresolved = %d, want 1 and 1 (refs: %v)", resolved, unresolved, refs)
	}
}

func TestResolveCallTargetsSkipCatalogCheck(t *testing.T) {
	cat := schema.NewCatalog()
	cat.AddTable("db", "dbo", "orders", "TABLE")
	r := NewResolver(cat)

	refs, err := r.Resolve("EXEC dbo.update_inventory", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	_, _, calls := refsByRole(t, refs)
	assertNames(t, "calls", calls, []string{"db.dbo.update_inventory"})
}

func TestResolveQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"double quoted", `DELETE FROM "Order Details"`, "db.dbo.Order Details"},
		{"bracketed", "DELETE FROM [Order Details]", "db.dbo.Order Details"},
		{"backtick", "DELETE FROM `events`", "db.dbo.events"},
	}
	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := r.Resolve(tt.stmt, "db", "dbo")
			if err != nil {
				t.Fatal(err)
			}
			_, writes, _ := refsByRole(t, refs)
			assertNames(t, "writes", writes, []string{tt.want})
		})
	}
}

func TestResolveUnterminatedLiteralFails(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.Resolve("INSERT INTO t VALUES ('broken", "db", "dbo"); err == nil {
		t.Fatal("expected a tokenize error for an unterminated literal")
	}
}

func TestResolveDeduplicatesWithinStatement(t *testing.T) {
	r := NewResolver(nil)
	refs, err := r.Resolve("SELECT * FROM orders a JOIN orders b ON a.id = b.parent_id", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	reads, _, _ := refsByRole(t, refs)
	assertNames(t, "reads", reads, []string{"db.dbo.orders"})
}
