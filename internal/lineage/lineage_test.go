package lineage

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leapstack-labs/leapcatalog/internal/schema"
)

func newTestAggregator(strict bool) *Aggregator {
	return NewAggregator(Options{
		Resolver: NewResolver(nil),
		Platform: "mssql",
		Env:      "PROD",
		Strict:   strict,
	})
}

func TestExtractReadOnlyProcedure(t *testing.T) {
	agg := newTestAggregator(false)
	body := "SELECT day, sum(amount) FROM analytics.metrics GROUP BY day"

	res, err := agg.Extract("calculate_metrics", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	wantIn := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.analytics.metrics,PROD)"}
	if !reflect.DeepEqual(res.Inputs, wantIn) {
		t.Errorf("Inputs = %v, want %v", res.Inputs, wantIn)
	}
	if len(res.Outputs) != 0 {
		t.Errorf("Outputs = %v, want none", res.Outputs)
	}
	if res.Failed != 0 || res.Unresolved != 0 {
		t.Errorf("Failed = %d, Unresolved = %d, want 0 and 0", res.Failed, res.Unresolved)
	}
}

func TestExtractReadWriteProcedure(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		DELETE FROM reports.daily WHERE d = @day;
		INSERT INTO reports.daily SELECT d, count(*) FROM raw.events GROUP BY d;
		UPDATE reports.daily SET loaded_at = getdate();
	`

	res, err := agg.Extract("load_daily", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	wantIn := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.raw.events,PROD)"}
	wantOut := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.reports.daily,PROD)"}
	if !reflect.DeepEqual(res.Inputs, wantIn) {
		t.Errorf("Inputs = %v, want %v", res.Inputs, wantIn)
	}
	if !reflect.DeepEqual(res.Outputs, wantOut) {
		t.Errorf("Outputs = %v, want %v (deduplicated across statements)", res.Outputs, wantOut)
	}
}

func TestExtractTableInBothSets(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		INSERT INTO dbo.inventory SELECT * FROM staging.inventory;
		SELECT count(*) FROM dbo.inventory;
	`
	res, err := agg.Extract("update_inventory", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	inv := "urn:li:dataset:(urn:li:dataPlatform:mssql,db.dbo.inventory,PROD)"
	if !contains(res.Inputs, inv) {
		t.Errorf("Inputs = %v, want %q present", res.Inputs, inv)
	}
	if !contains(res.Outputs, inv) {
		t.Errorf("Outputs = %v, want %q present", res.Outputs, inv)
	}
}

func TestExtractFirstReferenceOrder(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		SELECT * FROM b_table;
		SELECT * FROM a_table;
		SELECT * FROM b_table;
	`
	res, err := agg.Extract("p", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"urn:li:dataset:(urn:li:dataPlatform:mssql,db.dbo.b_table,PROD)",
		"urn:li:dataset:(urn:li:dataPlatform:mssql,db.dbo.a_table,PROD)",
	}
	if !reflect.DeepEqual(res.Inputs, want) {
		t.Errorf("Inputs = %v, want first-reference order %v", res.Inputs, want)
	}
}

func TestExtractTempTablesExcluded(t *testing.T) {
	agg := NewAggregator(Options{
		Resolver:    NewResolver(nil),
		IsTempTable: schema.TempTablePredicate(),
		Platform:    "mssql",
		Env:         "PROD",
	})
	body := `
		SELECT * INTO #work FROM orders;
		INSERT INTO tmp_buffer SELECT * FROM #work;
		INSERT INTO reports.summary SELECT * FROM tmp_buffer;
	`
	res, err := agg.Extract("p", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	wantIn := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.dbo.orders,PROD)"}
	wantOut := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.reports.summary,PROD)"}
	if !reflect.DeepEqual(res.Inputs, wantIn) {
		t.Errorf("Inputs = %v, want %v", res.Inputs, wantIn)
	}
	if !reflect.DeepEqual(res.Outputs, wantOut) {
		t.Errorf("Outputs = %v, want %v", res.Outputs, wantOut)
	}
}

func TestExtractPartialFailureNonStrict(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		INSERT INTO a SELECT * FROM b;
		INSERT INTO broken VALUES ('unterminated;
		DELETE FROM c
	`
	res, err := agg.Extract("p", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	// The parseable statements still contribute.
	if len(res.Outputs) == 0 || len(res.Inputs) == 0 {
		t.Errorf("partial lineage lost: inputs %v, outputs %v", res.Inputs, res.Outputs)
	}
}

func TestExtractStrictFailure(t *testing.T) {
	agg := newTestAggregator(true)
	body := "INSERT INTO t VALUES ('unterminated"

	_, err := agg.Extract("flaky_proc", body, "db", "dbo")
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("err = %v, want *ExtractionError", err)
	}
	if exErr.Procedure != "flaky_proc" || exErr.Failed != 1 {
		t.Errorf("ExtractionError = %+v", exErr)
	}
}

func TestExtractCalls(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		EXEC dbo.refresh_metrics;
		EXEC dbo.refresh_metrics;
		CALL audit.log_run
	`
	res, err := agg.Extract("p", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"refresh_metrics", "log_run"}
	if !reflect.DeepEqual(res.Calls, want) {
		t.Errorf("Calls = %v, want %v", res.Calls, want)
	}
}

func TestExtractUseDoesNotSwitchDatabase(t *testing.T) {
	agg := newTestAggregator(false)
	body := `
		USE otherdb;
		DELETE FROM inventory
	`
	res, err := agg.Extract("p", body, "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	// Every statement resolves against the original defaults; a USE
	// statement does not change the database context.
	want := []string{"urn:li:dataset:(urn:li:dataPlatform:mssql,db.dbo.inventory,PROD)"}
	if !reflect.DeepEqual(res.Outputs, want) {
		t.Errorf("Outputs = %v, want %v", res.Outputs, want)
	}
}

func TestExtractUnresolvedCounted(t *testing.T) {
	cat := schema.NewCatalog()
	cat.AddTable("db", "dbo", "known", "TABLE")
	agg := NewAggregator(Options{
		Resolver: NewResolver(cat),
		Platform: "mssql",
		Env:      "PROD",
	})
	res, err := agg.Extract("p", "SELECT * FROM known, mystery", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	if res.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", res.Unresolved)
	}
	if len(res.Inputs) != 1 {
		t.Errorf("Inputs = %v, want only the known table", res.Inputs)
	}
}

func TestExtractDependencies(t *testing.T) {
	agg := newTestAggregator(false)
	res, err := agg.Extract("p",
		"INSERT INTO reports.daily SELECT * FROM raw.events", "db", "dbo")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dependencies) != 2 {
		t.Fatalf("Dependencies = %v, want 2", res.Dependencies)
	}
	for _, d := range res.Dependencies {
		if d.Type != "TABLE" || d.Environ != "PROD" || d.Source != "mssql" {
			t.Errorf("dependency %+v missing scope fields", d)
		}
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
