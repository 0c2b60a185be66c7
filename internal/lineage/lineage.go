// Package lineage extracts table-level lineage from stored procedure
// bodies: it splits the body into statements, resolves the tables each
// statement reads and writes, and folds the per-statement sets into a
// single job-level input/output lineage.
package lineage

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcatalog/internal/model"
	"github.com/leapstack-labs/leapcatalog/internal/splitter"
	"github.com/leapstack-labs/leapcatalog/internal/urn"
)

// Role tags a table reference as read or written by a statement.
type Role int

const (
	// RoleRead marks a table the statement reads from.
	RoleRead Role = iota
	// RoleWrite marks a table the statement writes to.
	RoleWrite
	// RoleCall marks another procedure the statement invokes.
	RoleCall
)

func (r Role) String() string {
	switch r {
	case RoleWrite:
		return "WRITE"
	case RoleCall:
		return "CALL"
	default:
		return "READ"
	}
}

// TableRef is one table reference found in a statement, either fully
// qualified against the defaults or left unresolved.
type TableRef struct {
	DB     string
	Schema string
	Name   string
	Raw    string // the reference as written
	Role   Role
	// Resolved is false when the reference could not be fully
	// qualified (missing defaults, or unknown to the catalog).
	Resolved bool
}

// FullName is "db.schema.name".
func (t TableRef) FullName() string {
	return fmt.Sprintf("%s.%s.%s", t.DB, t.Schema, t.Name)
}

// StatementResolver resolves the set of tables a single statement reads
// and writes. Implementations must be safe for concurrent use; the
// schema lookup behind them is read-only during a run.
type StatementResolver interface {
	Resolve(stmt, defaultDB, defaultSchema string) ([]TableRef, error)
}

// ExtractionError reports that lineage extraction failed for a whole
// procedure in strict mode.
type ExtractionError struct {
	Procedure string
	Failed    int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("lineage extraction failed for procedure %s: %d statement(s) unparseable",
		e.Procedure, e.Failed)
}

// Result is the aggregated lineage of one procedure. Inputs and Outputs
// hold dataset identifiers in first-reference source order.
type Result struct {
	Inputs  []string
	Outputs []string
	// Calls holds the bare names of procedures invoked via CALL/EXEC.
	Calls []string
	// Dependencies lists every resolved table reference, for property
	// display.
	Dependencies []model.ProcedureDependency
	// Failed counts statements that could not be resolved.
	Failed int
	// Unresolved counts table references dropped because they could
	// not be fully qualified.
	Unresolved int
}

// Options configures an Aggregator.
type Options struct {
	// Resolver resolves per-statement table references (required).
	Resolver StatementResolver
	// IsTempTable excludes transient tables from lineage (optional).
	IsTempTable func(name string) bool
	// Platform, Env and PlatformInstance scope the emitted dataset
	// identifiers.
	Platform         string
	Env              string
	PlatformInstance string
	// Strict turns a non-zero statement failure count into a hard
	// error for the whole procedure.
	Strict bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Aggregator drives the statement resolver over a procedure body and
// accumulates job-level lineage. It keeps no state between calls, so a
// single Aggregator may be shared across extraction workers; each call
// owns its accumulation.
type Aggregator struct {
	resolver StatementResolver
	isTemp   func(string) bool
	platform string
	env      string
	instance string
	strict   bool
	logger   *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	isTemp := opts.IsTempTable
	if isTemp == nil {
		isTemp = func(string) bool { return false }
	}
	return &Aggregator{
		resolver: opts.Resolver,
		isTemp:   isTemp,
		platform: opts.Platform,
		env:      opts.Env,
		instance: opts.PlatformInstance,
		strict:   opts.Strict,
		logger:   logger,
	}
}

// Extract computes the lineage of one procedure body. Statements are
// processed strictly in source order. A table referenced as both read
// and written across statements appears in both sets. In non-strict
// mode resolution failures are counted and the partial lineage is
// returned; in strict mode a non-zero failure count yields an
// *ExtractionError and the caller decides whether to propagate or
// degrade to no lineage.
func (a *Aggregator) Extract(name, code, defaultDB, defaultSchema string) (*Result, error) {
	res := &Result{}
	seenIn := make(map[string]struct{})
	seenOut := make(map[string]struct{})
	seenCall := make(map[string]struct{})
	seenDep := make(map[string]struct{})

	for _, stmt := range splitter.Split(code) {
		refs, err := a.resolver.Resolve(stmt, defaultDB, defaultSchema)
		if err != nil {
			res.Failed++
			a.logger.Debug("statement resolution failed",
				slog.String("procedure", name), slog.String("error", err.Error()))
			continue
		}

		for _, ref := range refs {
			if !ref.Resolved {
				res.Unresolved++
				continue
			}
			if ref.Role == RoleCall {
				if _, ok := seenCall[ref.Name]; !ok {
					seenCall[ref.Name] = struct{}{}
					res.Calls = append(res.Calls, ref.Name)
				}
				continue
			}
			if a.isTemp(ref.Name) {
				continue
			}
			if _, ok := seenDep[ref.FullName()]; !ok {
				seenDep[ref.FullName()] = struct{}{}
				res.Dependencies = append(res.Dependencies, model.ProcedureDependency{
					DB:      ref.DB,
					Schema:  ref.Schema,
					Name:    ref.Name,
					Type:    "TABLE",
					Environ: a.env,
					Source:  a.platform,
				})
			}
			dataset := urn.Dataset(a.platform, ref.FullName(), a.env, a.instance)
			switch ref.Role {
			case RoleWrite:
				if _, ok := seenOut[dataset]; !ok {
					seenOut[dataset] = struct{}{}
					res.Outputs = append(res.Outputs, dataset)
				}
			default:
				if _, ok := seenIn[dataset]; !ok {
					seenIn[dataset] = struct{}{}
					res.Inputs = append(res.Inputs, dataset)
				}
			}
		}
	}

	if a.strict && res.Failed > 0 {
		return nil, &ExtractionError{Procedure: name, Failed: res.Failed}
	}
	return res, nil
}
