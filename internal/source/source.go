// Package source lists stored procedure definitions from a scanned
// database. It is the data-access edge of the pipeline: everything
// downstream consumes the Procedure records produced here.
package source

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapcatalog/internal/model"
)

// Procedure is one raw listing record, as discovered in the source
// database and before entity-model conversion.
type Procedure struct {
	Schema      string
	Name        string
	Language    string
	Definition  string
	Comment     string
	Owner       string
	ReturnType  string
	Created     *time.Time
	LastAltered *time.Time
	Parameters  []model.ProcedureParameter
}

// ToStoredProcedure converts the listing record into the entity model,
// binding it to its parent flow. The flow binding is permanent.
func (p Procedure) ToStoredProcedure(db string, flow model.Flow, sourcePlatform string) *model.StoredProcedure {
	return &model.StoredProcedure{
		DB:          db,
		Schema:      p.Schema,
		Name:        p.Name,
		Flow:        flow,
		Source:      sourcePlatform,
		Code:        p.Definition,
		Language:    p.Language,
		Created:     p.Created,
		LastAltered: p.LastAltered,
		Comment:     p.Comment,
		Owner:       p.Owner,
		Parameters:  p.Parameters,
		ReturnType:  p.ReturnType,
	}
}

// Source lists the stored procedures of one database.
type Source interface {
	ListProcedures(ctx context.Context, db string) ([]Procedure, error)
	Close() error
}

// Static is a Source fed from configuration, for offline runs and
// tests.
type Static struct {
	Procedures []Procedure
}

// ListProcedures implements Source.
func (s *Static) ListProcedures(_ context.Context, _ string) ([]Procedure, error) {
	return s.Procedures, nil
}

// Close implements Source.
func (s *Static) Close() error { return nil }
