package model

import "fmt"

// ProcedureDependency is one database object a stored procedure depends
// on. Immutable value; identity is (DB, Schema, Name).
type ProcedureDependency struct {
	DB      string
	Schema  string
	Name    string
	Type    string // TABLE, VIEW, ...
	Environ string
	Server  string // optional
	Source  string
}

// FullName is "db.schema.name".
func (d ProcedureDependency) FullName() string {
	return fmt.Sprintf("%s.%s.%s", d.DB, d.Schema, d.Name)
}

// ProcedureLineageStream is an ordered set of dependencies for one
// procedure.
type ProcedureLineageStream struct {
	Dependencies []ProcedureDependency
}

// AsProperty renders the stream as a full_name → type map for
// deduplicated property display.
func (s ProcedureLineageStream) AsProperty() map[string]string {
	props := make(map[string]string, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		props[dep.FullName()] = dep.Type
	}
	return props
}
