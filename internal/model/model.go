// Package model defines the typed entity records for SQL job and stored
// procedure metadata: flows (job containers), jobs (procedures and job
// steps), their parameters and dependencies, and the DataFlow/DataJob
// wrappers that carry lineage and custom properties toward the catalog.
package model

import (
	"fmt"
	"strings"
	"time"
)

// FlowKind tags the concrete variant behind a Flow.
type FlowKind int

const (
	// FlowJob is a scheduler-level job flow (SQLJob).
	FlowJob FlowKind = iota
	// FlowContainer is a database-level procedures container.
	FlowContainer
)

// Flow is the shared capability set of the two flow variants,
// SQLJob and ProceduresContainer. Identifier construction uses only
// these derived fields, never object identity.
type Flow interface {
	// Kind reports which variant this flow is.
	Kind() FlowKind
	// Orchestrator is the source platform identifier (e.g. "postgres").
	Orchestrator() string
	// Cluster is the environment string used in flow/job identifiers.
	Cluster() string
	// FormattedName is the flow name with commas replaced by hyphens.
	// Commas are a reserved separator in downstream identifiers.
	FormattedName() string
	// PlatformInstance is the optional platform instance ("" if unset).
	PlatformInstance() string
	// Database is the database this flow belongs to.
	Database() string
	// Env is the environment name.
	Env() string
}

// formatName strips the reserved comma separator from a name.
func formatName(name string) string {
	return strings.ReplaceAll(name, ",", "-")
}

// SQLJob is a scheduler-level job flow: a named job within a database
// that owns one or more job steps.
type SQLJob struct {
	DB       string
	Instance string // optional platform instance
	Name     string
	Environ  string
	Source   string
}

func (j *SQLJob) Kind() FlowKind           { return FlowJob }
func (j *SQLJob) Orchestrator() string     { return j.Source }
func (j *SQLJob) Cluster() string          { return j.Environ }
func (j *SQLJob) FormattedName() string    { return formatName(j.Name) }
func (j *SQLJob) PlatformInstance() string { return j.Instance }
func (j *SQLJob) Database() string         { return j.DB }
func (j *SQLJob) Env() string              { return j.Environ }

// FullType is the composite type tag exposed as a job property.
func (j *SQLJob) FullType() string {
	return fmt.Sprintf("(%s,%s,%s)", j.Source, j.FormattedName(), j.Environ)
}

// ProceduresContainer groups the stored procedures of one database into
// a single flow.
type ProceduresContainer struct {
	DB       string
	Instance string // optional platform instance
	Name     string
	Environ  string
	Source   string
}

func (c *ProceduresContainer) Kind() FlowKind           { return FlowContainer }
func (c *ProceduresContainer) Orchestrator() string     { return c.Source }
func (c *ProceduresContainer) Cluster() string          { return c.Environ }
func (c *ProceduresContainer) FormattedName() string    { return formatName(c.Name) }
func (c *ProceduresContainer) PlatformInstance() string { return c.Instance }
func (c *ProceduresContainer) Database() string         { return c.DB }
func (c *ProceduresContainer) Env() string              { return c.Environ }

// FullType is the composite type tag exposed as a flow property.
func (c *ProceduresContainer) FullType() string {
	return fmt.Sprintf("(%s,%s,%s)", c.Source, c.Name, c.Environ)
}

// ProcedureParameter describes one parameter of a stored procedure.
type ProcedureParameter struct {
	Name         string
	Type         string
	Direction    string // IN, OUT, INOUT; "" if unknown
	DefaultValue string
}

// Properties renders the parameter as a property map, omitting unset
// optional fields.
func (p ProcedureParameter) Properties() map[string]string {
	props := map[string]string{"type": p.Type}
	if p.Direction != "" {
		props["direction"] = p.Direction
	}
	if p.DefaultValue != "" {
		props["default_value"] = p.DefaultValue
	}
	return props
}

// JobEntity is the shared capability set of the two job variants,
// StoredProcedure and JobStep. The parent flow is fixed at construction.
type JobEntity interface {
	ParentFlow() Flow
	FormattedName() string
	// FullName is the qualified display name used in the job info aspect.
	FullName() string
	// FullType is the uppercase type tag, e.g. "POSTGRES_STORED_PROCEDURE".
	FullType() string
}

// StoredProcedure is one discovered stored procedure.
type StoredProcedure struct {
	DB     string
	Schema string
	Name   string
	Flow   Flow

	Source      string
	Code        string
	Language    string
	Created     *time.Time
	LastAltered *time.Time
	Comment     string
	Owner       string
	Parameters  []ProcedureParameter
	ReturnType  string
}

func (p *StoredProcedure) ParentFlow() Flow { return p.Flow }

func (p *StoredProcedure) FormattedName() string { return formatName(p.Name) }

// FullName is "db.schema.formatted_name".
func (p *StoredProcedure) FullName() string {
	return fmt.Sprintf("%s.%s.%s", p.DB, p.Schema, p.FormattedName())
}

func (p *StoredProcedure) FullType() string {
	return strings.ToUpper(p.Source) + "_STORED_PROCEDURE"
}

// JobStep is one step of a scheduler-level SQL job. It parallels
// StoredProcedure for job-scheduler-style sources.
type JobStep struct {
	JobName  string
	StepName string
	Flow     *SQLJob

	Source      string
	Command     string
	Subsystem   string
	Created     *time.Time
	LastAltered *time.Time
}

func (s *JobStep) ParentFlow() Flow { return s.Flow }

// FormattedStep normalizes the step name for identifier use.
func (s *JobStep) FormattedStep() string {
	return strings.ToLower(strings.ReplaceAll(formatName(s.StepName), " ", "_"))
}

func (s *JobStep) FormattedName() string { return formatName(s.JobName) }

func (s *JobStep) FullName() string { return s.FormattedName() }

func (s *JobStep) FullType() string {
	return strings.ToUpper(s.Source) + "_JOB_STEP"
}
