package model

// DataJob wraps a StoredProcedure or JobStep together with the mutable
// collections populated during lineage aggregation: incoming/outgoing
// dataset identifiers, upstream job identifiers, and custom properties.
// The wrapped entity is immutable; only the collections accumulate.
type DataJob struct {
	Entity      JobEntity
	ExternalURL string
	Description string
	Status      string

	Incoming  []string
	Outgoing  []string
	InputJobs []string

	properties map[string]string
}

// NewDataJob wraps a job entity.
func NewDataJob(entity JobEntity) *DataJob {
	return &DataJob{
		Entity:     entity,
		properties: make(map[string]string),
	}
}

// AddProperty sets a custom property. Empty values are kept; use
// AddOptionalProperty for values that may be absent.
func (j *DataJob) AddProperty(name, value string) {
	j.properties[name] = value
}

// AddOptionalProperty sets a custom property only when the value is
// present. Absent values are omitted from the property bag entirely
// rather than emitted as empty strings.
func (j *DataJob) AddOptionalProperty(name string, value *string) {
	if value == nil {
		return
	}
	j.properties[name] = *value
}

// Properties returns the accumulated property bag.
func (j *DataJob) Properties() map[string]string {
	return j.properties
}

// AddLineage appends input datasets, output datasets, and upstream jobs.
// Duplicates are permitted here; deduplication happens at emission.
func (j *DataJob) AddLineage(inputs, outputs, inputJobs []string) {
	j.Incoming = append(j.Incoming, inputs...)
	j.Outgoing = append(j.Outgoing, outputs...)
	j.InputJobs = append(j.InputJobs, inputJobs...)
}

// DataFlow wraps a SQLJob or ProceduresContainer flow together with its
// external URL and custom properties.
type DataFlow struct {
	Entity      Flow
	ExternalURL string

	properties map[string]string
}

// NewDataFlow wraps a flow entity.
func NewDataFlow(entity Flow) *DataFlow {
	return &DataFlow{
		Entity:     entity,
		properties: make(map[string]string),
	}
}

// AddProperty sets a custom property on the flow.
func (f *DataFlow) AddProperty(name, value string) {
	f.properties[name] = value
}

// AddOptionalProperty sets a custom property only when the value is
// present.
func (f *DataFlow) AddOptionalProperty(name string, value *string) {
	if value == nil {
		return
	}
	f.properties[name] = *value
}

// Properties returns the accumulated property bag.
func (f *DataFlow) Properties() map[string]string {
	return f.properties
}
