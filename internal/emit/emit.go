// Package emit flattens assembled entities into an ordered sequence of
// change proposals and hands them, one at a time, to a catalog sink.
// Flattening is a pure function of the assembled graph; only sinks
// touch the outside world.
package emit

import "context"

// Proposal is one idempotent upsert of a single (entity, aspect) pair.
// Emission is always a full overwrite of the current aspect value.
type Proposal struct {
	EntityType string `json:"entityType"`
	EntityURN  string `json:"entityUrn"`
	ChangeType string `json:"changeType"`
	AspectName string `json:"aspectName"`
	Aspect     any    `json:"aspect"`
}

// ChangeTypeUpsert is the only change type this pipeline produces.
const ChangeTypeUpsert = "UPSERT"

// Sink receives change proposals one at a time.
type Sink interface {
	// Emit delivers a single proposal.
	Emit(ctx context.Context, p Proposal) error
	// Close flushes and releases the sink.
	Close() error
}
