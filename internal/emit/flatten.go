package emit

import "github.com/leapstack-labs/leapcatalog/internal/assembler"

// Flatten turns assembled entities into the ordered proposal sequence.
// Per entity the aspect order is: descriptive info, platform instance
// (when present), containment, then lineage. The order is a replay
// convention for downstream consumers, kept stable for reproducibility.
func Flatten(entities []assembler.Entity) []Proposal {
	var out []Proposal
	for _, e := range entities {
		for _, a := range e.Aspects {
			out = append(out, Proposal{
				EntityType: e.Type,
				EntityURN:  e.URN,
				ChangeType: ChangeTypeUpsert,
				AspectName: a.Name,
				Aspect:     a.Value,
			})
		}
	}
	return out
}
