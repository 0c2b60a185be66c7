// Package assembler builds the emittable aspect set for each entity of
// the metadata graph: descriptive info, optional platform instance,
// containment, and input/output lineage. Identifiers are derived purely
// from entity fields so that assembling the same input twice yields
// byte-identical output.
package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcatalog/internal/model"
	"github.com/leapstack-labs/leapcatalog/internal/urn"
)

// Entity type tags used in change proposals.
const (
	EntityDataFlow = "dataFlow"
	EntityDataJob  = "dataJob"
)

// Aspect names, in their emission order.
const (
	AspectDataFlowInfo         = "dataFlowInfo"
	AspectDataJobInfo          = "dataJobInfo"
	AspectDataPlatformInstance = "dataPlatformInstance"
	AspectContainer            = "container"
	AspectDataJobInputOutput   = "dataJobInputOutput"
)

// Aspect is one named facet of an entity's metadata.
type Aspect struct {
	Name  string
	Value any
}

// Entity is one assembled entity with its ordered aspect list.
type Entity struct {
	Type    string
	URN     string
	Aspects []Aspect
}

// DataFlowInfo is the descriptive aspect of a flow.
type DataFlowInfo struct {
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
	ExternalURL      string            `json:"externalUrl,omitempty"`
}

// DataJobInfo is the descriptive aspect of a job.
type DataJobInfo struct {
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Description      string            `json:"description,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
	ExternalURL      string            `json:"externalUrl,omitempty"`
	Status           string            `json:"status,omitempty"`
}

// DataJobInputOutput is the lineage aspect of a job. Lists are sorted
// and deduplicated.
type DataJobInputOutput struct {
	InputDatasets  []string `json:"inputDatasets"`
	OutputDatasets []string `json:"outputDatasets"`
	InputDatajobs  []string `json:"inputDatajobs"`
}

// DataPlatformInstance names the platform instance an entity lives on.
type DataPlatformInstance struct {
	Platform string `json:"platform"`
	Instance string `json:"instance"`
}

// Container points at an entity's owning container.
type Container struct {
	Container string `json:"container"`
}

// FlowURN derives the flow identifier.
func FlowURN(f model.Flow) string {
	return urn.DataFlow(f.Orchestrator(), mustCommaFree(f.FormattedName()), f.Cluster(), f.PlatformInstance())
}

// JobURN derives the job identifier. Two DataJob values describing the
// same procedure produce the same identifier; nothing about object
// identity, code text, or timestamps enters the derivation.
func JobURN(e model.JobEntity) string {
	f := e.ParentFlow()
	return urn.DataJob(f.Orchestrator(), mustCommaFree(f.FormattedName()),
		mustCommaFree(e.FormattedName()), f.Cluster(), f.PlatformInstance())
}

// mustCommaFree asserts the separator-safety contract. A comma here
// means a name skipped formatting at construction, which is a bug, not
// bad input.
func mustCommaFree(name string) string {
	if strings.Contains(name, ",") {
		panic(fmt.Sprintf("assembler: identifier field %q contains reserved separator", name))
	}
	return name
}

// AssembleFlow produces the aspect set of one data flow: info, optional
// platform instance, and containment in its database container.
func AssembleFlow(f *model.DataFlow) Entity {
	ent := f.Entity
	out := Entity{
		Type: EntityDataFlow,
		URN:  FlowURN(ent),
	}

	out.Aspects = append(out.Aspects, Aspect{
		Name: AspectDataFlowInfo,
		Value: DataFlowInfo{
			Name:             ent.FormattedName(),
			CustomProperties: f.Properties(),
			ExternalURL:      f.ExternalURL,
		},
	})

	if inst := ent.PlatformInstance(); inst != "" {
		out.Aspects = append(out.Aspects, Aspect{
			Name: AspectDataPlatformInstance,
			Value: DataPlatformInstance{
				Platform: urn.DataPlatform(ent.Orchestrator()),
				Instance: urn.PlatformInstance(ent.Orchestrator(), inst),
			},
		})
	}

	out.Aspects = append(out.Aspects, Aspect{
		Name: AspectContainer,
		Value: Container{
			Container: urn.DatabaseContainer(ent.Orchestrator(), ent.PlatformInstance(), ent.Env(), ent.Database()),
		},
	})

	return out
}

// AssembleJob produces the aspect set of one data job: info, optional
// platform instance, containment (schema-scoped for stored procedures,
// database-scoped for job steps), and input/output lineage.
func AssembleJob(j *model.DataJob) Entity {
	ent := j.Entity
	flow := ent.ParentFlow()
	out := Entity{
		Type: EntityDataJob,
		URN:  JobURN(ent),
	}

	out.Aspects = append(out.Aspects, Aspect{
		Name: AspectDataJobInfo,
		Value: DataJobInfo{
			Name:             ent.FullName(),
			Type:             ent.FullType(),
			Description:      j.Description,
			CustomProperties: j.Properties(),
			ExternalURL:      j.ExternalURL,
			Status:           j.Status,
		},
	})

	if inst := flow.PlatformInstance(); inst != "" {
		out.Aspects = append(out.Aspects, Aspect{
			Name: AspectDataPlatformInstance,
			Value: DataPlatformInstance{
				Platform: urn.DataPlatform(flow.Orchestrator()),
				Instance: urn.PlatformInstance(flow.Orchestrator(), inst),
			},
		})
	}

	// Stored procedures are contained in their schema; job steps in
	// the flow's database. This is the one place the job variants
	// genuinely differ.
	var container string
	switch e := ent.(type) {
	case *model.StoredProcedure:
		container = urn.SchemaContainer(flow.Orchestrator(), flow.PlatformInstance(), flow.Env(), flow.Database(), e.Schema)
	default:
		container = urn.DatabaseContainer(flow.Orchestrator(), flow.PlatformInstance(), flow.Env(), flow.Database())
	}
	out.Aspects = append(out.Aspects, Aspect{
		Name:  AspectContainer,
		Value: Container{Container: container},
	})

	out.Aspects = append(out.Aspects, Aspect{
		Name: AspectDataJobInputOutput,
		Value: DataJobInputOutput{
			InputDatasets:  sortedUnique(j.Incoming),
			OutputDatasets: sortedUnique(j.Outgoing),
			InputDatajobs:  sortedUnique(j.InputJobs),
		},
	})

	return out
}

// sortedUnique returns a sorted copy with duplicates removed. The
// result is never nil so the aspect always carries explicit lists.
func sortedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
