// Package extractor orchestrates one extraction run: list procedures,
// extract lineage per procedure, assemble the entity graph, and emit
// change proposals to the configured sink. Procedures are independent
// and processed by a bounded pool of workers; emission is sequential
// and deterministic.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcatalog/internal/assembler"
	"github.com/leapstack-labs/leapcatalog/internal/config"
	"github.com/leapstack-labs/leapcatalog/internal/emit"
	"github.com/leapstack-labs/leapcatalog/internal/lineage"
	"github.com/leapstack-labs/leapcatalog/internal/model"
	"github.com/leapstack-labs/leapcatalog/internal/schema"
	"github.com/leapstack-labs/leapcatalog/internal/source"
	"github.com/leapstack-labs/leapcatalog/internal/state"
	"github.com/leapstack-labs/leapcatalog/internal/urn"
)

// Summary reports the outcome of one extraction run.
type Summary struct {
	RunID           string
	Procedures      int
	Proposals       int
	LineageFailures int
	UnresolvedRefs  int
}

// Extractor runs the extraction pipeline.
type Extractor struct {
	cfg    *config.Config
	logger *slog.Logger
	src    source.Source
	sink   emit.Sink
	store  state.Store // optional
}

// New creates an extractor. If logger is nil, a discard logger is used;
// store may be nil to skip run tracking.
func New(cfg *config.Config, src source.Source, sink emit.Sink, store state.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		src:    src,
		sink:   sink,
		store:  store,
	}
}

// Run executes the pipeline. In non-strict mode a run with lineage
// failures still completes and emits the graph for every procedure; the
// failures surface only in the summary. In strict mode the first
// procedure whose lineage cannot be fully extracted fails the run.
func (e *Extractor) Run(ctx context.Context) (*Summary, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e.logger.Info("starting extraction",
		slog.String("platform", cfg.Platform),
		slog.String("database", cfg.Database),
		slog.String("env", cfg.Env))

	var runID string
	if e.store != nil {
		run, err := e.store.CreateRun(cfg.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		runID = run.ID
	}

	summary, err := e.extract(ctx)
	if e.store != nil && runID != "" {
		status := state.RunStatusCompleted
		errMsg := ""
		if err != nil {
			status = state.RunStatusFailed
			errMsg = err.Error()
		}
		var procs, failures int
		if summary != nil {
			procs, failures = summary.Procedures, summary.LineageFailures
		}
		if cerr := e.store.CompleteRun(runID, status, procs, failures, errMsg); cerr != nil {
			e.logger.Error("failed to record run outcome", slog.String("error", cerr.Error()))
		}
	}
	if err != nil {
		return summary, err
	}

	summary.RunID = runID
	e.logger.Info("extraction completed",
		slog.Int("procedures", summary.Procedures),
		slog.Int("proposals", summary.Proposals),
		slog.Int("lineage_failures", summary.LineageFailures))
	return summary, nil
}

func (e *Extractor) extract(ctx context.Context) (*Summary, error) {
	cfg := e.cfg

	procs, err := e.src.ListProcedures(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	e.logger.Debug("discovered procedures", slog.Int("count", len(procs)))

	container := &model.ProceduresContainer{
		DB:       cfg.Database,
		Instance: cfg.PlatformInstance,
		Name:     cfg.ContainerName,
		Environ:  cfg.Env,
		Source:   cfg.Platform,
	}

	flow := model.NewDataFlow(container)
	flow.ExternalURL = cfg.ExternalURL
	flow.AddProperty("database", cfg.Database)

	catalog := e.buildCatalog()
	agg := lineage.NewAggregator(lineage.Options{
		Resolver:         lineage.NewResolver(catalog),
		IsTempTable:      schema.TempTablePredicate(cfg.Schema.TempPrefixes...),
		Platform:         cfg.Platform,
		Env:              cfg.Env,
		PlatformInstance: cfg.PlatformInstance,
		Strict:           cfg.Strict,
		Logger:           e.logger,
	})

	// Each worker writes only its own slot; emission happens after all
	// workers finish, in listing order, so output is deterministic.
	jobs := make([]assembler.Entity, len(procs))
	var failures, unresolved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, proc := range procs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job, res, err := e.buildJob(agg, container, proc)
			if err != nil {
				return err
			}
			failures.Add(int64(res.Failed))
			unresolved.Add(int64(res.Unresolved))
			jobs[i] = assembler.AssembleJob(job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Summary{
			Procedures:      len(procs),
			LineageFailures: int(failures.Load()),
			UnresolvedRefs:  int(unresolved.Load()),
		}, err
	}

	entities := make([]assembler.Entity, 0, len(jobs)+1)
	entities = append(entities, assembler.AssembleFlow(flow))
	entities = append(entities, jobs...)

	proposals := emit.Flatten(entities)
	for _, p := range proposals {
		if err := e.sink.Emit(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to emit proposal: %w", err)
		}
	}

	return &Summary{
		Procedures:      len(procs),
		Proposals:       len(proposals),
		LineageFailures: int(failures.Load()),
		UnresolvedRefs:  int(unresolved.Load()),
	}, nil
}

// buildJob converts one listing record into an assembled-ready DataJob
// with lineage and properties attached.
func (e *Extractor) buildJob(agg *lineage.Aggregator, container *model.ProceduresContainer, proc source.Procedure) (*model.DataJob, *lineage.Result, error) {
	cfg := e.cfg

	sp := proc.ToStoredProcedure(cfg.Database, container, cfg.Platform)
	job := model.NewDataJob(sp)
	job.Description = proc.Comment
	job.ExternalURL = cfg.ExternalURL
	job.AddProperty("language", proc.Language)
	job.AddProperty("return_type", proc.ReturnType)
	job.AddProperty("owner", proc.Owner)

	res, err := agg.Extract(sp.FullName(), sp.Code, sp.DB, sp.Schema)
	if err != nil {
		return nil, nil, err
	}
	if res.Failed > 0 {
		e.logger.Debug("partial lineage",
			slog.String("procedure", sp.FullName()),
			slog.Int("failed_statements", res.Failed))
	}

	inputJobs := make([]string, 0, len(res.Calls))
	for _, called := range res.Calls {
		inputJobs = append(inputJobs, urn.DataJob(container.Orchestrator(),
			container.FormattedName(), called, container.Cluster(), container.PlatformInstance()))
	}
	job.AddLineage(res.Inputs, res.Outputs, inputJobs)

	if len(res.Dependencies) > 0 {
		stream := model.ProcedureLineageStream{Dependencies: res.Dependencies}
		if encoded, err := json.Marshal(stream.AsProperty()); err == nil {
			job.AddProperty("depends_on", string(encoded))
		}
	}

	return job, res, nil
}

// buildCatalog seeds the schema catalog from configuration.
func (e *Extractor) buildCatalog() *schema.Catalog {
	reg := schema.NewRegistry()
	catalog := reg.Get(e.cfg.Platform, e.cfg.Env)
	for _, entry := range e.cfg.Schema.Tables {
		db, sch, name, typ, ok := config.ParseTableEntry(entry)
		if !ok {
			e.logger.Error("skipping malformed schema table entry", slog.String("entry", entry))
			continue
		}
		catalog.AddTable(db, sch, name, typ)
	}
	return catalog
}
