package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cliconfig "github.com/leapstack-labs/leapcatalog/internal/cli/config"
	"github.com/leapstack-labs/leapcatalog/internal/config"
	"github.com/leapstack-labs/leapcatalog/internal/emit"
	"github.com/leapstack-labs/leapcatalog/internal/extractor"
	"github.com/leapstack-labs/leapcatalog/internal/source"
	"github.com/leapstack-labs/leapcatalog/internal/state"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract stored procedure lineage and emit change proposals",
		Long: `Scan the configured database for stored procedures, extract
table-level lineage from their bodies, and emit metadata change
proposals to the configured sink.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := cliconfig.GetConfig(ctx)
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			logger := cliconfig.GetLogger(ctx)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			src, err := buildSource(cmd, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()

			sink, err := buildSink(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			summary, err := extractor.New(cfg, src, sink, store, logger).Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Extracted %d procedure(s), emitted %d proposal(s)\n",
				summary.Procedures, summary.Proposals)
			if summary.LineageFailures > 0 {
				fmt.Fprintf(out, "Lineage failures: %d procedure(s) with unparseable statements\n",
					summary.LineageFailures)
			}
			if summary.UnresolvedRefs > 0 {
				fmt.Fprintf(out, "Unresolved references: %d\n", summary.UnresolvedRefs)
			}
			if summary.RunID != "" {
				fmt.Fprintf(out, "Run ID: %s\n", summary.RunID)
			}
			return nil
		},
	}
}

func buildSource(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	switch cfg.Source.Type {
	case "postgres":
		pg := source.NewPostgres(source.PostgresConfig{
			Host:     cfg.Source.Host,
			Port:     cfg.Source.Port,
			User:     cfg.Source.User,
			Password: cfg.Source.Password,
			Database: cfg.Database,
			SSLMode:  cfg.Source.SSLMode,
		}, logger)
		if err := pg.Connect(cmd.Context()); err != nil {
			return nil, fmt.Errorf("failed to connect to source: %w", err)
		}
		return pg, nil
	case "static":
		procs := make([]source.Procedure, 0, len(cfg.Procedures))
		for _, p := range cfg.Procedures {
			procs = append(procs, source.Procedure{
				Schema:     p.Schema,
				Name:       p.Name,
				Language:   p.Language,
				Definition: p.Definition,
				Comment:    p.Comment,
				Owner:      p.Owner,
				ReturnType: p.ReturnType,
			})
		}
		return &source.Static{Procedures: procs}, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}
}

func buildSink(cmd *cobra.Command, cfg *config.Config) (emit.Sink, error) {
	switch cfg.Sink.Type {
	case "file":
		return emit.NewFileSink(cfg.Sink.Path)
	case "stdout":
		return emit.NewWriterSink(cmd.OutOrStdout()), nil
	case "rest":
		return emit.NewRESTSink(cfg.Sink.Endpoint, cfg.Sink.Token), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Sink.Type)
	}
}

// openStore opens the run-history store, creating its directory on
// first use. Run tracking is skipped when the state path is empty.
func openStore(cfg *config.Config, logger *slog.Logger) (state.Store, error) {
	if cfg.StatePath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
