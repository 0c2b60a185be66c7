package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cliconfig "github.com/leapstack-labs/leapcatalog/internal/cli/config"
	"github.com/leapstack-labs/leapcatalog/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var (
		limit    int
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded extraction runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := cliconfig.GetConfig(ctx)
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			if cfg.StatePath == "" {
				return fmt.Errorf("run tracking is disabled (state path is empty)")
			}

			store := state.NewSQLiteStore(cliconfig.GetLogger(ctx))
			if err := store.Open(cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(); err != nil {
				return err
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			if jsonMode {
				return renderRunsJSON(cmd.OutOrStdout(), runs)
			}
			renderRunsTable(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Output as JSON")
	return cmd
}

func renderRunsTable(w io.Writer, runs []*state.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Environment", "Status", "Procedures", "Failures", "Started", "Duration"})

	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.Environment,
			string(r.Status),
			r.Procedures,
			r.LineageFailures,
			r.StartedAt.Format(time.RFC3339),
			formatDuration(r),
		})
	}

	t.Render()
	fmt.Fprintf(w, "(%d runs)\n", len(runs))
}

func formatDuration(r *state.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func renderRunsJSON(w io.Writer, runs []*state.Run) error {
	type runJSON struct {
		ID              string     `json:"id"`
		Environment     string     `json:"environment"`
		Status          string     `json:"status"`
		Procedures      int        `json:"procedures"`
		LineageFailures int        `json:"lineage_failures"`
		StartedAt       time.Time  `json:"started_at"`
		CompletedAt     *time.Time `json:"completed_at,omitempty"`
		Error           string     `json:"error,omitempty"`
	}

	out := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		out = append(out, runJSON{
			ID:              r.ID,
			Environment:     r.Environment,
			Status:          string(r.Status),
			Procedures:      r.Procedures,
			LineageFailures: r.LineageFailures,
			StartedAt:       r.StartedAt,
			CompletedAt:     r.CompletedAt,
			Error:           r.Error,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
