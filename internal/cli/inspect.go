package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tracesched/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// RunSummary is one recorded run in inspect output.
type RunSummary struct {
	ID        string `json:"id"`
	TracePath string `json:"trace_path"`
	CreatedAt string `json:"created_at"`
}

// InspectResult is the inspect command's success payload.
type InspectResult struct {
	Runs       []RunSummary `json:"runs,omitempty"`
	Run        *RunSummary  `json:"run,omitempty"`
	Batches    [][]int      `json:"batches,omitempty"`
	Operations int          `json:"operations,omitempty"`
	Facts      []FactJSON   `json:"facts,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read recorded runs from a database",
		Long: `List recorded schedule runs, or show one run's batches, operation
count, and file facts.

Example:
  tracesched inspect --db ./runs.db
  tracesched inspect --db ./runs.db --run 0b0e3a6e-...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run instead of listing all")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return NewExitError(ExitCommandError, "database not found")
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	if opts.RunID == "" {
		return listRuns(opts, formatter, s, cmd)
	}
	return showRun(opts, formatter, s, cmd)
}

func listRuns(opts *InspectOptions, formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	payload := InspectResult{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		payload.Runs = append(payload.Runs, RunSummary{ID: run.ID, TracePath: run.TracePath, CreatedAt: run.CreatedAt})
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	if len(payload.Runs) == 0 {
		return formatter.Success("no recorded runs")
	}
	var sb strings.Builder
	for i, run := range payload.Runs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s\t%s\t%s", run.ID, run.CreatedAt, run.TracePath))
	}
	return formatter.Success(sb.String())
}

func showRun(opts *InspectOptions, formatter *OutputFormatter, s *store.Store, cmd *cobra.Command) error {
	ctx := cmd.Context()

	run, err := s.GetRun(ctx, opts.RunID)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading run", err)
	}
	batches, err := s.LoadBatches(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading batches", err)
	}
	ops, err := s.ListOperations(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading operations", err)
	}
	facts, err := s.ListFacts(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading facts", err)
	}

	payload := InspectResult{
		Run:        &RunSummary{ID: run.ID, TracePath: run.TracePath, CreatedAt: run.CreatedAt},
		Batches:    batches,
		Operations: len(ops),
		Facts:      factsJSON(facts),
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("run %s\ntrace %s\ncreated %s\noperations %d\n",
		run.ID, run.TracePath, run.CreatedAt, len(ops)))
	sb.WriteString(strings.TrimRight(renderBatches(batches), "\n"))
	return formatter.Success(sb.String())
}
