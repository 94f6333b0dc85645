package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tracesched/internal/engine"
	"tracesched/internal/ir"
	"tracesched/internal/parser"
	"tracesched/internal/store"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	OutPath  string
	Database string
}

// ScheduleResult is the schedule command's success payload.
type ScheduleResult struct {
	TracePath string  `json:"trace_path"`
	Processes int     `json:"processes"`
	Batches   [][]int `json:"batches"`
	RunID     string  `json:"run_id,omitempty"`
	OutPath   string  `json:"out_path,omitempty"`
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule <trace-file>",
		Short: "Derive a layered parallel schedule from a trace",
		Long: `Run the full pipeline over an strace log: parse, infer cross-process
ordering constraints, and extract the schedule one layer at a time.

Each batch lists processes whose predecessors all appear in earlier
batches; processes within a batch may run in parallel.

Example:
  tracesched schedule ./build.trace --out ./schedule.txt
  tracesched schedule ./build.trace --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutPath, "out", "", "write the schedule to this file instead of stdout")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runSchedule(opts *ScheduleOptions, tracePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result, err := parseTraceFile(formatter, tracePath)
	if err != nil {
		return err
	}

	ordered, err := result.graph.Order()
	if err != nil {
		return commandFailed(formatter, ErrCodeOrderFailed, "deriving schedule order", err)
	}
	batches, err := engine.Schedule(ordered)
	if err != nil {
		return commandFailed(formatter, ErrCodeOrderFailed, "extracting schedule", err)
	}
	formatter.VerboseLog("extracted %d batches from %d processes", len(batches), len(result.procs))

	payload := ScheduleResult{
		TracePath: tracePath,
		Processes: len(result.procs),
		Batches:   pidBatches(batches),
	}

	if opts.Database != "" {
		runID, err := recordRun(cmd.Context(), opts.Database, tracePath, result, batches)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording run", err)
		}
		payload.RunID = runID
		formatter.VerboseLog("recorded run %s in %s", runID, opts.Database)
	}

	if opts.OutPath != "" {
		if err := os.WriteFile(opts.OutPath, []byte(renderBatches(payload.Batches)), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing schedule", err)
		}
		payload.OutPath = opts.OutPath
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	if payload.OutPath != "" {
		return formatter.Success(fmt.Sprintf("wrote %d batches to %s", len(payload.Batches), payload.OutPath))
	}
	return formatter.Success(strings.TrimRight(renderBatches(payload.Batches), "\n"))
}

// traceResult carries everything one parse produces. The graph is
// already marked; marking appends to the shared operation cells, so it
// must happen exactly once per parse session.
type traceResult struct {
	graph *engine.DependencyGraph
	procs []*ir.Process
	facts []ir.FileFact
}

// parseTraceFile parses a trace and builds the marked dependency graph,
// mapping failures to exit codes: a missing file is a command error, a
// malformed trace a pipeline failure.
func parseTraceFile(formatter *OutputFormatter, tracePath string) (*traceResult, error) {
	p := parser.New(tracePath)
	procs, err := p.Parse()
	if errors.Is(err, os.ErrNotExist) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("trace file not found: %s", tracePath), nil)
		return nil, NewExitError(ExitCommandError, "trace file not found")
	}
	if err != nil {
		_ = formatter.Error(ErrCodeParseFailed, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "parsing trace", err)
	}

	graph, err := engine.NewDependencyGraph(procs)
	if err != nil {
		return nil, commandFailed(formatter, ErrCodeParseFailed, "building dependency graph", err)
	}
	if err := graph.MarkDependencies(); err != nil {
		return nil, commandFailed(formatter, ErrCodeParseFailed, "marking dependencies", err)
	}
	return &traceResult{graph: graph, procs: graph.Processes(), facts: p.ExistingFiles()}, nil
}

// commandFailed reports err through the formatter and wraps it as a
// pipeline failure.
func commandFailed(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitFailure, message, err)
}

// recordRun persists the completed pass.
func recordRun(ctx context.Context, dbPath, tracePath string, result *traceResult, batches [][]*ir.Process) (string, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.RecordRun(ctx, tracePath, result.procs, batches, result.facts)
}

// pidBatches flattens schedule batches to pid layers.
func pidBatches(batches [][]*ir.Process) [][]int {
	out := make([][]int, 0, len(batches))
	for _, batch := range batches {
		layer := make([]int, 0, len(batch))
		for _, proc := range batch {
			layer = append(layer, proc.PID())
		}
		out = append(out, layer)
	}
	return out
}

// renderBatches renders one schedule layer per line.
func renderBatches(batches [][]int) string {
	var sb strings.Builder
	for i, layer := range batches {
		sb.WriteString("batch ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(":")
		for _, pid := range layer {
			sb.WriteString(" ")
			sb.WriteString(strconv.Itoa(pid))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
