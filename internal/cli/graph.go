package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// GraphResult is the graph command's success payload.
type GraphResult struct {
	TracePath string `json:"trace_path"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
	Rendering string `json:"rendering"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <trace-file>",
		Short: "Print the marked process/file dependency graph",
		Long: `Parse a trace, build the process-to-file access graph, mark
cross-process preconditions, and print the graph rendering.

Example:
  tracesched graph ./build.trace
  tracesched graph ./build.trace --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runGraph(opts *RootOptions, tracePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := parseTraceFile(formatter, tracePath)
	if err != nil {
		return err
	}

	payload := GraphResult{
		TracePath: tracePath,
		Nodes:     result.graph.Graph().NodeCount(),
		Edges:     result.graph.Graph().EdgeCount(),
		Rendering: result.graph.String(),
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	return formatter.Success(strings.TrimRight(payload.Rendering, "\n"))
}
