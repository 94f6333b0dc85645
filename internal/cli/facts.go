package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tracesched/internal/ir"
)

// FactsResult is the facts command's success payload.
type FactsResult struct {
	TracePath string     `json:"trace_path"`
	Facts     []FactJSON `json:"facts"`
}

// FactJSON is one stat-derived observation.
type FactJSON struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	Kind string `json:"kind"`
}

// NewFactsCommand creates the facts command.
func NewFactsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts <trace-file>",
		Short: "Print file facts observed in stat-family calls",
		Long: `Parse a trace and print the (path, size, kind) observations gathered
from stat/fstat/statx/fstatat lines, sorted by path.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFacts(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFacts(opts *RootOptions, tracePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := parseTraceFile(formatter, tracePath)
	if err != nil {
		return err
	}

	payload := FactsResult{TracePath: tracePath, Facts: factsJSON(result.facts)}
	if opts.Format == "json" {
		return formatter.Success(payload)
	}

	if len(payload.Facts) == 0 {
		return formatter.Success("no file facts observed")
	}
	var sb strings.Builder
	for i, fact := range payload.Facts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s\t%d\t%s", fact.Path, fact.Size, fact.Kind))
	}
	return formatter.Success(sb.String())
}

func factsJSON(facts []ir.FileFact) []FactJSON {
	out := make([]FactJSON, 0, len(facts))
	for _, fact := range facts {
		out = append(out, FactJSON{Path: fact.Path, Size: fact.Size, Kind: string(fact.Kind)})
	}
	return out
}
