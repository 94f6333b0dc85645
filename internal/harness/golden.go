package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"tracesched/internal/ir"
)

// toCanonicalMap converts a Result to a map for canonical JSON
// serialization.
func (r *Result) toCanonicalMap(scenarioName string) map[string]any {
	batches := make([]any, len(r.Batches))
	for i, layer := range r.Batches {
		pids := make([]any, len(layer))
		for j, pid := range layer {
			pids[j] = pid
		}
		batches[i] = pids
	}

	ops := make([]any, len(r.Ops))
	for i, op := range r.Ops {
		pre := make([]any, len(op.Pre))
		for j, ref := range op.Pre {
			pre[j] = map[string]any{"by": ref.By, "op": ref.Op}
		}
		ops[i] = map[string]any{
			"seq":    op.Seq,
			"pid":    op.PID,
			"name":   op.Name,
			"detail": op.Detail,
			"pre":    pre,
		}
	}

	facts := make([]any, len(r.Facts))
	for i, fact := range r.Facts {
		facts[i] = map[string]any{
			"path": fact.Path,
			"size": fact.Size,
			"kind": string(fact.Kind),
		}
	}

	return map[string]any{
		"scenario_name": scenarioName,
		"batches":       batches,
		"operations":    ops,
		"facts":         facts,
	}
}

// RunWithGolden executes a scenario and compares the full pipeline
// snapshot against a golden file in testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot, err := ir.MarshalCanonical(result.toCanonicalMap(scenario.Name))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return nil
}
