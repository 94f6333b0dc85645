package harness

import (
	"fmt"
	"sort"
	"strings"

	"tracesched/internal/engine"
	"tracesched/internal/ir"
	"tracesched/internal/parser"
)

// PreRef is one observed pre-list entry.
type PreRef struct {
	By int
	Op string
}

// OpRecord is one observed operation in seq order.
type OpRecord struct {
	Seq    int64
	PID    int
	Name   string
	Detail string
	Pre    []PreRef
}

// Result captures everything one pipeline pass produced.
type Result struct {
	Batches [][]int
	Ops     []OpRecord
	Facts   []ir.FileFact
}

// Run feeds the scenario's trace through the full pipeline and checks
// every expectation. An expectation mismatch returns the Result
// alongside the error; a pipeline failure returns a nil Result.
func Run(scenario *Scenario) (*Result, error) {
	p := parser.New(scenario.Name)
	procs, err := p.ParseReader(strings.NewReader(strings.Join(scenario.Trace, "\n")))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: parse: %w", scenario.Name, err)
	}

	graph, err := engine.NewDependencyGraph(procs)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build: %w", scenario.Name, err)
	}
	if err := graph.MarkDependencies(); err != nil {
		return nil, fmt.Errorf("scenario %s: mark: %w", scenario.Name, err)
	}
	ordered, err := graph.Order()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: order: %w", scenario.Name, err)
	}
	batches, err := engine.Schedule(ordered)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: schedule: %w", scenario.Name, err)
	}

	result := &Result{
		Batches: pidLayers(batches),
		Ops:     collectOps(procs),
		Facts:   p.ExistingFiles(),
	}

	if err := checkExpectations(scenario, result, procs); err != nil {
		return result, err
	}
	return result, nil
}

// pidLayers flattens schedule batches to pid layers.
func pidLayers(batches [][]*ir.Process) [][]int {
	layers := make([][]int, 0, len(batches))
	for _, batch := range batches {
		layer := make([]int, 0, len(batch))
		for _, proc := range batch {
			layer = append(layer, proc.PID())
		}
		layers = append(layers, layer)
	}
	return layers
}

// collectOps flattens process logs into seq-ordered records.
func collectOps(procs []*ir.Process) []OpRecord {
	var records []OpRecord
	for _, proc := range procs {
		for _, cell := range proc.Ops() {
			record := OpRecord{
				Seq:    cell.Seq(),
				PID:    proc.PID(),
				Name:   cell.Name(),
				Detail: cell.Op().String(),
			}
			for _, pre := range cell.PreList() {
				record.Pre = append(record.Pre, PreRef{By: pre.By, Op: pre.Op.Name()})
			}
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records
}

// checkExpectations compares the result against the scenario.
func checkExpectations(scenario *Scenario, result *Result, procs []*ir.Process) error {
	if err := checkBatches(scenario, result); err != nil {
		return err
	}
	for _, want := range scenario.Expect.Preconditions {
		if err := checkPrecondition(scenario, procs, want); err != nil {
			return err
		}
	}
	if scenario.Expect.Facts != nil {
		if err := checkFacts(scenario, result); err != nil {
			return err
		}
	}
	return nil
}

func checkBatches(scenario *Scenario, result *Result) error {
	if len(result.Batches) != len(scenario.Expect.Batches) {
		return fmt.Errorf("scenario %s: got %d batches, want %d",
			scenario.Name, len(result.Batches), len(scenario.Expect.Batches))
	}
	for i, want := range scenario.Expect.Batches {
		got := result.Batches[i]
		if len(got) != len(want) {
			return fmt.Errorf("scenario %s: batch %d is %v, want %v", scenario.Name, i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				return fmt.Errorf("scenario %s: batch %d is %v, want %v", scenario.Name, i, got, want)
			}
		}
	}
	return nil
}

// checkPrecondition finds the first (pid, op) match and verifies its
// pre-list contains every required entry.
func checkPrecondition(scenario *Scenario, procs []*ir.Process, want Precondition) error {
	cell := findOp(procs, want.PID, want.Op)
	if cell == nil {
		return fmt.Errorf("scenario %s: no %s operation in process %d",
			scenario.Name, want.Op, want.PID)
	}
	for _, req := range want.Requires {
		if !preListContains(cell, req) {
			return fmt.Errorf("scenario %s: %s of process %d lacks precondition %s by %d",
				scenario.Name, want.Op, want.PID, req.Op, req.PID)
		}
	}
	return nil
}

func findOp(procs []*ir.Process, pid int, name string) *ir.Cell {
	for _, proc := range procs {
		if proc.PID() != pid {
			continue
		}
		for _, cell := range proc.Ops() {
			if cell.Name() == name {
				return cell
			}
		}
	}
	return nil
}

func preListContains(cell *ir.Cell, req RequireRef) bool {
	for _, pre := range cell.PreList() {
		if pre.By == req.PID && pre.Op.Name() == req.Op {
			return true
		}
	}
	return false
}

func checkFacts(scenario *Scenario, result *Result) error {
	if len(result.Facts) != len(scenario.Expect.Facts) {
		return fmt.Errorf("scenario %s: got %d facts, want %d",
			scenario.Name, len(result.Facts), len(scenario.Expect.Facts))
	}
	for i, want := range scenario.Expect.Facts {
		got := result.Facts[i]
		if got.Path != want.Path || got.Size != want.Size || string(got.Kind) != want.Kind {
			return fmt.Errorf("scenario %s: fact %d is %v, want %+v", scenario.Name, i, got, want)
		}
	}
	return nil
}
