package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tracesched/internal/ir"
)

// Run is one recorded pipeline pass.
type Run struct {
	ID        string
	TracePath string
	CreatedAt string
}

// OperationRow is one persisted operation.
type OperationRow struct {
	Seq      int64
	PID      int
	Name     string
	Detail   string
	PreCount int
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trace_path, created_at
		FROM runs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.TracePath, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trace_path, created_at
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &run.TracePath, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListOperations returns a run's operations in seq order.
func (s *Store) ListOperations(ctx context.Context, runID string) ([]OperationRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, pid, name, detail, pre_count
		FROM operations
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []OperationRow
	for rows.Next() {
		var op OperationRow
		if err := rows.Scan(&op.Seq, &op.PID, &op.Name, &op.Detail, &op.PreCount); err != nil {
			return nil, fmt.Errorf("list operations: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

// LoadBatches returns a run's schedule as pid layers, in layer order.
func (s *Store) LoadBatches(ctx context.Context, runID string) ([][]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT layer, pid
		FROM batches
		WHERE run_id = ?
		ORDER BY layer, pid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	defer rows.Close()

	var batches [][]int
	for rows.Next() {
		var layer, pid int
		if err := rows.Scan(&layer, &pid); err != nil {
			return nil, fmt.Errorf("load batches: %w", err)
		}
		for len(batches) <= layer {
			batches = append(batches, nil)
		}
		batches[layer] = append(batches[layer], pid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	return batches, nil
}

// ListFacts returns a run's file facts sorted by path.
func (s *Store) ListFacts(ctx context.Context, runID string) ([]ir.FileFact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, size, kind
		FROM file_facts
		WHERE run_id = ?
		ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	var facts []ir.FileFact
	for rows.Next() {
		var fact ir.FileFact
		var kind string
		if err := rows.Scan(&fact.Path, &fact.Size, &kind); err != nil {
			return nil, fmt.Errorf("list facts: %w", err)
		}
		fact.Kind = ir.FactKind(kind)
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	return facts, nil
}
