package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracesched/internal/ir"
)

// RecordRun persists one full pipeline pass in a single transaction and
// returns the new run's id. procs carry the flattened operation logs,
// batches the extracted schedule layers, facts the stat-derived file
// observations.
func (s *Store) RecordRun(ctx context.Context, tracePath string, procs []*ir.Process, batches [][]*ir.Process, facts []ir.FileFact) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, trace_path, created_at)
		VALUES (?, ?, ?)
	`, runID, tracePath, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	for _, proc := range procs {
		for _, cell := range proc.Ops() {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO operations (run_id, seq, pid, name, detail, pre_count)
				VALUES (?, ?, ?, ?, ?, ?)
			`, runID, cell.Seq(), proc.PID(), cell.Name(), cell.Op().String(), len(cell.PreList()))
			if err != nil {
				return "", fmt.Errorf("record operation seq=%d: %w", cell.Seq(), err)
			}
		}
	}

	for layer, batch := range batches {
		for _, proc := range batch {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO batches (run_id, layer, pid)
				VALUES (?, ?, ?)
			`, runID, layer, proc.PID())
			if err != nil {
				return "", fmt.Errorf("record batch layer=%d: %w", layer, err)
			}
		}
	}

	for _, fact := range facts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO file_facts (run_id, path, size, kind)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, path) DO NOTHING
		`, runID, fact.Path, fact.Size, string(fact.Kind))
		if err != nil {
			return "", fmt.Errorf("record fact path=%s: %w", fact.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return runID, nil
}
