package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracesched/internal/ir"
	"tracesched/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	set := testutil.NewProcessSet()
	p1 := set.Process(1)
	p1.Write("/out")
	p2 := set.Process(2)
	p2.Read("/out")
	procs := set.Processes()

	batches := [][]*ir.Process{{procs[0]}, {procs[1]}}
	facts := []ir.FileFact{{Path: "/out", Size: 7, Kind: ir.FactFile}}

	runID, err := s.RecordRun(ctx, "/traces/build.log", procs, batches, facts)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "/traces/build.log", run.TracePath)
	assert.NotEmpty(t, run.CreatedAt)

	ops, err := s.ListOperations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "Write", ops[0].Name)
	assert.Equal(t, 1, ops[0].PID)
	assert.Equal(t, "Read", ops[1].Name)
	assert.Less(t, ops[0].Seq, ops[1].Seq)

	loaded, err := s.LoadBatches(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {2}}, loaded)

	gotFacts, err := s.ListFacts(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, facts, gotFacts)
}

func TestRecordRun_PreCountPersisted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	set := testutil.NewProcessSet()
	writer := set.Process(1).Write("/f")
	read := set.Process(2).Read("/f")
	read.AddPre(ir.PreOperation{Op: writer, By: 1})

	runID, err := s.RecordRun(ctx, "t.log", set.Processes(), nil, nil)
	require.NoError(t, err)

	ops, err := s.ListOperations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, 0, ops[0].PreCount)
	assert.Equal(t, 1, ops[1].PreCount)
}

func TestListRuns_Ordering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, "a.log", nil, nil, nil)
	require.NoError(t, err)
	second, err := s.RecordRun(ctx, "b.log", nil, nil, nil)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}

func TestGetRun_Missing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecordRun_DuplicateFactsCollapse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	facts := []ir.FileFact{
		{Path: "/f", Size: 1, Kind: ir.FactFile},
		{Path: "/f", Size: 1, Kind: ir.FactFile},
	}
	runID, err := s.RecordRun(ctx, "t.log", nil, nil, facts)
	require.NoError(t, err)

	got, err := s.ListFacts(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
