package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracesched/internal/store"
	"tracesched/internal/testutil"
)

// writerReaderTrace produces a trace where pid 1 writes a file that
// pid 2 then reads, forcing a two-layer schedule.
func writerReaderTrace(t *testing.T) string {
	t.Helper()
	return testutil.WriteTrace(t,
		`1 openat(AT_FDCWD, "/tmp/out", O_WRONLY|O_CREAT, 0644) = 3`,
		`1 write(3, "data", 4) = 4`,
		`2 openat(AT_FDCWD, "/tmp/out", O_RDONLY) = 3`,
		`2 read(3, "data", 4) = 4`,
	)
}

func TestSchedule_TextOutput(t *testing.T) {
	out, err := runCommand(t, "schedule", writerReaderTrace(t))
	require.NoError(t, err)
	assert.Contains(t, out, "batch 0: 1")
	assert.Contains(t, out, "batch 1: 2")
}

func TestSchedule_JSONOutput(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "schedule", writerReaderTrace(t))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ScheduleResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2, result.Processes)
	assert.Equal(t, [][]int{{1}, {2}}, result.Batches)
}

func TestSchedule_WritesOutFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "schedule.txt")
	out, err := runCommand(t, "schedule", writerReaderTrace(t), "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "batch 0: 1\nbatch 1: 2\n", string(content))
}

func TestSchedule_RecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, err := runCommand(t, "--format", "json", "schedule", writerReaderTrace(t), "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, _ := json.Marshal(resp.Data)
	var result ScheduleResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.NotEmpty(t, result.RunID)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	batches, err := s.LoadBatches(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {2}}, batches)
}

func TestSchedule_MarksOncePerParse(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, err := runCommand(t, "--format", "json", "schedule", writerReaderTrace(t), "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, _ := json.Marshal(resp.Data)
	var result ScheduleResult
	require.NoError(t, json.Unmarshal(data, &result))

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	ops, err := s.ListOperations(context.Background(), result.RunID)
	require.NoError(t, err)

	// The reader's Read depends on the writer's Mknod and Write, and its
	// OpenAt on the Mknod alone; duplicated marking would double these.
	counts := map[string]int{}
	for _, op := range ops {
		if op.PID == 2 {
			counts[op.Name] = op.PreCount
		}
	}
	assert.Equal(t, 2, counts["Read"])
	assert.Equal(t, 1, counts["OpenAt"])
}

func TestSchedule_MissingTraceIsCommandError(t *testing.T) {
	_, err := runCommand(t, "schedule", "/nonexistent/trace.log")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSchedule_MalformedTraceIsFailure(t *testing.T) {
	path := testutil.WriteTrace(t, `this line has no pid prefix`)
	_, err := runCommand(t, "schedule", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
