package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracesched/internal/ir"
)

// parseTrace runs the full pipeline over an in-memory trace and fails the
// test on any parse error.
func parseTrace(t *testing.T, trace string) ([]*ir.Process, *Parser) {
	t.Helper()
	p := New("trace.log")
	procs, err := p.ParseReader(strings.NewReader(trace))
	require.NoError(t, err)
	return procs, p
}

// opNames flattens a process log to operation names.
func opNames(proc *ir.Process) []string {
	names := make([]string, 0, proc.OpCount())
	for _, cell := range proc.Ops() {
		names = append(names, cell.Name())
	}
	return names
}

func TestParser_RejectsLineWithoutPID(t *testing.T) {
	p := New("trace.log")
	_, err := p.ParseReader(strings.NewReader(`openat(AT_FDCWD, "/tmp/a", O_RDONLY) = 3` + "\n"))
	require.Error(t, err)
	assert.True(t, IsBadLine(err))
}

func TestParser_SkipsNoise(t *testing.T) {
	trace := strings.Join([]string{
		`7 openat(AT_FDCWD, "/missing", O_RDONLY) = -1 ENOENT (No such file or directory)`,
		`7 close(3) = 0`,
		`7 readlink("/proc/self/exe", "/usr/bin/prog", 4096) = 13`,
		`7 --- SIGCHLD {si_signo=SIGCHLD} ---`,
		`7 +++ exited with 0 +++`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	assert.Empty(t, procs, "noise lines should produce no processes")
}

func TestParser_UnknownSyscallIsIgnored(t *testing.T) {
	procs, _ := parseTrace(t, `7 brk(NULL) = 94`+"\n")
	require.Len(t, procs, 1)
	assert.Equal(t, 0, procs[0].OpCount())
}

func TestParser_StitchesUnfinishedAndResumed(t *testing.T) {
	trace := strings.Join([]string{
		`42 getrandom("\x2f\x41" <unfinished ...>`,
		`13 mkdir("/tmp/out", 0777) = 0`,
		`42 <... getrandom resumed>, 8, GRND_NONBLOCK) = 8`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	require.Len(t, procs, 2)

	require.Equal(t, []string{"GetRandom"}, opNames(procs[0]))
	assert.Equal(t, int64(8), procs[0].Ops()[0].Op().Len)

	assert.Equal(t, []string{"Mkdir"}, opNames(procs[1]))
}

func TestParser_StitchesEmptyPartial(t *testing.T) {
	trace := strings.Join([]string{
		`1 getrandom( <unfinished ...>`,
		`1 <... getrandom resumed>NULL, 0, GRND_NONBLOCK) = 0`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	require.Len(t, procs, 1)
	require.Equal(t, []string{"GetRandom"}, opNames(procs[0]))
	assert.Equal(t, int64(0), procs[0].Ops()[0].Op().Len)
}

func TestParser_ResumedWithoutUnfinished(t *testing.T) {
	p := New("trace.log")
	_, err := p.ParseReader(strings.NewReader(`42 <... getrandom resumed>, 8, 0) = 8` + "\n"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestParser_InterleavedStitchingKeyedByPID(t *testing.T) {
	// Two processes suspend the same syscall; each resume must reattach
	// to its own half.
	trace := strings.Join([]string{
		`1 getrandom("" <unfinished ...>`,
		`2 getrandom("" <unfinished ...>`,
		`2 <... getrandom resumed>, 16, 0) = 16`,
		`1 <... getrandom resumed>, 4, 0) = 4`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	require.Len(t, procs, 2)
	assert.Equal(t, int64(4), procs[0].Ops()[0].Op().Len)
	assert.Equal(t, int64(16), procs[1].Ops()[0].Op().Len)
}

func TestParser_ProcessOrderIsFirstAppearance(t *testing.T) {
	trace := strings.Join([]string{
		`30 mkdir("/tmp/c", 0777) = 0`,
		`10 mkdir("/tmp/a", 0777) = 0`,
		`30 mkdir("/tmp/d", 0777) = 0`,
		`20 mkdir("/tmp/b", 0777) = 0`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	require.Len(t, procs, 3)
	assert.Equal(t, 30, procs[0].PID())
	assert.Equal(t, 10, procs[1].PID())
	assert.Equal(t, 20, procs[2].PID())
	assert.Equal(t, 2, procs[0].OpCount())
}

func TestParser_SeqStrictlyIncreasingAcrossProcesses(t *testing.T) {
	trace := strings.Join([]string{
		`1 mkdir("/tmp/a", 0777) = 0`,
		`2 mkdir("/tmp/b", 0777) = 0`,
		`1 unlink("/tmp/a") = 0`,
	}, "\n")

	procs, _ := parseTrace(t, trace)

	var seqs []int64
	for _, proc := range procs {
		for _, cell := range proc.Ops() {
			seqs = append(seqs, cell.Seq())
		}
	}
	require.Len(t, seqs, 3)

	seen := make(map[int64]bool)
	for _, seq := range seqs {
		assert.False(t, seen[seq], "seq %d assigned twice", seq)
		seen[seq] = true
	}
}

func TestParser_SharedInternerAcrossProcesses(t *testing.T) {
	trace := strings.Join([]string{
		`1 mkdir("/tmp/shared", 0777) = 0`,
		`2 unlink("/tmp/shared") = 0`,
	}, "\n")

	procs, _ := parseTrace(t, trace)
	require.Len(t, procs, 2)

	f1 := procs[0].Ops()[0].Target()
	f2 := procs[1].Ops()[0].Target()
	assert.Same(t, f1, f2, "same path should intern to the same File")
}

func TestParser_ParseMissingFile(t *testing.T) {
	p := New("/nonexistent/trace.log")
	_, err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open trace")
}
