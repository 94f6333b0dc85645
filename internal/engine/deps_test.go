package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracesched/internal/ir"
	"tracesched/internal/testutil"
)

// hasPre reports whether cell's pre-list contains an entry for exactly
// the given producing cell and pid.
func hasPre(cell *ir.Cell, producer *ir.Cell, by int) bool {
	for _, pre := range cell.PreList() {
		if pre.Op == producer && pre.By == by {
			return true
		}
	}
	return false
}

func TestNewDependencyGraph_CountsNodesAndEdges(t *testing.T) {
	set := testutil.NewProcessSet()
	p1 := set.Process(1)
	p1.Write("/f1")
	p1.Read("/f2")
	p2 := set.Process(2)
	p2.Read("/f1")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)

	// 2 processes + 2 files.
	assert.Equal(t, 4, graph.Graph().NodeCount())
	assert.Equal(t, 3, graph.Graph().EdgeCount())
}

func TestNewDependencyGraph_FilelessOperationsAddNoEdges(t *testing.T) {
	set := testutil.NewProcessSet()
	p := set.Process(1)
	p.Add(ir.GetRandom(8))
	p.Add(ir.CloneOp(2))
	p.Add(ir.NoOp())

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)

	assert.Equal(t, 1, graph.Graph().NodeCount())
	assert.Equal(t, 0, graph.Graph().EdgeCount())
}

func TestNewDependencyGraph_ParallelEdgesPerOperation(t *testing.T) {
	set := testutil.NewProcessSet()
	p := set.Process(1)
	p.Write("/f")
	p.Write("/f")
	p.Read("/f")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)

	// Each cell labels its own edge; none collapse.
	assert.Equal(t, 3, graph.Graph().EdgeCount())
}

func TestMarkDependencies_WriteBeforeRead(t *testing.T) {
	set := testutil.NewProcessSet()
	write := set.Process(1).Write("/shared")
	read := set.Process(2).Read("/shared")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.True(t, hasPre(read, write, 1), "reader should wait on the writer")
	assert.Empty(t, write.PreList())
}

func TestMarkDependencies_SameProcessExemption(t *testing.T) {
	set := testutil.NewProcessSet()
	p := set.Process(1)
	write := p.Write("/own")
	read := p.Read("/own")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.Empty(t, read.PreList(), "trace position already orders same-process operations")
	assert.Empty(t, write.PreList())
}

func TestMarkDependencies_StatFamilyRunsInParallel(t *testing.T) {
	set := testutil.NewProcessSet()
	stat := set.Process(1).Stat("/f")
	other := set.Process(2).Stat("/f")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.Empty(t, stat.PreList())
	assert.Empty(t, other.PreList())
}

func TestMarkDependencies_CreationGatesEverythingElse(t *testing.T) {
	set := testutil.NewProcessSet()
	mkdir := set.Process(1).Mkdir("/d")
	stat := set.Process(2).Stat("/d")
	otherMkdir := set.Process(3).Mkdir("/d")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.True(t, hasPre(stat, mkdir, 1))
	assert.True(t, hasPre(stat, otherMkdir, 3))
	assert.Empty(t, otherMkdir.PreList(), "creation calls do not gate each other")
	assert.Empty(t, mkdir.PreList())
}

func TestMarkDependencies_ReadGatesDestructiveOnly(t *testing.T) {
	set := testutil.NewProcessSet()
	read := set.Process(1).Read("/f")
	remove := set.Process(2).Remove("/f")
	otherRead := set.Process(3).Read("/f")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.True(t, hasPre(remove, read, 1))
	assert.True(t, hasPre(remove, otherRead, 3))
	assert.Empty(t, otherRead.PreList(), "reads never gate other reads")
}

func TestMarkDependencies_UncontendedFileUntouched(t *testing.T) {
	set := testutil.NewProcessSet()
	write := set.Process(1).Write("/solo")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.Empty(t, write.PreList())
}

func TestMarkDependencies_ThreeProcessScenario(t *testing.T) {
	set := testutil.NewProcessSet()

	p1 := set.Process(1)
	p1.Read("/f1")
	mknodF2 := p1.Mknod("/f2")
	writeF2Own := p1.Write("/f2")
	writeF4 := p1.Write("/f4")

	p2 := set.Process(2)
	removeF2 := p2.Remove("/f2")
	p2.Mkdir("/d1")
	writeF2Other := p2.Write("/f2")

	p3 := set.Process(3)
	p3.Stat("/d1")
	p3.Read("/f3")
	readF4 := p3.Read("/f4")
	p3.Mknod("/f2")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)

	assert.Equal(t, 8, graph.Graph().NodeCount())
	assert.Equal(t, 11, graph.Graph().EdgeCount())

	require.NoError(t, graph.MarkDependencies())

	assert.True(t, hasPre(writeF2Other, mknodF2, 1),
		"another process's write must wait on the creation")
	assert.True(t, hasPre(removeF2, mknodF2, 1),
		"another process's removal must wait on the creation")
	assert.False(t, hasPre(writeF2Own, mknodF2, 1),
		"the creator's own write is ordered by the trace")
	assert.True(t, hasPre(readF4, writeF4, 1))
}

func TestCanExecute_FollowsPreList(t *testing.T) {
	set := testutil.NewProcessSet()
	write := set.Process(1).Write("/f")
	read := set.Process(2).Read("/f")

	graph, err := NewDependencyGraph(set.Processes())
	require.NoError(t, err)
	require.NoError(t, graph.MarkDependencies())

	assert.True(t, write.CanExecute())
	assert.False(t, read.CanExecute())

	write.MarkExecuted()
	assert.True(t, read.CanExecute())
}

func TestGraphNode_WrongAccessor(t *testing.T) {
	set := testutil.NewProcessSet()
	proc := set.Process(1).Proc()

	node := ProcessNode(proc)
	_, err := node.File()
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))

	fileNode := FileNode(set.File("/f"))
	_, err = fileNode.Process()
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
	assert.Contains(t, err.Error(), "file:/f")
}
