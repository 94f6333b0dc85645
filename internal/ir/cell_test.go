package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_CanExecute_EmptyPre(t *testing.T) {
	in := NewInterner()
	cell := NewCell(Read(in.Intern("/a"), 0, 10), 1)

	assert.True(t, cell.CanExecute(), "no prerequisites means immediately runnable")
	assert.False(t, cell.Executed())
}

func TestCell_CanExecute_WaitsForPre(t *testing.T) {
	in := NewInterner()
	write := NewCell(Write(in.Intern("/a"), 0, 5, "hello"), 1)
	read := NewCell(Read(in.Intern("/a"), 0, 5), 2)

	read.AddPre(PreOperation{Op: write, By: 7})

	assert.False(t, read.CanExecute(), "prerequisite not yet executed")

	write.MarkExecuted()
	assert.True(t, read.CanExecute())
}

func TestCell_MarkExecuted_Irreversible(t *testing.T) {
	cell := NewCell(NoOp(), 1)
	cell.MarkExecuted()
	require.True(t, cell.Executed())
	// No API exists to clear the flag; marking again keeps it set.
	cell.MarkExecuted()
	assert.True(t, cell.Executed())
}

func TestCell_KeyUniqueBySeq(t *testing.T) {
	in := NewInterner()
	f := in.Intern("/a")
	c1 := NewCell(Read(f, 0, 1), 1)
	c2 := NewCell(Read(f, 0, 1), 2)

	assert.NotEqual(t, c1.Key(), c2.Key(),
		"identical operations remain distinct cells")
}

func TestCell_PreListCopies(t *testing.T) {
	in := NewInterner()
	cell := NewCell(Remove(in.Intern("/a")), 1)
	pre := NewCell(Mknod(in.Intern("/a")), 2)
	cell.AddPre(PreOperation{Op: pre, By: 3})

	list := cell.PreList()
	require.Len(t, list, 1)
	list[0] = PreOperation{}
	assert.Same(t, pre, cell.PreList()[0].Op, "callers must not be able to mutate the pre-list")
}
