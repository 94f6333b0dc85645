package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_Names(t *testing.T) {
	in := NewInterner()
	f := in.Intern("/a")

	// These strings are matched by the dependency precedence policy and
	// must not drift.
	cases := []struct {
		op   Operation
		name string
	}{
		{Read(f, 0, 1), "Read"},
		{Write(f, 0, 1, "x"), "Write"},
		{Mkdir(f, "0777"), "Mkdir"},
		{Mknod(f), "Mknod"},
		{Remove(f), "Remove"},
		{Rename(f, "/b"), "Rename"},
		{OpenAt(f, 0), "OpenAt"},
		{Truncate(f), "Truncate"},
		{GetRandom(16), "GetRandom"},
		{Stat(f), "Stat"},
		{Fstat(f), "Fstat"},
		{Statx(f), "Statx"},
		{StatFS(f), "StatFS"},
		{Fstatat(f), "Fstatat"},
		{CloneOp(42), "Clone"},
		{NoOp(), "NoOp"},
	}
	for _, c := range cases {
		assert.Equal(t, c.name, c.op.Name())
	}
}

func TestOperation_Target(t *testing.T) {
	in := NewInterner()
	f := in.Intern("/a")

	assert.Same(t, f, Read(f, 0, 1).Target())
	assert.Same(t, f, Rename(f, "/b").Target())

	// Exactly the file-less variants return nil.
	assert.Nil(t, GetRandom(8).Target())
	assert.Nil(t, CloneOp(1).Target())
	assert.Nil(t, NoOp().Target())
}

func TestInterner_SharesFiles(t *testing.T) {
	in := NewInterner()
	f1 := in.Intern("/a/b")
	f2 := in.Intern("/a/b")
	f3 := in.Intern("/a/c")

	assert.Same(t, f1, f2, "same path must intern to the same File")
	assert.NotSame(t, f1, f3)
	assert.Equal(t, 2, in.Len())
}

func TestInterner_NormalizesNFC(t *testing.T) {
	in := NewInterner()
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301).
	composed := in.Intern("/café")
	decomposed := in.Intern("/café")

	assert.Same(t, composed, decomposed,
		"encoding differences must not split one logical file")
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	c := NewClock()
	prev := c.Current()
	for i := 0; i < 100; i++ {
		next := c.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}
