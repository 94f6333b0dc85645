package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// File is an interned file-system path. Files are created only through an
// Interner, so within one parse session two operations touching the same
// path hold the same *File and identity comparisons are pointer
// comparisons.
type File struct {
	path string
}

// Path returns the interned path.
func (f *File) Path() string { return f.path }

func (f *File) String() string {
	return fmt.Sprintf("file(%s)", f.path)
}

// Interner deduplicates File values by path. One Interner is used for the
// whole of a parse session; no two distinct *File values with the same
// path can exist within one run.
//
// Paths are NFC normalized at the intern boundary so that byte-level
// encoding differences in the trace cannot split one logical file into
// two nodes.
type Interner struct {
	files map[string]*File
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{files: make(map[string]*File)}
}

// Intern returns the File for path, creating it on first use.
func (in *Interner) Intern(path string) *File {
	normalized := norm.NFC.String(path)
	if f, ok := in.files[normalized]; ok {
		return f
	}
	f := &File{path: normalized}
	in.files[normalized] = f
	return f
}

// Len returns the number of distinct interned paths.
func (in *Interner) Len() int { return len(in.files) }
