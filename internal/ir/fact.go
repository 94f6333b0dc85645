package ir

import "fmt"

// FactKind distinguishes regular files from directories in stat-derived
// facts.
type FactKind string

const (
	FactFile FactKind = "file"
	FactDir  FactKind = "dir"
)

// FileFact records a (path, size, kind) observation gathered
// opportunistically from a stat-family trace line. Facts are the only
// knowledge of real file-system state the pipeline carries.
type FileFact struct {
	Path string
	Size int64
	Kind FactKind
}

func (f FileFact) String() string {
	if f.Kind == FactDir {
		return fmt.Sprintf("directory path %s, size: %d", f.Path, f.Size)
	}
	return fmt.Sprintf("file path: %s, size: %d", f.Path, f.Size)
}
