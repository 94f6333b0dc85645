package ir

import "fmt"

// Kind enumerates the operation variants recovered from a trace.
type Kind int

const (
	KindNoOp Kind = iota
	KindRead
	KindWrite
	KindMkdir
	KindMknod
	KindRemove
	KindRename
	KindOpenAt
	KindTruncate
	KindGetRandom
	KindStat
	KindFstat
	KindStatx
	KindStatFS
	KindFstatat
	KindClone
)

// Operation is one file-system level action recovered from a trace line.
// Only the fields relevant to the Kind are populated.
type Operation struct {
	Kind Kind

	// File is the target file. Nil exactly for GetRandom, Clone and NoOp.
	File *File

	Offset   int64  // Read, Write, OpenAt
	Len      int64  // Read, Write, GetRandom
	Content  string // Write
	Mode     string // Mkdir
	NewPath  string // Rename
	ChildPID int    // Clone
}

// Read builds a read of len bytes at offset.
func Read(file *File, offset, length int64) Operation {
	return Operation{Kind: KindRead, File: file, Offset: offset, Len: length}
}

// Write builds a write of len bytes at offset.
func Write(file *File, offset, length int64, content string) Operation {
	return Operation{Kind: KindWrite, File: file, Offset: offset, Len: length, Content: content}
}

// Mkdir builds a directory creation with the given mode string.
func Mkdir(file *File, mode string) Operation {
	return Operation{Kind: KindMkdir, File: file, Mode: mode}
}

// Mknod builds a file creation.
func Mknod(file *File) Operation {
	return Operation{Kind: KindMknod, File: file}
}

// Remove builds a file removal.
func Remove(file *File) Operation {
	return Operation{Kind: KindRemove, File: file}
}

// Rename builds a rename from file to newPath.
func Rename(file *File, newPath string) Operation {
	return Operation{Kind: KindRename, File: file, NewPath: newPath}
}

// OpenAt builds an open with the recovered starting offset.
func OpenAt(file *File, offset int64) Operation {
	return Operation{Kind: KindOpenAt, File: file, Offset: offset}
}

// Truncate builds a truncation to length zero.
func Truncate(file *File) Operation {
	return Operation{Kind: KindTruncate, File: file}
}

// GetRandom builds a random-bytes request of length bytes.
func GetRandom(length int64) Operation {
	return Operation{Kind: KindGetRandom, Len: length}
}

// Stat builds a stat of file.
func Stat(file *File) Operation { return Operation{Kind: KindStat, File: file} }

// Fstat builds an fstat of file.
func Fstat(file *File) Operation { return Operation{Kind: KindFstat, File: file} }

// Statx builds a statx of file.
func Statx(file *File) Operation { return Operation{Kind: KindStatx, File: file} }

// StatFS builds a statfs of file.
func StatFS(file *File) Operation { return Operation{Kind: KindStatFS, File: file} }

// Fstatat builds an fstatat of file.
func Fstatat(file *File) Operation { return Operation{Kind: KindFstatat, File: file} }

// CloneOp builds a process clone yielding childPID.
func CloneOp(childPID int) Operation {
	return Operation{Kind: KindClone, ChildPID: childPID}
}

// NoOp builds an operation that carries no scheduling content.
func NoOp() Operation { return Operation{Kind: KindNoOp} }

// Name returns the operation's variant name. These strings are part of the
// observable contract: the dependency precedence policy matches on them.
func (o Operation) Name() string {
	switch o.Kind {
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindMkdir:
		return "Mkdir"
	case KindMknod:
		return "Mknod"
	case KindRemove:
		return "Remove"
	case KindRename:
		return "Rename"
	case KindOpenAt:
		return "OpenAt"
	case KindTruncate:
		return "Truncate"
	case KindGetRandom:
		return "GetRandom"
	case KindStat:
		return "Stat"
	case KindFstat:
		return "Fstat"
	case KindStatx:
		return "Statx"
	case KindStatFS:
		return "StatFS"
	case KindFstatat:
		return "Fstatat"
	case KindClone:
		return "Clone"
	default:
		return "NoOp"
	}
}

// Target returns the file the operation acts on, or nil for the variants
// without a file-system target (GetRandom, Clone, NoOp).
func (o Operation) Target() *File { return o.File }

func (o Operation) String() string {
	switch o.Kind {
	case KindRead:
		return fmt.Sprintf("read(%s, %d, %d)", o.File, o.Offset, o.Len)
	case KindWrite:
		return fmt.Sprintf("write(%s, %d, %d, %s)", o.File, o.Offset, o.Len, o.Content)
	case KindMkdir:
		return fmt.Sprintf("mkdir(%s, %s)", o.File, o.Mode)
	case KindMknod:
		return fmt.Sprintf("mknod(%s)", o.File)
	case KindRemove:
		return fmt.Sprintf("remove(%s)", o.File)
	case KindRename:
		return fmt.Sprintf("rename(%s %s)", o.File, o.NewPath)
	case KindOpenAt:
		return fmt.Sprintf("open(%s, %d)", o.File, o.Offset)
	case KindTruncate:
		return fmt.Sprintf("truncate(%s)", o.File)
	case KindGetRandom:
		return fmt.Sprintf("get_random(%d)", o.Len)
	case KindStat:
		return fmt.Sprintf("stat(%s)", o.File)
	case KindFstat:
		return fmt.Sprintf("fstat(%s)", o.File)
	case KindStatx:
		return fmt.Sprintf("statx(%s)", o.File)
	case KindStatFS:
		return fmt.Sprintf("statfs(%s)", o.File)
	case KindFstatat:
		return fmt.Sprintf("fstatat(%s)", o.File)
	case KindClone:
		return fmt.Sprintf("clone(%d)", o.ChildPID)
	default:
		return "no-op"
	}
}
