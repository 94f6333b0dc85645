package parser

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tracesched/internal/ir"
)

// openat decodes an openat call.
//
// If the path is absolute the dirfd is ignored; AT_FDCWD means the
// process working directory; any other dirfd is resolved through the
// fd table. O_CREAT prepends a Mknod, O_TRUNC prepends a Truncate and
// zeroes the tracked offset/size, O_APPEND starts the offset at the
// tracked size. The returned fd is (re)inserted into the fd table.
func (p *Parser) openat(args, ret string) ([]ir.Operation, error) {
	fd, err := strconv.Atoi(strings.TrimSpace(ret))
	if err != nil {
		return nil, NewBadLineError("openat return value is not an fd", args)
	}

	path, err := extractPath(args, "openat")
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		dirfd, err := firstField(args, "openat")
		if err != nil {
			return nil, err
		}
		if !strings.Contains(dirfd, "AT_FDCWD") {
			path, err = p.resolveRelative(dirfd, path)
			if err != nil {
				return nil, err
			}
		}
	}

	flags := openFlags(args)

	var ops []ir.Operation
	if strings.Contains(flags, "O_CREAT") {
		ops = append(ops, ir.Mknod(p.file(path)))
	}
	if strings.Contains(flags, "O_TRUNC") {
		ops = append(ops, ir.Truncate(p.file(path)))
		p.fdTable[fd] = openFile{path: path}
	}

	var offset int64
	if of, ok := p.fdTable[fd]; ok {
		if strings.Contains(flags, "O_APPEND") {
			// The offset points at the end of the tracked content.
			p.fdTable[fd] = openFile{path: path, offset: of.size, size: of.size}
			offset = of.size
		} else {
			p.fdTable[fd] = openFile{path: path, offset: of.offset, size: of.size}
			offset = of.offset
		}
	} else {
		p.fdTable[fd] = openFile{path: path}
	}

	ops = append(ops, ir.OpenAt(p.file(path), offset))
	return ops, nil
}

// openFlags returns the flag segment of an openat argument list: the text
// after the quoted path, up to the optional mode argument.
func openFlags(args string) string {
	idx := strings.LastIndex(args, `"`)
	if idx < 0 || idx+2 >= len(args) {
		return ""
	}
	flagsMode := args[idx+2:]
	if comma := strings.Index(flagsMode, ","); comma >= 0 {
		return flagsMode[:comma]
	}
	return flagsMode
}

// fcntl tracks descriptor duplication. F_DUPFD/F_DUPFD_CLOEXEC copy the
// source descriptor's table entry under the returned fd; every fcntl
// yields a NoOp itself.
func (p *Parser) fcntl(args, ret string) (ir.Operation, error) {
	dupFd, err := strconv.Atoi(strings.TrimSpace(ret))
	if err != nil {
		return ir.Operation{}, NewBadLineError("fcntl return value is not an fd", args)
	}

	parts := strings.Split(args, ",")
	fd, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ir.Operation{}, NewBadLineError("fcntl fd is not numeric", args)
	}

	for _, part := range parts {
		if strings.Contains(part, "F_DUPFD") {
			if of, ok := p.fdTable[fd]; ok {
				p.fdTable[dupFd] = of
			}
			break
		}
	}
	return ir.NoOp(), nil
}

// read emits Read(path, offset, len) for a tracked fd and advances the
// tracked offset. Untracked descriptors (ioctl-only, inherited) yield a
// NoOp rather than an error.
func (p *Parser) read(args string) (ir.Operation, error) {
	parts := strings.Split(args, ",")
	fd, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ir.Operation{}, NewBadLineError("read fd is not numeric", args)
	}
	length, err := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
	if err != nil {
		return ir.Operation{}, NewBadLineError("read length is not numeric", args)
	}

	of, ok := p.fdTable[fd]
	if !ok {
		return ir.NoOp(), nil
	}
	p.fdTable[fd] = openFile{path: of.path, offset: of.offset + length, size: of.size}
	return ir.Read(p.file(of.path), of.offset, length), nil
}

// pread is read with an explicit offset; the tracked offset is left
// untouched.
func (p *Parser) pread(args string) (ir.Operation, error) {
	parts := strings.Split(args, ",")
	if len(parts) < 4 {
		return ir.Operation{}, NewBadLineError("pread needs fd, buf, len, offset", args)
	}
	fd, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ir.Operation{}, NewBadLineError("pread fd is not numeric", args)
	}
	length, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return ir.Operation{}, NewBadLineError("pread length is not numeric", args)
	}
	offset, err := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
	if err != nil {
		return ir.Operation{}, NewBadLineError("pread offset is not numeric", args)
	}

	of, ok := p.fdTable[fd]
	if !ok {
		return ir.NoOp(), nil
	}
	return ir.Read(p.file(of.path), offset, length), nil
}

// write emits Write(path, offset, len, content) for a tracked fd and
// advances both the tracked offset and size. Stdio and untracked
// descriptors yield NoOps.
func (p *Parser) write(args string) (ir.Operation, error) {
	parts := strings.Split(args, ",")
	fd, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ir.Operation{}, NewBadLineError("write fd is not numeric", args)
	}
	if fd == 0 || fd == 1 || fd == 2 {
		return ir.NoOp(), nil
	}
	content := strings.TrimSpace(parts[1])
	length, err := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
	if err != nil {
		return ir.Operation{}, NewBadLineError("write length is not numeric", args)
	}

	of, ok := p.fdTable[fd]
	if !ok {
		return ir.NoOp(), nil
	}
	op := ir.Write(p.file(of.path), of.offset, length, content)
	p.fdTable[fd] = openFile{path: of.path, offset: of.offset + length, size: of.size + length}
	return op, nil
}

// mkdir emits Mkdir(path, mode).
func (p *Parser) mkdir(args string) (ir.Operation, error) {
	path, err := extractPath(args, "mkdir")
	if err != nil {
		return ir.Operation{}, err
	}
	comma := strings.LastIndex(args, ",")
	if comma < 0 {
		return ir.Operation{}, NewNotFoundError("mode from mkdir line")
	}
	mode := strings.TrimSpace(args[comma+1:])
	return ir.Mkdir(p.file(path), mode), nil
}

// unlink emits Remove(path), resolving dirfd-relative paths for
// unlinkat.
func (p *Parser) unlink(args string) (ir.Operation, error) {
	path, err := extractPath(args, "unlink")
	if err != nil {
		return ir.Operation{}, err
	}
	if !filepath.IsAbs(path) {
		if dirfd, derr := firstField(args, "unlink"); derr == nil && !strings.Contains(dirfd, "AT_FDCWD") {
			if resolved, rerr := p.resolveRelative(dirfd, path); rerr == nil {
				path = resolved
			} else {
				return ir.Operation{}, rerr
			}
		}
	}
	return ir.Remove(p.file(path)), nil
}

// rename emits Rename(old, new).
func (p *Parser) rename(args string) (ir.Operation, error) {
	comma := strings.Index(args, ",")
	if comma < 0 {
		return ir.Operation{}, NewNotFoundError(", from rename line")
	}
	oldPath, err := extractPath(args[:comma], "rename")
	if err != nil {
		return ir.Operation{}, err
	}
	newPath, err := extractPath(args[comma:], "rename")
	if err != nil {
		return ir.Operation{}, err
	}
	return ir.Rename(p.file(oldPath), newPath), nil
}

// renameat handles renameat/renameat2: both paths resolve independently
// through their own dirfd.
func (p *Parser) renameat(args string) (ir.Operation, error) {
	parts := strings.Split(args, ",")
	if len(parts) < 4 {
		return ir.Operation{}, NewBadLineError("renameat needs two dirfd/path pairs", args)
	}

	oldPath, err := extractPath(parts[1], "renameat")
	if err != nil {
		return ir.Operation{}, err
	}
	newPath, err := extractPath(parts[3], "renameat")
	if err != nil {
		return ir.Operation{}, err
	}

	if !filepath.IsAbs(oldPath) && !strings.Contains(parts[0], "AT_FDCWD") {
		oldPath, err = p.resolveRelative(parts[0], oldPath)
		if err != nil {
			return ir.Operation{}, err
		}
	}
	if !filepath.IsAbs(newPath) && !strings.Contains(parts[2], "AT_FDCWD") {
		newPath, err = p.resolveRelative(parts[2], newPath)
		if err != nil {
			return ir.Operation{}, err
		}
	}
	return ir.Rename(p.file(oldPath), newPath), nil
}

// getRandom emits GetRandom(len).
func (p *Parser) getRandom(args string) (ir.Operation, error) {
	parts := strings.Split(args, ",")
	if len(parts) < 2 {
		return ir.Operation{}, NewBadLineError("getrandom needs buf and length", args)
	}
	length, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return ir.Operation{}, NewBadLineError("getrandom length is not numeric", args)
	}
	return ir.GetRandom(length), nil
}

// cloneOp emits Clone(childPID) from the call's return value.
func (p *Parser) cloneOp(ret string) (ir.Operation, error) {
	pid, err := strconv.Atoi(strings.TrimSpace(ret))
	if err != nil {
		return ir.Operation{}, NewBadLineError("clone return value is not a pid", ret)
	}
	return ir.CloneOp(pid), nil
}

// stat records a fact from the embedded stat struct and emits Stat.
// Non-file, non-directory targets (sockets, pipes) downgrade to NoOp.
func (p *Parser) stat(args string) (ir.Operation, error) {
	path, err := extractPath(args, "stat")
	if err != nil {
		return ir.Operation{}, err
	}
	return p.statFact(args, path, ir.Stat(p.file(path)))
}

// fstat resolves the target through the fd table; untracked descriptors
// yield NoOp.
func (p *Parser) fstat(args string) (ir.Operation, error) {
	field, err := firstField(args, "fstat")
	if err != nil {
		return ir.Operation{}, err
	}
	fd, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return ir.Operation{}, NewBadLineError("fstat fd is not numeric", args)
	}
	of, ok := p.fdTable[fd]
	if !ok {
		return ir.NoOp(), nil
	}
	return p.statFact(args, of.path, ir.Fstat(p.file(of.path)))
}

// statx resolves a dirfd-relative path and reads stx_ fields.
func (p *Parser) statx(args string) (ir.Operation, error) {
	path, err := p.dirfdPath(args, "statx")
	if err != nil {
		return ir.Operation{}, err
	}
	return p.statFact(args, path, ir.Statx(p.file(path)))
}

// fstatat resolves a dirfd-relative path and reads st_ fields.
func (p *Parser) fstatat(args string) (ir.Operation, error) {
	path, err := p.dirfdPath(args, "fstatat")
	if err != nil {
		return ir.Operation{}, err
	}
	return p.statFact(args, path, ir.Fstatat(p.file(path)))
}

// statfs emits StatFS(path). The line carries filesystem totals, not
// per-file state, so no fact is recorded.
func (p *Parser) statfs(args string) (ir.Operation, error) {
	path, err := extractPath(args, "statfs")
	if err != nil {
		return ir.Operation{}, err
	}
	return ir.StatFS(p.file(path)), nil
}

// statFact extracts the (mode, size) struct fields from a stat-family
// line, records the fact, and returns op. An InvalidType from a
// non-regular target is downgraded to NoOp; other errors abort.
func (p *Parser) statFact(args, path string, op ir.Operation) (ir.Operation, error) {
	fact, err := fileDirFact(args, path)
	if err != nil {
		if IsInvalidType(err) {
			return ir.NoOp(), nil
		}
		return ir.Operation{}, err
	}
	p.facts[fact] = struct{}{}
	return op, nil
}

// dirfdPath extracts the quoted path and resolves it against the call's
// dirfd when relative.
func (p *Parser) dirfdPath(args, callee string) (string, error) {
	path, err := extractPath(args, callee)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dirfd, err := firstField(args, callee)
	if err != nil {
		return "", err
	}
	if strings.Contains(dirfd, "AT_FDCWD") {
		return path, nil
	}
	return p.resolveRelative(dirfd, path)
}

// resolveRelative turns a dirfd-relative path into an absolute one via
// the fd table.
func (p *Parser) resolveRelative(dirfd, relative string) (string, error) {
	fd, err := strconv.Atoi(strings.TrimSpace(dirfd))
	if err != nil {
		return "", NewBadLineError("dirfd is not numeric", dirfd)
	}
	of, ok := p.fdTable[fd]
	if !ok {
		return "", NewNotFoundError(fmt.Sprintf("file descriptor %d", fd))
	}
	return of.path + relative, nil
}

// extractPath returns the text between the first and last double quote.
func extractPath(s, callee string) (string, error) {
	start := strings.Index(s, `"`)
	if start < 0 {
		return "", NewNotFoundError(fmt.Sprintf("quoted path from %s line", callee))
	}
	rest := s[start+1:]
	end := strings.LastIndex(rest, `"`)
	if end < 0 {
		return "", NewNotFoundError(fmt.Sprintf("closing quote from %s line", callee))
	}
	return rest[:end], nil
}

// firstField returns the argument text before the first comma.
func firstField(s, callee string) (string, error) {
	comma := strings.Index(s, ",")
	if comma < 0 {
		return "", NewNotFoundError(fmt.Sprintf(", from %s line", callee))
	}
	return s[:comma], nil
}

// fileDirFact reads st_mode/st_size (or their stx_ equivalents) from a
// stat struct dump. A mode that is neither S_IFREG nor S_IFDIR yields an
// INVALID_TYPE error, which the callers downgrade.
func fileDirFact(args, path string) (ir.FileFact, error) {
	var modeField, sizeField string
	for _, part := range strings.Split(strings.TrimSpace(args), ",") {
		if strings.Contains(part, "st_mode") || strings.Contains(part, "stx_mode") {
			modeField += part
		}
		if strings.Contains(part, "st_size") || strings.Contains(part, "stx_size") {
			sizeField += part
		}
	}

	eq := strings.Index(modeField, "=")
	if eq < 0 {
		return ir.FileFact{}, NewNotFoundError("st_mode from stat struct")
	}
	mode := trimStructValue(modeField[eq+1:])
	if !strings.Contains(mode, "S_IFREG") && !strings.Contains(mode, "S_IFDIR") {
		return ir.FileFact{}, NewInvalidTypeError("not a file or directory")
	}

	eq = strings.Index(sizeField, "=")
	if eq < 0 {
		return ir.FileFact{}, NewNotFoundError("st_size from stat struct")
	}
	size, err := strconv.ParseInt(trimStructValue(sizeField[eq+1:]), 10, 64)
	if err != nil {
		return ir.FileFact{}, NewBadLineError("st_size is not numeric", args)
	}

	kind := ir.FactFile
	if strings.Contains(mode, "S_IFDIR") {
		kind = ir.FactDir
	}
	return ir.FileFact{Path: path, Size: size, Kind: kind}, nil
}

// trimStructValue strips the whitespace and brace framing a field value
// carries inside a dumped struct literal.
func trimStructValue(s string) string {
	return strings.Trim(s, "{} \t")
}
