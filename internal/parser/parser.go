package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tracesched/internal/ir"
)

var (
	// pid prefix shared by every well-formed line.
	rePIDPrefix = regexp.MustCompile(`^(\d+) (.+)$`)

	// "<syscall>(<partial args> <unfinished ...>" — applied to the line
	// after the pid prefix has been stripped.
	reUnfinished = regexp.MustCompile(`^([^(]*)\((.*) <unfinished \.\.\.>$`)

	// "pid <... <syscall> resumed><rest>) = <ret>"
	reResumed = regexp.MustCompile(`^(\d+)\s<\.\.\. ([^(]+) resumed>(.*)\)\s+=\s+(-?\d+|\?)\s*.*$`)

	// "pid <syscall>(<args>) = <ret>"
	reFinished = regexp.MustCompile(`^(\d+) ([^(]+)\((.*)\)\s+=\s+(-?\d+|\?)\s*.*$`)
)

// openFile is the simulated state of one open descriptor.
type openFile struct {
	path   string
	offset int64
	size   int64
}

// Parser scans a strace log and reconstructs per-process operation logs.
// A Parser carries one interner and one clock; it must not be reused
// across traces.
type Parser struct {
	tracePath string

	clock    *ir.Clock
	interner *ir.Interner

	// fdTable maps a descriptor number to its simulated open-file state.
	fdTable map[int]openFile

	// inflight parks unfinished call text keyed by "pid:syscall" until
	// the matching resumed line arrives.
	inflight map[string]string

	// facts is the set of (path, size, kind) observations from
	// stat-family lines.
	facts map[ir.FileFact]struct{}

	procs []*ir.Process
}

// New creates a Parser for the trace file at path.
func New(tracePath string) *Parser {
	return &Parser{
		tracePath: tracePath,
		clock:     ir.NewClock(),
		interner:  ir.NewInterner(),
		fdTable:   make(map[int]openFile),
		inflight:  make(map[string]string),
		facts:     make(map[ir.FileFact]struct{}),
	}
}

// Parse scans the trace file and returns the processes in order of first
// appearance. The first unrecovered error aborts the parse.
func (p *Parser) Parse() ([]*ir.Process, error) {
	f, err := os.Open(p.tracePath)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return p.ParseReader(f)
}

// ParseReader scans trace lines from r. Split out from Parse so tests and
// the conformance harness can feed traces without touching the disk.
func (p *Parser) ParseReader(r io.Reader) ([]*ir.Process, error) {
	scanner := bufio.NewScanner(r)
	// Write lines quote the full buffer content; allow long records.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return p.procs, nil
}

// parseLine filters, classifies, and dispatches one raw line.
func (p *Parser) parseLine(line string) error {
	m := rePIDPrefix.FindStringSubmatch(line)
	if m == nil {
		return NewBadLineError("line has no pid prefix", line)
	}
	rest := m[2]

	// Failed calls, descriptor teardown, and signal markers carry no
	// scheduling content.
	if strings.Contains(line, "= -1") ||
		strings.HasPrefix(rest, "close") ||
		strings.HasPrefix(rest, "readlink") ||
		strings.Contains(line, "---") ||
		strings.Contains(line, "+++") {
		return nil
	}

	parts, finished, err := p.classify(line)
	if err != nil {
		return err
	}
	if !finished {
		return nil
	}

	return p.dispatch(parts)
}

// lineParts is a fully correlated call: pid, syscall name, the combined
// argument text, and the return value.
type lineParts struct {
	pid  int
	op   string
	args string
	ret  string
}

// classify determines the line shape. For unfinished lines it parks the
// partial text and reports finished=false; resumed and normal lines
// produce a complete lineParts.
func (p *Parser) classify(line string) (lineParts, bool, error) {
	switch {
	case strings.Contains(line, "unfinished"):
		m := rePIDPrefix.FindStringSubmatch(line)
		if m == nil {
			return lineParts{}, false, NewBadLineError("unfinished line has no pid prefix", line)
		}
		pid, err := strconv.Atoi(m[1])
		if err != nil {
			return lineParts{}, false, NewBadLineError("bad pid", line)
		}
		um := reUnfinished.FindStringSubmatch(m[2])
		if um == nil {
			return lineParts{}, false, NewBadLineError("malformed unfinished line", line)
		}
		// The pid counts as observed here, before its call completes, so
		// process order follows the first sighting in the trace.
		p.process(pid)
		p.inflight[inflightKey(pid, um[1])] = um[2]
		return lineParts{}, false, nil

	case strings.Contains(line, "resumed"):
		m := reResumed.FindStringSubmatch(line)
		if m == nil {
			return lineParts{}, false, NewBadLineError("malformed resumed line", line)
		}
		pid, err := strconv.Atoi(m[1])
		if err != nil {
			return lineParts{}, false, NewBadLineError("bad pid", line)
		}
		op := m[2]

		key := inflightKey(pid, op)
		partial, ok := p.inflight[key]
		if !ok {
			// A resumed line without its unfinished half means the trace
			// is truncated or malformed.
			return lineParts{}, false, NewNotFoundError(
				fmt.Sprintf("unfinished %s call for process %d", op, pid))
		}
		delete(p.inflight, key)

		return lineParts{pid: pid, op: op, args: partial + m[3], ret: m[4]}, true, nil

	default:
		m := reFinished.FindStringSubmatch(line)
		if m == nil {
			return lineParts{}, false, NewBadLineError("line matches no call shape", line)
		}
		pid, err := strconv.Atoi(m[1])
		if err != nil {
			return lineParts{}, false, NewBadLineError("bad pid", line)
		}
		return lineParts{pid: pid, op: m[2], args: m[3], ret: m[4]}, true, nil
	}
}

// dispatch routes a finished call to its extraction rule and appends the
// emitted operations to the owning process.
func (p *Parser) dispatch(parts lineParts) error {
	proc := p.process(parts.pid)

	var op ir.Operation
	var err error
	switch parts.op {
	case "openat":
		ops, err := p.openat(parts.args, parts.ret)
		if err != nil {
			return err
		}
		for _, op := range ops {
			p.emit(proc, op)
		}
		return nil
	case "fcntl":
		op, err = p.fcntl(parts.args, parts.ret)
	case "read":
		op, err = p.read(parts.args)
	case "pread", "pread64":
		op, err = p.pread(parts.args)
	case "write":
		op, err = p.write(parts.args)
	case "mkdir":
		op, err = p.mkdir(parts.args)
	case "unlink", "unlinkat":
		op, err = p.unlink(parts.args)
	case "rename":
		op, err = p.rename(parts.args)
	case "renameat", "renameat2":
		op, err = p.renameat(parts.args)
	case "getrandom":
		op, err = p.getRandom(parts.args)
	case "stat":
		op, err = p.stat(parts.args)
	case "fstat":
		op, err = p.fstat(parts.args)
	case "statx":
		op, err = p.statx(parts.args)
	case "statfs":
		op, err = p.statfs(parts.args)
	case "fstatat", "fstatat64", "newfstatat":
		op, err = p.fstatat(parts.args)
	case "clone":
		op, err = p.cloneOp(parts.ret)
	default:
		// Out-of-scope syscall: no operation.
		return nil
	}
	return p.emitResult(proc, op, err)
}

// process returns the Process for pid, creating it on first sighting.
func (p *Parser) process(pid int) *ir.Process {
	for _, proc := range p.procs {
		if proc.PID() == pid {
			return proc
		}
	}
	proc := ir.NewProcess(pid)
	p.procs = append(p.procs, proc)
	return proc
}

// emit wraps op in a clock-stamped cell and appends it to proc's log.
func (p *Parser) emit(proc *ir.Process, op ir.Operation) {
	proc.AddOp(ir.NewCell(op, p.clock.Next()))
}

// emitResult is emit for the single-operation handlers.
func (p *Parser) emitResult(proc *ir.Process, op ir.Operation, err error) error {
	if err != nil {
		return err
	}
	p.emit(proc, op)
	return nil
}

// file interns path for this parse session.
func (p *Parser) file(path string) *ir.File {
	return p.interner.Intern(path)
}

// ExistingFiles returns the stat-derived facts sorted by path.
func (p *Parser) ExistingFiles() []ir.FileFact {
	facts := make([]ir.FileFact, 0, len(p.facts))
	for fact := range p.facts {
		facts = append(facts, fact)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Path < facts[j].Path })
	return facts
}

func inflightKey(pid int, op string) string {
	return fmt.Sprintf("%d:%s", pid, op)
}
