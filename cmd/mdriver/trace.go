package main

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// OpKind is a single request type in a trace
type OpKind byte

const (
	OpAllocate OpKind = 'a'
	OpRelease  OpKind = 'f'
	OpResize   OpKind = 'r'
)

func (k OpKind) String() string {
	switch k {
	case OpAllocate:
		return "alloc"
	case OpRelease:
		return "free"
	case OpResize:
		return "realloc"
	}
	return "unknown"
}

// initialOpsCapacity bounds the up-front allocation for a trace's requests; the header's count
// is only trusted once the requests have been read
const initialOpsCapacity = 1024

// Op is one trace request. Size is unused for OpRelease.
type Op struct {
	Kind OpKind
	ID   int
	Size int
	Line int
}

// Trace is a parsed .rep file: a four line header followed by one request per line
type Trace struct {
	Name              string
	SuggestedHeapSize int
	NumIDs            int
	Weight            int
	Ops               []Op
}

// LoadTrace reads and parses the trace file at path
func LoadTrace(path string) (*Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening trace %s", path)
	}
	defer file.Close()

	return ParseTrace(filepath.Base(path), file)
}

// ParseTrace parses a trace. The header holds the suggested heap size, the number of distinct
// block ids, the number of requests and a weight, one per line. Each request after it is
// "a id size", "r id size" or "f id". Blank lines and lines starting with '#' are skipped.
func ParseTrace(name string, r io.Reader) (*Trace, error) {
	trace := &Trace{Name: name}
	scanner := bufio.NewScanner(r)

	var header []int
	numOps := -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if len(header) < 4 {
			value, err := strconv.Atoi(line)
			if err != nil || value < 0 {
				return nil, errors.Newf("%s:%d: malformed header value %q", name, lineNo, line)
			}
			header = append(header, value)
			if len(header) == 4 {
				trace.SuggestedHeapSize, trace.NumIDs, numOps, trace.Weight = header[0], header[1], header[2], header[3]
				if trace.NumIDs > numOps {
					return nil, errors.Newf("%s:%d: the header declares %d block ids but only %d requests", name, lineNo, trace.NumIDs, numOps)
				}
				trace.Ops = make([]Op, 0, min(numOps, initialOpsCapacity))
			}
			continue
		}

		op, err := parseOp(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, lineNo)
		}
		if op.ID >= trace.NumIDs {
			return nil, errors.Newf("%s:%d: block id %d is outside the %d ids the header declares", name, lineNo, op.ID, trace.NumIDs)
		}
		op.Line = lineNo
		trace.Ops = append(trace.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading trace %s", name)
	}

	if len(header) < 4 {
		return nil, errors.Newf("%s: truncated header: expected 4 values, found %d", name, len(header))
	}
	if len(trace.Ops) != numOps {
		return nil, errors.Newf("%s: the header declares %d requests, but the trace holds %d", name, numOps, len(trace.Ops))
	}

	return trace, nil
}

func parseOp(line string) (Op, error) {
	fields := strings.Fields(line)
	kind := OpKind(fields[0][0])
	if len(fields[0]) != 1 {
		kind = 0
	}

	expected := 3
	switch kind {
	case OpAllocate, OpResize:
	case OpRelease:
		expected = 2
	default:
		return Op{}, errors.Newf("unknown request %q", fields[0])
	}
	if len(fields) != expected {
		return Op{}, errors.Newf("%s request takes %d fields, found %d", kind, expected, len(fields))
	}

	op := Op{Kind: kind}
	var err error
	if op.ID, err = strconv.Atoi(fields[1]); err != nil || op.ID < 0 {
		return Op{}, errors.Newf("malformed block id %q", fields[1])
	}
	if expected == 3 {
		if op.Size, err = strconv.Atoi(fields[2]); err != nil || op.Size < 0 {
			return Op{}, errors.Newf("malformed size %q", fields[2])
		}
	}
	return op, nil
}
