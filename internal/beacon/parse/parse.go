// Package parse reads scanner reports in the block text format:
//
//	--- scanner 0 ---
//	404,-588,-901
//	528,-643,409
//
//	--- scanner 1 ---
//	686,422,578
//
// Each header opens a block; every following non-blank line is one beacon
// as three comma-separated integers in that scanner's local frame.
package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/beacon.report/internal/beacon"
)

// ErrMalformedInput matches every error produced for unreadable content.
var ErrMalformedInput = errors.New("malformed input")

// MalformedError reports the offending line of a scanner report.
type MalformedError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("line %d: %v: %s (%q)", e.Line, ErrMalformedInput, e.Reason, e.Text)
}

// Is makes errors.Is(err, ErrMalformedInput) hold.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedInput
}

const headerPrefix = "---"

// ParseFile reads scanner reports from path.
func ParseFile(path string) ([]*beacon.Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scanner report: %w", err)
	}
	defer f.Close()

	scanners, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scanners, nil
}

// Parse reads scanner reports from r, in input order.
func Parse(r io.Reader) ([]*beacon.Scanner, error) {
	var (
		scanners []*beacon.Scanner
		id       beacon.ScannerID
		points   []beacon.Point
		open     bool
	)
	seen := make(map[beacon.ScannerID]int)

	flush := func() {
		if open {
			scanners = append(scanners, beacon.NewScanner(id, points))
		}
		points = nil
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, headerPrefix) {
			next, err := parseHeader(line)
			if err != nil {
				return nil, &MalformedError{Line: lineNo, Text: raw, Reason: err.Error()}
			}
			if first, dup := seen[next]; dup {
				return nil, &MalformedError{Line: lineNo, Text: raw, Reason: fmt.Sprintf("duplicate scanner id %d, first seen on line %d", next, first)}
			}
			seen[next] = lineNo
			flush()
			id, open = next, true
			continue
		}

		if !open {
			return nil, &MalformedError{Line: lineNo, Text: raw, Reason: "coordinates before any scanner header"}
		}
		p, err := parsePoint(line)
		if err != nil {
			return nil, &MalformedError{Line: lineNo, Text: raw, Reason: err.Error()}
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scanner report: %w", err)
	}
	flush()
	return scanners, nil
}

// parseHeader accepts "--- scanner N ---" with the trailing dashes optional.
func parseHeader(line string) (beacon.ScannerID, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != headerPrefix || fields[1] != "scanner" {
		return 0, errors.New("header must look like \"--- scanner N ---\"")
	}
	if len(fields) > 4 || (len(fields) == 4 && fields[3] != headerPrefix) {
		return 0, errors.New("unexpected text after scanner id")
	}
	n, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid scanner id %q", fields[2])
	}
	return beacon.ScannerID(n), nil
}

func parsePoint(line string) (beacon.Point, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return beacon.Point{}, fmt.Errorf("expected 3 coordinates, got %d", len(parts))
	}
	var xyz [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return beacon.Point{}, fmt.Errorf("invalid coordinate %q", strings.TrimSpace(part))
		}
		xyz[i] = v
	}
	return beacon.Point{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
