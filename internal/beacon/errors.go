package beacon

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsolvableOverlapGraph reports that a full round over every
	// (fixed, pending) pair registered nothing while scanners remained.
	ErrUnsolvableOverlapGraph = errors.New("unsolvable overlap graph")
	// ErrNoScanners is returned when registration is asked to run on an
	// empty input.
	ErrNoScanners = errors.New("no scanners to register")
	// ErrDuplicateScanner is returned when two scanners share an id.
	ErrDuplicateScanner = errors.New("duplicate scanner id")
	// ErrUnknownOrigin is returned when the requested origin id is absent.
	ErrUnknownOrigin = errors.New("unknown origin scanner")
)

// UnsolvableError carries the scanners left pending when registration
// stalled.
type UnsolvableError struct {
	Pending []ScannerID
}

func (e *UnsolvableError) Error() string {
	return fmt.Sprintf("%v: %d scanner(s) could not be registered: %v", ErrUnsolvableOverlapGraph, len(e.Pending), e.Pending)
}

// Is makes errors.Is(err, ErrUnsolvableOverlapGraph) hold.
func (e *UnsolvableError) Is(target error) bool {
	return target == ErrUnsolvableOverlapGraph
}
