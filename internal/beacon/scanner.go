package beacon

import (
	"errors"
	"fmt"
)

// ScannerID identifies a scanner within one input.
type ScannerID uint16

// ErrAlreadyRegistered is returned when a scanner is registered twice.
var ErrAlreadyRegistered = errors.New("scanner already registered")

// Scanner is a local point cloud. Local is fixed at construction; the
// remaining fields are set exactly once by register.
type Scanner struct {
	ID    ScannerID
	Local []Point

	registered bool
	position   Point
	rotation   Rotation
	global     []Point
	reference  ScannerID
	relative   Point
}

// NewScanner returns an unregistered scanner owning a copy of points.
func NewScanner(id ScannerID, points []Point) *Scanner {
	local := make([]Point, len(points))
	copy(local, points)
	return &Scanner{ID: id, Local: local}
}

// Registered reports whether the scanner has an absolute position.
func (s *Scanner) Registered() bool { return s.registered }

// Position returns the absolute position and whether it is known.
func (s *Scanner) Position() (Point, bool) { return s.position, s.registered }

// Rotation returns the rotation taking local orientation to global.
func (s *Scanner) Rotation() Rotation { return s.rotation }

// Global returns the scanner's points in the global frame, or nil when
// unregistered. The slice must not be modified.
func (s *Scanner) Global() []Point { return s.global }

// Reference returns the scanner whose match registered s, and the offset
// of s relative to it. The origin scanner references itself with a zero
// offset.
func (s *Scanner) Reference() (ScannerID, Point) { return s.reference, s.relative }

func (s *Scanner) fixAsOrigin() error {
	return s.register(s.ID, Point{}, Point{}, Identity, s.Local)
}

func (s *Scanner) register(ref ScannerID, refPos, relative Point, rot Rotation, global []Point) error {
	if s.registered {
		return fmt.Errorf("scanner %d: %w", s.ID, ErrAlreadyRegistered)
	}
	if len(global) != len(s.Local) {
		return fmt.Errorf("scanner %d: global point count %d does not match local count %d", s.ID, len(global), len(s.Local))
	}
	g := make([]Point, len(global))
	copy(g, global)

	s.registered = true
	s.reference = ref
	s.relative = relative
	s.position = refPos.Add(relative)
	s.rotation = rot
	s.global = g
	return nil
}
