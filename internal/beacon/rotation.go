package beacon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationCount is the number of proper rotations of a cube.
const RotationCount = 24

// RotationValidationTolerance bounds the orthonormality and determinant
// checks in IsProperRotation.
const RotationValidationTolerance = 1e-9

// Rotation indexes one of the 24 axis-aligned proper rotations.
// Index i applies baseRotations[i/6] followed by faceRotations[i%6].
type Rotation int

// Identity is the rotation that leaves every point unchanged.
const Identity Rotation = 0

func rotX(p Point) Point { return Point{X: p.X, Y: -p.Z, Z: p.Y} }
func rotY(p Point) Point { return Point{X: -p.Z, Y: p.Y, Z: p.X} }
func rotZ(p Point) Point { return Point{X: -p.Y, Y: p.X, Z: p.Z} }

// baseRotations is the cyclic group of quarter turns about X.
var baseRotations = [4]func(Point) Point{
	func(p Point) Point { return p },
	rotX,
	func(p Point) Point { return rotX(rotX(p)) },
	func(p Point) Point { return rotX(rotX(rotX(p))) },
}

// faceRotations carry +X onto +X, +Y, -X, -Y, +Z and -Z.
var faceRotations = [6]func(Point) Point{
	func(p Point) Point { return p },
	rotZ,
	func(p Point) Point { return rotZ(rotZ(p)) },
	func(p Point) Point { return rotZ(rotZ(rotZ(p))) },
	rotY,
	func(p Point) Point { return rotY(rotY(rotY(p))) },
}

// probe has distinct coordinate magnitudes, so its image identifies a
// rotation uniquely.
var probe = Point{X: 1, Y: 2, Z: 3}

// Rotations returns all rotations in table order.
func Rotations() []Rotation {
	out := make([]Rotation, RotationCount)
	for i := range out {
		out[i] = Rotation(i)
	}
	return out
}

// Valid reports whether r is inside the table.
func (r Rotation) Valid() bool {
	return r >= 0 && r < RotationCount
}

func (r Rotation) mustValid() {
	if !r.Valid() {
		panic(fmt.Sprintf("beacon: rotation index %d out of range [0,%d)", int(r), RotationCount))
	}
}

// Apply rotates p by r. It panics if r is out of range.
func Apply(r Rotation, p Point) Point {
	r.mustValid()
	return faceRotations[int(r)%6](baseRotations[int(r)/6](p))
}

// ApplyAll rotates every point by r, preserving order.
func ApplyAll(r Rotation, points []Point) []Point {
	r.mustValid()
	base, face := baseRotations[int(r)/6], faceRotations[int(r)%6]
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = face(base(p))
	}
	return out
}

// Compose returns the rotation equivalent to applying a and then b.
func Compose(a, b Rotation) Rotation {
	return lookup(Apply(b, Apply(a, probe)))
}

// Inverse returns the rotation that undoes r.
func Inverse(r Rotation) Rotation {
	r.mustValid()
	for _, c := range Rotations() {
		if Compose(r, c) == Identity {
			return c
		}
	}
	panic(fmt.Sprintf("beacon: rotation %d has no inverse", int(r)))
}

func lookup(image Point) Rotation {
	for _, r := range Rotations() {
		if Apply(r, probe) == image {
			return r
		}
	}
	panic(fmt.Sprintf("beacon: %v is not the image of a table rotation", image))
}

// Matrix returns r as a 3x3 matrix whose columns are the images of the
// unit axes.
func (r Rotation) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	axes := [3]Point{{X: 1}, {Y: 1}, {Z: 1}}
	for col, axis := range axes {
		img := Apply(r, axis)
		m.Set(0, col, float64(img.X))
		m.Set(1, col, float64(img.Y))
		m.Set(2, col, float64(img.Z))
	}
	return m
}

// IsProperRotation reports whether m is a 3x3 orthonormal matrix with
// determinant +1 (no reflection).
func IsProperRotation(m mat.Matrix) bool {
	rows, cols := m.Dims()
	if rows != 3 || cols != 3 {
		return false
	}
	if math.Abs(mat.Det(m)-1) > RotationValidationTolerance {
		return false
	}
	var mtm mat.Dense
	mtm.Mul(m.T(), m)
	return mat.EqualApprox(&mtm, identity3, RotationValidationTolerance)
}

var identity3 = mat.NewDiagDense(3, []float64{1, 1, 1})
