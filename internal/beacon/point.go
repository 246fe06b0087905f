package beacon

import "fmt"

// Point is an integer 3D coordinate. Points compare by value and are
// safe to use as map keys.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Neg returns -p.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y, Z: -p.Z}
}

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) int {
	d := p.Sub(q)
	return abs(d.X) + abs(d.Y) + abs(d.Z)
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
