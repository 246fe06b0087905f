package beacon

import "sort"

// BeaconSet is the append-only union of globally positioned beacons.
type BeaconSet struct {
	points map[Point]struct{}
}

// NewBeaconSet returns an empty set.
func NewBeaconSet() *BeaconSet {
	return &BeaconSet{points: make(map[Point]struct{})}
}

// AddAll inserts every point not already present and returns how many
// were new.
func (b *BeaconSet) AddAll(points []Point) int {
	added := 0
	for _, p := range points {
		if _, ok := b.points[p]; ok {
			continue
		}
		b.points[p] = struct{}{}
		added++
	}
	return added
}

// Contains reports whether p is in the set.
func (b *BeaconSet) Contains(p Point) bool {
	_, ok := b.points[p]
	return ok
}

// Count returns the number of unique beacons.
func (b *BeaconSet) Count() int {
	return len(b.points)
}

// Points returns the beacons sorted by X, then Y, then Z.
func (b *BeaconSet) Points() []Point {
	out := make([]Point, 0, len(b.points))
	for p := range b.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}
