package beacon

// DefaultMinOverlap is the number of coincident beacons required to accept
// an alignment.
const DefaultMinOverlap = 12

// Overlap describes an accepted alignment of a candidate cloud onto a
// reference cloud.
type Overlap struct {
	Rotation Rotation
	// Offset is the candidate scanner's origin in the reference frame.
	Offset Point
	// Aligned holds the candidate points in the reference frame, in the
	// candidate's input order.
	Aligned []Point
	// Matched is the number of aligned points found in the reference.
	Matched int
}

// Detector searches for rotation and translation pairs under which two
// point clouds share at least MinOverlap points.
type Detector struct {
	MinOverlap int
}

// NewDetector returns a Detector with the given threshold. Values below
// one fall back to DefaultMinOverlap.
func NewDetector(minOverlap int) Detector {
	return Detector{MinOverlap: minOverlap}
}

func (d Detector) threshold() int {
	if d.MinOverlap <= 0 {
		return DefaultMinOverlap
	}
	return d.MinOverlap
}

// FindOverlap tries every rotation of candidate and every translation that
// maps some rotated candidate onto some reference point. The first
// alignment reaching the threshold is returned.
func (d Detector) FindOverlap(reference, candidate []Point) (Overlap, bool) {
	need := d.threshold()
	if len(reference) < need || len(candidate) < need {
		return Overlap{}, false
	}

	refSet := make(map[Point]struct{}, len(reference))
	for _, p := range reference {
		refSet[p] = struct{}{}
	}

	for _, rot := range Rotations() {
		rotated := ApplyAll(rot, candidate)
		for _, ref := range reference {
			for _, rc := range rotated {
				t := ref.Sub(rc)
				if countShifted(refSet, rotated, t, need) < need {
					continue
				}
				aligned := make([]Point, len(rotated))
				matched := 0
				for i, p := range rotated {
					aligned[i] = p.Add(t)
					if _, ok := refSet[aligned[i]]; ok {
						matched++
					}
				}
				return Overlap{Rotation: rot, Offset: t, Aligned: aligned, Matched: matched}, true
			}
		}
	}
	return Overlap{}, false
}

// countShifted counts points of pts+t present in set. It stops as soon as
// need is reached or can no longer be reached.
func countShifted(set map[Point]struct{}, pts []Point, t Point, need int) int {
	matched := 0
	for i, p := range pts {
		if _, ok := set[p.Add(t)]; ok {
			matched++
			if matched >= need {
				return matched
			}
		}
		if matched+len(pts)-i-1 < need {
			return matched
		}
	}
	return matched
}
