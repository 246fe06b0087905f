package beacon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disjointA and disjointB share no alignment of more than one point under
// any rotation or translation.
var disjointA = []Point{
	{-338, -744, -725}, {-542, 298, 23}, {529, -450, 285}, {-619, 390, -22},
	{-87, 691, -349}, {-8, -537, 392}, {-26, -624, 362}, {823, 519, 74},
	{-318, -679, -192}, {-878, 24, 249}, {-298, -177, 392}, {-671, -747, 136},
	{-709, -14, -229}, {296, -704, 579}, {-694, -570, -89},
}

var disjointB = []Point{
	{-576, 721, -153}, {-479, -620, -737}, {-663, -837, -200}, {619, -205, 209},
	{-806, 247, 642}, {-338, 581, -847}, {220, 293, 611}, {506, -49, -535},
	{611, -674, -821}, {-885, -45, -206}, {-828, 330, -83}, {143, 80, -172},
	{216, -412, -382}, {326, 152, -346}, {-218, -531, 714},
}

func TestRegister_Unsolvable(t *testing.T) {
	t.Parallel()
	scanners := []*Scanner{NewScanner(0, disjointA), NewScanner(1, disjointB)}

	for _, workers := range []int{1, 2} {
		res, err := NewEngine(WithLogf(nil), WithWorkers(workers)).Register(context.Background(), scanners)
		require.Error(t, err)
		assert.Nil(t, res, "no partial result on failure")
		assert.True(t, errors.Is(err, ErrUnsolvableOverlapGraph))

		var ue *UnsolvableError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, []ScannerID{0}, ue.Pending)
	}
}

func TestRegister_ElevenSharedBeaconsStaysPending(t *testing.T) {
	t.Parallel()
	reference, candidate := fixture(11)
	scanners := []*Scanner{NewScanner(1, candidate), NewScanner(0, reference)}

	_, err := NewEngine(WithLogf(nil)).Register(context.Background(), scanners)
	assert.ErrorIs(t, err, ErrUnsolvableOverlapGraph)

	res, err := NewEngine(WithLogf(nil), WithMinOverlap(11)).Register(context.Background(), scanners)
	require.NoError(t, err)
	assert.Equal(t, len(reference)+len(candidateOnly), res.Beacons.Count())
}

func TestRegister_TwelveSharedBeacons(t *testing.T) {
	t.Parallel()
	reference, candidate := fixture(12)
	scanners := []*Scanner{NewScanner(1, candidate), NewScanner(0, reference)}

	res, err := NewEngine(WithLogf(nil)).Register(context.Background(), scanners)
	require.NoError(t, err)

	c, ok := res.Scanner(1)
	require.True(t, ok)
	pos, _ := c.Position()
	assert.Equal(t, Point{1203, 455, -37}, pos)
	assert.Equal(t, Inverse(9), c.Rotation())
	ref, rel := c.Reference()
	assert.Equal(t, ScannerID(0), ref)
	assert.Equal(t, pos, rel, "relative offset to the origin is the position")
	assert.Equal(t, 12+len(referenceOnly)+len(candidateOnly), res.Beacons.Count())
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, 1, res.Comparisons)
}

// Four groups of twelve beacons. The origin sees groups 0 and 1, scanner
// A sees 0 and 2, B sees 1 and 2, and U sees 2 and 3: U overlaps A and B
// but not the origin.
var beaconGroups = [4][]Point{
	{{486, -812, 707}, {165, -653, 147}, {-492, -95, -189}, {183, -308, 297}, {-597, 318, -366}, {-680, -367, -57}, {-230, -352, 809}, {-680, 683, -234}, {-263, -854, 265}, {364, -488, 900}, {-756, -486, -667}, {210, 33, -105}},
	{{873, 602, -750}, {744, -699, -52}, {-866, -697, 285}, {590, -34, 647}, {846, -89, 1}, {448, -288, 268}, {128, 807, -576}, {721, 404, -68}, {-424, 686, 216}, {280, 597, -680}, {741, -476, -101}, {-508, -617, -625}},
	{{382, 110, -686}, {220, 544, 38}, {-886, 30, 82}, {316, -655, 165}, {83, 788, 124}, {111, -145, -23}, {209, 873, -525}, {-895, -399, -713}, {-847, 54, -129}, {25, -668, 484}, {544, 436, -362}, {-638, 74, -319}},
	{{20, -74, -300}, {606, -550, 44}, {-2, -284, -269}, {487, 667, -808}, {-742, -472, -263}, {507, 640, -39}, {-693, 48, -764}, {59, 135, 24}, {444, -867, -542}, {-6, 429, -338}, {-746, -726, -642}, {-550, -20, -315}},
}

func observe(id ScannerID, pos Point, groups ...int) *Scanner {
	var local []Point
	for _, g := range groups {
		for _, p := range beaconGroups[g] {
			local = append(local, p.Sub(pos))
		}
	}
	return NewScanner(id, local)
}

func TestRegister_FirstFixedMatchWins(t *testing.T) {
	t.Parallel()
	const (
		idA ScannerID = 1
		idB ScannerID = 2
		idU ScannerID = 3
		idO ScannerID = 9
	)
	scanners := []*Scanner{
		observe(idA, Point{X: 100}, 0, 2),
		observe(idB, Point{Y: 200}, 1, 2),
		observe(idU, Point{Z: -300}, 2, 3),
		observe(idO, Point{}, 0, 1),
	}

	for _, workers := range []int{1, 3} {
		res, err := NewEngine(WithLogf(nil), WithWorkers(workers)).Register(context.Background(), scanners)
		require.NoError(t, err)

		u, _ := res.Scanner(idU)
		ref, rel := u.Reference()
		assert.Equal(t, idA, ref, "A precedes B in fixed order and wins (workers=%d)", workers)
		assert.Equal(t, Point{X: -100, Z: -300}, rel)
		pos, _ := u.Position()
		assert.Equal(t, Point{Z: -300}, pos)

		assert.Equal(t, 2, res.Rounds)
		assert.Equal(t, 48, res.Beacons.Count())
	}

	serial, err := NewEngine(WithLogf(nil)).Register(context.Background(), scanners)
	require.NoError(t, err)
	assert.Equal(t, 4, serial.Comparisons, "B is never compared with U once A registered it")
}

func TestScanner_RegisterOnce(t *testing.T) {
	t.Parallel()
	s := NewScanner(4, []Point{{X: 1}})
	require.NoError(t, s.fixAsOrigin())

	err := s.register(0, Point{}, Point{X: 1}, Identity, []Point{{X: 2}})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	pos, ok := s.Position()
	assert.True(t, ok)
	assert.Equal(t, Point{}, pos, "position assigned exactly once")

	fresh := NewScanner(5, []Point{{X: 1}, {X: 2}})
	assert.Error(t, fresh.register(0, Point{}, Point{}, Identity, []Point{{X: 1}}), "length mismatch")
	assert.False(t, fresh.Registered())
}

func TestNewScanner_CopiesPoints(t *testing.T) {
	t.Parallel()
	pts := []Point{{X: 1}}
	s := NewScanner(0, pts)
	pts[0] = Point{X: 9}
	assert.Equal(t, Point{X: 1}, s.Local[0])
}
