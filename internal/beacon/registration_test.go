package beacon_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/beacon.report/internal/beacon"
	"github.com/banshee-data/beacon.report/internal/beacon/parse"
	"github.com/banshee-data/beacon.report/internal/testutil"
)

func sampleScanners(t *testing.T) []*beacon.Scanner {
	t.Helper()
	scanners, err := parse.Parse(testutil.SampleReader())
	require.NoError(t, err)
	return scanners
}

func quiet() beacon.Option { return beacon.WithLogf(nil) }

func positions(t *testing.T, res *beacon.Result) map[beacon.ScannerID]beacon.Point {
	t.Helper()
	out := make(map[beacon.ScannerID]beacon.Point, len(res.Scanners))
	for _, s := range res.Scanners {
		pos, ok := s.Position()
		require.True(t, ok, "scanner %d unregistered", s.ID)
		out[s.ID] = pos
	}
	return out
}

func TestRegister_Sample(t *testing.T) {
	t.Parallel()
	res, err := beacon.NewEngine(quiet()).Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	assert.Len(t, res.Scanners, testutil.SampleScannerCount)
	assert.Equal(t, beacon.ScannerID(4), res.Origin, "last scanner is the origin by default")
	assert.Equal(t, testutil.SampleBeaconCount, res.Beacons.Count())
	assert.Equal(t, testutil.SampleMaxManhattan, res.MaxManhattan())

	want := map[beacon.ScannerID]beacon.Point{
		0: {X: -1061, Y: -20, Z: -1133},
		1: {X: -1104, Y: -88, Z: 113},
		2: {X: 168, Y: -1125, Z: 72},
		3: {X: -1081, Y: 72, Z: 1247},
		4: {},
	}
	if diff := cmp.Diff(want, positions(t, res)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_OriginFirstMatchesPublishedPositions(t *testing.T) {
	t.Parallel()
	res, err := beacon.NewEngine(quiet(), beacon.WithOrigin(beacon.OriginFirst, 0)).
		Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	want := map[beacon.ScannerID]beacon.Point{
		0: {},
		1: {X: 68, Y: -1246, Z: -43},
		2: {X: 1105, Y: -1205, Z: 1229},
		3: {X: -92, Y: -2380, Z: -20},
		4: {X: -20, Y: -1133, Z: 1061},
	}
	if diff := cmp.Diff(want, positions(t, res)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, testutil.SampleBeaconCount, res.Beacons.Count())
	assert.Equal(t, testutil.SampleMaxManhattan, res.MaxManhattan())

	// Spot-check beacons reported in the published walkthrough.
	for _, p := range []beacon.Point{
		{X: -618, Y: -824, Z: -621},
		{X: 459, Y: -707, Z: 401},
		{X: -739, Y: -1745, Z: 668},
		{X: 1889, Y: -1729, Z: 1762},
	} {
		assert.True(t, res.Beacons.Contains(p), "missing beacon %v", p)
	}
}

func TestRegister_OriginByID(t *testing.T) {
	t.Parallel()
	res, err := beacon.NewEngine(quiet(), beacon.WithOrigin(beacon.OriginByID, 2)).
		Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	assert.Equal(t, beacon.ScannerID(2), res.Origin)
	origin, ok := res.Scanner(2)
	require.True(t, ok)
	pos, _ := origin.Position()
	assert.Equal(t, beacon.Point{}, pos)
	assert.Equal(t, testutil.SampleBeaconCount, res.Beacons.Count())
	assert.Equal(t, testutil.SampleMaxManhattan, res.MaxManhattan())
}

func TestRegister_RegisteredStateIsConsistent(t *testing.T) {
	t.Parallel()
	res, err := beacon.NewEngine(quiet()).Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	viaNonOrigin := 0
	for _, s := range res.Scanners {
		require.True(t, s.Registered())
		pos, _ := s.Position()
		require.Len(t, s.Global(), len(s.Local))

		for i, p := range s.Local {
			assert.Equal(t, beacon.Apply(s.Rotation(), p).Add(pos), s.Global()[i], "scanner %d point %d", s.ID, i)
			assert.True(t, res.Beacons.Contains(s.Global()[i]))
		}

		ref, rel := s.Reference()
		refScanner, ok := res.Scanner(ref)
		require.True(t, ok)
		refPos, _ := refScanner.Position()
		assert.Equal(t, pos, refPos.Add(rel), "offsets compose along the match chain")
		if ref != res.Origin {
			viaNonOrigin++
		}
	}
	assert.Positive(t, viaNonOrigin, "sample needs at least one indirect registration")
}

func TestRegister_DeterministicAndInputUntouched(t *testing.T) {
	t.Parallel()
	scanners := sampleScanners(t)
	engine := beacon.NewEngine(quiet())

	first, err := engine.Register(context.Background(), scanners)
	require.NoError(t, err)
	for _, s := range scanners {
		assert.False(t, s.Registered(), "input scanner %d was modified", s.ID)
	}

	second, err := engine.Register(context.Background(), scanners)
	require.NoError(t, err)

	if diff := cmp.Diff(positions(t, first), positions(t, second)); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Beacons.Points(), second.Beacons.Points())
	assert.Equal(t, first.Comparisons, second.Comparisons)
	assert.Equal(t, first.Rounds, second.Rounds)
}

func TestRegister_WorkersMatchSerial(t *testing.T) {
	t.Parallel()
	serial, err := beacon.NewEngine(quiet()).Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()
			parallel, err := beacon.NewEngine(quiet(), beacon.WithWorkers(workers)).
				Register(context.Background(), sampleScanners(t))
			require.NoError(t, err)

			if diff := cmp.Diff(positions(t, serial), positions(t, parallel)); diff != "" {
				t.Errorf("parallel positions differ (-serial +parallel):\n%s", diff)
			}
			for _, s := range serial.Scanners {
				p, _ := parallel.Scanner(s.ID)
				sref, _ := s.Reference()
				pref, _ := p.Reference()
				assert.Equal(t, sref, pref, "scanner %d registered through a different reference", s.ID)
				assert.Equal(t, s.Rotation(), p.Rotation())
			}
			assert.Equal(t, serial.Beacons.Count(), parallel.Beacons.Count())
		})
	}
}

func TestRegister_SingleScanner(t *testing.T) {
	t.Parallel()
	only := beacon.NewScanner(3, []beacon.Point{{X: 1}, {X: 2}, {X: 1}})
	res, err := beacon.NewEngine(quiet()).Register(context.Background(), []*beacon.Scanner{only})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rounds)
	assert.Equal(t, 2, res.Beacons.Count())
	assert.Equal(t, 0, res.MaxManhattan())
}

func TestRegister_InputErrors(t *testing.T) {
	t.Parallel()
	a := beacon.NewScanner(0, nil)
	b := beacon.NewScanner(1, nil)

	_, err := beacon.NewEngine(quiet()).Register(context.Background(), nil)
	assert.ErrorIs(t, err, beacon.ErrNoScanners)

	_, err = beacon.NewEngine(quiet()).Register(context.Background(), []*beacon.Scanner{a, b, beacon.NewScanner(0, nil)})
	assert.ErrorIs(t, err, beacon.ErrDuplicateScanner)

	_, err = beacon.NewEngine(quiet(), beacon.WithOrigin(beacon.OriginByID, 9)).
		Register(context.Background(), []*beacon.Scanner{a, b})
	assert.ErrorIs(t, err, beacon.ErrUnknownOrigin)
}

func TestRegister_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := beacon.NewEngine(quiet(), beacon.WithWorkers(workers)).Register(ctx, sampleScanners(t))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestRegister_LogsProgress(t *testing.T) {
	t.Parallel()
	var lines []string
	logf := func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	}
	_, err := beacon.NewEngine(beacon.WithLogf(logf)).Register(context.Background(), sampleScanners(t))
	require.NoError(t, err)

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "fixed scanner 4 as origin")
	assert.Equal(t, 4, strings.Count(joined, "registered scanner "))
}

func TestFindOverlap_SampleSymmetric(t *testing.T) {
	t.Parallel()
	scanners := sampleScanners(t)
	d := beacon.NewDetector(beacon.DefaultMinOverlap)

	forward, ok := d.FindOverlap(scanners[0].Local, scanners[1].Local)
	require.True(t, ok)
	assert.Equal(t, beacon.Point{X: 68, Y: -1246, Z: -43}, forward.Offset)
	assert.GreaterOrEqual(t, forward.Matched, beacon.DefaultMinOverlap)

	_, ok = d.FindOverlap(scanners[1].Local, scanners[0].Local)
	assert.True(t, ok, "swapping reference and candidate must still match")

	_, ok = d.FindOverlap(scanners[0].Local, scanners[2].Local)
	assert.False(t, ok, "scanners 0 and 2 do not overlap directly")
}

func TestUnsolvableError(t *testing.T) {
	t.Parallel()
	err := error(&beacon.UnsolvableError{Pending: []beacon.ScannerID{2, 5}})
	assert.True(t, errors.Is(err, beacon.ErrUnsolvableOverlapGraph))
	assert.Contains(t, err.Error(), "2 scanner(s)")
	assert.False(t, errors.Is(err, beacon.ErrNoScanners))
}
