package beacon

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/beacon.report/internal/monitoring"
)

// OriginPolicy selects the scanner fixed at (0,0,0) before propagation.
type OriginPolicy int

const (
	// OriginLast fixes the last scanner in input order.
	OriginLast OriginPolicy = iota
	// OriginFirst fixes the first scanner in input order.
	OriginFirst
	// OriginByID fixes the scanner with a configured id.
	OriginByID
)

// Option configures an Engine.
type Option func(*Engine)

// WithMinOverlap sets the overlap threshold used by the detector.
func WithMinOverlap(n int) Option {
	return func(e *Engine) { e.detector = NewDetector(n) }
}

// WithOrigin sets the origin policy. id is only used by OriginByID.
func WithOrigin(policy OriginPolicy, id ScannerID) Option {
	return func(e *Engine) {
		e.origin = policy
		e.originID = id
	}
}

// WithWorkers evaluates the pairs of a round on up to n goroutines.
// Results are applied in the same order as the serial engine.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithLogf routes progress messages to logf. nil mutes them.
func WithLogf(logf func(format string, v ...interface{})) Option {
	return func(e *Engine) {
		if logf == nil {
			logf = func(string, ...interface{}) {}
		}
		e.logf = logf
	}
}

// Engine propagates registrations from an origin scanner to every other
// scanner it can reach through overlaps.
type Engine struct {
	detector Detector
	origin   OriginPolicy
	originID ScannerID
	workers  int
	logf     func(format string, v ...interface{})
}

// NewEngine returns an Engine with the default threshold, last-scanner
// origin and a single worker.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{detector: NewDetector(DefaultMinOverlap), workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a successful registration.
type Result struct {
	// Scanners are registered copies of the input, in input order.
	Scanners    []*Scanner
	Beacons     *BeaconSet
	Origin      ScannerID
	Rounds      int
	Comparisons int
}

// Scanner returns the registered scanner with the given id.
func (r *Result) Scanner(id ScannerID) (*Scanner, bool) {
	for _, s := range r.Scanners {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// MaxManhattan returns the largest L1 distance between any two scanner
// positions.
func (r *Result) MaxManhattan() int {
	best := 0
	for i, a := range r.Scanners {
		pa, _ := a.Position()
		for _, b := range r.Scanners[i+1:] {
			pb, _ := b.Position()
			if d := pa.Manhattan(pb); d > best {
				best = d
			}
		}
	}
	return best
}

type pairKey struct {
	fixed, pending ScannerID
}

type registry struct {
	fixed    []*Scanner
	pending  []*Scanner
	compared map[pairKey]struct{}
	beacons  *BeaconSet
	compares int
}

// Register resolves every scanner's absolute position. The input scanners
// are not modified; the Result holds registered copies.
func (e *Engine) Register(ctx context.Context, scanners []*Scanner) (*Result, error) {
	if len(scanners) == 0 {
		return nil, ErrNoScanners
	}

	work := make([]*Scanner, len(scanners))
	seen := make(map[ScannerID]struct{}, len(scanners))
	for i, s := range scanners {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("scanner %d: %w", s.ID, ErrDuplicateScanner)
		}
		seen[s.ID] = struct{}{}
		work[i] = NewScanner(s.ID, s.Local)
	}

	originIdx, err := e.pickOrigin(work)
	if err != nil {
		return nil, err
	}
	origin := work[originIdx]
	if err := origin.fixAsOrigin(); err != nil {
		return nil, err
	}

	reg := &registry{
		fixed:    []*Scanner{origin},
		compared: make(map[pairKey]struct{}),
		beacons:  NewBeaconSet(),
	}
	for i, s := range work {
		if i != originIdx {
			reg.pending = append(reg.pending, s)
		}
	}
	reg.beacons.AddAll(origin.Global())
	e.log("fixed scanner %d as origin with %d beacons", origin.ID, len(origin.Local))

	rounds := 0
	for len(reg.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rounds++

		var added int
		if e.workers > 1 {
			added, err = e.roundParallel(ctx, reg)
		} else {
			added, err = e.roundSerial(ctx, reg)
		}
		if err != nil {
			return nil, err
		}
		e.log("round %d: registered %d, %d pending, %d beacons", rounds, added, len(reg.pending), reg.beacons.Count())

		if added == 0 {
			ids := make([]ScannerID, len(reg.pending))
			for i, s := range reg.pending {
				ids[i] = s.ID
			}
			return nil, &UnsolvableError{Pending: ids}
		}
	}

	return &Result{
		Scanners:    work,
		Beacons:     reg.beacons,
		Origin:      origin.ID,
		Rounds:      rounds,
		Comparisons: reg.compares,
	}, nil
}

func (e *Engine) pickOrigin(scanners []*Scanner) (int, error) {
	switch e.origin {
	case OriginFirst:
		return 0, nil
	case OriginByID:
		for i, s := range scanners {
			if s.ID == e.originID {
				return i, nil
			}
		}
		return 0, fmt.Errorf("scanner %d: %w", e.originID, ErrUnknownOrigin)
	default:
		return len(scanners) - 1, nil
	}
}

// roundSerial compares each fixed scanner from the start of the round
// against each pending scanner it has not seen yet.
func (e *Engine) roundSerial(ctx context.Context, reg *registry) (int, error) {
	snapshot := append([]*Scanner(nil), reg.fixed...)
	added := 0
	for _, f := range snapshot {
		for _, u := range append([]*Scanner(nil), reg.pending...) {
			key := pairKey{fixed: f.ID, pending: u.ID}
			if _, done := reg.compared[key]; done {
				continue
			}
			if err := ctx.Err(); err != nil {
				return added, err
			}
			reg.compared[key] = struct{}{}
			reg.compares++

			ov, ok := e.detector.FindOverlap(f.Global(), u.Local)
			if !ok {
				continue
			}
			if err := e.fix(reg, f, u, ov); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

type pairResult struct {
	fixed, pending *Scanner
	overlap        Overlap
	ok             bool
}

// roundParallel evaluates every uncompared pair of the round concurrently,
// then applies matches in serial order so the first fixed scanner wins.
func (e *Engine) roundParallel(ctx context.Context, reg *registry) (int, error) {
	var results []pairResult
	for _, f := range reg.fixed {
		for _, u := range reg.pending {
			key := pairKey{fixed: f.ID, pending: u.ID}
			if _, done := reg.compared[key]; done {
				continue
			}
			reg.compared[key] = struct{}{}
			results = append(results, pairResult{fixed: f, pending: u})
		}
	}
	reg.compares += len(results)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := &results[i]
			r.overlap, r.ok = e.detector.FindOverlap(r.fixed.Global(), r.pending.Local)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	added := 0
	for _, r := range results {
		if !r.ok || r.pending.Registered() {
			continue
		}
		if err := e.fix(reg, r.fixed, r.pending, r.overlap); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// fix registers u through its match against f and moves it to the fixed
// list.
func (e *Engine) fix(reg *registry, f, u *Scanner, ov Overlap) error {
	fpos, _ := f.Position()
	if err := u.register(f.ID, fpos, ov.Offset.Sub(fpos), ov.Rotation, ov.Aligned); err != nil {
		return err
	}
	reg.fixed = append(reg.fixed, u)
	for i, p := range reg.pending {
		if p == u {
			reg.pending = append(reg.pending[:i], reg.pending[i+1:]...)
			break
		}
	}
	n := reg.beacons.AddAll(u.Global())
	pos, _ := u.Position()
	e.log("registered scanner %d via scanner %d at %v (rotation %d, %d shared, %d new beacons)",
		u.ID, f.ID, pos, ov.Rotation, ov.Matched, n)
	return nil
}

func (e *Engine) log(format string, v ...interface{}) {
	if e.logf != nil {
		e.logf(format, v...)
		return
	}
	monitoring.Logf(format, v...)
}
