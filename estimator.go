package montecarlo

import (
	crand "crypto/rand"
	"encoding/binary"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"go.uber.org/atomic"
)

// Integrand is the user-supplied function to integrate. It must be pure
// and safe to call from multiple goroutines. The argument slice is reused
// between calls; implementations must not retain it.
type Integrand func(x []float64) float64

const (
	// callsPerBatch is the number of evaluations a worker performs between
	// publishes. Publishing every call would be cache-line contention;
	// publishing rarely risks premature termination off a too-small
	// variance estimate. 1/√2048 ≈ 0.02, so each batch resolves the
	// relative standard error to about two digits.
	callsPerBatch = 2048

	// pollInterval is how often the supervisor aggregates the worker
	// slots and checks the error goal.
	pollInterval = 100 * time.Millisecond
)

// seedStream is the fixed second word of every PCG seed pair.
const seedStream = 0x9e3779b97f4a7c15

// Config controls estimator construction.
type Config struct {
	// Singular perturbs finite endpoints one representable step inward
	// so integrands with integrable boundary singularities are only
	// evaluated on the open box.
	Singular bool

	// Threads is the number of worker goroutines per run. Values below 1
	// are coerced to 1.
	Threads int

	// Seed selects the sample streams. Zero means draw a fresh seed from
	// operating-system entropy on every run; any other value gives a
	// reproducible run for a fixed thread count.
	Seed uint64

	// Logger receives run lifecycle events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults: singular mode on, one worker
// per CPU, entropy seeding.
func DefaultConfig() Config {
	return Config{
		Singular: true,
		Threads:  runtime.NumCPU(),
	}
}

// MonteCarlo is a restartable parallel Monte Carlo estimator for one
// integrand over one box. All observer methods are wait-free atomic reads,
// safe to call concurrently with a run; Cancel and UpdateTargetError may
// also be called mid-run. The estimator may be reused for another run
// after a run resolves.
type MonteCarlo struct {
	f       Integrand
	dom     *domain
	threads int
	log     *slog.Logger

	seed atomic.Uint64

	// Per-worker publication slots, indexed by worker id.
	slots []workerSlot

	// Aggregate state, published by the supervisor once per poll.
	mean       atomic.Float64
	variance   atomic.Float64
	totalCalls atomic.Uint64
	errorGoal  atomic.Float64
	done       atomic.Bool
	start      atomic.Time
}

// New validates bounds and primes the estimator with one sample per
// prospective worker, so the observers return meaningful values before the
// first run. Invalid bounds (upper ≤ lower on any axis) return a
// *DomainError.
func New(f Integrand, bounds []Bound, errorGoal float64, cfg Config) (*MonteCarlo, error) {
	dom, err := newDomain(bounds, cfg.Singular)
	if err != nil {
		return nil, err
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mc := &MonteCarlo{
		f:       f,
		dom:     dom,
		threads: threads,
		log:     logger,
		slots:   make([]workerSlot, threads),
	}
	mc.seed.Store(cfg.Seed)
	mc.errorGoal.Store(errorGoal)

	// Without at least one evaluation per worker here, the estimator
	// could not be queried, or restarted, before integrate runs.
	seed := cfg.Seed
	if seed == 0 {
		seed = entropySeed()
	}
	gen := rand.New(rand.NewPCG(seed, seedStream))
	x := make([]float64, dom.dim())
	avg := 0.0
	for w := range mc.slots {
		for j := range x {
			x[j] = gen.Float64()
		}
		y := mc.dom.mapPoint(x) * f(x)
		mc.slots[w].mean.Store(y)
		mc.slots[w].calls.Store(1)
		avg += y
	}
	mc.mean.Store(avg / float64(threads))
	mc.totalCalls.Store(uint64(threads))
	mc.variance.Store(math.MaxFloat64)
	mc.start.Store(time.Now())
	return mc, nil
}

// CurrentEstimate returns the last published call-count-weighted mean.
func (mc *MonteCarlo) CurrentEstimate() float64 {
	return mc.mean.Load()
}

// Variance returns the last published combined variance estimate.
func (mc *MonteCarlo) Variance() float64 {
	return mc.variance.Load()
}

// Calls returns the total number of integrand evaluations so far.
func (mc *MonteCarlo) Calls() uint64 {
	return mc.totalCalls.Load()
}

// CurrentErrorEstimate returns √(variance / calls), the running standard
// error of the estimate.
func (mc *MonteCarlo) CurrentErrorEstimate() float64 {
	return math.Sqrt(mc.variance.Load() / float64(mc.totalCalls.Load()))
}

// ErrorGoal returns the current target standard error.
func (mc *MonteCarlo) ErrorGoal() float64 {
	return mc.errorGoal.Load()
}

// UpdateTargetError atomically replaces the error goal. A looser goal may
// cause the next supervisor poll to terminate immediately; a tighter goal
// extends the run.
func (mc *MonteCarlo) UpdateTargetError(newGoal float64) {
	mc.errorGoal.Store(newGoal)
}

// Progress returns min(1, (error_goal / current_error_estimate)²), the
// fraction of the required calls already made. It is 1 once the goal is
// met, including the zero-variance case.
func (mc *MonteCarlo) Progress() float64 {
	est := mc.CurrentErrorEstimate()
	if est == 0 {
		return 1
	}
	r := mc.errorGoal.Load() / est
	if r*r >= 1 {
		return 1
	}
	return r * r
}

// EstimatedTimeToCompletion extrapolates the remaining wall-clock time.
// The standard error shrinks as 1/√N, so with r = stderr/goal the calls
// still needed scale as r²−1 relative to the calls already made.
func (mc *MonteCarlo) EstimatedTimeToCompletion() time.Duration {
	elapsed := time.Since(mc.start.Load())
	r := mc.CurrentErrorEstimate() / mc.errorGoal.Load()
	if r*r <= 1 {
		return 0
	}
	d := (r*r - 1) * float64(elapsed)
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Cancel requests cooperative termination. Workers observe it at their
// next batch boundary, the supervisor at its next poll; the run handle
// resolves once all workers have joined, with the estimate so far.
//
// A user-provided seed is squared so a restart does not replay the exact
// same stream; seed zero (entropy mode) stays zero and the next run draws
// fresh entropy anyway.
func (mc *MonteCarlo) Cancel() {
	s := mc.seed.Load()
	mc.seed.Store(s * s)
	mc.done.Store(true)
}

// entropySeed draws 64 bits from the operating-system entropy source.
func entropySeed() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:]) // never fails on supported platforms
	return binary.LittleEndian.Uint64(b[:])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
