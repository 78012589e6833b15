package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run is the handle for one in-flight integration.
type Run struct {
	value float64
	err   error
	done  chan struct{}
}

// Done returns a channel closed once all workers have joined.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run resolves and returns the final estimate, or
// the first failure captured from a worker.
func (r *Run) Wait() (float64, error) {
	<-r.done
	return r.value, r.err
}

// Integrate starts a run and returns immediately with its handle. The run
// terminates when the error goal is met, Cancel is called, ctx is
// cancelled, or a worker fails. Cancelling ctx is equivalent to Cancel, so
// callers can impose timeouts with their own context.
func (mc *MonteCarlo) Integrate(ctx context.Context) *Run {
	mc.done.Store(false)
	mc.start.Store(time.Now())
	run := &Run{done: make(chan struct{})}
	go mc.supervise(ctx, run)
	return run
}

// supervise spawns the workers, polls their slots until a termination
// condition holds, joins them, and resolves the run handle.
func (mc *MonteCarlo) supervise(ctx context.Context, run *Run) {
	defer close(run.done)

	seed := mc.seed.Load()
	if seed == 0 {
		seed = entropySeed()
	}
	// One master generator hands out the per-worker states, in worker
	// order, so a fixed seed reproduces every stream.
	master := rand.New(rand.NewPCG(seed, seedStream))

	mc.log.Debug("run starting",
		"workers", mc.threads,
		"error_goal", mc.errorGoal.Load(),
		"dimensions", mc.dom.dim())

	g := new(errgroup.Group)
	for w := range mc.slots {
		s1, s2 := master.Uint64(), master.Uint64()
		g.Go(func() error {
			return mc.sample(w, s1, s2)
		})
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

poll:
	for {
		select {
		case <-ctx.Done():
			mc.Cancel()
			break poll
		case <-ticker.C:
			mc.aggregate()
			if mc.done.Load() {
				break poll
			}
			if mc.CurrentErrorEstimate() <= mc.errorGoal.Load() {
				break poll
			}
		}
	}

	// Goal met or run cancelled: flip the flag for the workers, then
	// fold their final batches into the published aggregate.
	mc.done.Store(true)
	err := g.Wait()
	mc.aggregate()

	run.value = mc.mean.Load()
	if err != nil {
		run.err = err
		mc.log.Warn("run failed", "err", err, "calls", mc.totalCalls.Load())
		return
	}
	mc.log.Info("run finished",
		"estimate", run.value,
		"error_estimate", mc.CurrentErrorEstimate(),
		"calls", mc.totalCalls.Load())
}

// aggregate combines the per-worker slots into the published mean,
// variance, and call count. Per-worker means share an expectation (same
// integrand, same sampling distribution), so Σ S_w / (total−1) is the
// sample variance of the union of streams and no cross-worker combination
// step is needed.
func (mc *MonteCarlo) aggregate() {
	var total uint64
	for i := range mc.slots {
		total += mc.slots[i].calls.Load()
	}
	if total < 2 {
		return
	}
	mean := 0.0
	s := 0.0
	for i := range mc.slots {
		calls, m, sumSq := mc.slots[i].snapshot()
		mean += m * (float64(calls) / float64(total))
		s += sumSq
	}
	mc.mean.Store(mean)
	mc.variance.Store(s / float64(total-1))
	mc.totalCalls.Store(total)
}

// sample is the worker loop: draw, map, evaluate, accumulate, and publish
// once per batch until the done flag flips.
func (mc *MonteCarlo) sample(worker int, s1, s2 uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// A panicking integrand ruins the whole computation; stop
			// the other workers and surface it from the run handle.
			mc.done.Store(true)
			err = fmt.Errorf("montecarlo: integrand panicked on worker %d: %v", worker, r)
		}
	}()

	gen := rand.New(rand.NewPCG(s1, s2))
	slot := &mc.slots[worker]
	st := slot.resume()
	x := make([]float64, mc.dom.dim())

	for !mc.done.Load() {
		for j := 0; j < callsPerBatch; j++ {
			for i := range x {
				x[i] = gen.Float64()
			}
			coeff := mc.dom.mapPoint(x)
			f := coeff * mc.f(x)
			if !isFinite(f) {
				// mapPoint transformed x, so the error carries the
				// actual evaluation point.
				mc.done.Store(true)
				return evaluationError(x, f)
			}
			st.add(f)
		}
		slot.publish(st)
	}
	return nil
}
