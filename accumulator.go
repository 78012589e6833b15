package montecarlo

import "go.uber.org/atomic"

// runningStat is a worker's private accumulator: a Welford running mean
// and sum of squared deviations, with Kahan compensation on the mean.
//
// Plain Welford accumulation lets the mean drift by O(ε·N) from rounding,
// which diverges faster than the O(σ/√N) statistical error converges.
// Compensating the mean update bounds the drift to O(ε²·N), so the random
// walk happens on a timescale no run will reach.
type runningStat struct {
	n    uint64
	mean float64
	s    float64 // Σ (fᵢ − meanᵢ)(fᵢ − meanᵢ₋₁)
	comp float64 // Kahan compensator, never published
}

func (r *runningStat) add(f float64) {
	r.n++
	term := (f - r.mean) / float64(r.n)
	y := term - r.comp
	m2 := r.mean + y
	r.comp = (m2 - r.mean) - y
	r.s += (f - r.mean) * (f - m2)
	r.mean = m2
}

// variance is the sample variance over this worker's stream.
func (r *runningStat) variance() float64 {
	if r.n < 2 {
		return 0
	}
	return r.s / float64(r.n-1)
}

// workerSlot is the publication slot for one worker: single writer, many
// readers. The supervisor may observe a slightly torn triple (calls from
// the current batch, mean from the previous one); that is fine because the
// triple converges and the post-join aggregate is consistent.
type workerSlot struct {
	calls atomic.Uint64
	mean  atomic.Float64
	sumSq atomic.Float64
}

func (w *workerSlot) publish(st runningStat) {
	w.mean.Store(st.mean)
	w.sumSq.Store(st.s)
	w.calls.Store(st.n)
}

func (w *workerSlot) snapshot() (calls uint64, mean, sumSq float64) {
	return w.calls.Load(), w.mean.Load(), w.sumSq.Load()
}

// resume rebuilds the worker-private state from the last published values.
// The compensator restarts at zero, so the rounding residual it held from
// the last addition is dropped; it compensates only additions made since.
func (w *workerSlot) resume() runningStat {
	return runningStat{
		n:    w.calls.Load(),
		mean: w.mean.Load(),
		s:    w.sumSq.Load(),
	}
}
