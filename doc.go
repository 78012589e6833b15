// Package montecarlo computes definite integrals over multi-dimensional
// boxes by naive Monte Carlo sampling, in parallel, with live observability
// of the running estimate.
//
// # Overview
//
// Given an integrand f and a box B = [a₁,b₁] × … × [aₙ,bₙ], the estimator
// draws uniform samples u from the unit hypercube, maps them into B with a
// change of variables, and accumulates
//
//	I ≈ (1/N) Σ c(uᵢ)·f(x(uᵢ))
//
// where c is the Jacobian coefficient of the map. The standard error of the
// estimate shrinks as σ/√N, so the run terminates when
//
//	√(variance / N) ≤ error_goal
//
// Any side of the box may be infinite: semi-infinite and doubly-infinite
// axes are folded onto [0,1) by rational transforms whose Jacobians are
// carried per sample, so uniform sampling covers the whole axis.
//
// # Quick Start
//
// Integrate e^{−x²} over the real line:
//
//	f := func(x []float64) float64 { return math.Exp(-x[0] * x[0]) }
//	bounds := []montecarlo.Bound{{Lo: math.Inf(-1), Hi: math.Inf(1)}}
//
//	mc, err := montecarlo.New(f, bounds, 1e-3, montecarlo.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	run := mc.Integrate(context.Background())
//	value, err := run.Wait() // ≈ √π
//
// # Live Observability
//
// Every observer is a wait-free atomic read, safe to call from any
// goroutine while a run is in flight:
//
//	mc.CurrentEstimate()            // running combined mean
//	mc.CurrentErrorEstimate()       // √(variance / calls)
//	mc.Calls()                      // total integrand evaluations
//	mc.Progress()                   // 0..1 toward the error goal
//	mc.EstimatedTimeToCompletion()  // (r²−1)·elapsed, r = stderr/goal
//
// The error goal itself can be moved mid-run with UpdateTargetError: a
// looser goal lets the next supervisor poll terminate immediately, a
// tighter one extends the run. Cancel stops the run cooperatively; workers
// notice at the next batch boundary and the run handle resolves with the
// estimate accumulated so far.
//
// # Numerical Stability
//
// Each worker keeps a Welford running mean and sum of squared deviations.
// The mean update is Kahan-compensated: plain accumulation drifts by
// O(ε·N), which overtakes the O(σ/√N) statistical error on long runs,
// while the compensated update bounds the drift to O(ε²·N). Runs of 10⁹+
// samples keep twelve significant digits on IEEE-754 double.
//
// # Singular Integrands
//
// With Config.Singular set (the default), finite endpoints are perturbed
// one representable step into the interior, so integrands with integrable
// boundary singularities such as 1/√x are never evaluated on the boundary
// itself.
//
// # Determinism
//
// A non-zero Config.Seed gives a reproducible sample stream for a fixed
// worker count: per-worker generators are seeded from one master stream.
// Seed zero draws a fresh seed from operating-system entropy on every run.
//
// # Errors
//
// Invalid bounds (upper ≤ lower on any axis) are rejected by New with a
// *DomainError. An integrand returning NaN or ±Inf stops the run and the
// *DomainError carries the evaluation point. A panicking integrand is
// captured, the remaining workers are stopped, and Run.Wait returns the
// failure; the observers keep returning the last published values.
package montecarlo
