package montecarlo

import (
	"math"
	"testing"
	"time"
)

// ToleranceConfig contains thresholds for the statistical assertions.
type ToleranceConfig struct {
	// Sigmas is how many reported standard errors a result may deviate
	// from the exact value before the assertion fails.
	Sigmas float64

	// Floor is an absolute deviation always accepted, regardless of the
	// reported standard error. Guards against a spuriously tiny error
	// estimate on degenerate integrands.
	Floor float64
}

// DefaultToleranceConfig returns conservative thresholds: three standard
// errors, with a 1e-12 absolute floor.
func DefaultToleranceConfig() ToleranceConfig {
	return ToleranceConfig{
		Sigmas: 3,
		Floor:  1e-12,
	}
}

// AssertWithinError fails when got deviates from want by more than
// cfg.Sigmas reported standard errors (or cfg.Floor, whichever is larger).
//
// Statistical property: a Monte Carlo estimate lands within 3σ of the true
// value with probability ≈ 0.997, so a fixed-seed run failing this is a
// defect, not noise.
func AssertWithinError(t *testing.T, mc *MonteCarlo, want, got float64, cfg ToleranceConfig) {
	t.Helper()

	tol := cfg.Sigmas * mc.CurrentErrorEstimate()
	if tol < cfg.Floor {
		tol = cfg.Floor
	}
	if diff := math.Abs(got - want); diff > tol {
		t.Errorf("estimate off: got %.10g, want %.10g (|diff| = %.3g > %.3g = %g sigma)\n"+
			"Either the sampling is biased or the variance estimate is broken.",
			got, want, diff, tol, cfg.Sigmas)
		return
	}
	t.Logf("✓ estimate %.10g within %g sigma of %.10g (stderr %.3g, calls %d)",
		got, cfg.Sigmas, want, mc.CurrentErrorEstimate(), mc.Calls())
}

// AssertConverged verifies the error-goal gate: after a run terminates
// normally, the reported standard error is at or below the goal.
func AssertConverged(t *testing.T, mc *MonteCarlo) {
	t.Helper()

	est, goal := mc.CurrentErrorEstimate(), mc.ErrorGoal()
	if est > goal {
		t.Errorf("error goal not met on normal termination: stderr %.3g > goal %.3g", est, goal)
		return
	}
	t.Logf("✓ converged: stderr %.3g <= goal %.3g after %d calls", est, goal, mc.Calls())
}

// AssertMonotoneCalls samples Calls n times, interval apart, and fails if
// the observed counts ever decrease.
func AssertMonotoneCalls(t *testing.T, mc *MonteCarlo, n int, interval time.Duration) {
	t.Helper()

	prev := mc.Calls()
	for i := 0; i < n; i++ {
		time.Sleep(interval)
		calls := mc.Calls()
		if calls < prev {
			t.Errorf("calls went backwards: %d after %d", calls, prev)
			return
		}
		prev = calls
	}
	t.Logf("✓ calls monotone over %d observations, last %d", n, prev)
}
