package montecarlo

import "math"

// Bound is one axis of the integration box. Either side may be infinite;
// use math.Inf(-1) and math.Inf(1).
type Bound struct {
	Lo, Hi float64
}

// limitKind classifies an axis by which of its endpoints are infinite.
type limitKind uint8

const (
	limitFinite         limitKind = iota // [lo, hi]
	limitUpperInfinite                   // [lo, +∞)
	limitLowerInfinite                   // (−∞, hi]
	limitDoubleInfinite                  // (−∞, +∞)
)

const (
	epsilon   = 0x1p-52   // machine epsilon of float64
	minNormal = 0x1p-1022 // smallest positive normal float64
)

var sqrtMinNormal = math.Sqrt(minNormal)

// domain holds the per-axis transform parameters from the unit hypercube
// into the user's box: the axis kinds, a reference point per axis, the
// width of each finite axis, and the product of the finite widths.
//
// Infinite axes contribute no factor to volume; their Jacobian is carried
// entirely by the per-sample coefficient in mapPoint. Changing that silently
// rescales results by the finite-axis volume, so volume stays 1 when every
// axis is infinite.
type domain struct {
	kinds  []limitKind
	lbs    []float64
	dxs    []float64
	volume float64
}

// newDomain classifies and validates bounds. When singular is set, finite
// endpoints are moved one representable step into the interior (a zero
// lower bound becomes ε) so the integrand is never evaluated exactly on
// the boundary. Sampling a closed set and perturbing the boundary is easier
// than sampling arbitrarily close to it.
func newDomain(bounds []Bound, singular bool) (*domain, error) {
	n := len(bounds)
	d := &domain{
		kinds:  make([]limitKind, n),
		lbs:    make([]float64, n),
		dxs:    make([]float64, n),
		volume: 1,
	}
	for i, b := range bounds {
		if b.Hi <= b.Lo {
			return nil, boundsError(i, b)
		}
		switch {
		case math.IsInf(b.Lo, -1) && math.IsInf(b.Hi, 1):
			d.kinds[i] = limitDoubleInfinite
		case math.IsInf(b.Lo, -1):
			d.kinds[i] = limitLowerInfinite
			// The transform reflects down from the finite upper bound.
			d.lbs[i] = b.Hi
			d.dxs[i] = math.NaN()
		case math.IsInf(b.Hi, 1):
			d.kinds[i] = limitUpperInfinite
			if singular {
				d.lbs[i] = math.Nextafter(b.Lo, math.MaxFloat64)
			} else {
				d.lbs[i] = b.Lo
			}
			d.dxs[i] = math.NaN()
		default:
			d.kinds[i] = limitFinite
			if singular {
				if b.Lo == 0 {
					d.lbs[i] = epsilon
				} else {
					d.lbs[i] = math.Nextafter(b.Lo, math.MaxFloat64)
				}
				d.dxs[i] = math.Nextafter(b.Hi, -math.MaxFloat64) - d.lbs[i]
			} else {
				d.lbs[i] = b.Lo
				d.dxs[i] = b.Hi - b.Lo
			}
			d.volume *= d.dxs[i]
		}
	}
	return d, nil
}

func (d *domain) dim() int { return len(d.kinds) }

// mapPoint transforms x in place from the unit hypercube into the user's
// box and returns the combined Jacobian coefficient, volume included.
//
// The infinite-interval transforms map onto a compact domain so uniform
// [0,1) samples cover the full axis; the ε offsets keep the rational maps
// away from their poles at the unit-interval endpoints.
func (d *domain) mapPoint(x []float64) float64 {
	coeff := d.volume
	for i, t := range x {
		switch d.kinds[i] {
		case limitFinite:
			x[i] = d.lbs[i] + t*d.dxs[i]
		case limitUpperInfinite:
			z := 1 / (1 + epsilon - t)
			coeff *= z * z * (1 + epsilon)
			x[i] = d.lbs[i] + t*z
		case limitLowerInfinite:
			z := 1 / (t + sqrtMinNormal)
			coeff *= z * z
			x[i] = d.lbs[i] + (t-1)*z
		default: // limitDoubleInfinite
			t1 := 1 / (1 + epsilon - t)
			t2 := 1 / (t + epsilon)
			x[i] = (2*t - 1) * t1 * t2 / 4
			coeff *= (t1*t1 + t2*t2) / 4
		}
	}
	return coeff
}
