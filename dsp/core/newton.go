package core

import "math"

// minNewtonDenominator bounds |f'(y)| away from zero before dividing.
const minNewtonDenominator = 1e-9

// Residual evaluates an implicit equation f(y) = 0 and its derivative.
type Residual[F Float] interface {
	Eval(y F) (f, df F)
}

// NewtonRaphson refines y toward a root of r for a fixed number of
// iterations. r must be increasing on [lo, hi] with the root inside. The
// bracket shrinks around the root as residual signs are observed; a
// Newton step that leaves it is replaced by bisection, and near-zero
// derivatives are bounded before division, so the result stays finite and
// inside [lo, hi].
//
// If trace is non-nil, |f(y)| at the start of iteration i is written to
// trace[i], and the residual of the returned value to trace[iterations]
// when trace is long enough. Entries after an early exit repeat the last
// residual.
func NewtonRaphson[F Float, R Residual[F]](r R, y, lo, hi F, iterations int, trace []F) F {
	if lo > hi {
		lo, hi = hi, lo
	}

	y = Clamp(y, lo, hi)
	traced := min(len(trace), iterations+1)

	for i := 0; i <= iterations; i++ {
		if i == iterations && i >= traced {
			break
		}

		f, df := r.Eval(y)
		absF := F(math.Abs(float64(f)))

		if i < traced {
			trace[i] = absF
		}

		if i == iterations {
			break
		}

		if f == 0 {
			fillTrace(trace[:traced], i+1, absF)
			break
		}

		if f > 0 {
			hi = y
		} else {
			lo = y
		}

		if math.Abs(float64(df)) < minNewtonDenominator {
			df = F(math.Copysign(minNewtonDenominator, float64(df)))
		}

		next := y - f/df
		if !(next > lo && next < hi) {
			next = 0.5 * (lo + hi)
		}

		if !IsFinite(next) {
			fillTrace(trace[:traced], i+1, absF)
			break
		}

		y = next
	}

	return y
}

func fillTrace[F Float](trace []F, from int, v F) {
	for j := from; j < len(trace); j++ {
		trace[j] = v
	}
}
