package lut

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// MinSize is the smallest accepted table size.
const MinSize = 2

// Table is a uniformly sampled approximation of a scalar function on [a, b].
type Table[F core.Float] struct {
	values []F

	a, b        F
	divBMinusA  F
	aDivAMinusB F
	maxIndex    F
}

// New samples f at n uniformly spaced points over [a, b].
func New[F core.Float](f func(F) F, a, b F, n int) (*Table[F], error) {
	t := &Table[F]{}
	if err := t.Prepare(f, a, b, n); err != nil {
		return nil, err
	}

	return t, nil
}

// Prepare (re)samples f over [a, b] with n points. The previous contents
// are discarded; the backing array is reused when large enough.
func (t *Table[F]) Prepare(f func(F) F, a, b F, n int) error {
	if f == nil {
		return fmt.Errorf("lut: function must not be nil")
	}

	if n < MinSize {
		return fmt.Errorf("lut: size must be >= %d: %d", MinSize, n)
	}

	if !core.IsFinite(a) || !core.IsFinite(b) || !(a < b) {
		return fmt.Errorf("lut: domain must satisfy a < b: [%g, %g]", float64(a), float64(b))
	}

	t.values = core.EnsureLen(t.values, n)
	t.a = a
	t.b = b
	t.divBMinusA = 1 / (b - a)
	t.aDivAMinusB = a / (a - b)
	t.maxIndex = F(n - 1)

	step := (float64(b) - float64(a)) / float64(n-1)
	for i := range t.values {
		x := F(float64(a) + float64(i)*step)
		if i == n-1 {
			x = b
		}

		t.values[i] = f(x)
	}

	return nil
}

// Size returns the number of samples.
func (t *Table[F]) Size() int { return len(t.values) }

// Domain returns the sampled interval.
func (t *Table[F]) Domain() (F, F) { return t.a, t.b }

// Values returns the sampled values. The slice must not be modified.
func (t *Table[F]) Values() []F { return t.values }

// ProcessSampleUnchecked interpolates at x. x must lie in [a, b].
func (t *Table[F]) ProcessSampleUnchecked(x F) F {
	fracIdx := core.InvLerp(t.divBMinusA, t.aDivAMinusB, x) * t.maxIndex
	whole, frac := math.Modf(float64(fracIdx))

	i := int(whole)
	if i >= len(t.values)-1 {
		return t.values[len(t.values)-1]
	}

	if i < 0 {
		return t.values[0]
	}

	return core.Lerp(t.values[i], t.values[i+1], F(frac))
}

// ProcessSampleMinChecked interpolates at x, clamping values below a.
func (t *Table[F]) ProcessSampleMinChecked(x F) F {
	if x <= t.a {
		return t.values[0]
	}

	return t.ProcessSampleUnchecked(x)
}

// ProcessSampleMaxChecked interpolates at x, clamping values above b.
func (t *Table[F]) ProcessSampleMaxChecked(x F) F {
	if x >= t.b {
		return t.values[len(t.values)-1]
	}

	return t.ProcessSampleUnchecked(x)
}

// ProcessSampleChecked interpolates at x, clamping to [a, b]. NaN maps to
// the low boundary value.
func (t *Table[F]) ProcessSampleChecked(x F) F {
	if !(x > t.a) {
		return t.values[0]
	}

	if x >= t.b {
		return t.values[len(t.values)-1]
	}

	return t.ProcessSampleUnchecked(x)
}
