package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vadyn/internal/testutil"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func slicesEqual[F float32 | float64](a, b []F) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func twoSectionCoeffs() []Coefficients {
	return []Coefficients{
		{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04},
		{B0: 0.8, B1: -1.6, B2: 0.8, A1: -1.5, A2: 0.6},
	}
}

// directForm2T is an independent single-section reference.
func directForm2T(c Coefficients, in []float64) []float64 {
	out := make([]float64, len(in))

	var d0, d1 float64
	for i, x := range in {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		out[i] = y
	}

	return out
}

func TestBankMatchesReferenceTopology(t *testing.T) {
	coeffs := twoSectionCoeffs()
	in := testutil.DeterministicNoise(11, 1, 512)

	want := directForm2T(coeffs[1], directForm2T(coeffs[0], in))

	bank := NewBank[float64](coeffs, 1, 1)
	got := append([]float64(nil), in...)
	bank.ProcessBlock(got, 0)

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
}

func TestBankChannelsIndependent(t *testing.T) {
	bank := NewBank[float64](twoSectionCoeffs(), 1, 2)
	mono := NewBank[float64](twoSectionCoeffs(), 1, 1)

	left := testutil.DeterministicSine(440, 48000, 0.5, 256)
	right := testutil.DeterministicNoise(5, 1, 256)

	for i := range left {
		l := bank.ProcessSample(left[i], 0)
		_ = bank.ProcessSample(right[i], 1)

		if want := mono.ProcessSample(left[i], 0); l != want {
			t.Fatalf("sample %d: channel 0 affected by channel 1: %v != %v", i, l, want)
		}
	}
}

func TestBankResetAndPrepare(t *testing.T) {
	bank := NewBank[float32](twoSectionCoeffs(), 1, 2)
	for i := range 32 {
		bank.ProcessSample(float32(i), 0)
		bank.ProcessSample(float32(-i), 1)
	}

	bank.Reset()

	for ch := range 2 {
		for _, v := range bank.History(ch) {
			if v != 0 {
				t.Fatalf("channel %d history not cleared: %v", ch, bank.History(ch))
			}
		}
	}

	bank.Prepare(3)
	if bank.Channels() != 3 || len(bank.History(2)) != 2*histTaps {
		t.Fatalf("Prepare(3): channels=%d history=%v", bank.Channels(), bank.History(2))
	}
}

func TestBankSetCoefficientsPreservesHistory(t *testing.T) {
	bank := NewBank[float64](twoSectionCoeffs(), 1, 1)
	bank.ProcessSample(1, 0)

	before := bank.History(0)

	updated := twoSectionCoeffs()
	updated[0].B0 = 0.3
	bank.SetCoefficients(updated, 1)

	if !slicesEqual(bank.History(0), before) {
		t.Fatal("same-shape coefficient update should keep history")
	}

	bank.SetCoefficients(updated[:1], 1)

	if bank.NumSections() != 1 || bank.Order() != 2 {
		t.Fatalf("sections=%d order=%d", bank.NumSections(), bank.Order())
	}

	for _, v := range bank.History(0) {
		if v != 0 {
			t.Fatal("shape change should clear history")
		}
	}
}

func TestBankGainAndPassthrough(t *testing.T) {
	bank := NewBank[float64](nil, 2, 1)
	if got := bank.ProcessSample(0.25, 0); got != 0.5 {
		t.Fatalf("passthrough with gain 2 = %v, want 0.5", got)
	}

	if bank.Gain() != 2 {
		t.Fatalf("Gain() = %v", bank.Gain())
	}
}

func TestStable(t *testing.T) {
	for i, c := range twoSectionCoeffs() {
		if !c.Stable() {
			t.Fatalf("section %d reported unstable: %v", i, c.Poles())
		}
	}

	unstable := Coefficients{B0: 1, A1: -2.1, A2: 1.1}
	if unstable.Stable() {
		t.Fatal("expected unstable section")
	}
}

func TestNormalize(t *testing.T) {
	c := Normalize(2, 4, 2, 2, -1, 0.5)
	want := Coefficients{B0: 1, B1: 2, B2: 1, A1: -0.5, A2: 0.25}

	if c != want {
		t.Fatalf("Normalize = %+v, want %+v", c, want)
	}
}

func BenchmarkBankProcessSample(b *testing.B) {
	bank := NewBank[float64](twoSectionCoeffs(), 1, 2)

	b.ResetTimer()

	for i := range b.N {
		_ = bank.ProcessSample(float64(i&7), i&1)
	}
}
