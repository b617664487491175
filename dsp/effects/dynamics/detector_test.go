package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vadyn/internal/testutil"
)

func newDetector(t *testing.T, pf PreFilter, r Rectifier) *Detector[float64] {
	t.Helper()

	d, err := NewDetector[float64](48000, 1)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	if err := d.SetPreFilter(pf); err != nil {
		t.Fatalf("SetPreFilter: %v", err)
	}

	if err := d.SetRectifier(r); err != nil {
		t.Fatalf("SetRectifier: %v", err)
	}

	return d
}

func TestDetectorRectifiers(t *testing.T) {
	const k = defaultRectifierKnee

	tests := []struct {
		name string
		r    Rectifier
		x    float64
		want float64
		tol  float64
	}{
		{"peak positive", RectifierPeak, 0.5, 0.5, 0},
		{"peak negative", RectifierPeak, -0.5, 0.5, 0},
		{"half-wave blocks negative", RectifierHalfWave, -0.5, 0, 0},
		{"half-wave large", RectifierHalfWave, 0.5, 0.5 - k, 1e-9},
		{"full-wave large", RectifierFullWave, -0.5, 0.5 - k, 1e-9},
		{"full-wave corner", RectifierFullWave, k, k / math.E, 2e-4},
		{"full-wave zero", RectifierFullWave, 0, 0, 2e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(t, PreFilterNone, tt.r)
			if got := d.ProcessSample(tt.x, 0); math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectorSoftRectifierNonNegativeAndMonotonic(t *testing.T) {
	d := newDetector(t, PreFilterNone, RectifierFullWave)

	prev := 0.0
	for x := 0.0; x <= 0.2; x += 1e-4 {
		y := d.Rectify(x)
		if y < 0 {
			t.Fatalf("Rectify(%v) = %v < 0", x, y)
		}

		if y < prev-1e-4 {
			t.Fatalf("Rectify decreases at %v: %v < %v", x, y, prev)
		}

		prev = y
	}
}

func TestDetectorKWeightingEmphasizesHighs(t *testing.T) {
	peak := func(pf PreFilter, freq float64) float64 {
		d := newDetector(t, pf, RectifierPeak)

		var m float64
		for _, x := range testutil.DeterministicSine(freq, 48000, 0.5, 4800)[2400:] {
			m = max(m, d.ProcessSample(x, 0))
		}

		return m
	}

	flat := peak(PreFilterNone, 10000)
	k := peak(PreFilterK, 10000)

	gainDB := 20 * math.Log10(k/flat)
	if math.Abs(gainDB-4.0) > 0.3 {
		t.Fatalf("K-weighted 10 kHz gain %.2f dB, want about +4 dB", gainDB)
	}

	if low := 20 * math.Log10(peak(PreFilterK, 50)/peak(PreFilterNone, 50)); math.Abs(low) > 0.1 {
		t.Fatalf("K-weighted 50 Hz gain %.2f dB, want about 0 dB", low)
	}
}

func TestDetectorPreFilterSwitchStartsFromRest(t *testing.T) {
	d := newDetector(t, PreFilterA, RectifierPeak)
	for range 100 {
		d.ProcessSample(1, 0)
	}

	if err := d.SetPreFilter(PreFilterC); err != nil {
		t.Fatal(err)
	}

	for _, v := range d.State(0) {
		if v != 0 {
			t.Fatalf("C-weighting history not at rest: %v", d.State(0))
		}
	}

	if err := d.SetPreFilter(PreFilterNone); err != nil {
		t.Fatal(err)
	}

	if d.Bank() != nil || d.State(0) != nil {
		t.Fatal("PreFilterNone reports a filter bank")
	}
}

func TestDetectorValidation(t *testing.T) {
	d := newDetector(t, PreFilterNone, RectifierPeak)

	if err := d.SetPreFilter(PreFilter(7)); err == nil {
		t.Error("expected error for invalid pre-filter")
	}

	if err := d.SetRectifier(Rectifier(-1)); err == nil {
		t.Error("expected error for invalid rectifier")
	}

	if err := d.SetRectifierKnee(0); err == nil {
		t.Error("expected error for zero knee")
	}

	if d.PreFilter() != PreFilterNone || d.Rectifier() != RectifierPeak {
		t.Error("rejected values changed the configuration")
	}

	if _, err := NewDetector[float64](-1, 1); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

func TestDetectorProcessBlockMatchesProcessSample(t *testing.T) {
	in := testutil.DeterministicNoise(5, 0.7, 257)

	for _, pf := range []PreFilter{PreFilterNone, PreFilterK, PreFilterA, PreFilterC} {
		t.Run(pf.String(), func(t *testing.T) {
			block := newDetector(t, pf, RectifierFullWave)
			sample := newDetector(t, pf, RectifierFullWave)

			got := append([]float64(nil), in...)
			block.ProcessBlock(got[:100], 0)
			block.ProcessBlock(got[100:], 0)

			want := make([]float64, len(in))
			for i, x := range in {
				want[i] = sample.ProcessSample(x, 0)
			}

			testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
		})
	}
}

func TestDetectorEnumStrings(t *testing.T) {
	if got := PreFilterK.String(); got != "K" {
		t.Errorf("PreFilterK = %q", got)
	}

	if got := RectifierHalfWave.String(); got != "HalfWave" {
		t.Errorf("RectifierHalfWave = %q", got)
	}

	if got := PreFilter(9).String(); got != "Unknown" {
		t.Errorf("PreFilter(9) = %q", got)
	}

	if got := Rectifier(9).String(); got != "Unknown" {
		t.Errorf("Rectifier(9) = %q", got)
	}
}

func BenchmarkDetectorKFullWave(b *testing.B) {
	d, err := NewDetector[float64](48000, 1)
	if err != nil {
		b.Fatal(err)
	}

	_ = d.SetPreFilter(PreFilterK)
	_ = d.SetRectifier(RectifierFullWave)

	b.ResetTimer()

	for i := range b.N {
		d.ProcessSample(float64(i%7)*0.1-0.3, 0)
	}
}
