package lut

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vadyn/internal/testutil"
)

func maxSampledError(t *testing.T, tbl *Table[float64], f func(float64) float64, a, b float64) float64 {
	t.Helper()

	const points = 10007

	worst := 0.0
	for i := range points {
		x := a + (b-a)*float64(i)/float64(points-1)
		if err := math.Abs(tbl.ProcessSampleChecked(x) - f(x)); err > worst {
			worst = err
		}
	}

	return worst
}

func TestTableErrorDecreasesWithSize(t *testing.T) {
	funcs := []struct {
		name string
		f    func(float64) float64
		a, b float64
	}{
		{name: "sin", f: math.Sin, a: 0, b: math.Pi},
		{name: "exp", f: math.Exp, a: -3, b: 1},
		{name: "tanh", f: math.Tanh, a: -4, b: 4},
	}

	for _, fn := range funcs {
		t.Run(fn.name, func(t *testing.T) {
			prev := math.Inf(1)
			for _, n := range []int{8, 16, 32, 64, 128, 256} {
				tbl, err := New(fn.f, fn.a, fn.b, n)
				if err != nil {
					t.Fatalf("New: %v", err)
				}

				got := maxSampledError(t, tbl, fn.f, fn.a, fn.b)
				if got >= prev {
					t.Fatalf("n=%d: error %g did not decrease from %g", n, got, prev)
				}

				prev = got
			}
		})
	}
}

func TestTableExactAtNodes(t *testing.T) {
	tbl, err := New(func(x float64) float64 { return x * x }, -2, 2, 9)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := range 9 {
		x := -2 + 0.5*float64(i)
		if got := tbl.ProcessSampleUnchecked(x); math.Abs(got-x*x) > 1e-12 {
			t.Fatalf("node %v: got %v want %v", x, got, x*x)
		}
	}
}

func TestTableBoundaryPolicies(t *testing.T) {
	tbl, err := New(func(x float64) float64 { return 2 * x }, 0, 1, 11)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		eval func(float64) float64
		x    float64
		want float64
	}{
		{name: "checked low", eval: tbl.ProcessSampleChecked, x: -5, want: 0},
		{name: "checked high", eval: tbl.ProcessSampleChecked, x: 5, want: 2},
		{name: "checked inf", eval: tbl.ProcessSampleChecked, x: math.Inf(1), want: 2},
		{name: "checked nan", eval: tbl.ProcessSampleChecked, x: math.NaN(), want: 0},
		{name: "min checked", eval: tbl.ProcessSampleMinChecked, x: -1, want: 0},
		{name: "max checked", eval: tbl.ProcessSampleMaxChecked, x: 3, want: 2},
		{name: "interior", eval: tbl.ProcessSampleChecked, x: 0.25, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eval(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTableInvalidConstruction(t *testing.T) {
	id := func(x float64) float64 { return x }

	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		n    int
	}{
		{name: "degenerate domain", f: id, a: 1, b: 1, n: 8},
		{name: "reversed domain", f: id, a: 2, b: 1, n: 8},
		{name: "nan bound", f: id, a: math.NaN(), b: 1, n: 8},
		{name: "too small", f: id, a: 0, b: 1, n: 1},
		{name: "nil func", f: nil, a: 0, b: 1, n: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.f, tt.a, tt.b, tt.n); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecibelTables(t *testing.T) {
	g2db, err := GainToDecibels(DefaultGainMax, DefaultGainSize)
	if err != nil {
		t.Fatalf("GainToDecibels: %v", err)
	}

	db2g, err := DecibelsToGain(DefaultDBMin, DefaultDBMax, DefaultDBSize)
	if err != nil {
		t.Fatalf("DecibelsToGain: %v", err)
	}

	for _, g := range []float64{0.01, 0.1, 0.5, 1, 2, 4} {
		want := 20 * math.Log10(g)
		if got := g2db.ProcessSampleMaxChecked(g); math.Abs(got-want) > 0.05 {
			t.Fatalf("g2dB(%v) = %v, want %v", g, got, want)
		}
	}

	for _, db := range []float64{-60, -20, -6, 0, 6, 20} {
		want := math.Pow(10, db/20)
		if got := db2g.ProcessSampleChecked(db); math.Abs(got-want) > 1e-3*want+1e-6 {
			t.Fatalf("dB2g(%v) = %v, want %v", db, got, want)
		}
	}

	if got := g2db.ProcessSampleMaxChecked(100); got != g2db.Values()[g2db.Size()-1] {
		t.Fatalf("out-of-range gain not clamped: %v", got)
	}

	if got := db2g.ProcessSampleChecked(-200); got != 0 {
		t.Fatalf("dB2g(-200) = %v, want 0", got)
	}
}

func TestTableFloat32(t *testing.T) {
	tbl, err := New(func(x float32) float32 { return x * 3 }, -1, 1, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := make([]float64, 0, 200)
	for i := range 200 {
		x := float32(-1.5 + 3*float64(i)/199)
		out = append(out, float64(tbl.ProcessSampleChecked(x)))
	}

	testutil.RequireFinite(t, out)
}

func BenchmarkTableChecked(b *testing.B) {
	tbl, err := GainToDecibels(DefaultGainMax, DefaultGainSize)
	if err != nil {
		b.Fatal(err)
	}

	x := 0.0

	b.ResetTimer()

	for range b.N {
		x += 0.0001
		if x > 8 {
			x = 0
		}

		_ = tbl.ProcessSampleChecked(x)
	}
}
