package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vadyn/internal/testutil"
)

func TestNLBallisticsLinearMatchesBallistics(t *testing.T) {
	const sr = 48000

	lin := newBallistics(t, sr, 5, 50)

	nl, err := NewNLBallisticsFilter[float64](sr, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := nl.SetAttack(5); err != nil {
		t.Fatal(err)
	}

	if err := nl.SetRelease(50); err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicSine(440, sr, 0.8, 4800)
	for i, x := range in {
		x = math.Abs(x)
		want := lin.ProcessSample(x, 0)
		got := nl.ProcessSample(x, 0)

		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestNLBallisticsNonlinearityShortensAttack(t *testing.T) {
	const sr = 48000

	rise := func(n float64) int {
		f, err := NewNLBallisticsFilter[float64](sr, 1)
		if err != nil {
			t.Fatal(err)
		}

		if err := f.SetAttack(20); err != nil {
			t.Fatal(err)
		}

		if err := f.SetAttackNonlinearity(n); err != nil {
			t.Fatal(err)
		}

		for i := range sr {
			if f.ProcessSample(1, 0) >= 0.9 {
				return i
			}
		}

		return sr
	}

	linear, saturated := rise(0), rise(50)
	if saturated >= linear {
		t.Fatalf("N=50 rise %d samples, linear %d: expected faster", saturated, linear)
	}
}

func TestNLEnvelopeZeroSensitivityIsSilent(t *testing.T) {
	e, err := NewNLEnvelopeFilter[float64](48000, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.SetSensitivity(0); err != nil {
		t.Fatal(err)
	}

	if err := e.SetNonlinearity(5, 5); err != nil {
		t.Fatal(err)
	}

	for i, x := range testutil.DeterministicNoise(7, 0.9, 2048) {
		if y := e.ProcessSample(math.Abs(x), 0); y != 0 {
			t.Fatalf("sample %d: got %v, want 0", i, y)
		}
	}
}

func TestNLEnvelopeSignFollowsTransients(t *testing.T) {
	e, err := NewNLEnvelopeFilter[float64](48000, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.SetSensitivity(4); err != nil {
		t.Fatal(err)
	}

	var peak float64
	for range 4800 {
		peak = max(peak, e.ProcessSample(1, 0))
	}

	if peak <= 0.1 {
		t.Fatalf("onset peak %.4f, want clearly positive", peak)
	}

	var trough float64
	for range 4800 {
		trough = min(trough, e.ProcessSample(0, 0))
	}

	if trough >= -0.1 {
		t.Fatalf("release trough %.4f, want clearly negative", trough)
	}
}

func TestNLEnvelopeValidation(t *testing.T) {
	e, err := NewNLEnvelopeFilter[float64](48000, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.SetSensitivity(-1); err == nil {
		t.Error("expected error for negative sensitivity")
	}

	if err := e.SetNonlinearity(-1, 0); err == nil {
		t.Error("expected error for negative nonlinearity")
	}

	if err := e.SetAttack(0); err == nil {
		t.Error("expected error for zero attack")
	}

	if e.Sensitivity() != 1 {
		t.Errorf("Sensitivity() = %v, want default 1", e.Sensitivity())
	}
}

func TestEnvelopeKindSelection(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want EnvelopeKind
	}{
		{"linear", nil, EnvelopeBallistics},
		{"nonlinear", []Option{WithNonlinearity(0, 3)}, EnvelopeNLBallistics},
		{"transient", []Option{WithPersonality(PersonalityTransient)}, EnvelopeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(t, 48000, 1, tt.opts...)
			if got := p.State().Envelope; got != tt.want {
				t.Fatalf("envelope = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEnvelopeKindString(t *testing.T) {
	for kind, want := range map[EnvelopeKind]string{
		EnvelopeBallistics:   "Ballistics",
		EnvelopeNLBallistics: "NLBallistics",
		EnvelopeTransient:    "Transient",
		EnvelopeKind(9):      "Unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
