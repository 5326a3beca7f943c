package spiral

import (
	"math"
	"testing"
)

// TestNormalize_PeakMapsToOne verifies that after normalization the
// largest magnitude is 1.0 regardless of the input scale. This catches
// scale drift that would make the groove amplitude depend on the input
// codec's bit depth instead of the signal shape.
func TestNormalize_PeakMapsToOne(t *testing.T) {
	samples := []float64{0, 8000, -16000, 4000}

	norm := Normalize(samples)

	peak := 0.0
	for _, s := range norm {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-1.0) > 1e-6 {
		t.Errorf("normalized peak = %v, want 1.0", peak)
	}
	if norm[2] > 0 {
		t.Errorf("sign not preserved: norm[2] = %v, want negative", norm[2])
	}
}

// TestNormalize_SilentInput verifies that an all-zero signal survives
// normalization without producing NaN or Inf. The resulting spiral is a
// pure pitch spiral with no amplitude displacement.
func TestNormalize_SilentInput(t *testing.T) {
	samples := make([]float64, 100)

	norm := Normalize(samples)

	for i, s := range norm {
		if s != 0 {
			t.Fatalf("norm[%d] = %v, want 0", i, s)
		}
	}

	pts, err := Build(samples, 2000, Params{R0: 500, Pitch: 5, AmpScale: 40})
	if err != nil {
		t.Fatalf("Build on silent input: %v", err)
	}

	// With zero displacement every radius is exactly r0 + pitch*theta.
	center := 1000.0
	for i, pt := range pts {
		theta := Theta(i, len(samples), 2000, Params{R0: 500, Pitch: 5})
		wantR := 500 + 5*theta
		gotR := math.Hypot(pt.X-center, pt.Y-center)
		if math.Abs(gotR-wantR) > 1e-6 {
			t.Fatalf("point %d radius = %v, want %v", i, gotR, wantR)
		}
	}
}

// TestBuild_KnownScenario checks the mapping against hand-computed
// values. Four samples [0, peak, -peak, 0] on a 2000px canvas with
// r0=500, pitch=5, amp=40:
//   - rMax = 1000 * 0.98 = 980
//   - thetaMax = (980 - 500) / 5 = 96
//   - theta steps: 0, 32, 64, 96
//   - radius at index 1: 500 + 5*32 + 1.0*40 = 700
func TestBuild_KnownScenario(t *testing.T) {
	samples := []float64{0, 16000, -16000, 0}
	p := Params{R0: 500, Pitch: 5, AmpScale: 40}

	pts, err := Build(samples, 2000, p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(pts) != len(samples) {
		t.Fatalf("len(points) = %d, want %d", len(pts), len(samples))
	}

	theta1 := Theta(1, len(samples), 2000, p)
	if math.Abs(theta1-32) > 1e-6 {
		t.Errorf("theta at index 1 = %v, want 32", theta1)
	}

	center := 1000.0
	gotR := math.Hypot(pts[1].X-center, pts[1].Y-center)
	if math.Abs(gotR-700) > 1e-6 {
		t.Errorf("radius at index 1 = %v, want 700", gotR)
	}

	// The first point sits on the undisplaced inner radius, rotated to
	// point straight up (screen coordinates: +Y is down).
	if math.Abs(pts[0].X-center) > 1e-6 || math.Abs(pts[0].Y-(center+500)) > 1e-6 {
		t.Errorf("first point = (%v, %v), want (%v, %v)", pts[0].X, pts[0].Y, center, center+500)
	}
}

// TestBuild_ThetaStrictlyIncreasing verifies the angular parameter grows
// monotonically, which is what keeps the groove from folding back on
// itself.
func TestBuild_ThetaStrictlyIncreasing(t *testing.T) {
	const n = 1000
	p := Params{R0: 500, Pitch: 5, AmpScale: 40}

	prev := -1.0
	for i := 0; i < n; i++ {
		theta := Theta(i, n, 2000, p)
		if theta <= prev {
			t.Fatalf("theta not strictly increasing at %d: %v <= %v", i, theta, prev)
		}
		prev = theta
	}
}

// TestBuild_Deterministic verifies that two calls with identical inputs
// produce identical points.
func TestBuild_Deterministic(t *testing.T) {
	samples := make([]float64, 500)
	for i := range samples {
		samples[i] = math.Sin(float64(i) / 10)
	}
	p := Params{R0: 500, Pitch: 5, AmpScale: 40}

	a, err := Build(samples, 2000, p)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	b, err := Build(samples, 2000, p)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// TestBuild_RejectsBadInput covers the validation paths.
func TestBuild_RejectsBadInput(t *testing.T) {
	good := Params{R0: 500, Pitch: 5, AmpScale: 40}
	samples := []float64{0, 1, 0}

	cases := []struct {
		name    string
		samples []float64
		canvas  int
		params  Params
	}{
		{"empty samples", nil, 2000, good},
		{"zero canvas", samples, 0, good},
		{"zero pitch", samples, 2000, Params{R0: 500, Pitch: 0, AmpScale: 40}},
		{"negative pitch", samples, 2000, Params{R0: 500, Pitch: -1, AmpScale: 40}},
		{"r0 beyond canvas", samples, 2000, Params{R0: 5000, Pitch: 5, AmpScale: 40}},
		{"nan r0", samples, 2000, Params{R0: math.NaN(), Pitch: 5, AmpScale: 40}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.samples, tc.canvas, tc.params); err == nil {
				t.Errorf("Build accepted %s", tc.name)
			}
		})
	}
}

// TestBuild_SingleSample verifies the degenerate one-point spiral does
// not divide by zero in the theta step.
func TestBuild_SingleSample(t *testing.T) {
	pts, err := Build([]float64{1}, 2000, Params{R0: 500, Pitch: 5, AmpScale: 40})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(pts) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(pts))
	}
	// theta = 0, radius = 500 + 40, rotated up.
	if math.Abs(pts[0].Y-1540) > 1e-6 {
		t.Errorf("Y = %v, want 1540", pts[0].Y)
	}
}
