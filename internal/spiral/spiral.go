// Package spiral maps a mono sample sequence onto an Archimedean spiral,
// one point per sample, with the signal amplitude perturbing the groove
// radius.
package spiral

import (
	"fmt"
	"math"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/config"
)

// epsilon guards the peak-normalization divide against silent input.
const epsilon = 1e-9

// Params controls the spiral shape. Immutable per render.
type Params struct {
	R0       float64 // initial radius in pixels
	Pitch    float64 // radial growth per radian, must be positive
	AmpScale float64 // pixels of radial displacement at peak amplitude
}

// Point is one spiral vertex in canvas coordinates.
type Point struct {
	X, Y float64
}

// Normalize scales samples so the peak magnitude maps to ±1.0. All-zero
// input comes back unchanged (the epsilon keeps the divide defined).
func Normalize(samples []float64) []float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / (peak + epsilon)
	}
	return out
}

// Build converts samples into spiral points on a square canvas. The
// output is index-aligned with the input and its angular parameter is
// strictly increasing. Pure function: identical inputs yield identical
// points.
//
// A pitch of zero or below would degenerate the angular sweep, so it is
// rejected outright rather than silently clamped.
func Build(samples []float64, canvasSize int, p Params) ([]Point, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to map")
	}
	if canvasSize <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %d", canvasSize)
	}
	if p.Pitch <= 0 {
		return nil, fmt.Errorf("spiral pitch must be positive, got %g", p.Pitch)
	}
	if !isFinite(p.R0) || !isFinite(p.Pitch) || !isFinite(p.AmpScale) {
		return nil, fmt.Errorf("spiral parameters must be finite")
	}

	normalized := Normalize(samples)

	// Sweep so the undisplaced radius stays inside the edge margin.
	rMax := float64(canvasSize) / 2 * config.EdgeMargin
	thetaMax := (rMax - p.R0) / (p.Pitch + epsilon)
	if thetaMax <= 0 {
		return nil, fmt.Errorf("initial radius %g leaves no room inside the canvas", p.R0)
	}

	n := len(normalized)
	center := float64(canvasSize) / 2
	pts := make([]Point, n)

	for i := 0; i < n; i++ {
		var theta float64
		if n > 1 {
			theta = thetaMax * float64(i) / float64(n-1)
		}
		r := p.R0 + p.Pitch*theta + normalized[i]*p.AmpScale

		// Rotate by +90 degrees so the groove starts pointing up.
		angle := theta + math.Pi/2
		pts[i] = Point{
			X: center + r*math.Cos(angle),
			Y: center + r*math.Sin(angle),
		}
		if !isFinite(pts[i].X) || !isFinite(pts[i].Y) {
			return nil, fmt.Errorf("non-finite coordinate at sample %d", i)
		}
	}
	return pts, nil
}

// Theta returns the angular parameter of point index i for n points
// swept to thetaMax; exposed for tests and diagnostics.
func Theta(i, n int, canvasSize int, p Params) float64 {
	if n <= 1 {
		return 0
	}
	rMax := float64(canvasSize) / 2 * config.EdgeMargin
	thetaMax := (rMax - p.R0) / (p.Pitch + epsilon)
	return thetaMax * float64(i) / float64(n-1)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
