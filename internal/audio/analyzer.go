package audio

import (
	"math"

	"github.com/argusdusty/gofft"
)

// Profile holds summary statistics for a loaded SampleBuffer, shown to
// the user after load.
type Profile struct {
	SampleRate int
	NumSamples int
	Duration   float64 // seconds

	Peak float64 // max absolute sample value
	RMS  float64

	// DominantHz is the strongest frequency across the analysis window,
	// 0 for silent input.
	DominantHz float64
}

// maxAnalysisWindow caps the FFT size so analysis stays cheap on long
// files. 2^17 samples is ~3 s at 44.1 kHz.
const maxAnalysisWindow = 1 << 17

// Analyze computes peak, RMS and dominant frequency for a buffer.
func Analyze(buf *SampleBuffer) *Profile {
	p := &Profile{
		SampleRate: buf.Rate,
		NumSamples: len(buf.Data),
		Duration:   buf.Duration(),
	}

	var sumSquares float64
	for _, s := range buf.Data {
		if a := math.Abs(s); a > p.Peak {
			p.Peak = a
		}
		sumSquares += s * s
	}
	if len(buf.Data) > 0 {
		p.RMS = math.Sqrt(sumSquares / float64(len(buf.Data)))
	}

	if p.Peak > 0 {
		p.DominantHz = dominantFrequency(buf.Data, buf.Rate)
	}
	return p
}

// dominantFrequency finds the strongest FFT bin over a Hann-windowed,
// power-of-two slice taken from the start of the signal.
func dominantFrequency(samples []float64, rate int) float64 {
	n := prevPow2(len(samples))
	if n > maxAnalysisWindow {
		n = maxAnalysisWindow
	}
	if n < 2 {
		return 0
	}

	windowed := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = samples[i] * w
	}

	coeffs := gofft.Float64ToComplex128Array(windowed)
	if err := gofft.FFT(coeffs); err != nil {
		return 0
	}

	// Skip the DC bin; scan positive frequencies only.
	bestBin := 0
	bestMag := 0.0
	for i := 1; i < n/2; i++ {
		mag := real(coeffs[i])*real(coeffs[i]) + imag(coeffs[i])*imag(coeffs[i])
		if mag > bestMag {
			bestMag = mag
			bestBin = i
		}
	}
	if bestBin == 0 {
		return 0
	}
	return float64(bestBin) * float64(rate) / float64(n)
}

func prevPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
