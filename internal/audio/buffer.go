package audio

// SampleBuffer holds one loaded audio file as mono samples at a known
// rate. It is created once per load and replaced wholesale on re-load.
type SampleBuffer struct {
	Data []float64 // mono samples in [-1, 1]
	Rate int       // sample rate in Hz
}

// Duration returns the audio length in seconds.
func (b *SampleBuffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.Rate)
}
