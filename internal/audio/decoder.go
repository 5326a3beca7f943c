package audio

import "io"

// Decoder is implemented by all audio format decoders. Every decoder
// emits mono float64 samples in [-1, 1]; multi-channel sources are
// downmixed while reading.
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples. Returns io.EOF
	// when the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// Close releases the underlying file.
	Close() error
}

// readChunkSize is the drain granularity used when loading a whole file.
const readChunkSize = 8192

// drain reads a decoder to EOF and returns everything it produced.
func drain(d Decoder) ([]float64, error) {
	var samples []float64
	for {
		chunk, err := d.ReadChunk(readChunkSize)
		if err != nil {
			if err == io.EOF {
				return samples, nil
			}
			return nil, err
		}
		samples = append(samples, chunk...)
	}
}
