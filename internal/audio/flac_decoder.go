package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files. Used as a native
// fallback when the external transcoder is unavailable.
type FLACDecoder struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int

	// Leftover mono samples from a partially consumed FLAC frame.
	pending []float64
	eof     bool
}

// NewFLACDecoder opens a FLAC file for streaming decode.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:     stream,
		file:       f,
		sampleRate: int(stream.Info.SampleRate),
	}, nil
}

// ReadChunk reads the next chunk of mono samples, averaging channels.
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	for len(d.pending) < numSamples && !d.eof {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				d.eof = true
				break
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		frameSamples := len(frame.Subframes[0].Samples)

		for i := 0; i < frameSamples; i++ {
			var sum int64
			for _, sub := range frame.Subframes {
				sum += int64(sub.Samples[i])
			}
			mono := float64(sum) / float64(len(frame.Subframes))
			d.pending = append(d.pending, mono/maxVal)
		}
	}

	if len(d.pending) == 0 {
		return nil, io.EOF
	}
	if numSamples > len(d.pending) {
		numSamples = len(d.pending)
	}
	samples := d.pending[:numSamples]
	d.pending = d.pending[numSamples:]
	return samples, nil
}

// SampleRate returns the sample rate.
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// Close closes the decoder and releases resources.
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
