package audio

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder implements Decoder for MP3 files. Used as a native fallback
// when the external transcoder is unavailable.
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
}

// NewMP3Decoder opens an MP3 file for streaming decode.
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// ReadChunk reads the next chunk of mono samples. go-mp3 always emits
// interleaved 16-bit stereo (4 bytes per frame); the two channels are
// averaged down to mono.
func (d *MP3Decoder) ReadChunk(numSamples int) ([]float64, error) {
	buf := make([]byte, numSamples*4)

	n, err := d.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	frames := n / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(buf[i*4]) | int16(buf[i*4+1])<<8
		right := int16(buf[i*4+2]) | int16(buf[i*4+3])<<8
		samples[i] = (float64(left) + float64(right)) / (2 * 32768.0)
	}
	return samples, nil
}

// SampleRate returns the sample rate.
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// Close closes the decoder and releases resources.
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
