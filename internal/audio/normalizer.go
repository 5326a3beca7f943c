package audio

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
)

// DecodeError reports a failure to turn a source file into usable PCM.
// The session stays usable after one; the user may retry with another
// file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// availabler is satisfied by transcoders that can report whether their
// external binary is present (media.FFmpeg does).
type availabler interface {
	Available() bool
}

// Normalizer converts arbitrary input audio into a mono SampleBuffer.
// The default path runs the external transcoder; when its binary is
// missing, native decoders cover the common containers.
type Normalizer struct {
	transcoder media.Transcoder
	logger     *log.Logger
}

// NewNormalizer returns a Normalizer decoding through the given
// transcoder.
func NewNormalizer(t media.Transcoder, logger *log.Logger) *Normalizer {
	return &Normalizer{transcoder: t, logger: logger}
}

// Normalize decodes sourcePath into a mono SampleBuffer at the source's
// native sample rate. The intermediate PCM file is always removed before
// returning.
func (n *Normalizer) Normalize(ctx context.Context, sourcePath string) (*SampleBuffer, error) {
	if a, ok := n.transcoder.(availabler); ok && !a.Available() {
		n.logger.Printf("transcoder unavailable, using native decoder for %s", sourcePath)
		return n.normalizeNative(sourcePath)
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("vinyl-%s.wav", uuid.New().String()))
	defer os.Remove(tmpPath)

	if err := n.transcoder.DecodeToPCM(ctx, sourcePath, tmpPath); err != nil {
		return nil, &DecodeError{Path: sourcePath, Err: err}
	}

	buf, err := n.loadWith(func() (Decoder, error) { return NewWAVDecoder(tmpPath) })
	if err != nil {
		return nil, &DecodeError{Path: sourcePath, Err: err}
	}
	return buf, nil
}

// normalizeNative selects a decoder by extension. Containers outside the
// native set require the external transcoder.
func (n *Normalizer) normalizeNative(sourcePath string) (*SampleBuffer, error) {
	var open func() (Decoder, error)
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".wav":
		open = func() (Decoder, error) { return NewWAVDecoder(sourcePath) }
	case ".mp3":
		open = func() (Decoder, error) { return NewMP3Decoder(sourcePath) }
	case ".flac":
		open = func() (Decoder, error) { return NewFLACDecoder(sourcePath) }
	default:
		return nil, &DecodeError{
			Path: sourcePath,
			Err:  fmt.Errorf("no transcoder on PATH and no native decoder for %q", filepath.Ext(sourcePath)),
		}
	}

	buf, err := n.loadWith(open)
	if err != nil {
		return nil, &DecodeError{Path: sourcePath, Err: err}
	}
	return buf, nil
}

func (n *Normalizer) loadWith(open func() (Decoder, error)) (*SampleBuffer, error) {
	dec, err := open()
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	samples, err := drain(dec)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("decoded stream is empty")
	}

	n.logger.Printf("loaded %d samples at %d Hz", len(samples), dec.SampleRate())
	return &SampleBuffer{Data: samples, Rate: dec.SampleRate()}, nil
}
