// Package encoder drives the streaming video encode: one rasterized
// frame per output tick, piped to the external encoder, interleaved with
// a cancellation check and progress reporting.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/renderer"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/spiral"
)

// ErrCancelled is the terminal outcome of an encode stopped by the user.
// It is distinct from a failure; any partial output file is not valid.
var ErrCancelled = errors.New("encoding cancelled")

// EncodeError reports a failed encode: broken pipe, non-zero encoder
// exit, or a setup problem.
type EncodeError struct {
	Output string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Output, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// ProgressFunc receives (framesSent, frameCount) roughly once per 1% of
// frames, plus a final call with framesSent == frameCount.
type ProgressFunc func(framesSent, frameCount int)

// Config holds the encode parameters.
type Config struct {
	AudioPath  string // audio input muxed alongside the frame stream
	OutputPath string
	Width      int
	Height     int
	Framerate  int
	CRF        int
}

// Encoder streams rasterized frames into the external encoder process.
type Encoder struct {
	cfg        Config
	transcoder media.Transcoder
	logger     *log.Logger
}

// New validates the configuration and returns an Encoder.
func New(cfg Config, t media.Transcoder, logger *log.Logger) (*Encoder, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Framerate <= 0 {
		return nil, fmt.Errorf("invalid framerate: %d", cfg.Framerate)
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	return &Encoder{cfg: cfg, transcoder: t, logger: logger}, nil
}

// Encode renders floor(duration*framerate) frames and streams them to
// the encoder process. The context cancels cooperatively, checked once
// per frame; a pre-cancelled context sends zero frames. Returns
// ErrCancelled on cancellation, an *EncodeError on failure, nil on
// completion.
//
// Encode blocks for the length of the job and must not run on the
// interactive goroutine.
func (e *Encoder) Encode(ctx context.Context, points []spiral.Point, duration float64, rend *renderer.Renderer, onProgress ProgressFunc) error {
	frameCount := int(math.Floor(duration * float64(e.cfg.Framerate)))
	if frameCount <= 0 {
		return &EncodeError{Output: e.cfg.OutputPath, Err: fmt.Errorf("duration %.3fs yields no frames", duration)}
	}
	if onProgress == nil {
		onProgress = func(int, int) {}
	}

	sink, err := e.transcoder.EncodeFrames(ctx, media.EncodeConfig{
		AudioPath:  e.cfg.AudioPath,
		OutputPath: e.cfg.OutputPath,
		Width:      e.cfg.Width,
		Height:     e.cfg.Height,
		Framerate:  e.cfg.Framerate,
		CRF:        e.cfg.CRF,
	})
	if err != nil {
		// The process is bound to ctx, so a cancelled context surfaces
		// here as a start failure. That is the user stopping, not an
		// encoder fault.
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return &EncodeError{Output: e.cfg.OutputPath, Err: err}
	}

	if rend.Size() != e.cfg.Width || rend.Size() != e.cfg.Height {
		_ = sink.Kill()
		return &EncodeError{Output: e.cfg.OutputPath, Err: fmt.Errorf("renderer canvas %d does not match frame size %dx%d", rend.Size(), e.cfg.Width, e.cfg.Height)}
	}

	img := image.NewRGBA(image.Rect(0, 0, e.cfg.Width, e.cfg.Height)) // reused across frames
	rgb := make([]byte, e.cfg.Width*e.cfg.Height*3)

	// At least one progress report even for very short clips.
	every := frameCount / 100
	if every < 1 {
		every = 1
	}

	e.logger.Printf("streaming %d frames to %s", frameCount, e.cfg.OutputPath)

	for i := 0; i < frameCount; i++ {
		select {
		case <-ctx.Done():
			if kerr := sink.Kill(); kerr != nil {
				e.logger.Printf("killing encoder: %v", kerr)
			}
			return ErrCancelled
		default:
		}

		progress := float64(i) / float64(frameCount)
		rend.RenderInto(img, points, progress)
		packRGB24(img, rgb)

		if _, err := sink.Write(rgb); err != nil {
			_ = sink.Kill()
			// A cancel arriving while the write is blocked on
			// backpressure tears down the process and fails the write;
			// report it as the cancelled outcome, not a pipe failure.
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return &EncodeError{Output: e.cfg.OutputPath, Err: fmt.Errorf("writing frame %d: %w", i, err)}
		}

		if i%every == 0 {
			onProgress(i+1, frameCount)
		}
	}

	if err := sink.Close(); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return &EncodeError{Output: e.cfg.OutputPath, Err: fmt.Errorf("closing frame stream: %w", err)}
	}
	if err := sink.Wait(); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return &EncodeError{Output: e.cfg.OutputPath, Err: err}
	}

	onProgress(frameCount, frameCount)
	e.logger.Printf("encode complete: %s", e.cfg.OutputPath)
	return nil
}
