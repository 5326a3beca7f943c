// Package session ties the pipeline together: it owns the loaded sample
// buffer, the derived spiral geometry, the last rendered preview frame,
// and the single background encode job.
package session

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/audio"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/config"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/encoder"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/renderer"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/spiral"
)

// Session is the single active render session. Not safe for concurrent
// mutation; the one concurrent boundary is the background encode worker,
// which only reads the geometry it was handed at start.
type Session struct {
	opts       config.Options
	transcoder media.Transcoder
	logger     *log.Logger

	normalizer *audio.Normalizer
	renderer   *renderer.Renderer

	mu        sync.Mutex
	audioPath string
	buffer    *audio.SampleBuffer
	profile   *audio.Profile
	points    []spiral.Point
	frame     *image.RGBA

	encoding atomic.Bool
}

// New creates a session with the given options, external transcoder and
// logger sink.
func New(opts config.Options, t media.Transcoder, logger *log.Logger) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		opts:       opts,
		transcoder: t,
		logger:     logger,
		normalizer: audio.NewNormalizer(t, logger),
		renderer:   renderer.New(opts.CanvasSize, opts.Background, opts.Groove, opts.Progress),
	}, nil
}

// Load decodes an audio file into the session, replacing any previous
// buffer and invalidating the derived geometry. A decode failure leaves
// the session usable for a retry.
func (s *Session) Load(ctx context.Context, path string) error {
	buf, err := s.normalizer.Normalize(ctx, path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioPath = path
	s.buffer = buf
	s.profile = audio.Analyze(buf)
	s.points = nil
	s.frame = nil
	return nil
}

// BuildAndRender recomputes the spiral for the given parameters and
// rasterizes the initial frame (progress 0). On failure the previous
// points and frame are left unchanged.
func (s *Session) BuildAndRender(params spiral.Params) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer == nil {
		return nil, fmt.Errorf("no audio loaded")
	}

	points, err := spiral.Build(s.buffer.Data, s.opts.CanvasSize, params)
	if err != nil {
		return nil, err
	}

	frame := s.renderer.Render(points, 0)
	s.points = points
	s.frame = frame
	return frame, nil
}

// SavePreview writes the last rendered frame as a PNG, with the optional
// title overlay applied.
func (s *Session) SavePreview(path string) error {
	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()

	if frame == nil {
		return fmt.Errorf("nothing rendered yet")
	}

	if s.opts.Title != "" && s.opts.FontPath != "" {
		face, err := renderer.LoadFont(s.opts.FontPath, float64(s.opts.CanvasSize)/20)
		if err != nil {
			s.logger.Printf("title overlay skipped: %v", err)
		} else {
			renderer.DrawTitle(frame, face, s.opts.Title, s.opts.Groove)
		}
	}
	return renderer.SavePNG(frame, path)
}

// SaveThumbnail writes a downscaled copy of the last rendered frame.
func (s *Session) SaveThumbnail(path string) error {
	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()

	if frame == nil {
		return fmt.Errorf("nothing rendered yet")
	}
	return renderer.SavePNG(renderer.Thumbnail(frame, config.ThumbnailSize), path)
}

// Profile returns the analysis of the loaded audio, or nil before Load.
func (s *Session) Profile() *audio.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Duration returns the loaded audio length in seconds, 0 before Load.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Duration()
}

// Job is a handle to one background encode: cancel it, then wait for the
// terminal outcome.
type Job struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel requests cooperative cancellation; the worker responds within
// one frame period.
func (j *Job) Cancel() {
	j.cancel()
}

// Wait blocks until the job reaches a terminal state and returns nil on
// completion, encoder.ErrCancelled on user cancellation, or the encode
// failure.
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// StartEncode launches the background encode worker for the current
// geometry. Exactly one encode may run at a time; a second call while a
// job is active fails. The progress callback is invoked from the worker
// goroutine.
func (s *Session) StartEncode(outputPath string, onProgress encoder.ProgressFunc) (*Job, error) {
	s.mu.Lock()
	points := s.points
	audioPath := s.audioPath
	var duration float64
	if s.buffer != nil {
		duration = s.buffer.Duration()
	}
	s.mu.Unlock()

	if len(points) == 0 {
		return nil, fmt.Errorf("no spiral built; load audio and render first")
	}

	if !s.encoding.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("an encode is already in progress")
	}

	enc, err := encoder.New(encoder.Config{
		AudioPath:  audioPath,
		OutputPath: outputPath,
		Width:      s.opts.CanvasSize,
		Height:     s.opts.CanvasSize,
		Framerate:  s.opts.FPS,
		CRF:        s.opts.CRF,
	}, s.transcoder, s.logger)
	if err != nil {
		s.encoding.Store(false)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		defer s.encoding.Store(false)
		defer cancel()
		job.err = enc.Encode(ctx, points, duration, s.renderer, onProgress)
	}()

	return job, nil
}
