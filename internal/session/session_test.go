package session

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/config"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/encoder"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/spiral"
)

// gatedSink blocks its first Write until the gate opens, giving tests a
// window where the encode is reliably in flight.
type gatedSink struct {
	started   chan struct{}
	gate      chan struct{}
	startOnce sync.Once

	mu      sync.Mutex
	written int
	killed  bool
}

func newGatedSink() *gatedSink {
	return &gatedSink{
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
}

func (s *gatedSink) Write(p []byte) (int, error) {
	s.startOnce.Do(func() { close(s.started) })
	<-s.gate
	s.mu.Lock()
	s.written += len(p)
	s.mu.Unlock()
	return len(p), nil
}

func (s *gatedSink) Close() error { return nil }
func (s *gatedSink) Wait() error  { return nil }

func (s *gatedSink) Kill() error {
	s.mu.Lock()
	s.killed = true
	s.mu.Unlock()
	return nil
}

// testTranscoder decodes by writing a canned mono WAV and encodes into a
// gated in-memory sink.
type testTranscoder struct {
	samples    []int
	sampleRate int
	sink       *gatedSink
}

func (t *testTranscoder) DecodeToPCM(ctx context.Context, inputPath, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, t.sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: t.sampleRate},
		Data:           t.samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func (t *testTranscoder) EncodeFrames(ctx context.Context, cfg media.EncodeConfig) (media.FrameSink, error) {
	return t.sink, nil
}

func newTestSession(t *testing.T) (*Session, *testTranscoder) {
	t.Helper()

	// Half a second of audio: 5 frames at the default 10 fps.
	samples := make([]int, 22050)
	for i := range samples {
		samples[i] = (i%200 - 100) * 80
	}
	tr := &testTranscoder{samples: samples, sampleRate: 44100, sink: newGatedSink()}

	opts := config.Default()
	opts.CanvasSize = 64

	sess, err := New(opts, tr, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sess, tr
}

func loadAndBuild(t *testing.T, sess *Session) {
	t.Helper()
	if err := sess.Load(context.Background(), "track.xyz"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := sess.BuildAndRender(spiral.Params{R0: 10, Pitch: 2, AmpScale: 5}); err != nil {
		t.Fatalf("BuildAndRender: %v", err)
	}
}

// TestSession_LoadAndRender covers the happy path through decode,
// analysis, geometry and preview output.
func TestSession_LoadAndRender(t *testing.T) {
	sess, _ := newTestSession(t)
	loadAndBuild(t, sess)

	if d := sess.Duration(); d < 0.49 || d > 0.51 {
		t.Errorf("Duration = %v, want ~0.5", d)
	}
	if p := sess.Profile(); p == nil || p.SampleRate != 44100 {
		t.Errorf("Profile = %+v, want SampleRate 44100", p)
	}

	path := filepath.Join(t.TempDir(), "preview.png")
	if err := sess.SavePreview(path); err != nil {
		t.Fatalf("SavePreview: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

// TestSession_BuildFailureKeepsState verifies a failed rebuild leaves
// the previous geometry usable.
func TestSession_BuildFailureKeepsState(t *testing.T) {
	sess, _ := newTestSession(t)
	loadAndBuild(t, sess)

	if _, err := sess.BuildAndRender(spiral.Params{R0: 10, Pitch: -1, AmpScale: 5}); err == nil {
		t.Fatal("BuildAndRender accepted a negative pitch")
	}

	// Previous frame still present.
	path := filepath.Join(t.TempDir(), "preview.png")
	if err := sess.SavePreview(path); err != nil {
		t.Errorf("SavePreview after failed rebuild: %v", err)
	}
}

// TestSession_SingleActiveEncode verifies a second StartEncode is
// rejected while one job runs, and that the slot frees up afterwards.
func TestSession_SingleActiveEncode(t *testing.T) {
	sess, tr := newTestSession(t)
	loadAndBuild(t, sess)

	job, err := sess.StartEncode("out.mp4", nil)
	if err != nil {
		t.Fatalf("StartEncode: %v", err)
	}

	select {
	case <-tr.sink.started:
	case <-time.After(5 * time.Second):
		t.Fatal("encode worker never wrote a frame")
	}

	if _, err := sess.StartEncode("other.mp4", nil); err == nil {
		t.Error("second StartEncode accepted while a job is active")
	}

	close(tr.sink.gate)
	if err := job.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// Slot released; a new job may start.
	tr.sink = newGatedSink()
	close(tr.sink.gate)
	job2, err := sess.StartEncode("again.mp4", nil)
	if err != nil {
		t.Fatalf("StartEncode after completion: %v", err)
	}
	if err := job2.Wait(); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
}

// TestSession_CancelEncode verifies Cancel stops the worker within one
// frame and Wait reports the cancelled outcome.
func TestSession_CancelEncode(t *testing.T) {
	sess, tr := newTestSession(t)
	loadAndBuild(t, sess)

	job, err := sess.StartEncode("out.mp4", nil)
	if err != nil {
		t.Fatalf("StartEncode: %v", err)
	}

	select {
	case <-tr.sink.started:
	case <-time.After(5 * time.Second):
		t.Fatal("encode worker never wrote a frame")
	}

	job.Cancel()
	close(tr.sink.gate)

	if err := job.Wait(); !errors.Is(err, encoder.ErrCancelled) {
		t.Fatalf("Wait = %v, want ErrCancelled", err)
	}

	tr.sink.mu.Lock()
	killed := tr.sink.killed
	tr.sink.mu.Unlock()
	if !killed {
		t.Error("encoder process not killed on cancellation")
	}
}

// TestSession_EncodeRequiresGeometry verifies encode attempts before a
// build are rejected cleanly.
func TestSession_EncodeRequiresGeometry(t *testing.T) {
	sess, _ := newTestSession(t)

	if _, err := sess.StartEncode("out.mp4", nil); err == nil {
		t.Error("StartEncode accepted with no geometry")
	}
}
