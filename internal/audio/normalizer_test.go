package audio

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
)

// stubTranscoder stands in for the external codec process. DecodeToPCM
// writes a canned mono WAV file to the requested output path.
type stubTranscoder struct {
	samples    []int
	sampleRate int
	decodeErr  error

	// lastOutput records where the intermediate PCM landed so tests can
	// verify its cleanup.
	lastOutput string
}

func (s *stubTranscoder) DecodeToPCM(ctx context.Context, inputPath, outputPath string) error {
	if s.decodeErr != nil {
		return s.decodeErr
	}
	s.lastOutput = outputPath
	return writeTestWAV(outputPath, s.samples, s.sampleRate)
}

func (s *stubTranscoder) EncodeFrames(ctx context.Context, cfg media.EncodeConfig) (media.FrameSink, error) {
	return nil, errors.New("not implemented")
}

func writeTestWAV(path string, samples []int, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// TestNormalize_ThroughTranscoder verifies the default path: the source
// goes through the external decode into a temp PCM file, which is loaded
// and then removed.
func TestNormalize_ThroughTranscoder(t *testing.T) {
	stub := &stubTranscoder{
		samples:    []int{0, 16384, -16384, 0},
		sampleRate: 44100,
	}
	n := NewNormalizer(stub, testLogger())

	buf, err := n.Normalize(context.Background(), "anything.xyz")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if buf.Rate != 44100 {
		t.Errorf("sample rate = %d, want 44100", buf.Rate)
	}
	if len(buf.Data) != 4 {
		t.Fatalf("len(Data) = %d, want 4", len(buf.Data))
	}
	if math.Abs(buf.Data[1]-0.5) > 0.001 {
		t.Errorf("Data[1] = %v, want ~0.5", buf.Data[1])
	}
	if buf.Data[2] >= 0 {
		t.Errorf("Data[2] = %v, want negative", buf.Data[2])
	}

	// The intermediate file must be gone.
	if _, err := os.Stat(stub.lastOutput); !os.IsNotExist(err) {
		t.Errorf("intermediate PCM %s still exists", stub.lastOutput)
	}
}

// TestNormalize_DecodeFailure verifies a failing external decode comes
// back as a DecodeError carrying the source path.
func TestNormalize_DecodeFailure(t *testing.T) {
	stub := &stubTranscoder{decodeErr: errors.New("unsupported codec")}
	n := NewNormalizer(stub, testLogger())

	_, err := n.Normalize(context.Background(), "broken.ogg")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if decodeErr.Path != "broken.ogg" {
		t.Errorf("DecodeError.Path = %q, want %q", decodeErr.Path, "broken.ogg")
	}
}

// TestNormalize_EmptyStream verifies a decode that produces no samples
// is rejected rather than propagating an empty buffer downstream.
func TestNormalize_EmptyStream(t *testing.T) {
	stub := &stubTranscoder{samples: nil, sampleRate: 44100}
	n := NewNormalizer(stub, testLogger())

	_, err := n.Normalize(context.Background(), "silent.wav")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

// unavailableTranscoder forces the native decode path.
type unavailableTranscoder struct{ stubTranscoder }

func (u *unavailableTranscoder) Available() bool { return false }

// TestNormalize_NativeWAV verifies the fallback decoder handles a WAV
// file directly when no external transcoder is on PATH.
func TestNormalize_NativeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := writeTestWAV(path, []int{0, 8192, -8192, 0}, 22050); err != nil {
		t.Fatalf("writing test WAV: %v", err)
	}

	n := NewNormalizer(&unavailableTranscoder{}, testLogger())

	buf, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.Rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", buf.Rate)
	}
	if len(buf.Data) != 4 {
		t.Errorf("len(Data) = %d, want 4", len(buf.Data))
	}
}

// TestNormalize_NativeUnknownExtension verifies the fallback rejects
// containers it has no decoder for.
func TestNormalize_NativeUnknownExtension(t *testing.T) {
	n := NewNormalizer(&unavailableTranscoder{}, testLogger())

	_, err := n.Normalize(context.Background(), "movie.ogg")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}
