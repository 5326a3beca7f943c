// Package media abstracts the external codec process behind a narrow
// transcoder interface so the rendering pipeline has no direct dependency
// on process spawning.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

// Transcoder is the boundary to the external media codec. DecodeToPCM
// turns any supported audio container into mono 16-bit PCM WAV;
// EncodeFrames opens a streaming sink that muxes raw rgb24 frames with an
// audio file into one output container.
type Transcoder interface {
	DecodeToPCM(ctx context.Context, inputPath, outputPath string) error
	EncodeFrames(ctx context.Context, cfg EncodeConfig) (FrameSink, error)
}

// FrameSink accepts raw interleaved rgb24 frames. Writes block when the
// encoder falls behind, which is the intended backpressure. Close the
// sink after the last frame, then Wait for the encoder to finish. Kill
// terminates and reaps the encoder process on cancellation.
type FrameSink interface {
	io.WriteCloser
	Wait() error
	Kill() error
}

// EncodeConfig describes one streaming encode job.
type EncodeConfig struct {
	AudioPath  string // pre-decoded or original audio file, second input
	OutputPath string // output container, overwritten if present
	Width      int
	Height     int
	Framerate  int
	CRF        int
}

// FFmpeg runs ffmpeg subprocesses. The zero value is not usable; use
// NewFFmpeg.
type FFmpeg struct {
	path   string
	logger *log.Logger
}

// NewFFmpeg returns a transcoder invoking the given ffmpeg binary
// (usually just "ffmpeg"). The logger receives one line per spawned
// process.
func NewFFmpeg(path string, logger *log.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

// Available reports whether the ffmpeg binary can be found on PATH.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.path)
	return err == nil
}

// DecodeToPCM transcodes the first audio stream of inputPath into mono
// 16-bit little-endian PCM WAV at outputPath, overwriting it.
func (f *FFmpeg) DecodeToPCM(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.path,
		"-i", inputPath,
		"-map", "0:a:0",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		"-y", outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Printf("decoding %s to mono PCM", inputPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w: %s", err, stderrTail(&stderr))
	}
	return nil
}

// EncodeFrames starts an ffmpeg process that reads rawvideo rgb24 frames
// from stdin, muxes them with the audio file, and writes H.264/AAC output.
func (f *FFmpeg) EncodeFrames(ctx context.Context, cfg EncodeConfig) (FrameSink, error) {
	cmd := exec.CommandContext(ctx, f.path,
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-framerate", fmt.Sprintf("%d", cfg.Framerate),
		"-i", "pipe:0",
		"-i", cfg.AudioPath,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", fmt.Sprintf("%d", cfg.CRF),
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		cfg.OutputPath,
	)

	sink := &ffmpegSink{cmd: cmd}
	cmd.Stderr = &sink.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating encoder pipe: %w", err)
	}
	sink.stdin = stdin

	f.logger.Printf("encoding %dx%d@%dfps crf=%d to %s",
		cfg.Width, cfg.Height, cfg.Framerate, cfg.CRF, cfg.OutputPath)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting encoder: %w", err)
	}
	return sink, nil
}

type ffmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
}

func (s *ffmpegSink) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *ffmpegSink) Close() error {
	return s.stdin.Close()
}

// Wait reaps the encoder after Close. A non-zero exit surfaces with the
// tail of the process stderr attached.
func (s *ffmpegSink) Wait() error {
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("encoder exited: %w: %s", err, stderrTail(&s.stderr))
	}
	return nil
}

// Kill terminates the encoder and reaps it so no orphan process remains.
// The wait error is discarded; a killed encoder always exits non-zero.
func (s *ffmpegSink) Kill() error {
	s.stdin.Close()
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			return err
		}
	}
	_ = s.cmd.Wait()
	return nil
}

// stderrTail returns the last few lines of captured process output,
// enough to identify a failure without dumping the full transcript.
func stderrTail(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	const keep = 4
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}
