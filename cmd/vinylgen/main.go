package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/cli"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/config"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/encoder"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/media"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/session"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/spiral"
	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input  string `arg:"" name:"input" help:"Input audio file (wav, mp3, flac, ...)" optional:""`
	Output string `arg:"" name:"output" help:"Output MP4 file (default: <input>_vinyl.mp4)" optional:""`

	R0    float64 `help:"Inner radius of the groove in pixels" default:"500"`
	Pitch float64 `help:"Radial distance between adjacent groove turns" default:"5"`
	Amp   float64 `help:"Waveform amplitude scale in pixels" default:"40"`
	Size  int     `help:"Canvas size in pixels (square, must be even)" default:"2000"`
	Fps   int     `help:"Video framerate" default:"10"`
	Crf   int     `help:"H.264 quality, 0 (lossless) to 51" default:"23"`

	Background  string `help:"Background colour" default:"#000000"`
	Groove      string `help:"Groove colour" default:"#CCCCCC"`
	ProgressCol string `name:"progress" help:"Played-portion colour" default:"#FF0000"`

	Title string `help:"Title drawn on the preview image"`
	Font  string `help:"TrueType font file for --title"`

	PreviewOnly bool `name:"preview" help:"Write the preview PNG and thumbnail, skip the video"`
	NoUI        bool `name:"no-ui" help:"Disable the interactive progress display"`

	Version bool `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("vinylgen"),
		kong.Description("Press your audio into a spinning vinyl groove and cut an MP4 of the playback."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}

	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	opts, err := buildOptions()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	defaultVideo, previewFile, thumbFile := artifactPaths(CLI.Input)
	outputFile := CLI.Output
	if outputFile == "" {
		outputFile = defaultVideo
	}

	logger := log.New(os.Stderr, "", 0)
	transcoder := media.NewFFmpeg("", logger)
	if !transcoder.Available() {
		if CLI.PreviewOnly {
			cli.PrintWarning("ffmpeg not found in PATH; decoding natively")
		} else {
			cli.PrintError("ffmpeg not found in PATH; it is required for video encoding")
			os.Exit(1)
		}
	}

	sess, err := session.New(opts, transcoder, logger)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	cli.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.PrintInfo("Input", CLI.Input)
	if err := sess.Load(ctx, CLI.Input); err != nil {
		cli.PrintError(fmt.Sprintf("decoding audio: %v", err))
		os.Exit(1)
	}

	if profile := sess.Profile(); profile != nil {
		cli.PrintInfo("Duration", fmt.Sprintf("%.1fs @ %d Hz", profile.Duration, profile.SampleRate))
		if profile.DominantHz > 0 {
			cli.PrintInfo("Dominant", fmt.Sprintf("%.1f Hz", profile.DominantHz))
		}
	}

	params := spiral.Params{R0: CLI.R0, Pitch: CLI.Pitch, AmpScale: CLI.Amp}
	if _, err := sess.BuildAndRender(params); err != nil {
		cli.PrintError(fmt.Sprintf("building spiral: %v", err))
		os.Exit(1)
	}

	if err := sess.SavePreview(previewFile); err != nil {
		cli.PrintError(fmt.Sprintf("writing preview: %v", err))
		os.Exit(1)
	}
	cli.PrintSuccess("Preview: " + previewFile)

	if err := sess.SaveThumbnail(thumbFile); err != nil {
		cli.PrintWarning(fmt.Sprintf("writing thumbnail: %v", err))
	} else {
		cli.PrintSuccess("Thumbnail: " + thumbFile)
	}

	if CLI.PreviewOnly {
		return
	}

	if CLI.NoUI {
		encodePlain(ctx, sess, outputFile)
		return
	}
	encodeInteractive(sess, outputFile)
}

// artifactPaths derives the default output names from the input's base
// name. Artifacts land in the working directory, not next to the input.
func artifactPaths(inputPath string) (video, preview, thumb string) {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_vinyl.mp4", base + "_vinyl.png", base + "_vinyl_thumb.png"
}

func buildOptions() (config.Options, error) {
	opts := config.Default()
	opts.CanvasSize = CLI.Size
	opts.FPS = CLI.Fps
	opts.CRF = CLI.Crf
	opts.R0 = CLI.R0
	opts.Pitch = CLI.Pitch
	opts.AmpScale = CLI.Amp
	opts.Title = CLI.Title
	opts.FontPath = CLI.Font

	var err error
	if opts.Background, err = config.ParseHexColor(CLI.Background); err != nil {
		return opts, fmt.Errorf("--background: %w", err)
	}
	if opts.Groove, err = config.ParseHexColor(CLI.Groove); err != nil {
		return opts, fmt.Errorf("--groove: %w", err)
	}
	if opts.Progress, err = config.ParseHexColor(CLI.ProgressCol); err != nil {
		return opts, fmt.Errorf("--progress: %w", err)
	}
	return opts, opts.Validate()
}

// encodeInteractive runs the encode behind the Bubbletea progress UI.
// ctrl+c cancels the job; the worker confirms before the UI exits.
func encodeInteractive(sess *session.Session, outputFile string) {
	var job *session.Job
	model := ui.NewEncodeModel(func() {
		if job != nil {
			job.Cancel()
		}
	})
	p := tea.NewProgram(model)

	start := time.Now()
	job, err := sess.StartEncode(outputFile, func(framesSent, frameCount int) {
		p.Send(ui.EncodeProgress{
			Frame:       framesSent,
			TotalFrames: frameCount,
			Elapsed:     time.Since(start),
		})
	})
	if err != nil {
		cli.PrintError(fmt.Sprintf("starting encode: %v", err))
		os.Exit(1)
	}

	go func() {
		err := job.Wait()
		switch {
		case err == nil:
			var size int64
			if info, statErr := os.Stat(outputFile); statErr == nil {
				size = info.Size()
			}
			p.Send(ui.EncodeComplete{
				OutputFile:  outputFile,
				Duration:    time.Since(start),
				FileSize:    size,
				TotalFrames: totalFrames(sess),
			})
		case errors.Is(err, encoder.ErrCancelled):
			p.Send(ui.EncodeCancelled{})
		default:
			p.Send(ui.EncodeFailed{Err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("running UI: %v", err))
		os.Exit(1)
	}

	switch waitErr := job.Wait(); {
	case waitErr == nil:
		cli.PrintSuccess("Done! Output: " + outputFile)
	case errors.Is(waitErr, encoder.ErrCancelled):
		cli.PrintWarning("Encoding stopped by user")
		os.Exit(130)
	default:
		os.Exit(1)
	}
}

// encodePlain runs the encode without the TUI, printing one line per
// progress tick. SIGINT cancels via the signal context.
func encodePlain(ctx context.Context, sess *session.Session, outputFile string) {
	start := time.Now()
	job, err := sess.StartEncode(outputFile, func(framesSent, frameCount int) {
		fmt.Printf("\rEncoding: %d/%d frames (%d%%)",
			framesSent, frameCount, framesSent*100/frameCount)
	})
	if err != nil {
		cli.PrintError(fmt.Sprintf("starting encode: %v", err))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		job.Cancel()
	}()

	switch waitErr := job.Wait(); {
	case waitErr == nil:
		fmt.Println()
		cli.PrintSuccess(fmt.Sprintf("Done in %s! Output: %s",
			cli.FormatDuration(time.Since(start)), outputFile))
		if info, err := os.Stat(outputFile); err == nil {
			cli.PrintInfo("Size", cli.FormatBytes(info.Size()))
		}
	case errors.Is(waitErr, encoder.ErrCancelled):
		fmt.Println()
		cli.PrintWarning("Encoding stopped by user")
		os.Exit(130)
	default:
		fmt.Println()
		cli.PrintError(fmt.Sprintf("during encoding: %v", waitErr))
		os.Exit(1)
	}
}

func totalFrames(sess *session.Session) int {
	return int(math.Floor(sess.Duration() * float64(CLI.Fps)))
}
