// Package ui provides the interactive terminal front-end for the encode
// phase: a progress bar driven by messages from the background worker.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EncodeProgress reports how far the video encode has advanced.
type EncodeProgress struct {
	Frame       int
	TotalFrames int
	Elapsed     time.Duration
}

// EncodeComplete signals a finished encode.
type EncodeComplete struct {
	OutputFile  string
	Duration    time.Duration
	FileSize    int64
	TotalFrames int
}

// EncodeCancelled signals that the user stopped the encode.
type EncodeCancelled struct{}

// EncodeFailed carries the terminal encode error.
type EncodeFailed struct {
	Err error
}

// quitTimerMsg is sent when it's time to quit after showing completion
type quitTimerMsg struct{}

// CancelFunc is invoked when the user requests cancellation.
type CancelFunc func()

// encodeModel implements the Bubbletea model for the encode phase
type encodeModel struct {
	progress        progress.Model
	lastUpdate      EncodeProgress
	complete        *EncodeComplete
	cancelled       bool
	failed          error
	cancel          CancelFunc
	startTime       time.Time
	width           int
	completionDelay time.Duration
}

// NewEncodeModel creates the encode UI model. cancel is called once when
// the user presses ctrl+c; the worker then reports EncodeCancelled.
func NewEncodeModel(cancel CancelFunc) tea.Model {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &encodeModel{
		progress:        p,
		cancel:          cancel,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
	}
}

// Init initializes the model
func (m *encodeModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *encodeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-30, 50)
		return m, nil

	case EncodeProgress:
		m.lastUpdate = msg
		return m, nil

	case EncodeComplete:
		m.complete = &msg
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case EncodeCancelled:
		m.cancelled = true
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case EncodeFailed:
		m.failed = msg.Err
		return m, tea.Quit

	case quitTimerMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// Any key skips the completion screen delay
		if m.complete != nil || m.cancelled {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI
func (m *encodeModel) View() string {
	switch {
	case m.failed != nil:
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			Render(fmt.Sprintf("✗ Encoding failed: %v", m.failed)) + "\n"
	case m.cancelled:
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C4A000")).
			Render("⏹ Encoding stopped by user") + "\n"
	case m.complete != nil:
		return m.renderComplete()
	}

	return m.renderProgress()
}

func (m *encodeModel) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Vinylgen 💿")

	subtitle := lipgloss.NewStyle().
		Faint(true).
		Render("Rendering groove & encoding video")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(subtitle)
	s.WriteString("\n\n")

	if m.lastUpdate.TotalFrames > 0 {
		percent := float64(m.lastUpdate.Frame) / float64(m.lastUpdate.TotalFrames)

		s.WriteString("Progress: ")
		s.WriteString(m.progress.ViewAs(percent))
		s.WriteString("  ")
		s.WriteString(fmt.Sprintf("%d%%", int(percent*100)))
		s.WriteString("\n\n")

		elapsed := m.lastUpdate.Elapsed
		if elapsed == 0 {
			elapsed = time.Since(m.startTime)
		}

		var eta time.Duration
		if percent > 0 {
			eta = time.Duration(float64(elapsed)/percent) - elapsed
		}

		timingInfo := fmt.Sprintf("Time: %s  │  ETA: %s",
			formatDuration(elapsed),
			formatDuration(eta))

		s.WriteString(lipgloss.NewStyle().Faint(true).Render(timingInfo))
		s.WriteString("\n")

		phaseStyle := lipgloss.NewStyle().Faint(true).Italic(true)
		s.WriteString(phaseStyle.Render(fmt.Sprintf("Frame %d of %d",
			m.lastUpdate.Frame, m.lastUpdate.TotalFrames)))
		s.WriteString("\n")
	} else {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting ffmpeg..."))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render("Press ctrl+c to stop"))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#A40000")).
		Padding(1, 2).
		Render(s.String())
}

func (m *encodeModel) renderComplete() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4A9B4A")).
		Render("✓ Encoding Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Output:   %s\n", m.complete.OutputFile))
	s.WriteString(fmt.Sprintf("Frames:   %d\n", m.complete.TotalFrames))
	s.WriteString(fmt.Sprintf("Time:     %s\n", formatDuration(m.complete.Duration)))

	if m.complete.FileSize > 0 {
		s.WriteString(fmt.Sprintf("Size:     %s\n", formatBytes(m.complete.FileSize)))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4A9B4A")).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
