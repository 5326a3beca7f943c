package cli

import "github.com/charmbracelet/lipgloss"

// Vinyl colour palette 💿
// Shared theme colours for consistent branding across CLI and TUI
var (
	VinylRed    = lipgloss.Color("#A40000") // Label red
	GrooveGray  = lipgloss.Color("#CCCCCC") // Groove silver
	NeedleWhite = lipgloss.Color("#FFFFFF") // Stylus white

	// Accent colour
	DustGray = lipgloss.Color("#888888") // Subtle text
)
