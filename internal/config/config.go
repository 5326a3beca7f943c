package config

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Canvas and video settings
const (
	CanvasSize = 2000 // square canvas, pixels per side
	FPS        = 10
	CRF        = 23 // libx264 constant rate factor (0-51, lower = better)

	// EdgeMargin reserves 2% of the canvas radius so the outermost
	// groove winding never touches the edge.
	EdgeMargin = 0.98
)

// Spiral defaults. Recommended ranges: R0 100-2000, Pitch 1-10,
// AmpScale 10-100.
const (
	DefaultR0       = 500.0
	DefaultPitch    = 5.0
	DefaultAmpScale = 40.0
)

// Default colors (hex)
const (
	DefaultBackground = "#000000" // canvas fill
	DefaultGroove     = "#CCCCCC" // unplayed portion of the spiral
	DefaultProgress   = "#FF0000" // already-played portion
)

// ThumbnailSize is the side length in pixels of the small preview written
// next to the video.
const ThumbnailSize = 400

// Options holds the user-adjustable render configuration. The zero value
// is not usable; start from Default().
type Options struct {
	CanvasSize int
	FPS        int
	CRF        int

	Background color.RGBA
	Groove     color.RGBA
	Progress   color.RGBA

	R0       float64
	Pitch    float64
	AmpScale float64

	// Optional title overlay drawn on the preview image. FontPath empty
	// disables the overlay.
	Title    string
	FontPath string
}

// Default returns the reference configuration: a 2000x2000 black canvas,
// light-gray groove, red progress trace, 10 fps, CRF 23.
func Default() Options {
	return Options{
		CanvasSize: CanvasSize,
		FPS:        FPS,
		CRF:        CRF,
		Background: mustHex(DefaultBackground),
		Groove:     mustHex(DefaultGroove),
		Progress:   mustHex(DefaultProgress),
		R0:         DefaultR0,
		Pitch:      DefaultPitch,
		AmpScale:   DefaultAmpScale,
	}
}

// Validate reports the first problem with the options, if any.
func (o Options) Validate() error {
	if o.CanvasSize <= 0 {
		return fmt.Errorf("canvas size must be positive, got %d", o.CanvasSize)
	}
	// libx264 with yuv420p needs even dimensions.
	if o.CanvasSize%2 != 0 {
		return fmt.Errorf("canvas size must be even, got %d", o.CanvasSize)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", o.FPS)
	}
	if o.CRF < 0 || o.CRF > 51 {
		return fmt.Errorf("crf must be in 0-51, got %d", o.CRF)
	}
	if o.Pitch <= 0 {
		return fmt.Errorf("spiral pitch must be positive, got %g", o.Pitch)
	}
	return nil
}

// ParseHexColor parses a "#RRGGBB" (or "#RGB") color string.
func ParseHexColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// mustHex is for package-internal constants known to be valid.
func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
