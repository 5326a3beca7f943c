package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/EugeneBalagun/WAV-Vinyl-Generator/internal/spiral"
)

// Renderer rasterizes a spiral point sequence into square RGBA frames,
// splitting the polyline into a played and an unplayed portion by a
// progress fraction.
type Renderer struct {
	size       int
	background color.RGBA
	groove     color.RGBA
	progress   color.RGBA

	// Background fill pattern, 8 pixels wide, for fast row clears.
	bgPattern [32]byte
}

// New creates a renderer for a size x size canvas.
func New(size int, background, groove, progress color.RGBA) *Renderer {
	r := &Renderer{
		size:       size,
		background: background,
		groove:     groove,
		progress:   progress,
	}
	for i := 0; i < 8; i++ {
		r.bgPattern[i*4] = background.R
		r.bgPattern[i*4+1] = background.G
		r.bgPattern[i*4+2] = background.B
		r.bgPattern[i*4+3] = 255
	}
	return r
}

// Size returns the canvas side length in pixels.
func (r *Renderer) Size() int {
	return r.size
}

// Render rasterizes one frame at the given progress fraction. Pure
// function of (points, progress): repeated calls produce pixel-identical
// frames.
func (r *Renderer) Render(points []spiral.Point, progress float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	r.RenderInto(img, points, progress)
	return img
}

// RenderInto rasterizes into an existing canvas-sized image, the
// allocation-free variant used by the frame loop.
func (r *Renderer) RenderInto(img *image.RGBA, points []spiral.Point, progress float64) {
	r.clear(img)

	n := len(points)
	if n == 0 {
		return
	}
	split := int(float64(n) * progress)
	if split > n {
		split = n
	}

	// Played portion first, then the remainder in the groove color.
	if split > 1 {
		r.polyline(img, points[:split], r.progress)
	}
	if split < n {
		r.polyline(img, points[split:], r.groove)
	}
}

func (r *Renderer) clear(img *image.RGBA) {
	pix := img.Pix
	for i := 0; i+32 <= len(pix); i += 32 {
		copy(pix[i:i+32], r.bgPattern[:])
	}
	// Canvas sizes are multiples of 8 pixels in practice, but cover the
	// tail for odd sizes.
	for i := len(pix) - len(pix)%32; i < len(pix); i += 4 {
		pix[i] = r.background.R
		pix[i+1] = r.background.G
		pix[i+2] = r.background.B
		pix[i+3] = 255
	}
}

// polyline draws 1-px segments connecting consecutive points.
func (r *Renderer) polyline(img *image.RGBA, pts []spiral.Point, c color.RGBA) {
	if len(pts) == 1 {
		r.setPixel(img, int(math.Round(pts[0].X)), int(math.Round(pts[0].Y)), c)
		return
	}
	for i := 1; i < len(pts); i++ {
		r.line(img,
			int(math.Round(pts[i-1].X)), int(math.Round(pts[i-1].Y)),
			int(math.Round(pts[i].X)), int(math.Round(pts[i].Y)), c)
	}
}

// line draws a hairline segment with the integer Bresenham walk, writing
// straight into the pixel buffer.
func (r *Renderer) line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		r.setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= r.size || y >= r.size {
		return
	}
	off := y*img.Stride + x*4
	img.Pix[off] = c.R
	img.Pix[off+1] = c.G
	img.Pix[off+2] = c.B
	img.Pix[off+3] = 255
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
