package encoder

import "image"

// packRGB24 serializes an RGBA frame into the interleaved rgb24 layout
// the encoder pipe expects, dropping the alpha channel. Reading Pix
// directly avoids the bounds checks and color conversion of img.At.
func packRGB24(img *image.RGBA, dst []byte) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	di := 0
	for y := 0; y < height; y++ {
		row := y * img.Stride
		for x := 0; x < width; x++ {
			si := row + x*4
			dst[di] = img.Pix[si]
			dst[di+1] = img.Pix[si+1]
			dst[di+2] = img.Pix[si+2]
			di += 3
		}
	}
}
