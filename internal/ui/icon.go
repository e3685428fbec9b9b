package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// iconBytes is rendered at startup. Generating the glyph keeps the binary
// free of embedded image assets.
var iconBytes = renderIcon()

func renderIcon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 22, 22))
	fg := color.RGBA{R: 0xE8, G: 0x5D, B: 0x3A, A: 0xFF}

	// Two bars with a slanted gap between them, read as a cut mark.
	for y := 4; y <= 17; y++ {
		gap := 9 + (y-4)/4
		for x := 3; x <= 18; x++ {
			if x == gap || x == gap+1 {
				continue
			}
			img.Set(x, y, fg)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
