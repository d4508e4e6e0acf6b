// ABOUTME: Color-bar test pattern generator
// ABOUTME: Renders eight vertical bars as a BGRA frame for the active format
package media

import "github.com/openplayout/playout-go/pkg/format"

// bar colors in BGRA order: white, yellow, cyan, green, magenta, red, blue,
// black — the classic bar sequence.
var barColors = [][4]byte{
	{235, 235, 235, 255},
	{0, 235, 235, 255},
	{235, 235, 0, 255},
	{0, 235, 0, 255},
	{235, 0, 235, 255},
	{0, 0, 235, 255},
	{235, 0, 0, 255},
	{16, 16, 16, 255},
}

// Bars renders a full-frame color-bar pattern for fd.
func Bars(fd format.Format) []byte {
	img := make([]byte, fd.Size())
	barWidth := fd.Width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}

	for y := 0; y < fd.Height; y++ {
		row := y * fd.RowBytes()
		for x := 0; x < fd.Width; x++ {
			bar := x / barWidth
			if bar >= len(barColors) {
				bar = len(barColors) - 1
			}
			c := barColors[bar]
			p := row + x*format.BytesPerPixel
			img[p] = c[0]
			img[p+1] = c[1]
			img[p+2] = c[2]
			img[p+3] = c[3]
		}
	}

	return img
}
