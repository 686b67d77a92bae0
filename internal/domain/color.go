package domain

import (
	"fmt"
	"image/color"
)

// RGB is an opaque display color with 8-bit channels.
// Colors travel between components as this struct, never as display strings.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Default colors of the visualizer, matching the launcher's initial picker values.
var (
	DefaultBarColor        = RGB{R: 53, G: 132, B: 228}
	DefaultBackgroundColor = RGB{R: 255, G: 255, B: 255}
)

// RGBA implements color.Color. The color is always fully opaque.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// String formats the color as #rrggbb for logs.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBFromColor converts any color.Color to RGB.
// Alpha is dropped after un-premultiplying, so a half transparent red stays red.
func RGBFromColor(c color.Color) RGB {
	if c == nil {
		return RGB{}
	}
	if rgb, ok := c.(RGB); ok {
		return rgb
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

var _ color.Color = RGB{}
