// color.go - RGB colour type with hex parsing and WCAG colour science.
package colors

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex is returned when a colour string is not "#rrggbb".
var ErrInvalidHex = errors.New("invalid hex color")

// MaxDistance is the Euclidean distance between black and white in RGB space.
var MaxDistance = math.Sqrt(3 * 255 * 255)

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// RGB is an opaque 8-bit sRGB colour. It implements color.Color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color with full alpha.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex formats the colour as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

func (c RGB) String() string { return c.Hex() }

// MarshalText encodes the colour as its hex string, so reports carry "#rrggbb".
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText parses "#rrggbb".
func (c *RGB) UnmarshalText(b []byte) error {
	v, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// FromColor converts any color.Color to RGB, dropping alpha. Fully
// transparent colours map to black.
func FromColor(c color.Color) RGB {
	cf, _ := colorful.MakeColor(c)
	return fromColorful(cf)
}

// Colorful returns c in go-colorful's float representation.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(cf colorful.Color) RGB {
	r, g, b := cf.Clamped().RGB255()
	return RGB{r, g, b}
}

// ParseHex parses "#rrggbb" or "rrggbb" (case-insensitive).
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 || strings.Trim(hex, "0123456789abcdefABCDEF") != "" {
		return RGB{}, fmt.Errorf("%w %q: expected 6-char hex", ErrInvalidHex, s)
	}
	cf, err := colorful.Hex("#" + hex)
	if err != nil {
		return RGB{}, fmt.Errorf("%w %q: %v", ErrInvalidHex, s, err)
	}
	return fromColorful(cf), nil
}

// HSL converts to hue (0–360), saturation (0–100) and lightness (0–100).
func (c RGB) HSL() (h, s, l float64) {
	h, s, l = c.Colorful().Hsl()
	return h, s * 100, l * 100
}

// RelativeLuminance is the WCAG 2.0 relative luminance in [0, 1].
func RelativeLuminance(c RGB) float64 {
	r, g, b := c.Colorful().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio is the WCAG contrast ratio between two colours, in [1, 21].
// The order of the arguments does not matter.
func ContrastRatio(a, b RGB) float64 {
	l1 := RelativeLuminance(a)
	l2 := RelativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Distance is the Euclidean distance in 0–255 RGB space, in [0, MaxDistance].
func Distance(a, b RGB) float64 {
	return a.Colorful().DistanceRgb(b.Colorful()) * 255
}

// Similarity maps Distance onto a 0–100 percentage, 100 meaning identical.
func Similarity(a, b RGB) float64 {
	return math.Max(0, 100-Distance(a, b)/MaxDistance*100)
}

// Luma is the Rec. 601 brightness (0–255) used for readability sampling.
func Luma(c RGB) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
