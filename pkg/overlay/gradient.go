// gradient.go - Directional scrims that fade from the image edge nearest the
// text, plus a radial vignette.
package overlay

import (
	"image"
	"image/draw"
	"math"

	"github.com/xob0t/creativekit/pkg/colors"
)

// Edge is an image edge a gradient is anchored to.
type Edge int

const (
	EdgeBottom Edge = iota
	EdgeTop
	EdgeLeft
	EdgeRight
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	default:
		return "bottom"
	}
}

// EdgeFor returns the edge of bounds nearest to the centre of rect. Ties
// prefer top, then bottom, left, right.
func EdgeFor(bounds, rect image.Rectangle) Edge {
	cx := (rect.Min.X + rect.Max.X) / 2
	cy := (rect.Min.Y + rect.Max.Y) / 2

	best := EdgeTop
	dist := cy - bounds.Min.Y
	for _, c := range []struct {
		e Edge
		d int
	}{
		{EdgeBottom, bounds.Max.Y - cy},
		{EdgeLeft, cx - bounds.Min.X},
		{EdgeRight, bounds.Max.X - cx},
	} {
		if c.d < dist {
			best, dist = c.e, c.d
		}
	}
	return best
}

// Gradient renders alpha masks. The zero value uses the defaults.
type Gradient struct {
	MaxAlpha uint8   // peak opacity at the anchor edge; default 150
	Exponent float64 // ease-out steepness; default 2.0
	Span     float64 // fraction of the axis covered; default 1.0
}

func (g Gradient) params() (peak, exp, span float64) {
	peak, exp, span = float64(g.MaxAlpha), g.Exponent, g.Span
	if g.MaxAlpha == 0 {
		peak = 150
	}
	if exp <= 0 {
		exp = 2
	}
	if span <= 0 || span > 1 {
		span = 1
	}
	return peak, exp, span
}

// Alpha is the mask value at normalised distance d (0 at the edge, 1 at the
// far side). It is non-increasing in d.
func (g Gradient) Alpha(d float64) uint8 {
	peak, exp, span := g.params()
	t := d / span
	if t >= 1 {
		return 0
	}
	if t < 0 {
		t = 0
	}
	return uint8(math.Pow(1-t, exp) * peak)
}

// Mask builds a size.X×size.Y alpha mask anchored to edge.
func (g Gradient) Mask(size image.Point, edge Edge) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, size.X, size.Y))
	if size.X <= 0 || size.Y <= 0 {
		return mask
	}

	switch edge {
	case EdgeTop, EdgeBottom:
		for y := 0; y < size.Y; y++ {
			d := float64(y) / float64(size.Y)
			if edge == EdgeBottom {
				d = float64(size.Y-1-y) / float64(size.Y)
			}
			a := g.Alpha(d)
			row := mask.Pix[y*mask.Stride : y*mask.Stride+size.X]
			for i := range row {
				row[i] = a
			}
		}
	default:
		col := make([]uint8, size.X)
		for x := range col {
			d := float64(x) / float64(size.X)
			if edge == EdgeRight {
				d = float64(size.X-1-x) / float64(size.X)
			}
			col[x] = g.Alpha(d)
		}
		for y := 0; y < size.Y; y++ {
			copy(mask.Pix[y*mask.Stride:], col)
		}
	}
	return mask
}

// Vignette builds a radial mask that is clear at the centre and reaches
// strength×255 at the corners.
func Vignette(size image.Point, strength float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, size.X, size.Y))
	strength = math.Max(0, math.Min(1, strength))
	cx, cy := float64(size.X)/2, float64(size.Y)/2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		return mask
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			mask.Pix[y*mask.Stride+x] = uint8(d * d * strength * 255)
		}
	}
	return mask
}

// Composite blends c onto dst through mask: dst·(1−α) + c·α per channel.
// The mask is aligned with dst's origin.
func Composite(dst *image.RGBA, mask *image.Alpha, c colors.RGB) {
	b := dst.Bounds()
	draw.DrawMask(dst, b, image.NewUniform(c), image.Point{}, mask, mask.Bounds().Min, draw.Over)
}
