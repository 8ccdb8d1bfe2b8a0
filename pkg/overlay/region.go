// region.go - Chooses where overlay text goes by scoring fixed candidate
// placements for colour uniformity and black/white contrast headroom.
package overlay

import (
	"fmt"
	"image"

	"github.com/xob0t/creativekit/pkg/colors"
)

// Placement is one of the fixed candidate text regions. The declaration
// order is the tie-break order.
type Placement int

const (
	TopLeft Placement = iota
	TopRight
	BottomLeft
	BottomRight
	BottomCenter
	Center
	// FullFrame is returned only for images too small to hold a candidate.
	FullFrame
)

// Placements lists the scored candidates in tie-break order.
var Placements = []Placement{TopLeft, TopRight, BottomLeft, BottomRight, BottomCenter, Center}

var placementNames = map[Placement]string{
	TopLeft:      "top-left",
	TopRight:     "top-right",
	BottomLeft:   "bottom-left",
	BottomRight:  "bottom-right",
	BottomCenter: "bottom-center",
	Center:       "center",
	FullFrame:    "full-frame",
}

func (p Placement) String() string { return placementNames[p] }

// MarshalText encodes the placement by name.
func (p Placement) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a placement name.
func (p *Placement) UnmarshalText(b []byte) error {
	for k, name := range placementNames {
		if name == string(b) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown placement %q", b)
}

// fractions are x0, y0, x1, y1 as fractions of the image size.
var fractions = map[Placement][4]float64{
	TopLeft:      {0, 0, 0.4, 0.3},
	TopRight:     {0.6, 0, 1, 0.3},
	BottomLeft:   {0, 0.7, 0.4, 1},
	BottomRight:  {0.6, 0.7, 1, 1},
	BottomCenter: {0.3, 0.7, 0.7, 1},
	Center:       {0.2, 0.4, 0.8, 0.6},
}

// Rect returns the candidate rectangle inside bounds.
func (p Placement) Rect(bounds image.Rectangle) image.Rectangle {
	f, ok := fractions[p]
	if !ok {
		return bounds
	}
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(f[0]*w),
		bounds.Min.Y+int(f[1]*h),
		bounds.Min.X+int(f[2]*w),
		bounds.Min.Y+int(f[3]*h),
	)
}

// Align is the horizontal text alignment that suits the placement.
func (p Placement) Align() Align {
	switch p {
	case TopLeft, BottomLeft:
		return AlignLeft
	case TopRight, BottomRight:
		return AlignRight
	default:
		return AlignCenter
	}
}

// Region is a scored candidate placement.
type Region struct {
	Placement  Placement       `json:"placement"`
	Rect       image.Rectangle `json:"rect"`
	Mean       colors.RGB      `json:"mean"`
	Variance   float64         `json:"variance"`
	Uniformity float64         `json:"uniformity"`
	Headroom   float64         `json:"headroom"`
	Score      float64         `json:"score"`
}

// Analyzer scores candidate regions. The zero value uses the default weights.
type Analyzer struct {
	UniformityWeight float64 // default 0.3
	ContrastWeight   float64 // default 0.7
	MaxSamples       int     // per axis; default 64
}

func (a Analyzer) weights() (u, c float64) {
	if a.UniformityWeight == 0 && a.ContrastWeight == 0 {
		return 0.3, 0.7
	}
	return a.UniformityWeight, a.ContrastWeight
}

// FindBest returns the highest scoring candidate. It is deterministic and
// never fails; degenerate images yield a FullFrame region.
func (a Analyzer) FindBest(img image.Image) Region {
	bounds := img.Bounds()

	best := Region{Score: -1}
	for _, p := range Placements {
		rect := p.Rect(bounds)
		if rect.Empty() {
			return a.Measure(img, FullFrame, bounds)
		}
		r := a.Measure(img, p, rect)
		if r.Score > best.Score {
			best = r
		}
	}
	return best
}

// Measure scores one rectangle. Zero variance and zero luminance are valid
// inputs: uniformity is 1/(1+variance/10000) and headroom is derived from
// contrast ratios whose denominators are never below 0.05.
func (a Analyzer) Measure(img image.Image, p Placement, rect image.Rectangle) Region {
	rect = rect.Intersect(img.Bounds())
	mean, variance := a.sample(img, rect)

	uniformity := 1 / (1 + variance/10000)
	best := max(colors.ContrastRatio(colors.Black, mean), colors.ContrastRatio(colors.White, mean))
	headroom := (best - 1) / 20

	wu, wc := a.weights()
	return Region{
		Placement:  p,
		Rect:       rect,
		Mean:       mean,
		Variance:   variance,
		Uniformity: uniformity,
		Headroom:   headroom,
		Score:      wu*uniformity + wc*headroom,
	}
}

// sample reads a regular grid of at most MaxSamples×MaxSamples pixels and
// returns their mean colour and mean per-channel variance.
func (a Analyzer) sample(img image.Image, rect image.Rectangle) (colors.RGB, float64) {
	if rect.Empty() {
		return colors.Black, 0
	}
	n := a.MaxSamples
	if n <= 0 {
		n = 64
	}
	stepX := max(1, rect.Dx()/n)
	stepY := max(1, rect.Dy()/n)

	var sum, sumSq [3]float64
	count := 0.0
	for y := rect.Min.Y; y < rect.Max.Y; y += stepY {
		for x := rect.Min.X; x < rect.Max.X; x += stepX {
			c := colors.FromColor(img.At(x, y))
			v := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
			for i := range v {
				sum[i] += v[i]
				sumSq[i] += v[i] * v[i]
			}
			count++
		}
	}

	var mean [3]float64
	variance := 0.0
	for i := range sum {
		mean[i] = sum[i] / count
		variance += max(0, sumSq[i]/count-mean[i]*mean[i])
	}
	variance /= 3

	return colors.RGB{R: uint8(mean[0]), G: uint8(mean[1]), B: uint8(mean[2])}, variance
}
