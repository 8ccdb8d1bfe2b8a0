// aspect.go - Output aspect ratios and the crop/resize step that fits a
// source photograph to each of them.
package compose

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// AspectRatio is a named output format with exact pixel dimensions.
type AspectRatio struct {
	Name   string `json:"name"`
	RatioW int    `json:"ratio_w"`
	RatioH int    `json:"ratio_h"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var (
	Square    = AspectRatio{Name: "1x1", RatioW: 1, RatioH: 1, Width: 1080, Height: 1080}
	Portrait  = AspectRatio{Name: "9x16", RatioW: 9, RatioH: 16, Width: 1080, Height: 1920}
	Landscape = AspectRatio{Name: "16x9", RatioW: 16, RatioH: 9, Width: 1920, Height: 1080}
)

// AllAspectRatios is the default output set, in output order.
var AllAspectRatios = []AspectRatio{Square, Portrait, Landscape}

// String returns the ratio name, e.g. "9x16".
func (a AspectRatio) String() string { return a.Name }

// Size returns the output dimensions as a point.
func (a AspectRatio) Size() image.Point { return image.Pt(a.Width, a.Height) }

// LookupAspectRatio finds a ratio by name. "9:16" and "9x16" are equivalent.
func LookupAspectRatio(name string) (AspectRatio, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), ":", "x"))
	for _, a := range AllAspectRatios {
		if a.Name == key {
			return a, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("unknown aspect ratio %q: use 1x1, 9x16 or 16x9", name)
}

// ParseAspectRatios resolves a list of names. An empty list means all ratios.
// Duplicates are dropped, keeping the first occurrence.
func ParseAspectRatios(names []string) ([]AspectRatio, error) {
	if len(names) == 0 {
		return AllAspectRatios, nil
	}
	seen := make(map[string]bool, len(names))
	var out []AspectRatio
	for _, n := range names {
		a, err := LookupAspectRatio(n)
		if err != nil {
			return nil, err
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out, nil
}

// cropSize returns the largest rectangle of ratio rw:rh that fits in w×h.
// Both sides are at least 1.
func cropSize(w, h, rw, rh int) (int, int) {
	if w*rh > h*rw {
		// Source is wider than the target: keep full height.
		return max(1, h*rw/rh), max(1, h)
	}
	return max(1, w), max(1, w*rh/rw)
}

// Fit smart-crops src to the largest centred rectangle of a's ratio and
// resizes it with a Lanczos filter to exactly a.Width×a.Height.
func Fit(src image.Image, a AspectRatio) *image.NRGBA {
	b := src.Bounds()
	cw, ch := cropSize(b.Dx(), b.Dy(), a.RatioW, a.RatioH)
	cropped := imaging.CropCenter(src, cw, ch)
	return imaging.Resize(cropped, a.Width, a.Height, imaging.Lanczos)
}
