// Package compliance scores composed creatives for brand-colour coverage and
// text readability.
//
// The colour check reads the pre-overlay image so scrims and text cannot mask
// or fake brand colours. The readability check reads the final image inside
// the text box, since that is what ships.
package compliance

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/xob0t/creativekit/pkg/colors"
)

// Scorer holds the policy thresholds. The zero value uses the defaults.
type Scorer struct {
	SimilarityThreshold float64 // bucket/brand similarity to count as a match; default 75
	MinCoverage         float64 // brand coverage percent to pass; default 20
	DeadZoneLow         float64 // default 130
	DeadZoneHigh        float64 // default 145
	CompliantScore      float64 // default 70
	MaxColors           int     // quantisation buckets; default 32
	TopColors           int     // dominant colours reported; default 5
}

// Report is the compliance result for one creative.
type Report struct {
	Colors       ColorCheck       `json:"colors"`
	Readability  ReadabilityCheck `json:"readability"`
	OverallScore float64          `json:"overall_score"`
	Compliant    bool             `json:"compliant"`
	Summary      string           `json:"summary"`
}

// ColorCheck measures how much of the image is covered by brand colours.
type ColorCheck struct {
	Checked           bool            `json:"checked"`
	Reason            string          `json:"reason,omitempty"`
	CoveragePercent   float64         `json:"brand_color_coverage_percent"`
	AverageSimilarity float64         `json:"average_similarity_percent"`
	Passed            bool            `json:"passed"`
	DominantColors    []DominantColor `json:"dominant_colors,omitempty"`
	BrandMatches      []BrandMatch    `json:"brand_matches,omitempty"`
}

type DominantColor struct {
	Color   colors.RGB `json:"color"`
	Name    string     `json:"name"`
	Percent float64    `json:"coverage_percent"`
}

// BrandMatch is a quantised image colour close enough to a brand colour.
type BrandMatch struct {
	ImageColor colors.RGB `json:"image_color"`
	BrandColor colors.RGB `json:"brand_color"`
	Similarity float64    `json:"similarity"`
	Percent    float64    `json:"coverage_percent"`
}

// ReadabilityCheck measures brightness behind the overlay text.
type ReadabilityCheck struct {
	Checked         bool            `json:"checked"`
	Region          image.Rectangle `json:"region"`
	MeanBrightness  float64         `json:"mean_text_region_brightness"`
	Readable        bool            `json:"readable"`
	RecommendedText colors.RGB      `json:"recommended_text_color"`
}

func (s Scorer) withDefaults() Scorer {
	if s.SimilarityThreshold <= 0 {
		s.SimilarityThreshold = 75
	}
	if s.MinCoverage <= 0 {
		s.MinCoverage = 20
	}
	if s.DeadZoneLow == 0 && s.DeadZoneHigh == 0 {
		s.DeadZoneLow, s.DeadZoneHigh = 130, 145
	}
	if s.CompliantScore <= 0 {
		s.CompliantScore = 70
	}
	if s.MaxColors <= 0 {
		s.MaxColors = DefaultMaxColors
	}
	if s.TopColors <= 0 {
		s.TopColors = 5
	}
	return s
}

// Score builds the report for one creative. pre is the image before any
// overlay, final the shipped image, and textRect the box the text was laid
// out in. An empty textRect falls back to the bottom 30% of final. Score
// never fails.
func (s Scorer) Score(pre, final image.Image, textRect image.Rectangle, palette colors.Palette) Report {
	s = s.withDefaults()

	r := Report{
		Colors:      s.CheckColors(pre, palette),
		Readability: s.CheckReadability(final, textRect),
	}

	readPts := 0.0
	if r.Readability.Readable {
		readPts = 50
	}

	var score float64
	if r.Colors.Checked {
		colorPts := 50 * math.Min(r.Colors.CoveragePercent/s.MinCoverage, 1)
		score = colorPts + readPts
	} else {
		score = readPts * 2
	}

	r.OverallScore = round1(math.Max(0, math.Min(100, score)))
	r.Compliant = r.OverallScore >= s.CompliantScore
	r.Summary = summarize(r)
	return r
}

// CheckColors runs the colour check alone. An empty palette yields an
// unchecked result.
func (s Scorer) CheckColors(img image.Image, palette colors.Palette) ColorCheck {
	s = s.withDefaults()
	if len(palette) == 0 {
		return ColorCheck{Reason: "no brand colors configured"}
	}

	buckets := Quantize(img, s.MaxColors)
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		return ColorCheck{Reason: "empty image"}
	}
	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }

	check := ColorCheck{Checked: true}
	for i, b := range buckets {
		if i < s.TopColors {
			check.DominantColors = append(check.DominantColors, DominantColor{
				Color:   b.Color,
				Name:    colors.Name(b.Color),
				Percent: round2(pct(b.Count)),
			})
		}
	}

	// Each bucket counts once, against the brand colour it is closest to.
	matched, simSum := 0, 0.0
	for _, b := range buckets {
		brand, sim := closest(b.Color, palette)
		if sim < s.SimilarityThreshold {
			continue
		}
		matched += b.Count
		simSum += sim
		check.BrandMatches = append(check.BrandMatches, BrandMatch{
			ImageColor: b.Color,
			BrandColor: brand,
			Similarity: round1(sim),
			Percent:    round2(pct(b.Count)),
		})
	}

	coverage := pct(matched)
	check.CoveragePercent = round1(coverage)
	if n := len(check.BrandMatches); n > 0 {
		check.AverageSimilarity = round1(simSum / float64(n))
	}
	check.Passed = coverage >= s.MinCoverage
	return check
}

// closest returns the most similar brand colour; ties keep the earlier one.
func closest(c colors.RGB, palette colors.Palette) (colors.RGB, float64) {
	best, bestSim := palette[0], -1.0
	for _, p := range palette {
		if sim := colors.Similarity(c, p); sim > bestSim {
			best, bestSim = p, sim
		}
	}
	return best, bestSim
}

// CheckReadability runs the readability check alone.
func (s Scorer) CheckReadability(img image.Image, textRect image.Rectangle) ReadabilityCheck {
	s = s.withDefaults()
	b := img.Bounds()
	rect := textRect.Intersect(b)
	if rect.Empty() {
		rect = image.Rect(b.Min.X, b.Min.Y+int(float64(b.Dy())*0.7), b.Max.X, b.Max.Y)
	}
	if rect.Empty() {
		return ReadabilityCheck{}
	}

	mean := meanLuma(img, rect)
	text := colors.Black
	if mean < (s.DeadZoneLow+s.DeadZoneHigh)/2 {
		text = colors.White
	}
	return ReadabilityCheck{
		Checked:         true,
		Region:          rect,
		MeanBrightness:  round1(mean),
		Readable:        mean < s.DeadZoneLow || mean > s.DeadZoneHigh,
		RecommendedText: text,
	}
}

func meanLuma(img image.Image, rect image.Rectangle) float64 {
	var sum float64
	if src, ok := img.(*image.RGBA); ok {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			row := src.Pix[src.PixOffset(rect.Min.X, y):]
			for x := 0; x < rect.Dx(); x++ {
				p := row[x*4 : x*4+3]
				sum += 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
			}
		}
	} else {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				sum += colors.Luma(colors.FromColor(img.At(x, y)))
			}
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

func summarize(r Report) string {
	switch {
	case r.OverallScore >= 90:
		return "Excellent brand compliance"
	case r.OverallScore >= 70:
		return "Good brand compliance"
	case r.OverallScore >= 50:
		return "Acceptable - minor improvements needed"
	}
	var issues []string
	if r.Colors.Checked && !r.Colors.Passed {
		issues = append(issues, "brand colors")
	}
	if !r.Readability.Readable {
		issues = append(issues, "text readability")
	}
	if len(issues) == 0 {
		return fmt.Sprintf("Needs improvement: score %.1f", r.OverallScore)
	}
	return "Needs improvement: " + strings.Join(issues, ", ")
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
