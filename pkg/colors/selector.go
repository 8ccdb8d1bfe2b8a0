// selector.go - Brand-aware text/scrim colour selection with a WCAG floor.
package colors

import "math"

// DefaultMinContrast is the WCAG AAA threshold for normal text.
const DefaultMinContrast = 7.0

// crossover is the background luminance at which black and white text give
// the same contrast: (L+0.05)/0.05 == 1.05/(L+0.05).
var crossover = math.Sqrt(1.05*0.05) - 0.05

// Pair is a text colour and the scrim colour rendered behind it, with the
// contrast ratio measured between the text and the region background.
type Pair struct {
	Text        RGB     `json:"text"`
	Background  RGB     `json:"background"`
	Contrast    float64 `json:"contrast"`
	FromPalette bool    `json:"from_palette"`
}

// Selector picks colour pairs. The zero value uses DefaultMinContrast.
type Selector struct {
	MinContrast float64
}

func (s Selector) threshold() float64 {
	if s.MinContrast <= 0 {
		return DefaultMinContrast
	}
	return s.MinContrast
}

// Select chooses text and scrim colours for a region whose mean colour is bg.
//
// Each palette colour is tried as text over bg, then as the scrim under
// black or white text. The highest ratio clearing MinContrast wins; ties keep
// the earlier candidate. With no qualifying candidate the result is the
// black/white fallback, which is never below 4.5:1.
func (s Selector) Select(bg RGB, palette Palette) Pair {
	floor := s.threshold()
	var best Pair
	found := false

	consider := func(p Pair) {
		if p.Contrast >= floor && (!found || p.Contrast > best.Contrast) {
			best = p
			found = true
		}
	}

	for _, c := range palette {
		consider(Pair{
			Text:        c,
			Background:  scrimFor(c, palette),
			Contrast:    ContrastRatio(c, bg),
			FromPalette: true,
		})

		text := RecommendedText(c)
		consider(Pair{
			Text:        text,
			Background:  c,
			Contrast:    ContrastRatio(text, c),
			FromPalette: true,
		})
	}

	if found {
		return best
	}
	return Fallback(bg)
}

// Fallback returns black or white text, whichever contrasts more with bg,
// over the opposite scrim.
func Fallback(bg RGB) Pair {
	text := RecommendedText(bg)
	scrim := White
	if text == White {
		scrim = Black
	}
	return Pair{Text: text, Background: scrim, Contrast: ContrastRatio(text, bg)}
}

// RecommendedText returns black for backgrounds above the black/white
// crossover luminance and white otherwise.
func RecommendedText(bg RGB) RGB {
	if RelativeLuminance(bg) > crossover {
		return Black
	}
	return White
}

// scrimFor picks the first palette colour with at least 3:1 against text,
// otherwise the black/white opposite of text.
func scrimFor(text RGB, palette Palette) RGB {
	for _, c := range palette {
		if c != text && ContrastRatio(text, c) >= 3 {
			return c
		}
	}
	return RecommendedText(text)
}
