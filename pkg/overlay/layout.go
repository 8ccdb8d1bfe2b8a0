// layout.go - Text layout engine for overlay copy. Wraps by measured pixel
// width, breaks wide-glyph runs per character, vertically centres the block
// in its box, and reorders right-to-left lines for drawing.
package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/xob0t/creativekit/pkg/colors"
)

// Align is horizontal alignment inside the text box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Engine lays out and draws text. The zero value uses the defaults.
type Engine struct {
	LineSpacing float64 // multiplier on the face's line height; default 1.2
}

// DrawOptions controls one Draw call.
type DrawOptions struct {
	Align Align
	RTL   bool // force right-to-left; otherwise detected from the text
}

// Block describes what Draw produced.
type Block struct {
	Lines      []string        `json:"lines"`
	LineHeight int             `json:"line_height"`
	Bounds     image.Rectangle `json:"bounds"`
	RTL        bool            `json:"rtl"`
	// OverflowX and OverflowY are how far the block exceeds the box, in pixels.
	OverflowX int `json:"overflow_x"`
	OverflowY int `json:"overflow_y"`
}

// Overflows reports whether the block did not fit its box.
func (b Block) Overflows() bool { return b.OverflowX > 0 || b.OverflowY > 0 }

func (e Engine) spacing() float64 {
	if e.LineSpacing <= 0 {
		return 1.2
	}
	return e.LineSpacing
}

// Wrap breaks text into lines no wider than maxWidth pixels when measured
// with face. Lines break at whitespace; runs of wide glyphs (Han, kana,
// Hangul) may also break between characters. A single word wider than
// maxWidth that cannot be broken gets a line of its own.
func (e Engine) Wrap(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	width := func(s string) int { return font.MeasureString(face, s).Ceil() }

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if width(candidate) <= maxWidth {
			current = candidate
			continue
		}

		if !hasWide(word) {
			if current != "" {
				lines = append(lines, current)
			}
			current = word
			continue
		}

		// Fill the current line character by character, then keep going.
		prefix := current
		if prefix != "" {
			prefix += " "
		}
		line := prefix
		for _, r := range word {
			next := line + string(r)
			if width(next) > maxWidth && strings.TrimSpace(line) != "" {
				lines = append(lines, strings.TrimRight(line, " "))
				next = string(r)
			}
			line = next
		}
		current = line
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func hasWide(s string) bool {
	for _, r := range s {
		if isWide(r) {
			return true
		}
	}
	return false
}

func isWide(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		(r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef)
}

// IsRTL reports whether the first strong directional character of text is
// right-to-left (bidi class R or AL).
func IsRTL(text string) bool {
	for i := 0; i < len(text); {
		p, size := bidi.LookupString(text[i:])
		switch p.Class() {
		case bidi.R, bidi.AL:
			return true
		case bidi.L:
			return false
		}
		if size == 0 {
			size = 1
		}
		i += size
	}
	return false
}

// Visual converts a logical line of a right-to-left paragraph into
// left-to-right drawing order. Runs are laid out right to left; characters
// of right-to-left runs are reversed while Latin words and numbers keep
// their order. Glyphs are not contextually shaped.
func Visual(line string) string {
	var p bidi.Paragraph
	if _, err := p.SetString(line, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
		return bidi.ReverseString(line)
	}
	order, err := p.Order()
	if err != nil {
		return bidi.ReverseString(line)
	}

	var b strings.Builder
	b.Grow(len(line))
	for i := order.NumRuns() - 1; i >= 0; i-- {
		run := order.Run(i)
		if run.Direction() == bidi.RightToLeft {
			b.WriteString(bidi.ReverseString(run.String()))
		} else {
			b.WriteString(run.String())
		}
	}
	return b.String()
}

// Draw wraps text to box.Dx(), centres the block vertically in box and draws
// it with pair.Text. Text that does not fit overflows the box; the overflow
// is reported in the returned Block rather than shrinking the font.
func (e Engine) Draw(dst draw.Image, text string, box image.Rectangle, face font.Face, pair colors.Pair, opts DrawOptions) (Block, error) {
	if strings.TrimSpace(text) == "" {
		return Block{}, fmt.Errorf("draw text: empty text")
	}

	rtl := opts.RTL || IsRTL(text)
	align := opts.Align
	if rtl && align == AlignLeft {
		align = AlignRight
	}

	m := face.Metrics()
	lineHeight := int(float64(m.Height.Ceil()) * e.spacing())
	ascent := m.Ascent.Ceil()

	lines := e.Wrap(text, box.Dx(), face)
	blockH := lineHeight * len(lines)
	top := box.Min.Y + (box.Dy()-blockH)/2

	block := Block{Lines: lines, LineHeight: lineHeight, RTL: rtl}

	src := image.NewUniform(pair.Text)
	for i, line := range lines {
		drawn := line
		if rtl {
			drawn = Visual(line)
		}
		w := font.MeasureString(face, drawn).Ceil()

		x := box.Min.X
		switch align {
		case AlignCenter:
			x += (box.Dx() - w) / 2
		case AlignRight:
			x = box.Max.X - w
		}
		x = max(x, box.Min.X)

		d := &font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  fixed.P(x, top+i*lineHeight+ascent),
		}
		d.DrawString(drawn)

		block.Bounds = block.Bounds.Union(image.Rect(x, top+i*lineHeight, x+w, top+(i+1)*lineHeight))
		block.OverflowX = max(block.OverflowX, w-box.Dx())
	}
	block.OverflowY = max(0, blockH-box.Dy())

	return block, nil
}
