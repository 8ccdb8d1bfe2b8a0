package colors

import (
	"encoding/json"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#FF0000", RGB{255, 0, 0}, false},
		{"00ff00", RGB{0, 255, 0}, false},
		{" #2E7D32 ", RGB{46, 125, 50}, false},
		{"#fff", RGB{}, true},
		{"#gg0000", RGB{}, true},
		{"#12345g", RGB{}, true},
		{"#+12345", RGB{}, true},
		{"", RGB{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.Hex()))
		})
	}
}

func TestRGBImplementsColor(t *testing.T) {
	var c color.Color = RGB{10, 20, 30}
	assert.Equal(t, RGB{10, 20, 30}, FromColor(c))

	r, g, b, a := c.RGBA()
	assert.Equal(t, uint32(0x0a0a), r)
	assert.Equal(t, uint32(0x1414), g)
	assert.Equal(t, uint32(0x1e1e), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestColorfulBridge(t *testing.T) {
	assert.Equal(t, Black, FromColor(color.NRGBA{R: 10, G: 20, B: 30, A: 0}))
	assert.Equal(t, RGB{10, 20, 30}, FromColor(color.NRGBA{R: 10, G: 20, B: 30, A: 255}))

	c := mustParse(t, "#2E7D32")
	assert.Equal(t, "#2e7d32", c.Colorful().Hex())
	assert.Equal(t, c, fromColorful(c.Colorful()))

	r, g, b := White.Colorful().LinearRgb()
	assert.InDelta(t, 1, r, 1e-9)
	assert.InDelta(t, 1, g, 1e-9)
	assert.InDelta(t, 1, b, 1e-9)
}

func TestRGBJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		C RGB `json:"c"`
	}{RGB{46, 125, 50}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"#2e7d32"}`, string(out))

	var back struct {
		C RGB `json:"c"`
	}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, RGB{46, 125, 50}, back.C)
}

func TestHSL(t *testing.T) {
	h, s, l := RGB{255, 0, 0}.HSL()
	assert.InDelta(t, 0, h, 0.01)
	assert.InDelta(t, 100, s, 0.01)
	assert.InDelta(t, 50, l, 0.01)

	h, s, l = RGB{128, 128, 128}.HSL()
	assert.Zero(t, h)
	assert.Zero(t, s)
	assert.InDelta(t, 50.2, l, 0.01)

	h, _, _ = RGB{0, 0, 255}.HSL()
	assert.InDelta(t, 240, h, 0.01)
}

func TestLuminanceAndContrast(t *testing.T) {
	assert.InDelta(t, 0, RelativeLuminance(Black), 1e-9)
	assert.InDelta(t, 1, RelativeLuminance(White), 1e-9)

	assert.InDelta(t, 21, ContrastRatio(Black, White), 1e-9)
	assert.InDelta(t, 21, ContrastRatio(White, Black), 1e-9)
	assert.InDelta(t, 1, ContrastRatio(RGB{128, 128, 128}, RGB{128, 128, 128}), 1e-9)
}

func TestDistanceAndSimilarity(t *testing.T) {
	assert.Zero(t, Distance(RGB{1, 2, 3}, RGB{1, 2, 3}))
	assert.InDelta(t, MaxDistance, Distance(Black, White), 1e-9)

	assert.InDelta(t, 100, Similarity(White, White), 1e-9)
	assert.InDelta(t, 0, Similarity(Black, White), 1e-9)
	assert.Greater(t, Similarity(RGB{46, 125, 50}, RGB{50, 120, 55}), 95.0)
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"#FF0000": "vibrant red",
		"#808080": "gray",
		"#000000": "black",
		"#FFFFFF": "white",
		"#2E7D32": "dark green",
		"#008080": "dark cyan",
		"#20B2AA": "teal",
	}
	for hex, want := range tests {
		t.Run(hex, func(t *testing.T) {
			assert.Equal(t, want, Name(mustParse(t, hex)))
		})
	}
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]string{"#2E7D32", "nope", "#FFFFFF"})
	require.ErrorIs(t, err, ErrInvalidHex)
	assert.Equal(t, Palette{{46, 125, 50}, White}, p)

	primary, ok := p.Primary()
	assert.True(t, ok)
	assert.Equal(t, RGB{46, 125, 50}, primary)
	assert.Equal(t, []string{"#2e7d32", "#ffffff"}, p.Hex())
	assert.Equal(t, "dark green, white", p.Describe())

	_, ok = Palette(nil).Primary()
	assert.False(t, ok)
}

func TestSelectorPrefersQualifyingPaletteColor(t *testing.T) {
	sel := Selector{MinContrast: 7}
	navy := RGB{0, 78, 137}

	pair := sel.Select(White, Palette{{255, 107, 53}, navy})
	assert.True(t, pair.FromPalette)
	assert.Equal(t, navy, pair.Text)
	assert.GreaterOrEqual(t, pair.Contrast, 7.0)
}

func TestSelectorInverseCandidate(t *testing.T) {
	// Mid-grey background defeats every palette colour as text, but dark
	// green works as a scrim under white text.
	green := RGB{0, 60, 0}
	pair := Selector{}.Select(RGB{120, 120, 120}, Palette{green})

	assert.True(t, pair.FromPalette)
	assert.Equal(t, White, pair.Text)
	assert.Equal(t, green, pair.Background)
	assert.GreaterOrEqual(t, pair.Contrast, DefaultMinContrast)
}

func TestSelectorFallback(t *testing.T) {
	t.Run("no palette", func(t *testing.T) {
		pair := Selector{}.Select(RGB{20, 20, 20}, nil)
		assert.False(t, pair.FromPalette)
		assert.Equal(t, White, pair.Text)
		assert.Equal(t, Black, pair.Background)
	})

	t.Run("black background has no luminance", func(t *testing.T) {
		pair := Selector{}.Select(Black, nil)
		assert.Equal(t, White, pair.Text)
		assert.InDelta(t, 21, pair.Contrast, 1e-9)
	})

	t.Run("worst case background still clears AA", func(t *testing.T) {
		// Near the black/white crossover neither colour reaches 7:1.
		pair := Selector{}.Select(RGB{118, 118, 118}, Palette{{128, 128, 128}})
		assert.False(t, pair.FromPalette)
		assert.GreaterOrEqual(t, pair.Contrast, 4.5)
	})
}

func TestSelectorProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randRGB := func() RGB {
		return RGB{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}
	sel := Selector{MinContrast: 7}

	for i := 0; i < 2000; i++ {
		bg := randRGB()
		palette := make(Palette, rng.Intn(4))
		for j := range palette {
			palette[j] = randRGB()
		}

		achievable := false
		for _, c := range palette {
			if ContrastRatio(c, bg) >= 7 || ContrastRatio(RecommendedText(c), c) >= 7 {
				achievable = true
			}
		}

		pair := sel.Select(bg, palette)
		if achievable {
			require.GreaterOrEqual(t, pair.Contrast, 7.0, "bg=%s palette=%v", bg, palette)
			require.True(t, pair.FromPalette)
		} else {
			require.GreaterOrEqual(t, pair.Contrast, 4.5, "bg=%s palette=%v", bg, palette)
		}
	}
}

func mustParse(t *testing.T, hex string) RGB {
	t.Helper()
	c, err := ParseHex(hex)
	require.NoError(t, err)
	return c
}
