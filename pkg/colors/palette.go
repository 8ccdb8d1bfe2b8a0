package colors

import (
	"errors"
	"strings"
)

// Palette is an ordered list of brand colours. The first entry is primary.
type Palette []RGB

// ParsePalette parses hex strings in order. Every malformed entry is reported
// in the joined error; well-formed entries are still returned.
func ParsePalette(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	var errs []error
	for _, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p = append(p, c)
	}
	return p, errors.Join(errs...)
}

// Primary returns the first colour, or false for an empty palette.
func (p Palette) Primary() (RGB, bool) {
	if len(p) == 0 {
		return RGB{}, false
	}
	return p[0], true
}

// Hex returns the palette as "#rrggbb" strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// Describe lists the palette by colour name, e.g. "dark green, white".
func (p Palette) Describe() string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = Name(c)
	}
	return strings.Join(names, ", ")
}

// Name returns a descriptive English name such as "vibrant red" or "dark gray",
// derived from HSL bands.
func Name(c RGB) string {
	h, s, l := c.HSL()

	if s < 10 {
		switch {
		case l < 10:
			return "black"
		case l < 25:
			return "very dark gray"
		case l < 45:
			return "dark gray"
		case l < 65:
			return "gray"
		case l < 85:
			return "light gray"
		default:
			return "white"
		}
	}

	var base string
	switch {
	case h < 15 || h >= 345:
		base = "red"
	case h < 45:
		base = "orange"
	case h < 75:
		base = "yellow"
	case h < 150:
		base = "green"
	case h < 200:
		base = "cyan"
	case h < 245:
		base = "blue"
	case h < 290:
		base = "purple"
	case h < 320:
		base = "magenta"
	default:
		base = "pink"
	}

	var mods []string
	switch {
	case l < 20:
		mods = append(mods, "very dark")
	case l < 35:
		mods = append(mods, "dark")
	case l > 80:
		mods = append(mods, "very light")
	case l > 65:
		mods = append(mods, "light")
	}
	if l > 30 && l < 70 && s > 80 {
		mods = append(mods, "vibrant")
	}

	switch base {
	case "pink":
		if l > 60 && s > 70 {
			base, mods = "hot pink", nil
		}
	case "yellow":
		if l > 70 {
			base, mods = "golden", nil
		} else if l > 40 && l < 70 {
			base = "golden yellow"
			kept := mods[:0]
			for _, m := range mods {
				if !strings.Contains(m, "dark") {
					kept = append(kept, m)
				}
			}
			mods = kept
		}
	case "orange":
		if h > 35 && l > 60 {
			base, mods = "golden", nil
		} else if s > 60 && l < 50 {
			base, mods = "burnt orange", nil
		}
	case "cyan":
		if h < 180 {
			base = "teal"
		}
	}

	if len(mods) == 0 {
		return base
	}
	return strings.Join(mods, " ") + " " + base
}
