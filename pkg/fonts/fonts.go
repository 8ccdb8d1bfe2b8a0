// fonts.go - Script-aware font resolution with an embedded fallback font.
// Uses golang.org/x/image/font/opentype for parsing and rendering. Each
// language resolves once per Manager; parsed fonts are shared by all callers.
package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/singleflight"
)

// scriptSamples are runes a font must contain to count as covering a script.
var scriptSamples = map[Script]rune{
	Arabic: 'ا',
	Hebrew: 'א',
	CJK:    '中',
	Korean: '한',
}

// Options configures a Manager.
type Options struct {
	DefaultPath string                // custom font tried before the system chain
	Dirs        []string              // extra folders searched for Noto file names
	Candidates  func(Script) []string // system chain; nil means SystemCandidates
	DPI         float64               // defaults to 72
	Logger      *slog.Logger
}

// Loaded is the outcome of resolving a language to a font.
type Loaded struct {
	Font     *opentype.Font
	Path     string // empty for the embedded Go font
	Script   Script
	Fallback bool // no font covering Script was found
}

// Resolved is a ready-to-draw face plus how it was chosen. Faces are not
// safe for concurrent use; every call to Manager.Face returns a new one.
type Resolved struct {
	*Loaded
	Face font.Face
	Size float64
}

// Manager resolves languages to fonts. It is safe for concurrent use and
// loads each font file at most once.
type Manager struct {
	opts     Options
	logger   *slog.Logger
	embedded *opentype.Font

	mu     sync.RWMutex
	byLang map[string]*Loaded
	byPath map[string]*opentype.Font
	group  singleflight.Group
}

// NewManager creates a font manager. It only fails if the embedded Go font
// cannot be parsed.
func NewManager(opts Options) (*Manager, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}

	if opts.DPI <= 0 {
		opts.DPI = 72
	}
	if opts.Candidates == nil {
		opts.Candidates = SystemCandidates
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		opts:     opts,
		logger:   logger,
		embedded: parsed,
		byLang:   make(map[string]*Loaded),
		byPath:   make(map[string]*opentype.Font),
	}, nil
}

// Face returns a new font.Face for lang at the given pixel size.
func (m *Manager) Face(lang string, size float64) (Resolved, error) {
	loaded := m.Resolve(lang)

	face, err := opentype.NewFace(loaded.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     m.opts.DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return Resolved{}, fmt.Errorf("failed to create font face: %w", err)
	}

	return Resolved{Loaded: loaded, Face: face, Size: size}, nil
}

// Resolve finds the font for lang, walking the search chain on first use.
// It never fails: the last resort is the embedded Go font with Fallback set
// when the script needs glyphs the Go font lacks.
func (m *Manager) Resolve(lang string) *Loaded {
	key := strings.ToLower(strings.TrimSpace(lang))

	m.mu.RLock()
	l, ok := m.byLang[key]
	m.mu.RUnlock()
	if ok {
		return l
	}

	v, _, _ := m.group.Do("lang:"+key, func() (any, error) {
		m.mu.RLock()
		l, ok := m.byLang[key]
		m.mu.RUnlock()
		if ok {
			return l, nil
		}

		l = m.search(ScriptFor(key))
		m.mu.Lock()
		m.byLang[key] = l
		m.mu.Unlock()

		m.logger.Debug("font resolved", "lang", key, "script", l.Script, "path", l.Path, "fallback", l.Fallback)
		return l, nil
	})
	return v.(*Loaded)
}

func (m *Manager) search(s Script) *Loaded {
	chain := DirCandidates(m.opts.Dirs, s)
	if m.opts.DefaultPath != "" {
		chain = append(chain, m.opts.DefaultPath)
	}
	chain = append(chain, m.opts.Candidates(s)...)

	var generic *Loaded
	for _, path := range chain {
		f, err := m.load(path)
		if err != nil {
			continue
		}
		if covers(f, s) {
			return &Loaded{Font: f, Path: path, Script: s}
		}
		if generic == nil {
			generic = &Loaded{Font: f, Path: path, Script: s, Fallback: true}
		}
	}

	if generic != nil {
		return generic
	}
	return &Loaded{Font: m.embedded, Script: s, Fallback: s != Latin}
}

// load reads and parses a font file once per Manager.
func (m *Manager) load(path string) (*opentype.Font, error) {
	m.mu.RLock()
	f, ok := m.byPath[path]
	m.mu.RUnlock()
	if ok {
		return f, nil
	}

	v, err, _ := m.group.Do("path:"+path, func() (any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		f, err := parse(path, data)
		if err != nil {
			m.logger.Warn("could not parse font, skipping", "path", path, "err", err)
			return nil, err
		}

		m.mu.Lock()
		m.byPath[path] = f
		m.mu.Unlock()
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*opentype.Font), nil
}

func parse(path string, data []byte) (*opentype.Font, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		c, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", path, err)
		}
		return c.Font(0)
	default:
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return f, nil
	}
}

func covers(f *opentype.Font, s Script) bool {
	r, ok := scriptSamples[s]
	if !ok {
		return true
	}
	var buf sfnt.Buffer
	idx, err := f.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Missing returns the distinct printable runes of text that the font has no
// glyph for, in first-seen order.
func (l *Loaded) Missing(text string) []rune {
	var buf sfnt.Buffer
	seen := make(map[rune]bool)
	var out []rune
	for _, r := range text {
		if unicode.IsSpace(r) || !unicode.IsGraphic(r) || seen[r] {
			continue
		}
		seen[r] = true
		idx, err := l.Font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			out = append(out, r)
		}
	}
	return out
}
