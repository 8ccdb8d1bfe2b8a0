// Package compose turns one source photograph into a creative per
// (aspect ratio, language) pair: crop and resize, choose a text region and
// colours, draw a scrim and the localized message, then score the result.
//
// Pairs are independent. A pair that cannot be produced records its error and
// the others carry on.
package compose

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compliance"
	"github.com/xob0t/creativekit/pkg/fonts"
	"github.com/xob0t/creativekit/pkg/overlay"
)

var (
	ErrNoSource          = errors.New("no source image")
	ErrSourceTooSmall    = errors.New("source image too small")
	ErrSourceTooLarge    = errors.New("source image too large")
	ErrEmptyMessage      = errors.New("empty message")
	ErrNoMessages        = errors.New("no messages to render")
	ErrAllVariantsFailed = errors.New("all variants failed")
)

// Options configures a Composer. Zero-valued stages use their defaults.
type Options struct {
	Fonts    *fonts.Manager // nil creates a private manager with system fonts
	Analyzer overlay.Analyzer
	Selector colors.Selector
	Gradient overlay.Gradient
	Layout   overlay.Engine
	Scorer   compliance.Scorer
	Vignette float64 // black radial darkening strength in [0, 1]; 0 disables

	Workers       int // concurrent pairs; default runtime.NumCPU()
	MinSourceSide int // default 256
	MaxSourceSide int // default 10000
	Logger        *slog.Logger
}

// Composer renders creatives. It is safe for concurrent use.
type Composer struct {
	opts   Options
	fonts  *fonts.Manager
	logger *slog.Logger
}

// New creates a Composer.
func New(opts Options) (*Composer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MinSourceSide <= 0 {
		opts.MinSourceSide = 256
	}
	if opts.MaxSourceSide <= 0 {
		opts.MaxSourceSide = 10000
	}

	fm := opts.Fonts
	if fm == nil {
		var err error
		fm, err = fonts.NewManager(fonts.Options{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("create font manager: %w", err)
		}
	}

	return &Composer{opts: opts, fonts: fm, logger: logger}, nil
}

// Request is one composition job.
type Request struct {
	Source       image.Image
	Messages     map[string]string // language code → message
	Palette      colors.Palette    // may be empty
	AspectRatios []AspectRatio     // empty means AllAspectRatios
}

// Key identifies one output of a request.
type Key struct {
	Aspect   string `json:"aspect_ratio"`
	Language string `json:"language"`
}

func (k Key) String() string { return k.Aspect + "/" + k.Language }

// Variant is the outcome of one (aspect ratio, language) pair. When Err is
// set the buffers are nil.
type Variant struct {
	Key        Key
	Aspect     AspectRatio
	PreOverlay *image.NRGBA
	Final      *image.RGBA
	Region     overlay.Region
	Edge       overlay.Edge
	Colors     colors.Pair
	TextBox    image.Rectangle
	Block      overlay.Block
	FontPath   string
	FontSize   float64
	Report     compliance.Report
	Warnings   []string
	Err        error
}

func (v *Variant) warn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Result collects variants keyed by pair. Keys lists them in aspect order,
// then language order.
type Result struct {
	Variants map[Key]*Variant
	Keys     []Key
}

// Get returns the variant for one pair.
func (r *Result) Get(aspect, lang string) (*Variant, bool) {
	v, ok := r.Variants[Key{Aspect: aspect, Language: lang}]
	return v, ok
}

// Succeeded returns the variants that produced a final buffer, in key order.
func (r *Result) Succeeded() []*Variant {
	var out []*Variant
	for _, k := range r.Keys {
		if v := r.Variants[k]; v.Err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Failed returns the variants that carry an error, in key order.
func (r *Result) Failed() []*Variant {
	var out []*Variant
	for _, k := range r.Keys {
		if v := r.Variants[k]; v.Err != nil {
			out = append(out, v)
		}
	}
	return out
}

// Languages returns the message languages in a stable order.
func (req Request) Languages() []string {
	langs := make([]string, 0, len(req.Messages))
	for lang := range req.Messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// CreateVariations renders every (aspect ratio, language) pair of req.
//
// Per-pair failures are recorded on the variant and do not stop siblings. If
// every pair fails the result is returned together with an error wrapping
// ErrAllVariantsFailed. If ctx is cancelled, pairs not yet started are
// abandoned and the context error is returned with the partial result.
func (c *Composer) CreateVariations(ctx context.Context, req Request) (*Result, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}
	aspects := req.AspectRatios
	if len(aspects) == 0 {
		aspects = AllAspectRatios
	}
	langs := req.Languages()

	aspects = uniqueAspects(aspects)
	res := &Result{Variants: make(map[Key]*Variant, len(aspects)*len(langs))}
	for _, a := range aspects {
		for _, lang := range langs {
			k := Key{Aspect: a.Name, Language: lang}
			res.Keys = append(res.Keys, k)
			res.Variants[k] = &Variant{Key: k, Aspect: a}
		}
	}

	if err := c.checkSource(req.Source); err != nil {
		for _, v := range res.Variants {
			v.Err = err
		}
		return res, fmt.Errorf("%w: %w", ErrAllVariantsFailed, err)
	}

	c.logger.Debug("composing variations",
		"aspects", len(aspects), "languages", len(langs), "workers", c.opts.Workers)

	// Fit once per aspect; the pre-overlay buffers are read-only from here on.
	fitted := make([]*image.NRGBA, len(aspects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, a := range aspects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fitted[i] = Fit(req.Source, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.abandon(res, err)
		return res, err
	}
	pre := make(map[string]*image.NRGBA, len(aspects))
	for i, a := range aspects {
		pre[a.Name] = fitted[i]
	}

	var wg errgroup.Group
	wg.SetLimit(c.opts.Workers)
	for _, k := range res.Keys {
		v := res.Variants[k]
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				v.Err = err
				return nil
			}
			c.render(v, pre[k.Aspect], req.Messages[k.Language], req.Palette)
			return nil
		})
	}
	_ = wg.Wait()

	if err := ctx.Err(); err != nil {
		c.abandon(res, err)
		return res, err
	}

	failed := res.Failed()
	for _, v := range failed {
		c.logger.Warn("variant failed", "aspect", v.Key.Aspect, "language", v.Key.Language, "error", v.Err)
	}
	if len(failed) == len(res.Keys) {
		return res, fmt.Errorf("%w: %w", ErrAllVariantsFailed, failed[0].Err)
	}
	return res, nil
}

func uniqueAspects(in []AspectRatio) []AspectRatio {
	seen := make(map[string]bool, len(in))
	out := make([]AspectRatio, 0, len(in))
	for _, a := range in {
		if !seen[a.Name] {
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}

// abandon marks unfinished pairs with err and drops their buffers.
func (c *Composer) abandon(res *Result, err error) {
	for _, v := range res.Variants {
		if v.Final == nil && v.Err == nil {
			v.Err = err
		}
		if v.Err != nil {
			v.PreOverlay, v.Final = nil, nil
		}
	}
}

func (c *Composer) checkSource(src image.Image) error {
	if src == nil {
		return ErrNoSource
	}
	b := src.Bounds()
	if b.Dx() < c.opts.MinSourceSide || b.Dy() < c.opts.MinSourceSide {
		return fmt.Errorf("%w: %dx%d, need at least %dx%d",
			ErrSourceTooSmall, b.Dx(), b.Dy(), c.opts.MinSourceSide, c.opts.MinSourceSide)
	}
	if b.Dx() > c.opts.MaxSourceSide || b.Dy() > c.opts.MaxSourceSide {
		return fmt.Errorf("%w: %dx%d, limit is %d per side",
			ErrSourceTooLarge, b.Dx(), b.Dy(), c.opts.MaxSourceSide)
	}
	return nil
}

// render produces one pair. Panics from drawing are turned into v.Err.
func (c *Composer) render(v *Variant, pre *image.NRGBA, message string, palette colors.Palette) {
	lang := v.Key.Language
	defer func() {
		if r := recover(); r != nil {
			v.PreOverlay, v.Final = nil, nil
			v.Err = fmt.Errorf("render %s: panic: %v", v.Key, r)
		}
	}()

	message = strings.TrimSpace(message)
	if message == "" {
		v.Err = fmt.Errorf("%w for language %q", ErrEmptyMessage, lang)
		return
	}

	bounds := pre.Bounds()
	region := c.opts.Analyzer.FindBest(pre)
	pair := c.opts.Selector.Select(region.Mean, palette)

	size := FontSize(bounds.Dx(), region.Rect.Dx())
	face, err := c.fonts.Face(lang, size)
	if err != nil {
		v.Err = fmt.Errorf("load font for %q: %w", lang, err)
		return
	}
	defer face.Face.Close()

	if face.Fallback {
		v.warn("no %s-capable font found for %s, used fallback", face.Script, lang)
	}
	if missing := face.Missing(message); len(missing) > 0 {
		v.warn("font lacks %d glyphs used by the %s message", len(missing), lang)
	}

	work := image.NewRGBA(bounds)
	draw.Draw(work, bounds, pre, bounds.Min, draw.Src)

	if c.opts.Vignette > 0 {
		overlay.Composite(work, overlay.Vignette(bounds.Size(), c.opts.Vignette), colors.Black)
	}

	edge := overlay.EdgeFor(bounds, region.Rect)
	overlay.Composite(work, c.opts.Gradient.Mask(bounds.Size(), edge), pair.Background)

	box := TextBox(region.Rect)
	block, err := c.opts.Layout.Draw(work, message, box, face.Face, pair, overlay.DrawOptions{
		Align: region.Placement.Align(),
		RTL:   face.Script.RTL(),
	})
	if err != nil {
		v.Err = fmt.Errorf("draw %s: %w", v.Key, err)
		return
	}
	if block.OverflowY > 0 {
		v.warn("wrapped text overflowed region by %d px", block.OverflowY)
	}
	if block.OverflowX > 0 {
		v.warn("a word is wider than the region by %d px", block.OverflowX)
	}

	v.PreOverlay = pre
	v.Final = work
	v.Region = region
	v.Edge = edge
	v.Colors = pair
	v.TextBox = box
	v.Block = block
	v.FontPath = face.Path
	v.FontSize = size
	v.Report = c.opts.Scorer.Score(pre, work, box, palette)
}

// FontSize is min(width/15, regionWidth/8) clamped to [24, 72] pixels.
func FontSize(width, regionWidth int) float64 {
	s := min(float64(width)/15, float64(regionWidth)/8)
	return max(24, min(72, s))
}

// TextBox insets a region by up to 40 px, never more than a quarter of its
// smaller side.
func TextBox(r image.Rectangle) image.Rectangle {
	pad := min(40, r.Dx()/4, r.Dy()/4)
	return r.Inset(pad)
}
