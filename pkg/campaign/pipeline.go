// pipeline.go - Runs the composer over every product of a brief and writes
// creatives plus report.json under <output>/<campaign_id>/.
package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compose"
	"github.com/xob0t/creativekit/pkg/export"
	"github.com/xob0t/creativekit/pkg/moderation"
)

// Options configures a Pipeline.
type Options struct {
	Composer  *compose.Composer
	OutputDir string                // default "output"
	AssetDirs []string              // searched for product images
	Ext       string                // ".png" (default) or ".jpg"
	Moderator *moderation.Moderator // default built-in rules
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline processes campaign briefs. Products run one after another; the
// composer parallelises the variants of each product.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Composer == nil {
		return nil, errors.New("pipeline needs a composer")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.Ext == "" {
		opts.Ext = ".png"
	}
	if _, err := export.Format(opts.Ext); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Moderator == nil {
		opts.Moderator = moderation.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logger}, nil
}

// CampaignDir is where a brief's creatives and report are written.
func (p *Pipeline) CampaignDir(brief *Brief) string {
	return filepath.Join(p.opts.OutputDir, SafeName(brief.CampaignID))
}

// Run processes every enabled product. A product whose variants all fail is
// recorded in the report and the next product proceeds. The report is
// written even when ctx is cancelled part way; the context error is then
// returned alongside it.
func (p *Pipeline) Run(ctx context.Context, brief *Brief) (*Report, error) {
	report := &Report{
		CampaignID: brief.CampaignID,
		StartTime:  p.opts.Now().Format(time.RFC3339),
	}
	report.Warnings = append(report.Warnings, Lint(brief)...)

	palette, _ := colors.ParsePalette(brief.BrandColors)
	report.BrandColors = palette.Hex()
	aspects, _ := resolveAspects(brief.AspectRatios)

	dir := p.CampaignDir(brief)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create campaign dir: %w", err)
	}

	p.logger.Info("processing campaign", "campaign", brief.CampaignID, "products", len(brief.Products), "formats", len(aspects))

	var runErr error
	for _, prod := range ResolveProducts(brief) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		pr, err := p.processProduct(ctx, prod, palette, aspects, dir)
		report.Products = append(report.Products, pr)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			runErr = err
			break
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("failed to process %s: %v", prod.Name, err))
			p.logger.Error("product failed", "product", prod.Name, "error", err)
		}
	}

	summarize(report)
	report.EndTime = p.opts.Now().Format(time.RFC3339)

	if err := writeReport(filepath.Join(dir, "report.json"), report); err != nil {
		return report, errors.Join(runErr, err)
	}
	return report, runErr
}

func (p *Pipeline) processProduct(ctx context.Context, prod ResolvedProduct, palette colors.Palette, aspects []compose.AspectRatio, dir string) (ProductReport, error) {
	pr := ProductReport{Name: prod.Name, SafeName: prod.SafeName}

	if err := p.moderate(prod, &pr); err != nil {
		pr.Error = err.Error()
		return pr, err
	}

	src, source, err := p.loadSource(prod, palette)
	if err != nil {
		pr.Error = err.Error()
		return pr, err
	}
	pr.Source = source
	pr.Placeholder = source == ""

	res, err := p.opts.Composer.CreateVariations(ctx, compose.Request{
		Source:       src,
		Messages:     prod.Messages,
		Palette:      palette,
		AspectRatios: aspects,
	})
	if res == nil {
		pr.Error = err.Error()
		return pr, err
	}

	for _, k := range res.Keys {
		v := res.Variants[k]
		vr := NewVariantReport(v)
		if v.Err == nil {
			base := filepath.Join(dir, prod.SafeName, k.Language, k.Aspect)
			vr.FinalPath = base + p.opts.Ext
			vr.PreOverlayPath = base + "_pre" + p.opts.Ext
			if werr := p.write(vr, v); werr != nil {
				vr.Error = werr.Error()
				vr.FinalPath, vr.PreOverlayPath = "", ""
			}
		}
		pr.Variants = append(pr.Variants, vr)
	}

	if err != nil {
		pr.Error = err.Error()
	}
	return pr, err
}

// moderate checks every resolved message of prod and records the verdicts.
// Any rejected language fails the product before anything is rendered.
func (p *Pipeline) moderate(prod ResolvedProduct, pr *ProductReport) error {
	pr.Moderation = make(map[string]moderation.Result, len(prod.Messages))
	var errs []error
	for _, lang := range slices.Sorted(maps.Keys(prod.Messages)) {
		res := p.opts.Moderator.Check(prod.Messages[lang])
		pr.Moderation[lang] = res
		if err := res.Err(); err != nil {
			p.logger.Warn("message rejected", "product", prod.Name, "language", lang, "violations", len(res.Violations))
			errs = append(errs, fmt.Errorf("%s: %w", lang, err))
		}
	}
	return errors.Join(errs...)
}

// loadSource returns the product image and its path. Without an asset the
// source is a placeholder blended from the brand palette, and the path is "".
func (p *Pipeline) loadSource(prod ResolvedProduct, palette colors.Palette) (image.Image, string, error) {
	if path := FindAsset(prod, p.opts.AssetDirs...); path != "" {
		img, err := export.Open(path)
		if err != nil {
			return nil, "", err
		}
		p.logger.Debug("using existing asset", "product", prod.Name, "path", path)
		return img, path, nil
	}

	var top, bottom *colors.RGB
	if len(palette) > 0 {
		top = &palette[0]
		bottom = &palette[len(palette)-1]
	}
	img, err := export.Placeholder(1080, 1080, top, bottom)
	if err != nil {
		return nil, "", err
	}
	p.logger.Warn("no asset found, using placeholder", "product", prod.Name)
	return img, "", nil
}

func (p *Pipeline) write(vr VariantReport, v *compose.Variant) error {
	if err := export.Save(vr.FinalPath, v.Final); err != nil {
		return err
	}
	return export.Save(vr.PreOverlayPath, v.PreOverlay)
}

// NewVariantReport converts a composed variant into its report entry. File
// paths are left empty.
func NewVariantReport(v *compose.Variant) VariantReport {
	vr := VariantReport{
		AspectRatio: v.Key.Aspect,
		Language:    v.Key.Language,
		Warnings:    v.Warnings,
	}
	if v.Err != nil {
		vr.Error = v.Err.Error()
		return vr
	}
	report := v.Report
	vr.Width = v.Final.Bounds().Dx()
	vr.Height = v.Final.Bounds().Dy()
	placement := v.Region.Placement
	vr.Placement = &placement
	vr.Colors = v.Colors
	vr.FontPath = v.FontPath
	vr.FontSize = v.FontSize
	vr.Compliance = &report
	return vr
}

func summarize(r *Report) {
	r.Moderation = make(map[moderation.RiskLevel]int)
	var total float64
	for _, pr := range r.Products {
		for _, lang := range slices.Sorted(maps.Keys(pr.Moderation)) {
			res := pr.Moderation[lang]
			r.Moderation[res.RiskLevel]++
			for _, d := range res.Disclaimers {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%s %s: disclaimer needed: %s", pr.Name, lang, d))
			}
		}
		if pr.Source != "" {
			r.AssetsReused++
		} else if pr.Placeholder {
			r.Placeholders++
		}
		for _, v := range pr.Variants {
			if v.Error != "" {
				continue
			}
			r.VariationsCreated++
			if v.Compliance != nil {
				r.Compliance.Scored++
				total += v.Compliance.OverallScore
				if v.Compliance.Compliant {
					r.Compliance.Compliant++
				}
			}
			for _, w := range v.Warnings {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%s %s/%s: %s", pr.Name, v.AspectRatio, v.Language, w))
			}
		}
	}
	if r.Compliance.Scored > 0 {
		r.Compliance.AverageScore = math.Round(total/float64(r.Compliance.Scored)*10) / 10
	}
}

func writeReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by Run.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

// FormatReport renders a short plain-text digest of a report.
func FormatReport(r *Report) string {
	s := fmt.Sprintf("Campaign %s: %d variations, %d/%d compliant (avg score %.1f)\n",
		r.CampaignID, r.VariationsCreated, r.Compliance.Compliant, r.Compliance.Scored, r.Compliance.AverageScore)
	for _, pr := range r.Products {
		status := "ok"
		if pr.Error != "" {
			status = "failed: " + pr.Error
		}
		s += fmt.Sprintf("  %-24s %d variants  %s\n", pr.Name, len(pr.Variants), status)
		for _, v := range pr.Variants {
			if v.Error != "" {
				s += fmt.Sprintf("    %-5s %-3s error: %s\n", v.AspectRatio, v.Language, v.Error)
				continue
			}
			if v.Compliance != nil {
				s += fmt.Sprintf("    %-5s %-3s score %5.1f  %s\n", v.AspectRatio, v.Language, v.Compliance.OverallScore, v.Compliance.Summary)
			}
		}
	}
	for _, e := range r.Errors {
		s += "  error: " + e + "\n"
	}
	return s
}
