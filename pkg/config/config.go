// Package config loads engine policy and process settings from the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compliance"
	"github.com/xob0t/creativekit/pkg/compose"
	"github.com/xob0t/creativekit/pkg/fonts"
	"github.com/xob0t/creativekit/pkg/moderation"
	"github.com/xob0t/creativekit/pkg/overlay"
)

// Config holds every tunable threshold. The defaults reproduce the
// behaviour the scores were calibrated against.
type Config struct {
	MinContrast         float64 `env:"CREATIVE_MIN_CONTRAST" envDefault:"7.0"`
	ColorSimilarity     float64 `env:"CREATIVE_COLOR_SIMILARITY" envDefault:"75"`
	MinCoverage         float64 `env:"CREATIVE_MIN_COVERAGE" envDefault:"20"`
	DeadZoneLow         float64 `env:"CREATIVE_DEADZONE_LOW" envDefault:"130"`
	DeadZoneHigh        float64 `env:"CREATIVE_DEADZONE_HIGH" envDefault:"145"`
	CompliantScore      float64 `env:"CREATIVE_COMPLIANT_SCORE" envDefault:"70"`
	GradientMaxAlpha    uint8   `env:"CREATIVE_GRADIENT_MAX_ALPHA" envDefault:"150"`
	GradientExponent    float64 `env:"CREATIVE_GRADIENT_EXPONENT" envDefault:"2.0"`
	GradientSpan        float64 `env:"CREATIVE_GRADIENT_SPAN" envDefault:"1.0"`
	Vignette            float64 `env:"CREATIVE_VIGNETTE" envDefault:"0"`
	QuantizeColors      int     `env:"CREATIVE_QUANTIZE_COLORS" envDefault:"32"`
	MinSourceSide       int     `env:"CREATIVE_MIN_SOURCE_SIDE" envDefault:"256"`
	MaxSourceSide       int     `env:"CREATIVE_MAX_SOURCE_SIDE" envDefault:"10000"`
	Workers             int     `env:"CREATIVE_WORKERS" envDefault:"0"`
	UniformityWeight    float64 `env:"CREATIVE_UNIFORMITY_WEIGHT" envDefault:"0.3"`
	ContrastWeight      float64 `env:"CREATIVE_CONTRAST_WEIGHT" envDefault:"0.7"`
	LineSpacing         float64 `env:"CREATIVE_LINE_SPACING" envDefault:"1.2"`
	DominantColorsShown int     `env:"CREATIVE_DOMINANT_COLORS" envDefault:"5"`

	FontPath string   `env:"CREATIVE_FONT_PATH"`
	FontDirs []string `env:"CREATIVE_FONT_DIRS" envSeparator:","`

	ModerationRules string `env:"CREATIVE_MODERATION_RULES"` // JSON rules merged onto the defaults

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	Addr      string `env:"CREATIVE_ADDR" envDefault:":8080"`
	OutputDir string `env:"CREATIVE_OUTPUT_DIR" envDefault:"output"`
}

// ParseEnv fills target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.MinContrast >= 1 && c.MinContrast <= 21, "CREATIVE_MIN_CONTRAST must be in [1, 21], got %g", c.MinContrast)
	check(c.ColorSimilarity > 0 && c.ColorSimilarity <= 100, "CREATIVE_COLOR_SIMILARITY must be in (0, 100], got %g", c.ColorSimilarity)
	check(c.MinCoverage > 0 && c.MinCoverage <= 100, "CREATIVE_MIN_COVERAGE must be in (0, 100], got %g", c.MinCoverage)
	check(c.DeadZoneLow >= 0 && c.DeadZoneLow < c.DeadZoneHigh && c.DeadZoneHigh <= 255,
		"dead zone must satisfy 0 <= low < high <= 255, got [%g, %g]", c.DeadZoneLow, c.DeadZoneHigh)
	check(c.CompliantScore > 0 && c.CompliantScore <= 100, "CREATIVE_COMPLIANT_SCORE must be in (0, 100], got %g", c.CompliantScore)
	check(c.GradientMaxAlpha > 0, "CREATIVE_GRADIENT_MAX_ALPHA must be positive")
	check(c.GradientExponent > 0, "CREATIVE_GRADIENT_EXPONENT must be positive, got %g", c.GradientExponent)
	check(c.GradientSpan > 0 && c.GradientSpan <= 1, "CREATIVE_GRADIENT_SPAN must be in (0, 1], got %g", c.GradientSpan)
	check(c.Vignette >= 0 && c.Vignette <= 1, "CREATIVE_VIGNETTE must be in [0, 1], got %g", c.Vignette)
	check(c.QuantizeColors >= 2 && c.QuantizeColors <= 256, "CREATIVE_QUANTIZE_COLORS must be in [2, 256], got %d", c.QuantizeColors)
	check(c.MinSourceSide >= 1, "CREATIVE_MIN_SOURCE_SIDE must be positive, got %d", c.MinSourceSide)
	check(c.MaxSourceSide >= c.MinSourceSide, "CREATIVE_MAX_SOURCE_SIDE must be >= CREATIVE_MIN_SOURCE_SIDE, got %d", c.MaxSourceSide)
	check(c.Workers >= 0, "CREATIVE_WORKERS must not be negative, got %d", c.Workers)
	check(c.UniformityWeight >= 0 && c.ContrastWeight >= 0 && c.UniformityWeight+c.ContrastWeight > 0,
		"region weights must be non-negative and not both zero")
	check(c.LineSpacing > 0, "CREATIVE_LINE_SPACING must be positive, got %g", c.LineSpacing)
	check(c.DominantColorsShown >= 1, "CREATIVE_DOMINANT_COLORS must be positive, got %d", c.DominantColorsShown)
	check(c.LogFormat == "text" || c.LogFormat == "json", "LOG_FORMAT must be text or json, got %q", c.LogFormat)

	return errors.Join(errs...)
}

// Level maps LogLevel onto a slog level; unknown names mean info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Scorer returns the compliance policy.
func (c Config) Scorer() compliance.Scorer {
	return compliance.Scorer{
		SimilarityThreshold: c.ColorSimilarity,
		MinCoverage:         c.MinCoverage,
		DeadZoneLow:         c.DeadZoneLow,
		DeadZoneHigh:        c.DeadZoneHigh,
		CompliantScore:      c.CompliantScore,
		MaxColors:           c.QuantizeColors,
		TopColors:           c.DominantColorsShown,
	}
}

// FontOptions returns the font search settings.
func (c Config) FontOptions(logger *slog.Logger) fonts.Options {
	return fonts.Options{
		DefaultPath: c.FontPath,
		Dirs:        c.FontDirs,
		Logger:      logger,
	}
}

// ComposerOptions wires every stage of the composer from the configuration.
// fm may be nil to let the composer build its own font manager.
func (c Config) ComposerOptions(fm *fonts.Manager, logger *slog.Logger) compose.Options {
	return compose.Options{
		Fonts: fm,
		Analyzer: overlay.Analyzer{
			UniformityWeight: c.UniformityWeight,
			ContrastWeight:   c.ContrastWeight,
		},
		Selector: colors.Selector{MinContrast: c.MinContrast},
		Gradient: overlay.Gradient{
			MaxAlpha: c.GradientMaxAlpha,
			Exponent: c.GradientExponent,
			Span:     c.GradientSpan,
		},
		Vignette:      c.Vignette,
		Layout:        overlay.Engine{LineSpacing: c.LineSpacing},
		Scorer:        c.Scorer(),
		Workers:       c.Workers,
		MinSourceSide: c.MinSourceSide,
		MaxSourceSide: c.MaxSourceSide,
		Logger:        logger,
	}
}

// NewComposer builds a font manager and composer from the configuration.
func (c Config) NewComposer(logger *slog.Logger) (*compose.Composer, error) {
	fm, err := fonts.NewManager(c.FontOptions(logger))
	if err != nil {
		return nil, err
	}
	return compose.New(c.ComposerOptions(fm, logger))
}

// NewModerator loads the moderation rules. path overrides
// CREATIVE_MODERATION_RULES when non-empty.
func (c Config) NewModerator(path string) (*moderation.Moderator, error) {
	if path == "" {
		path = c.ModerationRules
	}
	rules, err := moderation.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return moderation.New(rules), nil
}
