package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7.0, cfg.MinContrast)
	assert.Equal(t, 75.0, cfg.ColorSimilarity)
	assert.Equal(t, 20.0, cfg.MinCoverage)
	assert.Equal(t, 130.0, cfg.DeadZoneLow)
	assert.Equal(t, 145.0, cfg.DeadZoneHigh)
	assert.Equal(t, 70.0, cfg.CompliantScore)
	assert.Equal(t, uint8(150), cfg.GradientMaxAlpha)
	assert.Equal(t, 2.0, cfg.GradientExponent)
	assert.Equal(t, 1.0, cfg.GradientSpan)
	assert.Zero(t, cfg.Vignette)
	assert.Equal(t, 32, cfg.QuantizeColors)
	assert.Equal(t, 256, cfg.MinSourceSide)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CREATIVE_MIN_CONTRAST", "4.5")
	t.Setenv("CREATIVE_DEADZONE_LOW", "100")
	t.Setenv("CREATIVE_DEADZONE_HIGH", "160")
	t.Setenv("CREATIVE_FONT_DIRS", "/a,/b")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("CREATIVE_VIGNETTE", "0.4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4.5, cfg.MinContrast)
	assert.Equal(t, []string{"/a", "/b"}, cfg.FontDirs)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	s := cfg.Scorer()
	assert.Equal(t, 100.0, s.DeadZoneLow)
	assert.Equal(t, 160.0, s.DeadZoneHigh)

	opts := cfg.ComposerOptions(nil, nil)
	assert.Equal(t, 4.5, opts.Selector.MinContrast)
	assert.Equal(t, uint8(150), opts.Gradient.MaxAlpha)
	assert.Equal(t, 256, opts.MinSourceSide)
	assert.Equal(t, 0.4, opts.Vignette)
	assert.Equal(t, []string{"/a", "/b"}, cfg.FontOptions(nil).Dirs)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("CREATIVE_WORKERS", "many")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	t.Run("inverted dead zone", func(t *testing.T) {
		t.Setenv("CREATIVE_DEADZONE_LOW", "150")
		t.Setenv("CREATIVE_DEADZONE_HIGH", "140")
		_, err := Load()
		assert.ErrorContains(t, err, "dead zone")
	})

	t.Run("reports every problem", func(t *testing.T) {
		t.Setenv("CREATIVE_MIN_CONTRAST", "30")
		t.Setenv("CREATIVE_GRADIENT_SPAN", "1.5")
		_, err := Load()
		require.Error(t, err)
		assert.ErrorContains(t, err, "CREATIVE_MIN_CONTRAST")
		assert.ErrorContains(t, err, "CREATIVE_GRADIENT_SPAN")
	})

	t.Run("vignette", func(t *testing.T) {
		t.Setenv("CREATIVE_VIGNETTE", "1.5")
		_, err := Load()
		assert.ErrorContains(t, err, "CREATIVE_VIGNETTE")
	})

	t.Run("log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		_, err := Load()
		assert.ErrorContains(t, err, "LOG_FORMAT")
	})
}

func TestNewComposer(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	c, err := cfg.NewComposer(slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewModerator(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	m, err := cfg.NewModerator("")
	require.NoError(t, err)
	assert.False(t, m.Check("Total scam").Approved)

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"prohibited_words": ["decaf"]}`), 0o644))
	t.Setenv("CREATIVE_MODERATION_RULES", path)
	cfg, err = Load()
	require.NoError(t, err)
	m, err = cfg.NewModerator("")
	require.NoError(t, err)
	assert.False(t, m.Check("Now in decaf").Approved)
	assert.True(t, m.Check("Total scam").Approved)

	_, err = cfg.NewModerator(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read moderation rules")
}
