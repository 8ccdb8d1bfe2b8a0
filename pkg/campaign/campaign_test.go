package campaign

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compose"
	"github.com/xob0t/creativekit/pkg/export"
	"github.com/xob0t/creativekit/pkg/fonts"
	"github.com/xob0t/creativekit/pkg/moderation"
)

func parse(t *testing.T, js string) *Brief {
	t.Helper()
	b, err := ParseBrief(strings.NewReader(js))
	require.NoError(t, err)
	return b
}

func TestParseExampleBrief(t *testing.T) {
	b := parse(t, GetExampleJSON())

	assert.Equal(t, "summer_morning_2025", b.CampaignID)
	assert.Len(t, b.Messages, 3)
	assert.Equal(t, []string{"#2E7D32", "#FFFFFF"}, b.BrandColors)
	require.Len(t, b.Products, 3)
	assert.Equal(t, "cold_brew_coffee", b.Products[0].SafeName())
}

func TestParseBriefShorthandMessage(t *testing.T) {
	b := parse(t, `{
		"campaign_id": " spring ",
		"campaign_message": "Fresh start",
		"products": [{"name": "Tea"}]
	}`)
	assert.Equal(t, "spring", b.CampaignID)
	assert.Equal(t, map[string]string{"en": "Fresh start"}, b.Messages)
}

func TestParseBriefErrors(t *testing.T) {
	tests := map[string]struct {
		json string
		want error
	}{
		"missing id":     {`{"campaign_message": "x", "products": [{"name": "a"}]}`, ErrNoCampaignID},
		"no products":    {`{"campaign_id": "c", "campaign_message": "x", "products": []}`, ErrNoProducts},
		"all disabled":   {`{"campaign_id": "c", "campaign_message": "x", "products": [{"name": "a", "enabled": false}]}`, ErrNoProducts},
		"no message":     {`{"campaign_id": "c", "products": [{"name": "a"}]}`, ErrNoMessage},
		"blank messages": {`{"campaign_id": "c", "messages": {"en": " "}, "products": [{"name": "a"}]}`, ErrNoMessage},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBrief(strings.NewReader(tt.json))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseBrief(strings.NewReader("{"))
	assert.ErrorContains(t, err, "parse brief JSON")

	_, err = ParseBriefFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read brief")
}

func TestResolveProducts(t *testing.T) {
	b := parse(t, GetExampleJSON())
	products := ResolveProducts(b)

	require.Len(t, products, 2)
	coffee, tea := products[0], products[1]

	assert.Equal(t, b.Messages, coffee.Messages)
	assert.Equal(t, "Calm energy, naturally", tea.Messages["en"])
	assert.Equal(t, b.Messages["es"], tea.Messages["es"])
	assert.Equal(t, "Discover your perfect morning ritual", b.Messages["en"], "defaults are not mutated")
}

func TestLint(t *testing.T) {
	b := parse(t, `{
		"campaign_id": "c",
		"messages": {"en": "Hi"},
		"brand_colors": ["#2E7D32", "green"],
		"aspect_ratios": ["1x1", "4x3"],
		"products": [
			{"name": "Tea", "messages": {"fr": "Salut"}},
			{"name": "tea"},
			{"name": "Old", "enabled": false}
		]
	}`)

	warnings := strings.Join(Lint(b), "\n")
	assert.Contains(t, warnings, "brand colors")
	assert.Contains(t, warnings, `"4x3"`)
	assert.Contains(t, warnings, `adds language "fr"`)
	assert.Contains(t, warnings, "share the output directory")
	assert.Contains(t, warnings, `"Old" is disabled`)
}

func TestFindAsset(t *testing.T) {
	dir := t.TempDir()
	img := export.NewSolidImage(4, 4, colors.Black)
	require.NoError(t, export.Save(filepath.Join(dir, "cold_brew_coffee.png"), img))
	require.NoError(t, export.Save(filepath.Join(dir, "hero_green_tea_v2.jpg"), img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	explicit := ResolvedProduct{SafeName: "whatever", Assets: []string{"notes.txt", "cold_brew_coffee.png"}}
	assert.Equal(t, filepath.Join(dir, "cold_brew_coffee.png"), FindAsset(explicit, dir))

	byName := ResolvedProduct{SafeName: "green_tea"}
	assert.Equal(t, filepath.Join(dir, "hero_green_tea_v2.jpg"), FindAsset(byName, dir))

	assert.Empty(t, FindAsset(ResolvedProduct{SafeName: "notes"}, dir))
}

func TestFormatSummary(t *testing.T) {
	s := FormatSummary(parse(t, GetExampleJSON()))
	assert.Contains(t, s, "Campaign: summer_morning_2025")
	assert.Contains(t, s, "#2e7d32, #ffffff")
	assert.Contains(t, s, "9x16 (1080x1920)")
	assert.Contains(t, s, "Products (2 enabled)")
	assert.Contains(t, s, "Calm energy, naturally")
	assert.NotContains(t, s, "Seasonal Blend")
}

func newTestPipeline(t *testing.T, assets string) (*Pipeline, string) {
	t.Helper()
	fm, err := fonts.NewManager(fonts.Options{Candidates: func(fonts.Script) []string { return nil }})
	require.NoError(t, err)
	c, err := compose.New(compose.Options{Fonts: fm, Workers: 2})
	require.NoError(t, err)

	out := t.TempDir()
	p, err := NewPipeline(Options{
		Composer:  c,
		OutputDir: out,
		AssetDirs: []string{assets},
		Now:       func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return p, out
}

const pipelineBrief = `{
	"campaign_id": "Launch",
	"messages": {"en": "Discover your perfect morning ritual"},
	"brand_colors": ["#2E7D32", "#FFFFFF"],
	"aspect_ratios": ["1x1"],
	"products": [
		{"name": "Cold Brew", "existing_assets": ["cold_brew.png"]},
		{"name": "Green Tea"},
		{"name": "Tiny", "existing_assets": ["tiny.png"]}
	]
}`

func TestPipelineRun(t *testing.T) {
	assets := t.TempDir()
	require.NoError(t, export.Save(filepath.Join(assets, "cold_brew.png"),
		export.NewSolidImage(600, 400, colors.RGB{R: 46, G: 125, B: 50})))
	require.NoError(t, export.Save(filepath.Join(assets, "tiny.png"),
		export.NewSolidImage(100, 100, colors.White)))

	p, out := newTestPipeline(t, assets)
	report, err := p.Run(context.Background(), parse(t, pipelineBrief))
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01T09:00:00Z", report.StartTime)
	require.Len(t, report.Products, 3)
	assert.Equal(t, 2, report.VariationsCreated)
	assert.Equal(t, 2, report.AssetsReused)
	assert.Equal(t, 1, report.Placeholders)
	assert.Equal(t, 2, report.Compliance.Scored)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Tiny")

	coffee := report.Products[0]
	require.Len(t, coffee.Variants, 1)
	v := coffee.Variants[0]
	assert.Equal(t, 1080, v.Width)
	assert.Equal(t, filepath.Join(out, "launch", "cold_brew", "en", "1x1.png"), v.FinalPath)
	assert.FileExists(t, v.FinalPath)
	assert.FileExists(t, v.PreOverlayPath)
	require.NotNil(t, v.Compliance)
	assert.True(t, v.Compliance.Colors.Checked)

	assert.True(t, report.Products[1].Placeholder)
	assert.NotEmpty(t, report.Products[2].Error)
	assert.Equal(t, moderation.RiskLow, coffee.Moderation["en"].RiskLevel)
	assert.Equal(t, map[moderation.RiskLevel]int{moderation.RiskLow: 3}, report.Moderation)

	tiny := report.Products[2].Variants
	require.Len(t, tiny, 1)
	require.NotEmpty(t, tiny[0].Error)
	assert.Nil(t, tiny[0].Placement)
	data, err := json.Marshal(tiny[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "placement")
	require.NotNil(t, v.Placement)

	loaded, err := LoadReport(filepath.Join(out, "launch", "report.json"))
	require.NoError(t, err)
	assert.Equal(t, report.VariationsCreated, loaded.VariationsCreated)
	assert.Equal(t, v.Placement, loaded.Products[0].Variants[0].Placement)
	assert.Equal(t, v.Colors, loaded.Products[0].Variants[0].Colors)

	digest := FormatReport(report)
	assert.Contains(t, digest, "Campaign Launch: 2 variations")
	assert.Contains(t, digest, "Tiny")
}

func TestPipelineModeration(t *testing.T) {
	p, out := newTestPipeline(t, t.TempDir())
	report, err := p.Run(context.Background(), parse(t, `{
		"campaign_id": "Claims",
		"messages": {"en": "Treat yourself every morning", "es": "Buenos dias"},
		"aspect_ratios": ["1x1"],
		"products": [
			{"name": "Tonic", "messages": {"en": "A miracle in a bottle"}},
			{"name": "Tea"}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, report.Products, 2)

	tonic := report.Products[0]
	assert.Empty(t, tonic.Variants, "rejected products are not rendered")
	assert.ErrorIs(t, p.moderate(ResolvedProduct{Messages: map[string]string{"en": "scam"}}, &ProductReport{}), moderation.ErrRejected)
	assert.Contains(t, tonic.Error, `en: content moderation failed: prohibited_word "miracle"`)
	assert.False(t, tonic.Moderation["en"].Approved)
	assert.True(t, tonic.Moderation["es"].Approved)
	assert.NoDirExists(t, filepath.Join(out, "claims", "tonic"))

	tea := report.Products[1]
	assert.Empty(t, tea.Error)
	assert.Equal(t, moderation.RiskMedium, tea.Moderation["en"].RiskLevel)
	assert.Equal(t, 2, report.VariationsCreated)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Tonic")
	assert.Equal(t, map[moderation.RiskLevel]int{
		moderation.RiskLow:    2,
		moderation.RiskMedium: 1,
		moderation.RiskHigh:   1,
	}, report.Moderation)
	assert.Contains(t, strings.Join(report.Warnings, "\n"), "Tea en: disclaimer needed: These statements have not been evaluated by the FDA")
}

func TestPipelineCustomModerator(t *testing.T) {
	fm, err := fonts.NewManager(fonts.Options{Candidates: func(fonts.Script) []string { return nil }})
	require.NoError(t, err)
	c, err := compose.New(compose.Options{Fonts: fm, Workers: 1})
	require.NoError(t, err)
	p, err := NewPipeline(Options{
		Composer:  c,
		OutputDir: t.TempDir(),
		Moderator: moderation.New(moderation.DefaultRules().Merge(moderation.Rules{ProhibitedWords: []string{"ritual"}})),
	})
	require.NoError(t, err)

	report, err := p.Run(context.Background(), parse(t, pipelineBrief))
	require.NoError(t, err)
	assert.Zero(t, report.VariationsCreated)
	assert.Len(t, report.Errors, 3)
}

func TestPipelineRunCancelled(t *testing.T) {
	p, out := newTestPipeline(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, parse(t, pipelineBrief))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.VariationsCreated)
	assert.FileExists(t, filepath.Join(out, "launch", "report.json"))
}

func TestNewPipelineValidates(t *testing.T) {
	_, err := NewPipeline(Options{})
	assert.Error(t, err)

	c, err := compose.New(compose.Options{})
	require.NoError(t, err)
	_, err = NewPipeline(Options{Composer: c, Ext: ".gif"})
	assert.ErrorContains(t, err, "unsupported format")
}
