// Package campaign drives the engine from a JSON campaign brief: it resolves
// products and messages, runs the composer for each product, writes the
// creatives and assembles the campaign report.
package campaign

import (
	"strings"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compliance"
	"github.com/xob0t/creativekit/pkg/moderation"
	"github.com/xob0t/creativekit/pkg/overlay"
)

// ── Brief types ──

// Brief is the top-level structure of a campaign brief file.
type Brief struct {
	CampaignID     string            `json:"campaign_id"`
	TargetRegion   string            `json:"target_region,omitempty"`
	TargetAudience string            `json:"target_audience,omitempty"`
	Message        string            `json:"campaign_message,omitempty"` // shorthand for messages[DefaultLanguage]
	Messages       map[string]string `json:"messages,omitempty"`         // language → default message
	BrandColors    []string          `json:"brand_colors,omitempty"`
	AspectRatios   []string          `json:"aspect_ratios,omitempty"` // empty means all
	Products       []Product         `json:"products"`
}

// DefaultLanguage receives campaign_message when no messages map is given.
const DefaultLanguage = "en"

// Product is one product of the campaign. Messages override the campaign
// defaults per language.
type Product struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	ExistingAssets []string          `json:"existing_assets,omitempty"`
	Messages       map[string]string `json:"messages,omitempty"`
	Enabled        *bool             `json:"enabled,omitempty"` // nil = enabled
}

// SafeName is the product name as a file-system friendly directory name.
func (p Product) SafeName() string {
	return SafeName(p.Name)
}

// SafeName lowercases s and replaces separators and spaces with underscores.
func SafeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_").Replace(s)
}

// ── Resolved types (after merging defaults + product overrides) ──

// ResolvedProduct is a product ready for composition.
type ResolvedProduct struct {
	Name        string
	SafeName    string
	Description string
	Assets      []string
	Messages    map[string]string
}

// ── Report types ──

// Report is the campaign audit written next to the creatives.
type Report struct {
	CampaignID        string                       `json:"campaign_id"`
	StartTime         string                       `json:"start_time"`
	EndTime           string                       `json:"end_time"`
	BrandColors       []string                     `json:"brand_colors,omitempty"`
	Products          []ProductReport              `json:"products"`
	VariationsCreated int                          `json:"variations_created"`
	AssetsReused      int                          `json:"assets_reused"`
	Placeholders      int                          `json:"placeholders_used"`
	Compliance        ComplianceSummary            `json:"compliance_summary"`
	Moderation        map[moderation.RiskLevel]int `json:"moderation_summary,omitempty"` // messages checked, by risk level
	Errors            []string                     `json:"errors,omitempty"`
	Warnings          []string                     `json:"warnings,omitempty"`
}

// ComplianceSummary aggregates variant compliance across the campaign.
type ComplianceSummary struct {
	Scored       int     `json:"scored"`
	Compliant    int     `json:"compliant"`
	AverageScore float64 `json:"average_score"`
}

// ProductReport lists a product's variants. Error is set when every variant
// of the product failed.
type ProductReport struct {
	Name        string                       `json:"name"`
	SafeName    string                       `json:"safe_name"`
	Source      string                       `json:"source,omitempty"`
	Placeholder bool                         `json:"placeholder,omitempty"`
	Moderation  map[string]moderation.Result `json:"moderation,omitempty"` // by language
	Variants    []VariantReport              `json:"variants"`
	Error       string                       `json:"error,omitempty"`
}

// VariantReport describes one (aspect ratio, language) creative.
type VariantReport struct {
	AspectRatio    string             `json:"aspect_ratio"`
	Language       string             `json:"language"`
	Width          int                `json:"width,omitempty"`
	Height         int                `json:"height,omitempty"`
	FinalPath      string             `json:"final_path,omitempty"`
	PreOverlayPath string             `json:"pre_overlay_path,omitempty"`
	Placement      *overlay.Placement `json:"placement,omitempty"`
	Colors         colors.Pair        `json:"colors"`
	FontPath       string             `json:"font_path,omitempty"`
	FontSize       float64            `json:"font_size,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Compliance     *compliance.Report `json:"compliance,omitempty"`
	Error          string             `json:"error,omitempty"`
}
