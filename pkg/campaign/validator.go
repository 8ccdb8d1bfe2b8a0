// validator.go - Non-fatal brief checks and the human-readable summary.
package campaign

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compose"
)

// Lint returns warnings about a brief that parsed and validated. Each names
// something that will be ignored or behave unexpectedly.
func Lint(brief *Brief) []string {
	var warnings []string

	if _, err := colors.ParsePalette(brief.BrandColors); err != nil {
		warnings = append(warnings, fmt.Sprintf("brand colors: %v (ignored)", err))
	}
	if len(brief.BrandColors) == 0 {
		warnings = append(warnings, "no brand colors: the color compliance check is skipped")
	}

	for _, name := range brief.AspectRatios {
		if _, err := compose.LookupAspectRatio(name); err != nil {
			warnings = append(warnings, fmt.Sprintf("%v (ignored)", err))
		}
	}

	for lang, msg := range brief.Messages {
		if strings.TrimSpace(msg) == "" {
			warnings = append(warnings, fmt.Sprintf("default message for %q is empty", lang))
		}
	}

	seen := make(map[string]string)
	for _, p := range brief.Products {
		safe := p.SafeName()
		if other, dup := seen[safe]; dup {
			warnings = append(warnings, fmt.Sprintf("products %q and %q share the output directory %q", other, p.Name, safe))
		}
		seen[safe] = p.Name

		if p.Enabled != nil && !*p.Enabled {
			warnings = append(warnings, fmt.Sprintf("product %q is disabled (skipped)", p.Name))
			continue
		}
		for lang := range p.Messages {
			if _, ok := brief.Messages[lang]; !ok {
				warnings = append(warnings, fmt.Sprintf("product %q adds language %q not in the campaign defaults", p.Name, lang))
			}
		}
	}

	sort.Strings(warnings)
	return warnings
}

// FormatSummary returns a human-readable description of a brief.
func FormatSummary(brief *Brief) string {
	var s strings.Builder
	fmt.Fprintf(&s, "Campaign: %s\n", brief.CampaignID)
	if brief.TargetRegion != "" {
		fmt.Fprintf(&s, "Region:   %s\n", brief.TargetRegion)
	}
	if brief.TargetAudience != "" {
		fmt.Fprintf(&s, "Audience: %s\n", brief.TargetAudience)
	}

	if palette, _ := colors.ParsePalette(brief.BrandColors); len(palette) > 0 {
		fmt.Fprintf(&s, "Brand:    %s (%s)\n", strings.Join(palette.Hex(), ", "), palette.Describe())
	}

	aspects, _ := resolveAspects(brief.AspectRatios)
	names := make([]string, len(aspects))
	for i, a := range aspects {
		names[i] = fmt.Sprintf("%s (%dx%d)", a.Name, a.Width, a.Height)
	}
	fmt.Fprintf(&s, "Formats:  %s\n", strings.Join(names, ", "))

	s.WriteString("\nMessages:\n")
	for _, lang := range sortedKeys(brief.Messages) {
		fmt.Fprintf(&s, "  %-6s %s\n", lang+":", brief.Messages[lang])
	}

	products := ResolveProducts(brief)
	fmt.Fprintf(&s, "\nProducts (%d enabled):\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&s, "\n  [%s] %s\n", p.SafeName, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&s, "    %s\n", p.Description)
		}
		for _, lang := range sortedKeys(p.Messages) {
			if p.Messages[lang] != brief.Messages[lang] {
				fmt.Fprintf(&s, "    %-6s %s\n", lang+":", p.Messages[lang])
			}
		}
	}
	return s.String()
}

// resolveAspects keeps the known ratio names and drops the rest.
func resolveAspects(names []string) ([]compose.AspectRatio, []string) {
	if len(names) == 0 {
		return compose.AllAspectRatios, nil
	}
	var known []string
	var unknown []string
	for _, n := range names {
		if _, err := compose.LookupAspectRatio(n); err != nil {
			unknown = append(unknown, n)
			continue
		}
		known = append(known, n)
	}
	if len(known) == 0 {
		return compose.AllAspectRatios, unknown
	}
	aspects, _ := compose.ParseAspectRatios(known)
	return aspects, unknown
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
