// merge.go - Merge product overrides onto campaign defaults.
package campaign

import (
	"maps"
	"os"
	"path/filepath"
	"strings"
)

// ResolveProducts combines campaign default messages with per-product
// overrides. Disabled products are excluded. An override replaces the
// default for its language; an empty override keeps the default.
func ResolveProducts(brief *Brief) []ResolvedProduct {
	var result []ResolvedProduct

	for _, p := range brief.Products {
		if p.Enabled != nil && !*p.Enabled {
			continue
		}

		msgs := maps.Clone(brief.Messages)
		if msgs == nil {
			msgs = make(map[string]string)
		}
		mergeMessages(msgs, p.Messages)

		result = append(result, ResolvedProduct{
			Name:        p.Name,
			SafeName:    p.SafeName(),
			Description: p.Description,
			Assets:      p.ExistingAssets,
			Messages:    msgs,
		})
	}

	return result
}

func mergeMessages(base, over map[string]string) {
	for lang, msg := range over {
		if strings.TrimSpace(msg) != "" {
			base[lang] = msg
		}
	}
}

// imageExts are the source formats the decoder understands.
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// FindAsset returns the first usable source image for p: explicit asset
// paths first (as given, then relative to dirs), then files in dirs named
// after the product. It returns "" when nothing is found.
func FindAsset(p ResolvedProduct, dirs ...string) string {
	for _, a := range p.Assets {
		if isImage(a) {
			return a
		}
		for _, d := range dirs {
			if path := filepath.Join(d, a); isImage(path) {
				return path
			}
		}
	}

	for _, d := range dirs {
		for _, pattern := range []string{p.SafeName + ".*", "*" + p.SafeName + "*"} {
			matches, _ := filepath.Glob(filepath.Join(d, pattern))
			for _, m := range matches {
				if isImage(m) {
					return m
				}
			}
		}
	}
	return ""
}

func isImage(path string) bool {
	if !imageExts[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
