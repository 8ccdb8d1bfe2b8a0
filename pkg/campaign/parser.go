// parser.go - Brief JSON parsing and the sample brief.
package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrNoCampaignID = errors.New("campaign_id is required")
	ErrNoProducts   = errors.New("at least one enabled product is required")
	ErrNoMessage    = errors.New("a campaign message is required")
)

// GetExampleJSON returns a sample brief for `creative init`.
func GetExampleJSON() string {
	return `{
  "campaign_id": "summer_morning_2025",
  "target_region": "US",
  "target_audience": "Young professionals 25-35",
  "messages": {
    "en": "Discover your perfect morning ritual",
    "es": "Descubre tu ritual matutino perfecto",
    "ar": "اكتشف طقوسك الصباحية المثالية"
  },
  "brand_colors": ["#2E7D32", "#FFFFFF"],
  "aspect_ratios": ["1x1", "9x16", "16x9"],
  "products": [
    {
      "name": "Cold Brew Coffee",
      "description": "Smooth cold brew in a glass bottle",
      "existing_assets": ["cold_brew_coffee.png"]
    },
    {
      "name": "Green Tea",
      "description": "Organic matcha green tea",
      "messages": {
        "en": "Calm energy, naturally"
      }
    },
    {
      "name": "Seasonal Blend",
      "enabled": false
    }
  ]
}
`
}

// ParseBrief decodes and normalizes a brief.
func ParseBrief(r io.Reader) (*Brief, error) {
	var brief Brief
	if err := json.NewDecoder(r).Decode(&brief); err != nil {
		return nil, fmt.Errorf("parse brief JSON: %w", err)
	}
	normalize(&brief)
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	return &brief, nil
}

// ParseBriefFile loads a brief from disk.
func ParseBriefFile(path string) (*Brief, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read brief: %w", err)
	}
	defer f.Close()
	return ParseBrief(f)
}

// normalize folds campaign_message into the messages map and trims names.
func normalize(b *Brief) {
	b.CampaignID = strings.TrimSpace(b.CampaignID)
	msg := strings.TrimSpace(b.Message)
	if msg != "" {
		if b.Messages == nil {
			b.Messages = make(map[string]string)
		}
		if _, ok := b.Messages[DefaultLanguage]; !ok {
			b.Messages[DefaultLanguage] = msg
		}
	}
	for i := range b.Products {
		b.Products[i].Name = strings.TrimSpace(b.Products[i].Name)
	}
}

// Validate reports problems that make the brief unusable.
func (b *Brief) Validate() error {
	var errs []error
	if b.CampaignID == "" {
		errs = append(errs, ErrNoCampaignID)
	}
	enabled := 0
	for i, p := range b.Products {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("product %d: name is required", i))
		}
		if p.Enabled == nil || *p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		errs = append(errs, ErrNoProducts)
	}
	hasMessage := false
	for _, m := range b.Messages {
		if strings.TrimSpace(m) != "" {
			hasMessage = true
		}
	}
	for _, p := range b.Products {
		for _, m := range p.Messages {
			if strings.TrimSpace(m) != "" {
				hasMessage = true
			}
		}
	}
	if !hasMessage {
		errs = append(errs, ErrNoMessage)
	}
	return errors.Join(errs...)
}
