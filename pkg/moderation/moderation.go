// Package moderation screens campaign copy before it is rendered. Prohibited
// words reject a message; regulated terms approve it with a disclaimer.
package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrRejected is wrapped by errors for messages that failed moderation.
var ErrRejected = errors.New("content moderation failed")

// RiskLevel grades a checked message.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Category is a group of regulated terms sharing one disclaimer.
type Category struct {
	Terms      []string `json:"terms"`
	Disclaimer string   `json:"disclaimer"`
}

// Rules is the moderation policy. It is also the layout of a rules file.
type Rules struct {
	ProhibitedWords []string            `json:"prohibited_words,omitempty"`
	RegulatedTerms  map[string]Category `json:"regulated_terms,omitempty"`
}

// DefaultRules returns the built-in policy.
func DefaultRules() Rules {
	return Rules{
		ProhibitedWords: []string{
			"offensive", "inappropriate", "scam", "fraud",
			"guaranteed", "risk-free", "no-risk", "instant results",
			"miracle", "revolutionary",
		},
		RegulatedTerms: map[string]Category{
			"medical": {
				Terms:      []string{"cure", "prevent", "treat", "heal", "therapy"},
				Disclaimer: "These statements have not been evaluated by the FDA",
			},
			"financial": {
				Terms:      []string{"guaranteed returns", "no risk", "safe investment"},
				Disclaimer: "Past performance does not guarantee future results",
			},
			"superlative": {
				Terms:      []string{"best", "fastest", "cheapest", "#1", "top-rated"},
				Disclaimer: "Requires substantiation or comparative data",
			},
		},
	}
}

// Merge returns r with over applied. A non-empty prohibited word list
// replaces the default list; a category replaces the default category of
// the same name unless it has no terms.
func (r Rules) Merge(over Rules) Rules {
	out := Rules{
		ProhibitedWords: slices.Clone(r.ProhibitedWords),
		RegulatedTerms:  maps.Clone(r.RegulatedTerms),
	}
	if len(over.ProhibitedWords) > 0 {
		out.ProhibitedWords = slices.Clone(over.ProhibitedWords)
	}
	if out.RegulatedTerms == nil {
		out.RegulatedTerms = make(map[string]Category)
	}
	for name, cat := range over.RegulatedTerms {
		if len(cat.Terms) > 0 {
			out.RegulatedTerms[name] = cat
		}
	}
	return out
}

// LoadRules reads a JSON rules file and merges it onto the defaults. An
// empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read moderation rules: %w", err)
	}
	var over Rules
	if err := json.Unmarshal(data, &over); err != nil {
		return Rules{}, fmt.Errorf("parse moderation rules: %w", err)
	}
	return rules.Merge(over), nil
}

// Finding is one matched rule.
type Finding struct {
	Type     string `json:"type"` // prohibited_word or regulated_term
	Term     string `json:"term"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity"`
}

func (f Finding) String() string {
	if f.Category != "" {
		return fmt.Sprintf("%s %q (%s)", f.Type, f.Term, f.Category)
	}
	return fmt.Sprintf("%s %q", f.Type, f.Term)
}

// Result is the verdict for one message.
type Result struct {
	Approved    bool      `json:"approved"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Violations  []Finding `json:"violations,omitempty"`
	Warnings    []Finding `json:"warnings,omitempty"`
	Disclaimers []string  `json:"disclaimers_needed,omitempty"`
}

// Err returns nil for approved results and an ErrRejected wrapper listing
// the violations otherwise.
func (r Result) Err() error {
	if r.Approved {
		return nil
	}
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return fmt.Errorf("%w: %s", ErrRejected, strings.Join(parts, ", "))
}

// Moderator checks text against a rule set. It is safe for concurrent use.
type Moderator struct {
	rules      Rules
	categories []string
}

// New creates a moderator for rules.
func New(rules Rules) *Moderator {
	return &Moderator{
		rules:      rules,
		categories: slices.Sorted(maps.Keys(rules.RegulatedTerms)),
	}
}

// Default creates a moderator with the built-in rules.
func Default() *Moderator {
	return New(DefaultRules())
}

// Rules returns the active policy.
func (m *Moderator) Rules() Rules { return m.rules }

// Check screens text. Matching is case-insensitive on whole words, so
// "treat" matches "Treat yourself" but not "treats".
func (m *Moderator) Check(text string) Result {
	lower := strings.ToLower(text)
	var res Result

	for _, w := range m.rules.ProhibitedWords {
		if containsTerm(lower, w) {
			res.Violations = append(res.Violations, Finding{Type: "prohibited_word", Term: w, Severity: "high"})
		}
	}

	for _, name := range m.categories {
		cat := m.rules.RegulatedTerms[name]
		for _, term := range cat.Terms {
			if !containsTerm(lower, term) {
				continue
			}
			res.Warnings = append(res.Warnings, Finding{Type: "regulated_term", Term: term, Category: name, Severity: "medium"})
			if cat.Disclaimer != "" && !slices.Contains(res.Disclaimers, cat.Disclaimer) {
				res.Disclaimers = append(res.Disclaimers, cat.Disclaimer)
			}
		}
	}

	switch {
	case len(res.Violations) > 0:
		res.RiskLevel = RiskHigh
	case len(res.Warnings) > 0:
		res.RiskLevel, res.Approved = RiskMedium, true
	default:
		res.RiskLevel, res.Approved = RiskLow, true
	}
	return res
}

// containsTerm reports whether term occurs in text (both lowercased) with
// no letter or digit directly on either side.
func containsTerm(text, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !wordRune(before) && !wordRune(after) {
			return true
		}
		start = i + 1
	}
	return false
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
