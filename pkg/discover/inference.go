package discover

import (
	"net/url"
	"strings"

	"cert-maintainer/pkg/config"
)

// Inference resolves provider and category labels for candidates whose
// source did not declare them. Both lookups are ordered rule tables and
// the first matching rule wins.
type Inference struct {
	providerRules   []config.ProviderRule
	categoryRules   []config.CategoryRule
	defaultCategory string
}

// NewInference creates an Inference from the configured rule tables.
func NewInference(providerRules []config.ProviderRule, categoryRules []config.CategoryRule, defaultCategory string) *Inference {
	return &Inference{
		providerRules:   providerRules,
		categoryRules:   categoryRules,
		defaultCategory: defaultCategory,
	}
}

// Provider derives a provider name from a URL's domain: the first
// matching domain rule wins, then the title-cased first domain label,
// then "Unknown" for unparseable domains.
func (inf *Inference) Provider(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown"
	}
	domain := strings.ToLower(parsed.Hostname())

	for _, rule := range inf.providerRules {
		if strings.Contains(domain, rule.Domain) {
			return rule.Provider
		}
	}

	// Fall back to the first label of the bare domain
	domain = strings.TrimPrefix(domain, "www.")
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return "Unknown"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Category classifies free text (typically title plus snippet) by the
// first matching keyword rule, defaulting when nothing matches.
func (inf *Inference) Category(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range inf.categoryRules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Category
		}
	}
	return inf.defaultCategory
}
