package discover

import (
	"time"
	"unicode/utf8"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/parse"
)

// Extractor turns a raw (url, title) pair into a candidate record,
// applying the shape rules shared by scraping and web search: title
// whitespace normalization and length bounds, category/provider
// defaulting, and provenance stamping.
type Extractor struct {
	inference      *Inference
	minTitleLength int
	maxTitleLength int
}

// NewExtractor creates an Extractor with the given title length bounds
// (inclusive on both ends).
func NewExtractor(inference *Inference, minTitleLength, maxTitleLength int) *Extractor {
	return &Extractor{
		inference:      inference,
		minTitleLength: minTitleLength,
		maxTitleLength: maxTitleLength,
	}
}

// Extract builds a candidate from a discovered link. Returns false when
// the pair fails the shape rules: empty url or title, or a normalized
// title outside the length bounds. category/provider come from the
// source's configuration; an empty provider is inferred from the URL's
// domain.
func (e *Extractor) Extract(rawURL, title, category, provider string) (models.CertificationRecord, bool) {
	title = parse.CollapseWhitespace(title)
	if rawURL == "" || title == "" {
		return models.CertificationRecord{}, false
	}
	// Bounds are in characters, not bytes: multibyte titles must not be
	// penalized for their encoding width.
	if n := utf8.RuneCountInString(title); n < e.minTitleLength || n > e.maxTitleLength {
		return models.CertificationRecord{}, false
	}

	if category == "" {
		category = e.inference.Category(title)
	}
	if provider == "" {
		provider = e.inference.Provider(rawURL)
	}

	return models.CertificationRecord{
		Category:      category,
		Name:          title,
		Provider:      provider,
		URL:           rawURL,
		Description:   "Free certification from " + provider,
		Duration:      "Self-paced",
		Level:         "Beginner",
		Prerequisites: "",
		Expiration:    "",
		DiscoveredAt:  time.Now().UTC().Format(time.RFC3339),
	}, true
}
