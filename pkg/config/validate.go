package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cert-maintainer/pkg/utils"
)

// defaultCertKeywords gate search results: a result must mention one of
// these in its title or URL to count as certification/training content.
// This is a known precision ceiling: it can accept paid offerings and
// reject free ones with unusual phrasing.
var defaultCertKeywords = []string{"certif", "course", "training", "learn", "badge", "credential"}

// defaultProviderRules is the fixed domain -> provider lookup used when a
// source does not declare a provider. Ordered; first match wins.
var defaultProviderRules = []ProviderRule{
	{Domain: "coursera.org", Provider: "Coursera"},
	{Domain: "edx.org", Provider: "edX"},
	{Domain: "udemy.com", Provider: "Udemy"},
	{Domain: "linkedin.com", Provider: "LinkedIn Learning"},
	{Domain: "aws.amazon.com", Provider: "Amazon Web Services"},
	{Domain: "cloud.google.com", Provider: "Google Cloud"},
	{Domain: "microsoft.com", Provider: "Microsoft"},
	{Domain: "google.com", Provider: "Google"},
	{Domain: "ibm.com", Provider: "IBM"},
	{Domain: "oracle.com", Provider: "Oracle"},
	{Domain: "cisco.com", Provider: "Cisco"},
	{Domain: "salesforce.com", Provider: "Salesforce"},
	{Domain: "hubspot.com", Provider: "HubSpot"},
	{Domain: "freecodecamp.org", Provider: "freeCodeCamp"},
	{Domain: "codecademy.com", Provider: "Codecademy"},
	{Domain: "futurelearn.com", Provider: "FutureLearn"},
}

// defaultCategoryRules classify search results by title/snippet keyword.
// Ordered; first match wins, so more specific keywords come first.
var defaultCategoryRules = []CategoryRule{
	{Keyword: "machine learning", Category: "AI & Machine Learning Engineering"},
	{Keyword: "google cloud", Category: "Cloud Computing"},
	{Keyword: "cloud", Category: "Cloud Computing"},
	{Keyword: "aws", Category: "Cloud Computing"},
	{Keyword: "azure", Category: "Cloud Computing"},
	{Keyword: "gcp", Category: "Cloud Computing"},
	{Keyword: "security", Category: "Cybersecurity & Information Security"},
	{Keyword: "cyber", Category: "Cybersecurity & Information Security"},
	{Keyword: "data", Category: "Data Science & Analytics"},
	{Keyword: "ai", Category: "AI & Machine Learning Engineering"},
	{Keyword: "python", Category: "Programming & Development"},
	{Keyword: "java", Category: "Programming & Development"},
	{Keyword: "javascript", Category: "Programming & Development"},
	{Keyword: "web", Category: "Programming & Development"},
}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	if c.MaxConcurrent <= 0 {
		warnings = append(warnings, "max_concurrent should be > 0, defaulting to 15")
		c.MaxConcurrent = 15
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 20 * time.Second
	}
	if c.SourceDelay < 0 {
		warnings = append(warnings, "source_delay cannot be negative, setting to 0")
		c.SourceDelay = 0
	} else if c.SourceDelay == 0 {
		c.SourceDelay = 1 * time.Second
	}
	if c.QueryDelay < 0 {
		warnings = append(warnings, "query_delay cannot be negative, setting to 0")
		c.QueryDelay = 0
	} else if c.QueryDelay == 0 {
		c.QueryDelay = 2 * time.Second
	}

	if c.MaxLinksPerSource <= 0 {
		c.MaxLinksPerSource = 50
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = 10
	}
	if c.MinTitleLength <= 0 {
		c.MinTitleLength = 5
	}
	if c.MaxTitleLength <= 0 {
		c.MaxTitleLength = 200
	}
	if c.MinTitleLength > c.MaxTitleLength {
		warnings = append(warnings, fmt.Sprintf(
			"min_title_length (%d) > max_title_length (%d), swapping",
			c.MinTitleLength, c.MaxTitleLength))
		c.MinTitleLength, c.MaxTitleLength = c.MaxTitleLength, c.MinTitleLength
	}

	if c.ValidThreshold <= 0 || c.ValidThreshold > 1 {
		if c.ValidThreshold != 0 {
			warnings = append(warnings, "valid_threshold must be in (0, 1], defaulting to 0.80")
		}
		c.ValidThreshold = 0.80
	}
	if c.RecheckAfter < 0 {
		warnings = append(warnings, "recheck_after cannot be negative, setting to 0 (always probe)")
		c.RecheckAfter = 0
	}

	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.StateDir == "" {
		c.StateDir = "./state"
	}
	if c.DatasetFile == "" {
		c.DatasetFile = filepath.Join(c.DataDir, "certifications.json")
	}
	if c.CSVFile == "" {
		c.CSVFile = "free_certifications.csv"
	}

	if c.SearchEndpoint == "" {
		c.SearchEndpoint = "https://html.duckduckgo.com/html/"
	}
	if len(c.CertKeywords) == 0 {
		c.CertKeywords = defaultCertKeywords
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "Programming & Development"
	}
	if len(c.ProviderRules) == 0 {
		c.ProviderRules = defaultProviderRules
	}
	if len(c.CategoryRules) == 0 {
		c.CategoryRules = defaultCategoryRules
	}

	// Per-source validation is fatal: a misconfigured source would
	// silently scrape nothing.
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return warnings, fmt.Errorf("source %d: %w", i, err)
		}
	}

	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks SourceConfig required fields.
func (s *SourceConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: source needs a name", utils.ErrConfigValidation)
	}
	if s.URL == "" {
		return fmt.Errorf("%w: source '%s' needs a url", utils.ErrConfigValidation, s.Name)
	}
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return fmt.Errorf("%w: source '%s' url must be absolute http(s)", utils.ErrConfigValidation, s.Name)
	}
	return nil
}
