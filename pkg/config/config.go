package config

import "time"

// SourceConfig describes a single known certification listing page to
// scrape. Immutable, supplied externally via the YAML config.
type SourceConfig struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	Category     string `yaml:"category,omitempty"`      // Default category for extracted candidates
	Provider     string `yaml:"provider,omitempty"`      // Default provider; empty = infer from URL domain
	LinkSelector string `yaml:"link_selector,omitempty"` // CSS selector for candidate anchors; empty = every anchor
}

// ProviderRule maps a URL domain substring to a provider display name.
// Rules are evaluated in order; the first match wins.
type ProviderRule struct {
	Domain   string `yaml:"domain"`
	Provider string `yaml:"provider"`
}

// CategoryRule maps a title/URL keyword to a category label. Rules are
// evaluated in order; the first match wins.
type CategoryRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent      string        `yaml:"user_agent,omitempty"`
	MaxConcurrent  int           `yaml:"max_concurrent,omitempty"`  // Global cap on in-flight network requests
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"` // Per-request wall-clock timeout
	SourceDelay    time.Duration `yaml:"source_delay,omitempty"`    // Courtesy delay between source scrapes
	QueryDelay     time.Duration `yaml:"query_delay,omitempty"`     // Courtesy delay between search queries
	SkipRobots     bool          `yaml:"skip_robots,omitempty"`     // Disable the robots.txt gate (default: respect it)

	MaxLinksPerSource int `yaml:"max_links_per_source,omitempty"` // Extraction cap per source page
	MaxSearchResults  int `yaml:"max_search_results,omitempty"`   // Result entries parsed per query
	MinTitleLength    int `yaml:"min_title_length,omitempty"`     // Candidate title bounds after whitespace
	MaxTitleLength    int `yaml:"max_title_length,omitempty"`     // normalization, inclusive

	ValidThreshold float64       `yaml:"valid_threshold,omitempty"` // Standalone validator failure threshold (fraction)
	RecheckAfter   time.Duration `yaml:"recheck_after,omitempty"`   // Probe cache freshness window; 0 = always probe

	DataDir     string `yaml:"data_dir,omitempty"`     // Reports and canonical JSON live here
	StateDir    string `yaml:"state_dir,omitempty"`    // Probe cache DB location
	DatasetFile string `yaml:"dataset_file,omitempty"` // Canonical JSON document path
	CSVFile     string `yaml:"csv_file,omitempty"`     // Tabular mirror path

	SearchEndpoint  string   `yaml:"search_endpoint,omitempty"` // HTML search endpoint, query appended as ?q=
	SearchQueries   []string `yaml:"search_queries,omitempty"`
	CertKeywords    []string `yaml:"cert_keywords,omitempty"` // A result must contain one of these in title or URL
	DefaultCategory string   `yaml:"default_category,omitempty"`

	Sources       []SourceConfig `yaml:"sources,omitempty"`
	ProviderRules []ProviderRule `yaml:"provider_rules,omitempty"`
	CategoryRules []CategoryRule `yaml:"category_rules,omitempty"`

	// Known URL replacements applied during repair before slug variations
	// are attempted (old URL -> new URL).
	KnownReplacements map[string]string `yaml:"known_replacements,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}
