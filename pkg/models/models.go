package models

import "time"

// CertificationRecord is the unit entity of the directory: one free
// certification listing. IDs are a dense 1..N sequence consistent with
// the current (category, name) sort order and are reassigned on every
// reconciliation pass; they are not stable external identifiers.
type CertificationRecord struct {
	ID            int        `json:"id"`
	Category      string     `json:"category"`
	Name          string     `json:"name"`
	Provider      string     `json:"provider"`
	URL           string     `json:"url"`
	Description   string     `json:"description"`
	Duration      string     `json:"duration"`
	Level         string     `json:"level"`
	Prerequisites string     `json:"prerequisites"`
	Expiration    string     `json:"expiration"`
	DiscoveredAt  string     `json:"discovered_at,omitempty"` // ISO-8601 UTC, set on candidate extraction
	Validated     *bool      `json:"validated,omitempty"`
	LastChecked   *time.Time `json:"last_checked,omitempty"`
}

// HasEssentials reports whether the record carries the minimum data
// required to enter the dataset.
func (r CertificationRecord) HasEssentials() bool {
	return r.Name != "" && r.URL != ""
}

// Metadata holds derived dataset-level values, recomputed on every
// reconciliation from the record list itself.
type Metadata struct {
	TotalCertifications int      `json:"total_certifications"`
	LastUpdated         string   `json:"last_updated"` // ISO-8601 UTC
	Categories          []string `json:"categories"`   // sorted, distinct, non-empty
	Providers           []string `json:"providers"`    // sorted, distinct, non-empty
	Levels              []string `json:"levels"`       // sorted, distinct, non-empty
}

// Dataset is the persisted canonical document: metadata plus records
// sorted by (category, name).
type Dataset struct {
	Metadata       Metadata              `json:"metadata"`
	Certifications []CertificationRecord `json:"certifications"`
}

// ProbeResult is the outcome of a single reachability probe. Failure is
// data, not an error: transport problems surface as Reachable=false with
// an ErrorKind category, never as a returned error.
type ProbeResult struct {
	Reachable bool
	Status    int    // Final HTTP status after redirects; 0 if the request never completed
	ErrorKind string // Stable category string (Network_Timeout, HTTP_404, ...); empty when reachable
}

// ValidationResult records the per-URL outcome of a validation run. It is
// persisted only in audit reports, never fed back into the record beyond
// the valid/invalid partition.
type ValidationResult struct {
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Status    int       `json:"status,omitempty"`
	Valid     bool      `json:"valid"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
