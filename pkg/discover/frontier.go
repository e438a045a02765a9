package discover

import (
	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/parse"
)

// Frontier is the known universe of certification identities a candidate
// must not collide with: normalized URLs and case-folded names from the
// current dataset plus every candidate already taken in this run. It is
// built once per phase and handed forward by value-semantics discipline:
// concurrent phases only read it, mutation happens between phases.
type Frontier struct {
	urls  map[string]struct{}
	names map[string]struct{}
}

// NewFrontier builds a Frontier seeded from existing records.
func NewFrontier(records []models.CertificationRecord) *Frontier {
	f := &Frontier{
		urls:  make(map[string]struct{}, len(records)),
		names: make(map[string]struct{}, len(records)),
	}
	for _, rec := range records {
		f.Add(rec)
	}
	return f
}

// IsDuplicate reports whether the candidate collides with the frontier
// on normalized URL or case-folded name. Name collision is deliberately
// coarse: two different offerings sharing a display name are treated as
// duplicates.
func (f *Frontier) IsDuplicate(candidate models.CertificationRecord) bool {
	if _, found := f.urls[parse.NormalizeURL(candidate.URL)]; found {
		return true
	}
	if _, found := f.names[parse.NormalizeName(candidate.Name)]; found {
		return true
	}
	return false
}

// Add inserts a record's identities into the frontier.
func (f *Frontier) Add(rec models.CertificationRecord) {
	f.urls[parse.NormalizeURL(rec.URL)] = struct{}{}
	f.names[parse.NormalizeName(rec.Name)] = struct{}{}
}

// Len returns the number of distinct normalized URLs tracked.
func (f *Frontier) Len() int {
	return len(f.urls)
}
