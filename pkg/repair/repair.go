package repair

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/reconcile"
)

// Prober is the reachability check used to confirm a replacement URL
// actually works before adopting it.
type Prober interface {
	Probe(ctx context.Context, rawURL string) models.ProbeResult
}

// Repairer tries to rescue records whose URL went dead before they are
// evicted: first a configured known-replacement table, then
// provider-specific slug variations of the record's name. The first
// replacement that probes reachable wins.
type Repairer struct {
	prober       Prober
	replacements map[string]string // old URL -> known new URL
	log          *logrus.Logger
}

// NewRepairer creates a Repairer. replacements may be nil.
func NewRepairer(prober Prober, replacements map[string]string, log *logrus.Logger) *Repairer {
	return &Repairer{prober: prober, replacements: replacements, log: log}
}

// RepairAll attempts a repair for every invalid record. Repaired records
// come back with their URL updated; the rest stay invalid and will be
// removed by reconciliation.
func (r *Repairer) RepairAll(ctx context.Context, invalid []models.CertificationRecord) (repaired []models.CertificationRecord, entries []reconcile.RepairEntry, stillInvalid []models.CertificationRecord) {
	for _, rec := range invalid {
		newURL, ok := r.repairOne(ctx, rec)
		if !ok {
			stillInvalid = append(stillInvalid, rec)
			continue
		}
		r.log.WithFields(logrus.Fields{"name": rec.Name, "old": rec.URL, "new": newURL}).Info("Repaired broken URL")
		entries = append(entries, reconcile.RepairEntry{Name: rec.Name, OldURL: rec.URL, NewURL: newURL})
		rec.URL = newURL
		repaired = append(repaired, rec)
	}
	return repaired, entries, stillInvalid
}

// repairOne returns the first reachable replacement URL for a record.
func (r *Repairer) repairOne(ctx context.Context, rec models.CertificationRecord) (string, bool) {
	if known, ok := r.replacements[rec.URL]; ok {
		if r.prober.Probe(ctx, known).Reachable {
			return known, true
		}
	}
	for _, candidate := range slugVariations(rec.Name, rec.URL) {
		if r.prober.Probe(ctx, candidate).Reachable {
			return candidate, true
		}
	}
	return "", false
}

// slugVariations builds replacement URL guesses from the record's name
// using each provider's known URL patterns. Domains without known
// patterns yield nothing.
func slugVariations(name, oldURL string) []string {
	parsed, err := url.Parse(oldURL)
	if err != nil {
		return nil
	}
	domain := strings.ToLower(parsed.Hostname())
	slug := slugify(name)
	if slug == "" {
		return nil
	}

	switch {
	case strings.Contains(domain, "coursera.org"):
		return []string{
			"https://www.coursera.org/learn/" + slug,
			"https://www.coursera.org/specializations/" + slug,
			"https://www.coursera.org/professional-certificates/" + slug,
		}
	case strings.Contains(domain, "edx.org"):
		return []string{
			"https://www.edx.org/learn/" + slug,
			"https://www.edx.org/course/" + slug,
		}
	case strings.Contains(domain, "futurelearn.com"):
		return []string{
			"https://www.futurelearn.com/courses/" + slug,
		}
	case strings.Contains(domain, "learn.microsoft.com"):
		return []string{
			"https://learn.microsoft.com/en-us/training/paths/" + slug,
			"https://learn.microsoft.com/en-us/training/modules/" + slug,
		}
	}
	return nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
var dashRun = regexp.MustCompile(`-+`)

// slugify lowercases a name into a URL path segment: spaces become
// dashes, everything outside [a-z0-9-] is dropped, dash runs collapse.
func slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = dashRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
