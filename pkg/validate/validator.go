package validate

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/parse"
	"cert-maintainer/pkg/storage"
)

// Prober is the reachability check the validator fans out over. The
// shared fetch.Fetcher satisfies it; tests substitute stubs.
type Prober interface {
	Probe(ctx context.Context, rawURL string) models.ProbeResult
}

// ProbeCache is the optional cross-run cache of probe outcomes.
type ProbeCache interface {
	Get(normalizedURL string, maxAge time.Duration) (*storage.ProbeEntry, bool)
	Put(normalizedURL string, entry storage.ProbeEntry) error
}

// Validator partitions records into reachable and unreachable by probing
// each record's URL. It is a pure partition: no side effects beyond the
// network calls and optional cache writes.
type Validator struct {
	prober       Prober
	cache        ProbeCache // nil disables caching
	recheckAfter time.Duration
	log          *logrus.Logger
}

// NewValidator creates a Validator. cache may be nil; recheckAfter <= 0
// means every URL is probed on every run.
func NewValidator(prober Prober, cache ProbeCache, recheckAfter time.Duration, log *logrus.Logger) *Validator {
	return &Validator{
		prober:       prober,
		cache:        cache,
		recheckAfter: recheckAfter,
		log:          log,
	}
}

// Validate probes every record concurrently and partitions the input.
// Results pair with records by input index, so partitions preserve the
// input's relative order regardless of probe completion order. The
// concurrency bound lives in the prober's shared semaphore; goroutines
// beyond the cap block at the gate. Empty input yields empty partitions.
func (v *Validator) Validate(ctx context.Context, records []models.CertificationRecord) (valid, invalid []models.CertificationRecord, results []models.ValidationResult) {
	results = make([]models.ValidationResult, len(records))
	if len(records) == 0 {
		return nil, nil, results
	}

	v.log.Infof("Validating %d URLs...", len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = v.checkOne(ctx, records[idx])
		}(i)
	}
	wg.Wait()

	for i, rec := range records {
		if results[i].Valid {
			valid = append(valid, rec)
		} else {
			invalid = append(invalid, rec)
		}
	}

	v.log.Infof("Validation complete: %d valid, %d invalid", len(valid), len(invalid))
	return valid, invalid, results
}

// checkOne resolves a single record's reachability, via cache when a
// fresh entry exists, otherwise by probing.
func (v *Validator) checkOne(ctx context.Context, rec models.CertificationRecord) models.ValidationResult {
	normalized := parse.NormalizeURL(rec.URL)

	if v.cache != nil {
		if entry, ok := v.cache.Get(normalized, v.recheckAfter); ok {
			v.log.WithField("url", rec.URL).Debug("Probe cache hit")
			return models.ValidationResult{
				URL:       rec.URL,
				Name:      rec.Name,
				Status:    entry.Status,
				Valid:     entry.Reachable,
				Error:     entry.ErrorKind,
				CheckedAt: entry.CheckedAt,
			}
		}
	}

	probe := v.prober.Probe(ctx, rec.URL)
	checkedAt := time.Now().UTC()

	if v.cache != nil {
		err := v.cache.Put(normalized, storage.ProbeEntry{
			Reachable: probe.Reachable,
			Status:    probe.Status,
			ErrorKind: probe.ErrorKind,
			CheckedAt: checkedAt,
		})
		if err != nil {
			// Cache failures never affect the partition
			v.log.Warnf("Cannot cache probe result for '%s': %v", rec.URL, err)
		}
	}

	return models.ValidationResult{
		URL:       rec.URL,
		Name:      rec.Name,
		Status:    probe.Status,
		Valid:     probe.Reachable,
		Error:     probe.ErrorKind,
		CheckedAt: checkedAt,
	}
}

// Summary aggregates a validation run for reporting and the run-level
// threshold policy.
type Summary struct {
	TotalChecked    int     `json:"total_checked"`
	Valid           int     `json:"valid"`
	Invalid         int     `json:"invalid"`
	ValidPercentage float64 `json:"valid_percentage"` // 0-100, rounded to 2 decimals
	GeneratedAt     string  `json:"generated_at"`     // ISO-8601 UTC
}

// Summarize computes aggregate counts over validation results.
func Summarize(results []models.ValidationResult) Summary {
	s := Summary{
		TotalChecked: len(results),
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	for _, r := range results {
		if r.Valid {
			s.Valid++
		} else {
			s.Invalid++
		}
	}
	if s.TotalChecked > 0 {
		s.ValidPercentage = math.Round(float64(s.Valid)/float64(s.TotalChecked)*100*100) / 100
	}
	return s
}

// BelowThreshold reports whether the valid fraction fell under the
// run-level failure threshold (e.g. 0.80). This is a caller policy,
// distinct from per-record validity.
func (s Summary) BelowThreshold(threshold float64) bool {
	if s.TotalChecked == 0 {
		return false
	}
	return float64(s.Valid)/float64(s.TotalChecked) < threshold
}
