package validate

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/storage"
)

// stubProber serves canned probe results keyed by URL.
type stubProber struct {
	results map[string]models.ProbeResult
	calls   int64
}

func (s *stubProber) Probe(_ context.Context, rawURL string) models.ProbeResult {
	atomic.AddInt64(&s.calls, 1)
	if res, ok := s.results[rawURL]; ok {
		return res
	}
	return models.ProbeResult{Reachable: false, ErrorKind: "Unknown"}
}

// memCache is an in-memory ProbeCache for cache-path tests.
type memCache struct {
	entries map[string]storage.ProbeEntry
	puts    int
}

func (m *memCache) Get(normalizedURL string, maxAge time.Duration) (*storage.ProbeEntry, bool) {
	if maxAge <= 0 {
		return nil, false
	}
	entry, ok := m.entries[normalizedURL]
	if !ok || time.Since(entry.CheckedAt) > maxAge {
		return nil, false
	}
	return &entry, true
}

func (m *memCache) Put(normalizedURL string, entry storage.ProbeEntry) error {
	if m.entries == nil {
		m.entries = make(map[string]storage.ProbeEntry)
	}
	m.entries[normalizedURL] = entry
	m.puts++
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func records(urls ...string) []models.CertificationRecord {
	recs := make([]models.CertificationRecord, len(urls))
	for i, u := range urls {
		recs[i] = models.CertificationRecord{Name: "Cert " + u, URL: u}
	}
	return recs
}

func TestValidator_Validate_Partition(t *testing.T) {
	prober := &stubProber{results: map[string]models.ProbeResult{
		"https://a.example": {Reachable: true, Status: 200},
		"https://b.example": {Reachable: false, Status: 404, ErrorKind: "HTTP_404"},
		"https://c.example": {Reachable: true, Status: 200},
	}}
	v := NewValidator(prober, nil, 0, testLogger())

	valid, invalid, results := v.Validate(context.Background(),
		records("https://a.example", "https://b.example", "https://c.example"))

	require.Len(t, valid, 2)
	require.Len(t, invalid, 1)
	require.Len(t, results, 3)

	// Partitions preserve input order
	assert.Equal(t, "https://a.example", valid[0].URL)
	assert.Equal(t, "https://c.example", valid[1].URL)
	assert.Equal(t, "https://b.example", invalid[0].URL)

	// Results pair by index
	assert.True(t, results[0].Valid)
	assert.False(t, results[1].Valid)
	assert.Equal(t, "HTTP_404", results[1].Error)
	assert.Equal(t, 404, results[1].Status)
	assert.True(t, results[2].Valid)
	assert.False(t, results[1].CheckedAt.IsZero())
}

func TestValidator_Validate_EmptyInput(t *testing.T) {
	prober := &stubProber{}
	v := NewValidator(prober, nil, 0, testLogger())

	valid, invalid, results := v.Validate(context.Background(), nil)

	assert.Empty(t, valid)
	assert.Empty(t, invalid)
	assert.Empty(t, results)
	assert.EqualValues(t, 0, prober.calls)
}

func TestValidator_Validate_FreshCacheSkipsProbe(t *testing.T) {
	prober := &stubProber{}
	cache := &memCache{entries: map[string]storage.ProbeEntry{
		"https://a.example": {Reachable: true, Status: 200, CheckedAt: time.Now().Add(-time.Hour)},
	}}
	v := NewValidator(prober, cache, 24*time.Hour, testLogger())

	valid, invalid, results := v.Validate(context.Background(), records("https://a.example"))

	assert.Len(t, valid, 1)
	assert.Empty(t, invalid)
	assert.True(t, results[0].Valid)
	assert.EqualValues(t, 0, prober.calls, "fresh cache entry must skip the network")
}

func TestValidator_Validate_StaleCacheProbesAndOverwrites(t *testing.T) {
	prober := &stubProber{results: map[string]models.ProbeResult{
		"https://a.example": {Reachable: true, Status: 200},
	}}
	cache := &memCache{entries: map[string]storage.ProbeEntry{
		"https://a.example": {Reachable: false, Status: 404, CheckedAt: time.Now().Add(-48 * time.Hour)},
	}}
	v := NewValidator(prober, cache, 24*time.Hour, testLogger())

	valid, _, _ := v.Validate(context.Background(), records("https://a.example"))

	assert.Len(t, valid, 1)
	assert.EqualValues(t, 1, prober.calls)
	assert.Equal(t, 1, cache.puts, "stale entry gets overwritten with the fresh outcome")
	assert.True(t, cache.entries["https://a.example"].Reachable)
}

func TestValidator_Validate_CacheKeyIsNormalized(t *testing.T) {
	prober := &stubProber{results: map[string]models.ProbeResult{
		"https://A.example/Cert/": {Reachable: true, Status: 200},
	}}
	cache := &memCache{}
	v := NewValidator(prober, cache, 24*time.Hour, testLogger())

	v.Validate(context.Background(), records("https://A.example/Cert/"))

	_, ok := cache.entries["https://a.example/cert"]
	assert.True(t, ok, "cache keys use the normalized URL form")
}

func TestSummarize(t *testing.T) {
	results := make([]models.ValidationResult, 0, 100)
	for i := 0; i < 79; i++ {
		results = append(results, models.ValidationResult{Valid: true})
	}
	for i := 0; i < 21; i++ {
		results = append(results, models.ValidationResult{Valid: false})
	}

	s := Summarize(results)
	assert.Equal(t, 100, s.TotalChecked)
	assert.Equal(t, 79, s.Valid)
	assert.Equal(t, 21, s.Invalid)
	assert.Equal(t, 79.0, s.ValidPercentage)
	assert.NotEmpty(t, s.GeneratedAt)
}

func TestSummarize_Rounding(t *testing.T) {
	results := []models.ValidationResult{{Valid: true}, {Valid: true}, {Valid: false}}
	s := Summarize(results)
	assert.Equal(t, 66.67, s.ValidPercentage)
}

func TestSummary_BelowThreshold(t *testing.T) {
	below := Summary{TotalChecked: 100, Valid: 79}
	assert.True(t, below.BelowThreshold(0.80))

	atThreshold := Summary{TotalChecked: 100, Valid: 80}
	assert.False(t, atThreshold.BelowThreshold(0.80))

	above := Summary{TotalChecked: 100, Valid: 85}
	assert.False(t, above.BelowThreshold(0.80))

	empty := Summary{}
	assert.False(t, empty.BelowThreshold(0.80), "an empty dataset is not a failure")
}
