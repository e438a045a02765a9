package dataset

import (
	"strings"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/parse"
)

// CleanStats counts what the cleaning pass did to the raw rows.
type CleanStats struct {
	Input             int
	DroppedIncomplete int
	DroppedDuplicate  int
	Kept              int
}

// CleanRecords normalizes raw tabular rows into dataset-shape records:
// trims and collapses whitespace, ensures the URL carries a scheme, maps
// the level onto the canonical vocabulary, drops rows missing name or
// url, and drops later rows whose cleaned URL exactly repeats an earlier
// one. Input order is preserved for the survivors.
func CleanRecords(raw []models.CertificationRecord, log *logrus.Logger) ([]models.CertificationRecord, CleanStats) {
	stats := CleanStats{Input: len(raw)}
	seen := make(map[string]struct{}, len(raw))

	cleaned := make([]models.CertificationRecord, 0, len(raw))
	for _, rec := range raw {
		rec.Category = parse.CollapseWhitespace(rec.Category)
		rec.Name = parse.CollapseWhitespace(rec.Name)
		rec.Provider = parse.CollapseWhitespace(rec.Provider)
		rec.URL = parse.EnsureScheme(strings.TrimSpace(rec.URL))
		rec.Description = parse.CollapseWhitespace(rec.Description)
		rec.Duration = parse.CollapseWhitespace(rec.Duration)
		rec.Level = models.NormalizeLevel(rec.Level)
		rec.Prerequisites = parse.CollapseWhitespace(rec.Prerequisites)
		rec.Expiration = parse.CollapseWhitespace(rec.Expiration)

		if !rec.HasEssentials() {
			stats.DroppedIncomplete++
			log.Debugf("Dropping incomplete row: name=%q url=%q", rec.Name, rec.URL)
			continue
		}
		if _, dup := seen[rec.URL]; dup {
			stats.DroppedDuplicate++
			log.Debugf("Dropping duplicate URL: %s", rec.URL)
			continue
		}
		seen[rec.URL] = struct{}{}
		cleaned = append(cleaned, rec)
	}

	stats.Kept = len(cleaned)
	log.Infof("Cleaned %d rows: %d kept, %d incomplete, %d duplicates",
		stats.Input, stats.Kept, stats.DroppedIncomplete, stats.DroppedDuplicate)
	return cleaned, stats
}
