package reconcile

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
)

// ChangeEntry names one record removed from or added to the dataset.
// Every change is recorded literally, never as a bare count.
type ChangeEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RepairEntry records an invalid URL replaced by a working one instead
// of being evicted.
type RepairEntry struct {
	Name   string `json:"name"`
	OldURL string `json:"old_url"`
	NewURL string `json:"new_url"`
}

// Report is the maintenance audit artifact for one reconciliation run.
type Report struct {
	RunID          string        `json:"run_id"`
	Timestamp      string        `json:"timestamp"` // ISO-8601 UTC
	PreviousCount  int           `json:"previous_count"`
	RemovedInvalid int           `json:"removed_invalid"`
	DiscoveredNew  int           `json:"discovered_new"`
	RepairedCount  int           `json:"repaired_count,omitempty"`
	FinalCount     int           `json:"final_count"`
	InvalidRemoved []ChangeEntry `json:"invalid_removed"`
	NewAdded       []ChangeEntry `json:"new_added"`
	Repaired       []RepairEntry `json:"repaired,omitempty"`
}

// Inputs carries everything the merge needs: the validation survivors,
// the accepted new candidates, and the audit context (what was removed,
// what was repaired, how many records existed before).
type Inputs struct {
	PreviousCount int
	Survivors     []models.CertificationRecord
	Accepted      []models.CertificationRecord
	Removed       []models.CertificationRecord
	Repaired      []RepairEntry
}

// Reconciler merges validation survivors and accepted candidates into
// the next canonical dataset. The merge is deterministic and idempotent:
// reconciling a dataset against itself reproduces identical ordering,
// ids, and metadata, byte for byte except last_updated.
type Reconciler struct {
	log *logrus.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(log *logrus.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Reconcile produces the next canonical dataset plus its change report.
// Records missing name or url are dropped before entering the dataset.
// The sort is stable on (category, name) so equal keys keep their
// original relative order; ids are reassigned as a dense 1..N sequence
// in sorted position.
func (r *Reconciler) Reconcile(in Inputs) (models.Dataset, Report) {
	working := make([]models.CertificationRecord, 0, len(in.Survivors)+len(in.Accepted))
	for _, rec := range append(append([]models.CertificationRecord{}, in.Survivors...), in.Accepted...) {
		if !rec.HasEssentials() {
			r.log.Debugf("Dropping record without name/url: %+v", rec)
			continue
		}
		working = append(working, rec)
	}

	sort.SliceStable(working, func(i, j int) bool {
		if working[i].Category != working[j].Category {
			return working[i].Category < working[j].Category
		}
		return working[i].Name < working[j].Name
	})

	for i := range working {
		working[i].ID = i + 1
	}

	now := time.Now().UTC().Format(time.RFC3339)
	dataset := models.Dataset{
		Metadata: models.Metadata{
			TotalCertifications: len(working),
			LastUpdated:         now,
			Categories:          distinctSorted(working, func(c models.CertificationRecord) string { return c.Category }),
			Providers:           distinctSorted(working, func(c models.CertificationRecord) string { return c.Provider }),
			Levels:              distinctSorted(working, func(c models.CertificationRecord) string { return c.Level }),
		},
		Certifications: working,
	}

	report := Report{
		RunID:          uuid.NewString(),
		Timestamp:      now,
		PreviousCount:  in.PreviousCount,
		RemovedInvalid: len(in.Removed),
		DiscoveredNew:  len(in.Accepted),
		RepairedCount:  len(in.Repaired),
		FinalCount:     len(working),
		InvalidRemoved: changeEntries(in.Removed),
		NewAdded:       changeEntries(in.Accepted),
		Repaired:       in.Repaired,
	}

	r.log.Infof("Reconciled dataset: %d previous, %d removed, %d added, %d final",
		report.PreviousCount, report.RemovedInvalid, report.DiscoveredNew, report.FinalCount)
	return dataset, report
}

// distinctSorted collects the sorted set of distinct non-empty values of
// one field across the record list.
func distinctSorted(records []models.CertificationRecord, field func(models.CertificationRecord) string) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if v := field(rec); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// changeEntries projects records onto their audit identity.
func changeEntries(records []models.CertificationRecord) []ChangeEntry {
	entries := make([]ChangeEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ChangeEntry{Name: rec.Name, URL: rec.URL})
	}
	return entries
}
