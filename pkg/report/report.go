package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/reconcile"
	"cert-maintainer/pkg/utils"
	"cert-maintainer/pkg/validate"
)

// invalidTableCap bounds the invalid-URL table in the status page so a
// mass outage cannot produce an unreadably long document.
const invalidTableCap = 50

// Writer renders run artifacts: machine-readable JSON reports and the
// human-readable markdown summaries committed alongside the dataset.
type Writer struct {
	reportDir string
	log       *logrus.Logger
}

// NewWriter creates a Writer rooted at reportDir.
func NewWriter(reportDir string, log *logrus.Logger) *Writer {
	return &Writer{reportDir: reportDir, log: log}
}

// validationReport is the JSON shape of a standalone validation run.
type validationReport struct {
	Summary     validate.Summary          `json:"summary"`
	InvalidURLs []models.ValidationResult `json:"invalid_urls"`
	AllResults  []models.ValidationResult `json:"all_results"`
}

// WriteValidationJSON writes the full validation outcome as JSON.
func (w *Writer) WriteValidationJSON(path string, summary validate.Summary, results []models.ValidationResult) error {
	invalid := make([]models.ValidationResult, 0)
	for _, res := range results {
		if !res.Valid {
			invalid = append(invalid, res)
		}
	}
	return w.writeJSON(path, validationReport{
		Summary:     summary,
		InvalidURLs: invalid,
		AllResults:  results,
	})
}

// WriteValidationStatus renders the markdown status page: headline
// metrics plus a table of invalid URLs, capped at invalidTableCap rows.
func (w *Writer) WriteValidationStatus(path string, summary validate.Summary, results []models.ValidationResult) error {
	var b strings.Builder
	b.WriteString("# URL Validation Status\n\n")
	fmt.Fprintf(&b, "**Last checked:** %s\n\n", summary.GeneratedAt)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total URLs checked | %d |\n", summary.TotalChecked)
	fmt.Fprintf(&b, "| Valid | %d |\n", summary.Valid)
	fmt.Fprintf(&b, "| Invalid | %d |\n", summary.Invalid)
	fmt.Fprintf(&b, "| Valid percentage | %.2f%% |\n", summary.ValidPercentage)

	invalid := make([]models.ValidationResult, 0)
	for _, res := range results {
		if !res.Valid {
			invalid = append(invalid, res)
		}
	}

	if len(invalid) > 0 {
		b.WriteString("\n## Invalid URLs\n\n")
		b.WriteString("| Name | URL | Error |\n")
		b.WriteString("|------|-----|-------|\n")
		shown := invalid
		if len(shown) > invalidTableCap {
			shown = shown[:invalidTableCap]
		}
		for _, res := range shown {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				escapeCell(res.Name), escapeCell(res.URL), escapeCell(res.Error))
		}
		if len(invalid) > invalidTableCap {
			fmt.Fprintf(&b, "\n...and %d more\n", len(invalid)-invalidTableCap)
		}
	} else {
		b.WriteString("\nAll URLs are valid.\n")
	}

	return w.writeFile(path, b.String())
}

// WriteMaintenanceJSON writes one run's audit report as a timestamped
// JSON file under the report directory and returns its path.
func (w *Writer) WriteMaintenanceJSON(rep reconcile.Report) (string, error) {
	stamp := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(w.reportDir, fmt.Sprintf("maintenance_%s.json", stamp))
	if err := w.writeJSON(path, rep); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMaintenanceSummary renders the markdown digest of a maintenance
// run: counts plus the literal lists of removed, repaired and added
// records.
func (w *Writer) WriteMaintenanceSummary(path string, rep reconcile.Report) error {
	var b strings.Builder
	b.WriteString("# Maintenance Run Summary\n\n")
	fmt.Fprintf(&b, "**Run:** %s\n", rep.RunID)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", rep.Timestamp)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Previous count | %d |\n", rep.PreviousCount)
	fmt.Fprintf(&b, "| Removed (invalid) | %d |\n", rep.RemovedInvalid)
	fmt.Fprintf(&b, "| Repaired | %d |\n", rep.RepairedCount)
	fmt.Fprintf(&b, "| Newly discovered | %d |\n", rep.DiscoveredNew)
	fmt.Fprintf(&b, "| Final count | %d |\n", rep.FinalCount)

	if len(rep.InvalidRemoved) > 0 {
		b.WriteString("\n## Removed\n\n")
		for _, e := range rep.InvalidRemoved {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.URL)
		}
	}
	if len(rep.Repaired) > 0 {
		b.WriteString("\n## Repaired\n\n")
		for _, e := range rep.Repaired {
			fmt.Fprintf(&b, "- %s: %s -> %s\n", e.Name, e.OldURL, e.NewURL)
		}
	}
	if len(rep.NewAdded) > 0 {
		b.WriteString("\n## Added\n\n")
		for _, e := range rep.NewAdded {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.URL)
		}
	}

	return w.writeFile(path, b.String())
}

// WriteDiscoveries renders the new-discoveries page, grouped under one
// heading per run timestamp. Earlier runs are kept: each run with
// additions appends its own section rather than replacing the file.
func (w *Writer) WriteDiscoveries(path string, rep reconcile.Report) error {
	if len(rep.NewAdded) == 0 {
		return nil
	}
	var b strings.Builder
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.WriteString("# Newly Discovered Certifications\n\n")
	case err != nil:
		return fmt.Errorf("%w: reading discoveries page %s: %w", utils.ErrFilesystem, path, err)
	default:
		b.Write(existing)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "## Run %s\n\n", rep.Timestamp)
	b.WriteString("| Name | URL |\n")
	b.WriteString("|------|-----|\n")
	for _, e := range rep.NewAdded {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(e.Name), escapeCell(e.URL))
	}
	return w.writeFile(path, b.String())
}

func (w *Writer) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating report directory: %w", utils.ErrFilesystem, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshalling report: %w", utils.ErrParsing, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("%w: writing report %s: %w", utils.ErrFilesystem, path, err)
	}
	w.log.Infof("Report written to %s", path)
	return nil
}

func (w *Writer) writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating report directory: %w", utils.ErrFilesystem, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("%w: writing report %s: %w", utils.ErrFilesystem, path, err)
	}
	w.log.Infof("Report written to %s", path)
	return nil
}

// escapeCell keeps markdown table rows intact when values contain pipes
// or newlines.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
