package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/utils"
)

// csvHeader is the fixed column layout of the tabular mirror. Column
// order matters: the mirror must stay field-for-field consistent with
// the JSON document.
var csvHeader = []string{
	"Category", "Certification_Name", "Provider", "URL", "Description",
	"Duration", "Level", "Prerequisites", "Expiration",
}

// Store reads and writes the canonical dataset in both representations:
// the authoritative JSON document and its CSV mirror.
type Store struct {
	datasetPath string
	csvPath     string
	log         *logrus.Logger
}

// NewStore creates a Store for the given file locations.
func NewStore(datasetPath, csvPath string, log *logrus.Logger) *Store {
	return &Store{datasetPath: datasetPath, csvPath: csvPath, log: log}
}

// LoadDataset reads the canonical JSON document. A missing file is a
// first run and yields an empty dataset. An unparseable file is fatal:
// without a safe baseline the run must stop rather than overwrite state.
func (s *Store) LoadDataset() (models.Dataset, error) {
	data, err := os.ReadFile(s.datasetPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Infof("No dataset at %s, starting empty", s.datasetPath)
		return models.Dataset{}, nil
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%w: reading dataset %s: %w", utils.ErrFilesystem, s.datasetPath, err)
	}

	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: %s: %w", utils.ErrDatasetCorrupt, s.datasetPath, err)
	}
	return ds, nil
}

// SaveDataset writes both representations: the JSON document and the CSV
// mirror, in the same record order.
func (s *Store) SaveDataset(ds models.Dataset) error {
	if err := s.saveJSON(ds); err != nil {
		return err
	}
	return s.saveCSV(ds.Certifications)
}

func (s *Store) saveJSON(ds models.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(s.datasetPath), 0755); err != nil {
		return fmt.Errorf("%w: creating dataset directory: %w", utils.ErrFilesystem, err)
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshalling dataset JSON: %w", utils.ErrParsing, err)
	}
	if err := os.WriteFile(s.datasetPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("%w: writing dataset %s: %w", utils.ErrFilesystem, s.datasetPath, err)
	}
	s.log.Infof("Dataset saved to %s (%d records)", s.datasetPath, len(ds.Certifications))
	return nil
}

func (s *Store) saveCSV(records []models.CertificationRecord) error {
	f, err := os.Create(s.csvPath)
	if err != nil {
		return fmt.Errorf("%w: creating CSV %s: %w", utils.ErrFilesystem, s.csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: writing CSV header: %w", utils.ErrFilesystem, err)
	}
	for _, rec := range records {
		row := []string{
			rec.Category, rec.Name, rec.Provider, rec.URL, rec.Description,
			rec.Duration, rec.Level, rec.Prerequisites, rec.Expiration,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: writing CSV row: %w", utils.ErrFilesystem, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flushing CSV: %w", utils.ErrFilesystem, err)
	}
	s.log.Infof("CSV mirror saved to %s", s.csvPath)
	return nil
}

// LoadCSV reads records from a tabular file by header name, tolerating
// extra or reordered columns. The id/provenance fields are not part of
// the tabular form and come back zero.
func LoadCSV(path string) ([]models.CertificationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening CSV %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // Raw input rows can be ragged

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV %s: %w", utils.ErrParsing, path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	records := make([]models.CertificationRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, models.CertificationRecord{
			Category:      field(row, "Category"),
			Name:          field(row, "Certification_Name"),
			Provider:      field(row, "Provider"),
			URL:           field(row, "URL"),
			Description:   field(row, "Description"),
			Duration:      field(row, "Duration"),
			Level:         field(row, "Level"),
			Prerequisites: field(row, "Prerequisites"),
			Expiration:    field(row, "Expiration"),
		})
	}
	return records, nil
}
