package discover

import (
	"context"

	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/config"
	"cert-maintainer/pkg/fetch"
	"cert-maintainer/pkg/models"
)

// CandidateValidator is the reachability acceptance gate applied to
// discovered candidates before they may enter the dataset. The
// validate.Validator satisfies it.
type CandidateValidator interface {
	Validate(ctx context.Context, records []models.CertificationRecord) (valid, invalid []models.CertificationRecord, results []models.ValidationResult)
}

// Discoverer runs the full discovery pass: scrape the configured
// sources, search the configured queries, and keep only candidates that
// are new (frontier) and reachable (validator).
type Discoverer struct {
	scraper     *Scraper
	searcher    *Searcher
	validator   CandidateValidator
	sources     []config.SourceConfig
	queries     []string
	sourcePacer *fetch.Pacer
	queryPacer  *fetch.Pacer
	log         *logrus.Logger
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(
	scraper *Scraper,
	searcher *Searcher,
	validator CandidateValidator,
	sources []config.SourceConfig,
	queries []string,
	sourcePacer *fetch.Pacer,
	queryPacer *fetch.Pacer,
	log *logrus.Logger,
) *Discoverer {
	return &Discoverer{
		scraper:     scraper,
		searcher:    searcher,
		validator:   validator,
		sources:     sources,
		queries:     queries,
		sourcePacer: sourcePacer,
		queryPacer:  queryPacer,
		log:         log,
	}
}

// DiscoverAll collects candidates from every source and query, then
// gates them through reachability checking. The frontier arrives seeded
// with the validation survivors and grows as candidates are taken, so
// later candidates are deduplicated against earlier ones from the same
// pass. Collection is sequential (paced per source/query); only the
// final reachability fan-out runs concurrently, after frontier mutation
// has finished.
func (d *Discoverer) DiscoverAll(ctx context.Context, frontier *Frontier) []models.CertificationRecord {
	var collected []models.CertificationRecord

	d.log.Infof("Scraping %d certification sources...", len(d.sources))
	for _, source := range d.sources {
		d.sourcePacer.Wait(ctx)
		collected = append(collected, d.scraper.Scrape(ctx, source, frontier)...)
	}

	d.log.Infof("Searching %d queries for new certifications...", len(d.queries))
	for _, query := range d.queries {
		d.queryPacer.Wait(ctx)
		collected = append(collected, d.searcher.Search(ctx, query, frontier)...)
	}

	if len(collected) == 0 {
		d.log.Info("No new candidates discovered")
		return nil
	}

	d.log.Infof("Validating %d discovered candidates...", len(collected))
	accepted, rejected, _ := d.validator.Validate(ctx, collected)
	d.log.Infof("Discovery complete: %d accepted, %d unreachable", len(accepted), len(rejected))
	return accepted
}
