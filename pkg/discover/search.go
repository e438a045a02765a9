package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/models"
)

// Searcher extracts candidate records from search-engine result pages
// for topical queries. It expects the DuckDuckGo HTML endpoint's result
// markup (.result / .result__a) and unwraps the engine's redirect
// wrapper via the uddg query parameter.
type Searcher struct {
	fetcher         BodyFetcher
	extractor       *Extractor
	endpoint        string
	keywords        []string // At least one must appear in title or URL
	maxResults      int
	defaultCategory string
	log             *logrus.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(fetcher BodyFetcher, extractor *Extractor, endpoint string, keywords []string, maxResults int, defaultCategory string, log *logrus.Logger) *Searcher {
	return &Searcher{
		fetcher:         fetcher,
		extractor:       extractor,
		endpoint:        endpoint,
		keywords:        keywords,
		maxResults:      maxResults,
		defaultCategory: defaultCategory,
		log:             log,
	}
}

// Search issues a single search request for the query and extracts
// candidates from the top results, deduplicating against (and growing)
// the frontier. Any failure yields zero candidates.
func (s *Searcher) Search(ctx context.Context, query string, frontier *Frontier) []models.CertificationRecord {
	queryLog := s.log.WithField("query", query)

	searchURL := s.endpoint + "?q=" + url.QueryEscape(query)
	body := s.fetcher.FetchBody(ctx, searchURL)
	if body == "" {
		queryLog.Warn("Search request failed, no candidates")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		queryLog.Warnf("Cannot parse search results: %v", err)
		return nil
	}

	var discovered []models.CertificationRecord
	doc.Find(".result").EachWithBreak(func(i int, result *goquery.Selection) bool {
		if i >= s.maxResults {
			return false
		}

		titleElem := result.Find(".result__a").First()
		if titleElem.Length() == 0 {
			return true
		}
		title := titleElem.Text()
		href, _ := titleElem.Attr("href")

		href = unwrapRedirect(href)
		if !strings.HasPrefix(href, "http") {
			return true
		}

		if !s.looksLikeCertification(title, href) {
			return true
		}

		// Default category, provider inferred from the destination domain
		candidate, ok := s.extractor.Extract(href, title, s.defaultCategory, "")
		if !ok {
			return true
		}
		if frontier.IsDuplicate(candidate) {
			return true
		}
		frontier.Add(candidate)
		discovered = append(discovered, candidate)
		return true
	})

	queryLog.Infof("Extracted %d candidates", len(discovered))
	return discovered
}

// looksLikeCertification applies the keyword heuristic: the result's
// title or URL must mention one of the configured keywords. This is a
// known precision ceiling, preserved rather than sharpened.
func (s *Searcher) looksLikeCertification(title, href string) bool {
	titleLower := strings.ToLower(title)
	hrefLower := strings.ToLower(href)
	for _, kw := range s.keywords {
		if strings.Contains(titleLower, kw) || strings.Contains(hrefLower, kw) {
			return true
		}
	}
	return false
}

// unwrapRedirect extracts the true destination from a search engine's
// redirect wrapper by reading the uddg query parameter. Non-wrapped
// hrefs pass through unchanged.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := parsed.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}
