package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"cert-maintainer/pkg/config"
	"cert-maintainer/pkg/models"
)

// BodyFetcher retrieves page content; an empty string signals failure
// and callers treat it as "no candidates available".
type BodyFetcher interface {
	FetchBody(ctx context.Context, rawURL string) string
}

// RobotsPolicy answers whether a URL may be scraped. nil disables the gate.
type RobotsPolicy interface {
	Allowed(ctx context.Context, target *url.URL) bool
}

// Scraper extracts candidate records from known certification listing
// pages. Every failure mode (unreachable page, malformed HTML, robots
// denial) degrades to zero candidates, never an error.
type Scraper struct {
	fetcher   BodyFetcher
	robots    RobotsPolicy
	extractor *Extractor
	maxLinks  int // Anchors considered per source page
	log       *logrus.Logger
}

// NewScraper creates a Scraper. robots may be nil to skip the gate.
func NewScraper(fetcher BodyFetcher, robots RobotsPolicy, extractor *Extractor, maxLinks int, log *logrus.Logger) *Scraper {
	return &Scraper{
		fetcher:   fetcher,
		robots:    robots,
		extractor: extractor,
		maxLinks:  maxLinks,
		log:       log,
	}
}

// Scrape fetches one source's listing page and extracts candidates from
// its anchors, deduplicating against (and growing) the frontier.
func (s *Scraper) Scrape(ctx context.Context, source config.SourceConfig, frontier *Frontier) []models.CertificationRecord {
	srcLog := s.log.WithField("source", source.Name)

	base, err := url.Parse(source.URL)
	if err != nil {
		srcLog.Warnf("Unparseable source URL '%s': %v", source.URL, err)
		return nil
	}

	if s.robots != nil && !s.robots.Allowed(ctx, base) {
		srcLog.Info("Source disallowed by robots.txt, skipping")
		return nil
	}

	body := s.fetcher.FetchBody(ctx, source.URL)
	if body == "" {
		srcLog.Warn("Source page unreachable, no candidates")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		// Malformed content means zero extractable candidates, not a failure
		srcLog.Warnf("Cannot parse source page: %v", err)
		return nil
	}

	selector := source.LinkSelector
	if selector == "" {
		selector = "a[href]" // No declared selector: every anchor on the page
	}

	var discovered []models.CertificationRecord
	doc.Find(selector).EachWithBreak(func(i int, anchor *goquery.Selection) bool {
		if i >= s.maxLinks {
			return false // Extraction cap bounds cost on runaway pages
		}

		href, _ := anchor.Attr("href")
		absolute, ok := resolveHref(base, href)
		if !ok {
			return true
		}

		// Visible text first, accessibility attributes as fallback
		title := anchor.Text()
		if strings.TrimSpace(title) == "" {
			title, _ = anchor.Attr("title")
			if title == "" {
				title, _ = anchor.Attr("aria-label")
			}
		}

		candidate, ok := s.extractor.Extract(absolute, title, source.Category, source.Provider)
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

	srcLog.Infof("Extracted %d candidates", len(discovered))
	return discovered
}

// resolveHref turns an anchor href into an absolute URL against the
// source page's scheme+host. Only absolute http(s) and root-relative
// hrefs survive; everything else (fragments, mailto:, relative paths)
// is discarded.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, true
	}
	if !strings.HasPrefix(href, "/") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
