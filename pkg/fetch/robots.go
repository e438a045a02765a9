package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate fetches, parses, and caches robots.txt data per host and
// answers whether a URL may be scraped. Fetches go through the shared
// Fetcher, so they count against the global concurrency cap.
type RobotsGate struct {
	fetcher   *Fetcher
	userAgent string
	cache     map[string]*robotstxt.RobotsData // hostname -> parsed data; nil = fetch/parse failed
	cacheMu   sync.Mutex
	log       *logrus.Logger
}

// NewRobotsGate creates a RobotsGate.
func NewRobotsGate(fetcher *Fetcher, userAgent string, log *logrus.Logger) *RobotsGate {
	return &RobotsGate{
		fetcher:   fetcher,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
		log:       log,
	}
}

// Allowed reports whether the configured user agent may fetch targetURL.
// A missing, unreachable, or unparseable robots.txt allows everything;
// absence of rules is not a prohibition.
func (g *RobotsGate) Allowed(ctx context.Context, targetURL *url.URL) bool {
	data := g.robotsData(ctx, targetURL)
	if data == nil {
		return true
	}
	return data.TestAgent(targetURL.RequestURI(), g.userAgent)
}

// robotsData returns cached robots data for the host, fetching on miss.
func (g *RobotsGate) robotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()

	g.cacheMu.Lock()
	data, found := g.cache[host]
	g.cacheMu.Unlock()
	if found {
		return data // May be nil: failed fetches are cached too
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	hostLog := g.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL.String()})
	hostLog.Debug("Fetching robots.txt")

	var parsed *robotstxt.RobotsData
	if body := g.fetcher.FetchBody(ctx, robotsURL.String()); body != "" {
		var err error
		parsed, err = robotstxt.FromString(body)
		if err != nil {
			hostLog.Warnf("Cannot parse robots.txt: %v", err)
			parsed = nil
		}
	}

	g.cacheMu.Lock()
	g.cache[host] = parsed
	g.cacheMu.Unlock()
	return parsed
}
