package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"cert-maintainer/pkg/config"
	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/utils"
)

// maxBodyBytes caps how much of a page body is read for extraction.
const maxBodyBytes = 10 << 20

// Fetcher issues reachability probes and page fetches under a shared
// global concurrency cap. Identical code serves 1 or 10,000 probes:
// tasks beyond the cap block at the semaphore, not the transport, so
// socket and memory usage scale with the cap, not the batch size.
//
// No retries are performed. A transient failure is terminal for that
// probe within the run and self-heals on the next periodic run.
type Fetcher struct {
	client *http.Client
	sem    *semaphore.Weighted // Global in-flight request gate
	cfg    *config.AppConfig
	log    *logrus.Logger
}

// NewFetcher creates a Fetcher with a fresh semaphore sized by
// cfg.MaxConcurrent. Share one Fetcher across all components so the
// cap is enforced globally.
func NewFetcher(client *http.Client, cfg *config.AppConfig, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		cfg:    cfg,
		log:    log,
	}
}

// Probe checks whether a URL is reachable: HEAD first, falling back to
// GET when HEAD is inconclusive (some servers reject HEAD outright).
// Reachable iff the final HTTP status after redirects is in [200, 400).
// Transport failures of any kind yield an unreachable result with a
// categorized error kind; Probe never returns an error.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) models.ProbeResult {
	probeLog := f.log.WithField("url", rawURL)

	if err := f.sem.Acquire(ctx, 1); err != nil {
		probeLog.Warnf("Probe aborted acquiring semaphore: %v", err)
		return unreachable(0, err)
	}
	defer f.sem.Release(1)

	headCtx, cancelHead := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	status, err := f.do(headCtx, http.MethodHead, rawURL)
	cancelHead()
	if err == nil && statusReachable(status) {
		probeLog.WithField("status", status).Debug("Reachable via HEAD")
		return models.ProbeResult{Reachable: true, Status: status}
	}

	// HEAD failed or returned a non-success status; fall back to GET.
	// The fallback gets its own full timeout budget rather than whatever
	// the HEAD attempt left over.
	getCtx, cancelGet := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancelGet()
	status, err = f.do(getCtx, http.MethodGet, rawURL)
	if err != nil {
		kind := utils.CategorizeError(err)
		probeLog.WithField("error_kind", kind).Debugf("Unreachable: %v", err)
		return unreachable(0, err)
	}
	if statusReachable(status) {
		probeLog.WithField("status", status).Debug("Reachable via GET")
		return models.ProbeResult{Reachable: true, Status: status}
	}

	probeLog.WithField("status", status).Debug("Unreachable status")
	return unreachable(status, statusError(status))
}

// FetchBody retrieves a page's content for extraction. An empty string
// signals failure: callers treat it as "no candidates available", never
// as a crash. Only a 200 response yields content.
func (f *Fetcher) FetchBody(ctx context.Context, rawURL string) string {
	fetchLog := f.log.WithField("url", rawURL)

	if err := f.sem.Acquire(ctx, 1); err != nil {
		fetchLog.Warnf("Fetch aborted acquiring semaphore: %v", err)
		return ""
	}
	defer f.sem.Release(1)

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		fetchLog.Warnf("Cannot build request: %v", err)
		return ""
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		fetchLog.Debugf("Fetch failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fetchLog.WithField("status", resp.StatusCode).Debug("Non-200 response, discarding body")
		io.Copy(io.Discard, resp.Body)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fetchLog.Debugf("Body read failed: %v", err)
		return ""
	}
	return string(body)
}

// do issues a single request and returns the final status code after
// redirects. The response body is always drained and closed here.
func (f *Fetcher) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// statusReachable applies the [200, 400) reachability window. Redirects
// are followed by the client, so a 3xx here means a redirect loop or a
// disabled hop, not a live page.
func statusReachable(status int) bool {
	return status >= 200 && status < 400
}

// statusError wraps a terminal status code in the matching sentinel so
// CategorizeError can derive a stable error kind from it.
func statusError(status int) error {
	switch {
	case status >= 500:
		return fmt.Errorf("%w: status %d ", utils.ErrServerHTTPError, status)
	case status >= 400:
		return fmt.Errorf("%w: status %d ", utils.ErrClientHTTPError, status)
	default:
		return fmt.Errorf("%w: status %d ", utils.ErrOtherHTTPError, status)
	}
}

func unreachable(status int, err error) models.ProbeResult {
	return models.ProbeResult{
		Reachable: false,
		Status:    status,
		ErrorKind: utils.CategorizeError(err),
	}
}
