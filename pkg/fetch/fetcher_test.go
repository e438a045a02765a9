package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cert-maintainer/pkg/config"
)

func newTestFetcher(maxConcurrent int, timeout time.Duration) *Fetcher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.AppConfig{
		MaxConcurrent:  maxConcurrent,
		RequestTimeout: timeout,
		UserAgent:      "cert-maintainer-test",
	}
	return NewFetcher(&http.Client{}, cfg, log)
}

func TestFetcher_Probe_ReachableViaHEAD(t *testing.T) {
	var headCount, getCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&headCount, 1)
		} else {
			atomic.AddInt32(&getCount, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	result := f.Probe(context.Background(), srv.URL)

	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Empty(t, result.ErrorKind)
	assert.EqualValues(t, 1, atomic.LoadInt32(&headCount))
	assert.EqualValues(t, 0, atomic.LoadInt32(&getCount), "GET should not fire when HEAD succeeds")
}

func TestFetcher_Probe_HeadRejectedFallsBackToGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	result := f.Probe(context.Background(), srv.URL)

	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestFetcher_Probe_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	result := f.Probe(context.Background(), srv.URL)

	assert.False(t, result.Reachable)
	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.Equal(t, "HTTP_404", result.ErrorKind)
}

func TestFetcher_Probe_FollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusMovedPermanently)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	result := f.Probe(context.Background(), srv.URL)

	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestFetcher_Probe_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing listening anymore

	f := newTestFetcher(5, 5*time.Second)
	result := f.Probe(context.Background(), srv.URL)

	assert.False(t, result.Reachable)
	assert.Equal(t, 0, result.Status)
	assert.NotEmpty(t, result.ErrorKind)
}

func TestFetcher_Probe_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 100*time.Millisecond)
	result := f.Probe(context.Background(), srv.URL)

	assert.False(t, result.Reachable)
	assert.Equal(t, "Network_Timeout", result.ErrorKind)
}

func TestFetcher_Probe_GetFallbackHasOwnTimeout(t *testing.T) {
	// Both requests consume most of one timeout window. The GET fallback
	// must run on a fresh budget, not on whatever the slow HEAD left.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(5, 500*time.Millisecond)
	result := f.Probe(context.Background(), srv.URL)

	assert.True(t, result.Reachable, "fallback GET must not inherit the HEAD's spent budget")
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestFetcher_Probe_ConcurrencyBound(t *testing.T) {
	const maxParallel = 3
	var inFlight, peak int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(maxParallel, 5*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := f.Probe(context.Background(), srv.URL)
			assert.True(t, result.Reachable)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxParallel),
		"in-flight requests must never exceed the semaphore cap")
}

func TestFetcher_FetchBody_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cert-maintainer-test", r.Header.Get("User-Agent"))
		io.WriteString(w, "<html><body>catalog</body></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	body := f.FetchBody(context.Background(), srv.URL)

	require.NotEmpty(t, body)
	assert.Contains(t, body, "catalog")
}

func TestFetcher_FetchBody_NonOKYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "denied")
	}))
	defer srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	assert.Empty(t, f.FetchBody(context.Background(), srv.URL))
}

func TestFetcher_FetchBody_UnreachableYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := newTestFetcher(5, 5*time.Second)
	assert.Empty(t, f.FetchBody(context.Background(), srv.URL))
}
