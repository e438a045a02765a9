package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cert-maintainer/pkg/config"
)

func newTestGate() *RobotsGate {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.AppConfig{MaxConcurrent: 5, RequestTimeout: 5 * time.Second, UserAgent: "cert-maintainer-test"}
	f := NewFetcher(&http.Client{}, cfg, log)
	return NewRobotsGate(f, cfg.UserAgent, log)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestRobotsGate_DisallowedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			io.WriteString(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gate := newTestGate()

	assert.True(t, gate.Allowed(context.Background(), mustParse(t, srv.URL+"/catalog")))
	assert.False(t, gate.Allowed(context.Background(), mustParse(t, srv.URL+"/private/page")))
}

func TestRobotsGate_MissingRobotsAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gate := newTestGate()
	assert.True(t, gate.Allowed(context.Background(), mustParse(t, srv.URL+"/anything")))
}

func TestRobotsGate_CachesPerHost(t *testing.T) {
	var robotsFetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&robotsFetches, 1)
			io.WriteString(w, "User-agent: *\nAllow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gate := newTestGate()
	for i := 0; i < 5; i++ {
		gate.Allowed(context.Background(), mustParse(t, srv.URL+"/page"))
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&robotsFetches), "robots.txt fetched once per host")
}

func TestPacer_FirstCallImmediate(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewPacer(time.Second, log)

	start := time.Now()
	p.Wait(context.Background())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_SpacesCalls(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewPacer(80*time.Millisecond, log)

	start := time.Now()
	p.Wait(context.Background())
	p.Wait(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestPacer_ZeroIntervalDisabled(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewPacer(0, log)

	start := time.Now()
	for i := 0; i < 100; i++ {
		p.Wait(context.Background())
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
