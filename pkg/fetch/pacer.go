package fetch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Pacer spaces successive operations by a fixed courtesy delay. It is a
// politeness measure against anti-scraping defenses, not a correctness
// requirement: the first call passes immediately, later calls wait out
// the remainder of the interval.
type Pacer struct {
	limiter *rate.Limiter // nil when pacing is disabled
	log     *logrus.Logger
}

// NewPacer creates a Pacer with the given interval. A zero or negative
// interval disables pacing.
func NewPacer(interval time.Duration, log *logrus.Logger) *Pacer {
	p := &Pacer{log: log}
	if interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return p
}

// Wait blocks until the interval since the previous operation has
// elapsed, or the context is done. Cancellation is not an error for the
// caller; the operation simply proceeds and fails on its own terms.
func (p *Pacer) Wait(ctx context.Context) {
	if p.limiter == nil {
		return
	}
	if err := p.limiter.Wait(ctx); err != nil {
		p.log.Debugf("Pacer wait interrupted: %v", err)
	}
}
