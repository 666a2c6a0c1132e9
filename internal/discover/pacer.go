// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer bounds the outbound request rate shared by the source adapters.
// NCBI in particular enforces a hard per-IP limit, and one discovery run
// issues dozens of requests across overlapping keyword queries.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer allowing rps requests per second. Burst equals
// the whole-number rate so a fan-out can start without an initial stall.
// A non-positive rps returns nil, and a nil Pacer never waits.
func NewPacer(rps float64) *Pacer {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the next request may proceed or the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
