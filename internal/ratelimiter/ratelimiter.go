// Package ratelimiter throttles inbound conversation events using the
// token bucket algorithm from golang.org/x/time/rate. One bucket per
// actor: a flooding actor gets slowed down without affecting anyone else.
package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// unlimitedRate stands in for "no limit": rate.Inf has edge cases with
// dynamic burst updates, so an absurdly high finite rate is used instead.
const unlimitedRate = 1_000_000_000

// Limiter is a single token bucket.
//
// Thread safety: all methods are safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing eventsPerSecond sustained with the given
// burst capacity. eventsPerSecond = 0 disables limiting.
func New(eventsPerSecond, burst uint) *Limiter {
	if eventsPerSecond == 0 {
		eventsPerSecond = unlimitedRate
		burst = unlimitedRate
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), int(burst)),
	}
}

// Allow reports whether one event may proceed now, consuming a token if
// so. This is the fast path: it never blocks.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Tokens returns the current number of available tokens. Monitoring use
// only; the value can change immediately after the call.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// PerActor maintains one Limiter per actor id, created lazily on the
// actor's first event and kept for the life of the process, matching the
// no-expiry session model.
type PerActor struct {
	eventsPerSecond uint
	burst           uint

	mu     sync.Mutex
	actors map[int64]*Limiter
}

// NewPerActor creates a per-actor limiter family with a shared
// configuration. eventsPerSecond = 0 disables limiting for everyone.
func NewPerActor(eventsPerSecond, burst uint) *PerActor {
	return &PerActor{
		eventsPerSecond: eventsPerSecond,
		burst:           burst,
		actors:          make(map[int64]*Limiter),
	}
}

// Allow reports whether an event from actorID may proceed now.
func (p *PerActor) Allow(actorID int64) bool {
	return p.limiterFor(actorID).Allow()
}

func (p *PerActor) limiterFor(actorID int64) *Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.actors[actorID]
	if !ok {
		limiter = New(p.eventsPerSecond, p.burst)
		p.actors[actorID] = limiter
	}
	return limiter
}
