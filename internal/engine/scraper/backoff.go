package scraper

import (
	"math/rand/v2"
	"time"
)

const (
	defaultBackoffBase = 2 * time.Second
	maxBackoff         = 30 * time.Second
)

// Backoff produces per-attempt delays: a uniform jitter window before every
// search call, plus capped exponential growth on retries. It is the sole
// throttling mechanism; worker count bounds concurrency.
type Backoff struct {
	Base     time.Duration // retry growth base, defaults to 2s
	Max      time.Duration // growth cap, defaults to 30s
	JitterMS int

	// randFloat is swappable for deterministic tests.
	randFloat func() float64
}

func NewBackoff(jitterMS int) *Backoff {
	return &Backoff{
		Base:      defaultBackoffBase,
		Max:       maxBackoff,
		JitterMS:  jitterMS,
		randFloat: rand.Float64,
	}
}

// NextDelay returns the pause to apply before the given attempt (1-based).
// Attempt 1 is pure jitter, pacing the request rate across workers; retries
// add base * 2^(attempt-2) doubling, capped at Max.
func (b *Backoff) NextDelay(attempt int) time.Duration {
	rf := b.randFloat
	if rf == nil {
		rf = rand.Float64
	}
	jitter := time.Duration(rf() * float64(b.JitterMS) * float64(time.Millisecond))

	if attempt <= 1 {
		return jitter
	}

	base := b.Base
	if base <= 0 {
		base = defaultBackoffBase
	}
	max := b.Max
	if max <= 0 {
		max = maxBackoff
	}

	backoff := base << uint(attempt-2)
	if backoff > max || backoff <= 0 {
		backoff = max
	}
	return backoff + jitter
}
