// Package pace implements the blocking waits between on-chain actions: fixed poll
// sleeps and randomized delays between transactions and wallets.
package pace

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer draws random durations and sleeps through an injectable SleepFunc.
type Pacer struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	sleep SleepFunc
}

// New returns a Pacer seeded from the clock that really sleeps.
func New() *Pacer {
	return NewWith(rand.New(rand.NewSource(time.Now().UnixNano())), Sleep)
}

// NewWith returns a Pacer using rnd for randomness and sleep for waiting.
func NewWith(rnd *rand.Rand, sleep SleepFunc) *Pacer {
	return &Pacer{rnd: rnd, sleep: sleep}
}

// Sleep waits for exactly d.
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// Between waits for a uniformly random duration in [lo, hi] and returns it.
func (p *Pacer) Between(ctx context.Context, lo, hi time.Duration) (time.Duration, error) {
	d := p.Duration(lo, hi)
	return d, p.sleep(ctx, d)
}

// Duration draws a uniformly random duration in [lo, hi].
func (p *Pacer) Duration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + time.Duration(p.rnd.Int63n(int64(hi-lo)+1))
}

// Float64 returns a uniformly random float in [lo, hi).
func (p *Pacer) Float64(lo, hi float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rnd.Float64()*(hi-lo)
}

// Intn returns a uniformly random int in [lo, hi].
func (p *Pacer) Intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rnd.Intn(hi-lo+1)
}

// Shuffle permutes n elements in place through swap.
func (p *Pacer) Shuffle(n int, swap func(i, j int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rnd.Shuffle(n, swap)
}
