package httpclient

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var (
	_ backoff.BackOff = (*LinearBackOff)(nil)
	_ backoff.BackOff = (*DecorrelatedJitterBackOff)(nil)
	_ backoff.BackOff = (*ConstantBackOffWithJitter)(nil)
)

// LinearBackOff grows the wait by a fixed increment per attempt:
// initial + attempt*increment, jittered, capped at MaxInterval. More
// gradual than exponential growth when the upstream needs time rather
// than space.
type LinearBackOff struct {
	InitialInterval time.Duration
	Increment       time.Duration
	MaxInterval     time.Duration
	JitterFactor    float64

	attempt int
}

// NewLinearBackOff returns a LinearBackOff starting at 500ms and growing
// by 500ms per attempt, capped at 30s with 50% jitter.
func NewLinearBackOff() *LinearBackOff {
	return &LinearBackOff{
		InitialInterval: 500 * time.Millisecond,
		Increment:       500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		JitterFactor:    0.5,
	}
}

func (b *LinearBackOff) Reset() {
	b.attempt = 0
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	interval := b.InitialInterval + time.Duration(b.attempt)*b.Increment
	if interval > b.MaxInterval {
		interval = b.MaxInterval
	}
	b.attempt++

	return applyJitter(interval, b.JitterFactor)
}

// DecorrelatedJitterBackOff implements AWS-style decorrelated jitter:
// each wait is drawn uniformly from [base, min(cap, 3*previous)]. It
// spreads synchronized clients more evenly than plain randomized
// exponential backoff.
type DecorrelatedJitterBackOff struct {
	Base time.Duration
	Cap  time.Duration

	sleep time.Duration
}

// NewDecorrelatedJitterBackOff returns a DecorrelatedJitterBackOff
// ranging between 500ms and 30s.
func NewDecorrelatedJitterBackOff() *DecorrelatedJitterBackOff {
	return &DecorrelatedJitterBackOff{
		Base: 500 * time.Millisecond,
		Cap:  30 * time.Second,
	}
}

func (b *DecorrelatedJitterBackOff) Reset() {
	b.sleep = b.Base
}

func (b *DecorrelatedJitterBackOff) NextBackOff() time.Duration {
	if b.sleep == 0 {
		b.sleep = b.Base
	}

	upper := b.sleep * 3
	if upper > b.Cap {
		upper = b.Cap
	}
	b.sleep = randomBetween(b.Base, upper)

	return b.sleep
}

// ConstantBackOffWithJitter waits a fixed interval, jittered.
type ConstantBackOffWithJitter struct {
	Interval     time.Duration
	JitterFactor float64
}

// NewConstantBackOffWithJitter returns a one second constant backoff
// with 50% jitter.
func NewConstantBackOffWithJitter() *ConstantBackOffWithJitter {
	return &ConstantBackOffWithJitter{
		Interval:     time.Second,
		JitterFactor: 0.5,
	}
}

func (b *ConstantBackOffWithJitter) Reset() {}

func (b *ConstantBackOffWithJitter) NextBackOff() time.Duration {
	return applyJitter(b.Interval, b.JitterFactor)
}

// applyJitter spreads interval uniformly across ±factor.
func applyJitter(interval time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return interval
	}
	if factor > 1 {
		factor = 1
	}

	delta := float64(interval) * factor
	return time.Duration(float64(interval) - delta + rand.Float64()*2*delta)
}

func randomBetween(low, high time.Duration) time.Duration {
	if low >= high {
		return low
	}
	return low + time.Duration(rand.Int64N(int64(high-low)))
}

// exponentialFromConfig builds the default exponential strategy from a
// RetryConfig.
func exponentialFromConfig(cfg RetryConfig) *backoff.ExponentialBackOff {
	jitter := cfg.JitterFactor
	if jitter <= 0 {
		jitter = 0.5
	}

	return &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialInterval,
		RandomizationFactor: jitter,
		Multiplier:          cfg.Multiplier,
		MaxInterval:         cfg.MaxInterval,
	}
}
