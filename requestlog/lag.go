package requestlog

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultLagProbeInterval is how often the scheduler lag probe samples.
const DefaultLagProbeInterval = 250 * time.Millisecond

// LagSampler estimates scheduler latency by timing how late a periodic
// timer fires relative to its schedule. A loaded runtime delays timer
// delivery, so the drift approximates how long ready work waits before
// running.
type LagSampler struct {
	interval time.Duration
	lag      atomic.Int64
	done     chan struct{}
	stop     sync.Once
}

// NewLagSampler starts a sampler firing every interval. A non-positive
// interval uses DefaultLagProbeInterval. Callers must Stop it.
func NewLagSampler(interval time.Duration) *LagSampler {
	if interval <= 0 {
		interval = DefaultLagProbeInterval
	}
	s := &LagSampler{
		interval: interval,
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *LagSampler) run() {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	deadline := time.Now().Add(s.interval)
	for {
		select {
		case <-s.done:
			return
		case now := <-timer.C:
			drift := now.Sub(deadline)
			if drift < 0 {
				drift = 0
			}
			s.lag.Store(int64(drift))

			deadline = time.Now().Add(s.interval)
			timer.Reset(s.interval)
		}
	}
}

// Duration returns the most recent lag sample.
func (s *LagSampler) Duration() time.Duration {
	return time.Duration(s.lag.Load())
}

// Millis returns the most recent lag sample in milliseconds, truncated
// to a tenth of a millisecond.
func (s *LagSampler) Millis() float64 {
	ms := float64(s.lag.Load()) / float64(time.Millisecond)
	return math.Trunc(ms*10) / 10
}

// Stop halts the sampling goroutine. Safe to call more than once.
func (s *LagSampler) Stop() {
	s.stop.Do(func() { close(s.done) })
}
