package httpclient_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kroma-labs/beacon-go/httpclient"
)

func TestLinearBackOff(t *testing.T) {
	t.Parallel()

	t.Run("given defaults, then intervals start at 500ms with 50 percent jitter", func(t *testing.T) {
		t.Parallel()

		b := httpclient.NewLinearBackOff()

		assert.Equal(t, 500*time.Millisecond, b.InitialInterval)
		assert.Equal(t, 500*time.Millisecond, b.Increment)
		assert.Equal(t, 30*time.Second, b.MaxInterval)
		assert.InEpsilon(t, 0.5, b.JitterFactor, 0.001)
	})

	t.Run("given no jitter, then waits grow by the increment and cap", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.LinearBackOff{
			InitialInterval: 100 * time.Millisecond,
			Increment:       50 * time.Millisecond,
			MaxInterval:     220 * time.Millisecond,
		}

		assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 150*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 200*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 220*time.Millisecond, b.NextBackOff())
		assert.Equal(t, 220*time.Millisecond, b.NextBackOff())
	})

	t.Run("given a reset, then the sequence starts over", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.LinearBackOff{
			InitialInterval: 100 * time.Millisecond,
			Increment:       50 * time.Millisecond,
			MaxInterval:     time.Second,
		}

		_ = b.NextBackOff()
		_ = b.NextBackOff()
		b.Reset()

		assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
	})

	t.Run("given jitter, then waits stay inside the factor band", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.LinearBackOff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			JitterFactor:    0.5,
		}

		for i := 0; i < 200; i++ {
			b.Reset()
			d := b.NextBackOff()
			assert.GreaterOrEqual(t, d, 50*time.Millisecond)
			assert.LessOrEqual(t, d, 150*time.Millisecond)
		}
	})
}

func TestDecorrelatedJitterBackOff(t *testing.T) {
	t.Parallel()

	t.Run("given defaults, then the range is 500ms to 30s", func(t *testing.T) {
		t.Parallel()

		b := httpclient.NewDecorrelatedJitterBackOff()

		assert.Equal(t, 500*time.Millisecond, b.Base)
		assert.Equal(t, 30*time.Second, b.Cap)
	})

	t.Run("given successive draws, then each stays within base, cap, and three times the previous", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.DecorrelatedJitterBackOff{
			Base: 10 * time.Millisecond,
			Cap:  100 * time.Millisecond,
		}

		prev := b.Base
		for i := 0; i < 100; i++ {
			d := b.NextBackOff()

			upper := 3 * prev
			if upper > b.Cap {
				upper = b.Cap
			}
			assert.GreaterOrEqual(t, d, b.Base)
			assert.LessOrEqual(t, d, upper)

			prev = d
		}
	})

	t.Run("given a reset, then the next draw is bounded by three times the base", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.DecorrelatedJitterBackOff{
			Base: 10 * time.Millisecond,
			Cap:  time.Second,
		}

		for i := 0; i < 20; i++ {
			_ = b.NextBackOff()
		}
		b.Reset()

		d := b.NextBackOff()
		assert.GreaterOrEqual(t, d, b.Base)
		assert.LessOrEqual(t, d, 30*time.Millisecond)
	})
}

func TestConstantBackOffWithJitter(t *testing.T) {
	t.Parallel()

	t.Run("given defaults, then the interval is one second with 50 percent jitter", func(t *testing.T) {
		t.Parallel()

		b := httpclient.NewConstantBackOffWithJitter()

		assert.Equal(t, time.Second, b.Interval)
		assert.InEpsilon(t, 0.5, b.JitterFactor, 0.001)
	})

	t.Run("given no jitter, then the wait never changes", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.ConstantBackOffWithJitter{Interval: 100 * time.Millisecond}

		for i := 0; i < 5; i++ {
			assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
		}
	})

	t.Run("given jitter, then waits stay inside the factor band", func(t *testing.T) {
		t.Parallel()

		b := &httpclient.ConstantBackOffWithJitter{
			Interval:     100 * time.Millisecond,
			JitterFactor: 0.2,
		}

		for i := 0; i < 200; i++ {
			d := b.NextBackOff()
			assert.GreaterOrEqual(t, d, 80*time.Millisecond)
			assert.LessOrEqual(t, d, 120*time.Millisecond)
		}
	})
}
