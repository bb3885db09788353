package requestlog

import (
	"math"
	"runtime"
	"sync"
	"time"
)

// DefaultGCPollInterval is how often the default watcher samples the
// runtime for completed collections.
const DefaultGCPollInterval = time.Second

// GCStats describes one completed garbage collection cycle.
type GCStats struct {
	NumGC       uint32        `json:"num_gc"`
	Pause       time.Duration `json:"pause"`
	PauseMillis float64       `json:"pause_ms"`
	LastGC      time.Time     `json:"last_gc"`
	HeapAlloc   uint64        `json:"heap_alloc"`
	HeapSys     uint64        `json:"heap_sys"`
	HeapObjects uint64        `json:"heap_objects"`
	NextGC      uint64        `json:"next_gc"`
}

// GCStatsSource notifies subscribers after each garbage collection.
// Implementations must deliver each cycle at most once per subscriber.
type GCStatsSource interface {
	// Subscribe registers fn and returns a function that removes the
	// registration. fn may be called from an arbitrary goroutine.
	Subscribe(fn func(GCStats)) (unsubscribe func())
}

// GCWatcher is the default GCStatsSource. It polls runtime memory
// statistics and fans out one GCStats per observed collection.
type GCWatcher struct {
	interval time.Duration
	lastNum  uint32

	mu     sync.Mutex
	subs   map[int]func(GCStats)
	nextID int

	done chan struct{}
	stop sync.Once
}

// NewGCWatcher starts a watcher polling every interval. A non-positive
// interval uses DefaultGCPollInterval. Callers must Stop it.
func NewGCWatcher(interval time.Duration) *GCWatcher {
	if interval <= 0 {
		interval = DefaultGCPollInterval
	}
	w := &GCWatcher{
		interval: interval,
		subs:     make(map[int]func(GCStats)),
		done:     make(chan struct{}),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	w.lastNum = ms.NumGC

	go w.run()
	return w
}

// Subscribe implements GCStatsSource.
func (w *GCWatcher) Subscribe(fn func(GCStats)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Stop halts the polling goroutine. Safe to call more than once.
func (w *GCWatcher) Stop() {
	w.stop.Do(func() { close(w.done) })
}

func (w *GCWatcher) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *GCWatcher) poll() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.NumGC == w.lastNum {
		return
	}
	w.lastNum = ms.NumGC

	stats := statsFromMem(&ms)

	w.mu.Lock()
	subs := make([]func(GCStats), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(stats)
	}
}

func statsFromMem(ms *runtime.MemStats) GCStats {
	// PauseNs is a circular buffer; the most recent pause lives at
	// (NumGC+255)%256.
	pause := time.Duration(ms.PauseNs[(ms.NumGC+255)%256])

	return GCStats{
		NumGC:       ms.NumGC,
		Pause:       pause,
		PauseMillis: truncateMillis(pause),
		LastGC:      time.Unix(0, int64(ms.LastGC)),
		HeapAlloc:   ms.HeapAlloc,
		HeapSys:     ms.HeapSys,
		HeapObjects: ms.HeapObjects,
		NextGC:      ms.NextGC,
	}
}

func truncateMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Trunc(ms*10) / 10
}
