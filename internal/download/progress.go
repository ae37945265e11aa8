package download

import (
	"sync"
	"sync/atomic"
	"time"
)

// Progress accounting tuning
const (
	// SampleInterval is how often throughput is sampled and progress
	// becomes eligible for persistence
	SampleInterval = 300 * time.Millisecond

	// SpeedWindowSize is the rolling-window capacity for speed smoothing
	SpeedWindowSize = 5

	// PercentCap keeps the bar below 100 until the terminal write
	PercentCap = 99.99

	// MinPercentDelta is the progress advance that forces a persist even
	// before the sampling interval elapses
	MinPercentDelta = 0.5
)

// speedWindow is a fixed-capacity rolling window of instantaneous
// throughput samples. The reported speed is the arithmetic mean.
type speedWindow struct {
	samples []int64
	cap     int
}

func newSpeedWindow(capacity int) *speedWindow {
	return &speedWindow{cap: capacity}
}

// Push adds a sample, evicting the oldest when the window is full
func (w *speedWindow) Push(bps int64) {
	w.samples = append(w.samples, bps)
	if len(w.samples) > w.cap {
		w.samples = w.samples[1:]
	}
}

// Mean returns the arithmetic mean of the window, 0 when empty
func (w *speedWindow) Mean() int64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum int64
	for _, s := range w.samples {
		sum += s
	}
	return sum / int64(len(w.samples))
}

// progressTracker aggregates byte counters across workers and throttles
// persisted progress updates. The byte counter is only ever incremented,
// so the aggregate is monotonically non-decreasing under any interleaving.
type progressTracker struct {
	taskID         string
	store          Store
	estimatedTotal int64

	downloaded atomic.Int64

	mu             sync.Mutex
	window         *speedWindow
	lastSampleAt   time.Time
	lastSampleSum  int64
	lastPersistAt  time.Time
	lastPersistPct float64
}

func newProgressTracker(taskID string, store Store, estimatedTotal int64) *progressTracker {
	now := time.Now()
	return &progressTracker{
		taskID:         taskID,
		store:          store,
		estimatedTotal: estimatedTotal,
		window:         newSpeedWindow(SpeedWindowSize),
		lastSampleAt:   now,
		lastPersistAt:  now,
	}
}

// Add records n freshly transferred bytes
func (p *progressTracker) Add(n int64) {
	p.downloaded.Add(n)
}

// Downloaded returns the aggregated byte counter
func (p *progressTracker) Downloaded() int64 {
	return p.downloaded.Load()
}

// Percent converts the byte counter into a display percentage against the
// estimated total, clamped so 100 is only ever written on completion
func (p *progressTracker) Percent() float64 {
	if p.estimatedTotal <= 0 {
		return 0
	}
	pct := float64(p.downloaded.Load()) / float64(p.estimatedTotal) * 100
	if pct < 0 {
		return 0
	}
	if pct > PercentCap {
		return PercentCap
	}
	return pct
}

// Sample computes instantaneous throughput since the last sample and folds
// it into the rolling window, then persists the snapshot when due.
func (p *progressTracker) Sample(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := now.Sub(p.lastSampleAt)
	if elapsed <= 0 {
		return
	}
	current := p.downloaded.Load()
	bps := (current - p.lastSampleSum) * 1000 / max64(elapsed.Milliseconds(), 1)
	p.window.Push(bps)
	p.lastSampleAt = now
	p.lastSampleSum = current

	p.persistLocked(now)
}

// MaybePersist persists a snapshot when the sampling interval elapsed or
// the percentage advanced enough since the last persisted value
func (p *progressTracker) MaybePersist(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := p.Percent()
	if now.Sub(p.lastPersistAt) < SampleInterval && pct-p.lastPersistPct < MinPercentDelta {
		return
	}
	p.persistLocked(now)
}

func (p *progressTracker) persistLocked(now time.Time) {
	pct := p.Percent()
	p.store.UpdateProgress(p.taskID, pct, p.downloaded.Load(), p.window.Mean(), p.estimatedTotal)
	p.lastPersistAt = now
	p.lastPersistPct = pct
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
