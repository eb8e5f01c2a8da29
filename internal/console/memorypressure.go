package console

import (
	"log/slog"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// MemStatsReader fills in runtime memory statistics.
type MemStatsReader func(m *runtime.MemStats)

// PressureOptions configures a MemoryPressureMonitor. Zero fields take the
// defaults shown.
type PressureOptions struct {
	Threshold float64       // fraction of GOMEMLIMIT, default 0.8
	Interval  time.Duration // polling interval, default 30s
	Cooldown  int           // ticks skipped after relieving, default 2
	ReadStats MemStatsReader
	Limit     func() int64 // current memory limit, default debug.SetMemoryLimit(-1)
}

// MemoryPressureMonitor polls memory usage and calls relieve when usage
// exceeds Threshold of the memory limit.
type MemoryPressureMonitor struct {
	opts    PressureOptions
	relieve func(ratio float64)

	quiet    int
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewMemoryPressureMonitor creates a monitor that calls relieve with the
// observed usage ratio when memory usage is above the threshold.
func NewMemoryPressureMonitor(relieve func(ratio float64), opts PressureOptions) *MemoryPressureMonitor {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.8
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 2
	}
	if opts.ReadStats == nil {
		opts.ReadStats = runtime.ReadMemStats
	}
	if opts.Limit == nil {
		opts.Limit = func() int64 { return debug.SetMemoryLimit(-1) }
	}
	return &MemoryPressureMonitor{
		opts:    opts,
		relieve: relieve,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the background polling goroutine.
func (m *MemoryPressureMonitor) Start() {
	m.started.Store(true)
	go m.run()
}

func (m *MemoryPressureMonitor) run() {
	defer close(m.done)
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick runs one poll, honoring the cooldown after a relief.
func (m *MemoryPressureMonitor) tick() bool {
	if m.quiet > 0 {
		m.quiet--
		return false
	}
	ratio, over := m.check()
	if !over {
		return false
	}
	slog.Warn("memory pressure detected", "usage_ratio", ratio, "threshold", m.opts.Threshold)
	m.relieve(ratio)
	m.quiet = m.opts.Cooldown
	return true
}

// check returns the usage ratio and whether it exceeds the threshold. Without
// a memory limit the ratio is 0.
func (m *MemoryPressureMonitor) check() (float64, bool) {
	limit := m.opts.Limit()
	if limit <= 0 || limit == math.MaxInt64 {
		return 0, false
	}

	var stats runtime.MemStats
	m.opts.ReadStats(&stats)

	usage := stats.Sys - stats.HeapReleased
	ratio := float64(usage) / float64(limit)
	return ratio, ratio > m.opts.Threshold
}

// Stop halts the polling goroutine and waits for it to exit. Safe to call
// multiple times, and before Start.
func (m *MemoryPressureMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	if m.started.Load() {
		<-m.done
	}
}
