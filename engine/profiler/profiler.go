package profiler

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stat is the measurement of one completed stage.
type Stat struct {
	Stage      string
	Elapsed    time.Duration
	AllocBytes uint64
	GCCount    uint32
	MaxPauseUs uint64
	HeapBytes  uint64
}

// Profiler measures named pipeline stages (consolidate, verify, upload) and logs wall time, allocation
// volume and GC activity for each one.
type Profiler struct {
	logger *zap.Logger

	mu    sync.Mutex
	stats []Stat
}

// Stage is a running measurement started by Profiler.Start.
type Stage struct {
	p              *Profiler
	name           string
	start          time.Time
	lastGCCount    uint32
	lastTotalAlloc uint64
	stopped        bool
	stat           Stat
}

// NewProfiler creates a new Profiler that logs each completed stage at debug level.
//
// Parameters:
//   - logger: the logger stats are written to, nil disables logging
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{logger: logger}
}

// Start begins measuring a stage.
//
// Parameters:
//   - name: the stage name reported in the Stat
//
// Returns:
//   - *Stage: the running stage, finish it with Stop
func (p *Profiler) Start(name string) *Stage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &Stage{
		p:              p,
		name:           name,
		start:          time.Now(),
		lastGCCount:    ms.NumGC,
		lastTotalAlloc: ms.TotalAlloc,
	}
}

// Stop finishes the stage, records its Stat and logs it. Calling Stop twice returns the first Stat
// without recording it again.
//
// Returns:
//   - Stat: the measurement of the stage
func (s *Stage) Stop() Stat {
	s.p.mu.Lock()
	if s.stopped {
		defer s.p.mu.Unlock()
		return s.stat
	}
	s.p.mu.Unlock()

	elapsed := time.Since(s.start)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	gcCount := ms.NumGC
	var maxPauseUs uint64
	// PauseNs is a circular buffer of the last 256 GC pauses
	startIdx := s.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		if pause := ms.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	st := Stat{
		Stage:      s.name,
		Elapsed:    elapsed,
		AllocBytes: ms.TotalAlloc - s.lastTotalAlloc,
		GCCount:    gcCount - s.lastGCCount,
		MaxPauseUs: maxPauseUs,
		HeapBytes:  ms.HeapAlloc,
	}

	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.stopped {
		return s.stat
	}
	s.stopped = true
	s.stat = st
	s.p.stats = append(s.p.stats, st)

	s.p.logger.Debug("stage complete",
		zap.String("stage", st.Stage),
		zap.Duration("elapsed", st.Elapsed),
		zap.Float64("alloc_mb", float64(st.AllocBytes)/1024/1024),
		zap.Uint32("gc", st.GCCount),
		zap.Uint64("max_pause_us", st.MaxPauseUs),
		zap.Float64("heap_mb", float64(st.HeapBytes)/1024/1024),
	)
	return st
}

// Measure runs fn as a stage and returns its error.
//
// Parameters:
//   - name: the stage name
//   - fn: the work to measure
//
// Returns:
//   - error: the error returned by fn
func (p *Profiler) Measure(name string, fn func() error) error {
	stage := p.Start(name)
	defer stage.Stop()
	return fn()
}

// Stats returns the completed stages in completion order.
func (p *Profiler) Stats() []Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.stats)
}

// Total returns the summed wall time of all completed stages.
func (p *Profiler) Total() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total time.Duration
	for _, st := range p.stats {
		total += st.Elapsed
	}
	return total
}
