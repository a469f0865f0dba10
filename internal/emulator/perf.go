package emulator

import "time"

// PerfCounter tracks a rolling instructions-per-second and frames-per-second
// rate, the Go-idiom equivalent of the original's PerfObserver: a small
// always-on counter rather than a full tagged-span profiler, surfaced
// through the debugger and the CLI's status line (§9).
type PerfCounter struct {
	windowStart      time.Time
	windowStartInstr uint64
	windowStartFrame uint64
	ips              float64
	fps              float64
}

// NewPerfCounter starts a counter with its first window beginning now.
func NewPerfCounter() *PerfCounter {
	return &PerfCounter{windowStart: time.Now()}
}

// Sample recomputes IPS/FPS once per second, comparing against the totals
// at the start of the current window; it's a no-op until a full second has
// elapsed since the last sample.
func (p *PerfCounter) Sample(instructions, frames uint64) {
	elapsed := time.Since(p.windowStart)
	if elapsed < time.Second {
		return
	}
	seconds := elapsed.Seconds()
	p.ips = float64(instructions-p.windowStartInstr) / seconds
	p.fps = float64(frames-p.windowStartFrame) / seconds
	p.windowStart = time.Now()
	p.windowStartInstr = instructions
	p.windowStartFrame = frames
}

// IPS returns the instructions-per-second measured in the last full window.
func (p *PerfCounter) IPS() float64 { return p.ips }

// FPS returns the frames-per-second measured in the last full window.
func (p *PerfCounter) FPS() float64 { return p.fps }

// Perf lazily creates and returns the emulator's perf counter.
func (e *Emulator) Perf() *PerfCounter {
	if e.perf == nil {
		e.perf = NewPerfCounter()
	}
	return e.perf
}
