package emulator

import "time"

const dmgClockHz = 4194304

// Underclocker paces cycle-driven execution to real wall-clock time by
// sleeping until elapsed real time catches up to the cycle count the
// caller has reached, the way a real DMG's fixed oscillator would (§5).
// Left unattached the emulator runs as fast as the host allows, which is
// what headless/benchmark callers want; attaching one makes RunUntilFrame
// track real time instead.
type Underclocker struct {
	startCycles  uint64
	startInstant time.Time
	clockHz      uint64
}

// NewUnderclocker starts a pacing baseline at cyclesNow, counted against
// clockHz (dmgClockHz for real-speed playback, a multiple of it to run
// deliberately fast or slow).
func NewUnderclocker(cyclesNow uint64, clockHz uint64) *Underclocker {
	return &Underclocker{startCycles: cyclesNow, startInstant: time.Now(), clockHz: clockHz}
}

// Sync blocks until real time has caught up to cyclesNow, or returns
// immediately if it already has.
func (u *Underclocker) Sync(cyclesNow uint64) {
	elapsed := cyclesNow - u.startCycles
	expected := time.Duration(elapsed) * time.Second / time.Duration(u.clockHz)
	actual := time.Since(u.startInstant)
	if sleep := expected - actual; sleep > 0 {
		time.Sleep(sleep)
	}
}

// Reset restarts the pacing baseline at cyclesNow, e.g. after resuming
// from a debugger pause where elapsed wall time shouldn't count.
func (u *Underclocker) Reset(cyclesNow uint64) {
	u.startCycles = cyclesNow
	u.startInstant = time.Now()
}

// EnableRealTimePacing attaches an Underclocker running at the real DMG
// clock rate, so subsequent RunUntilFrame calls track wall-clock time
// instead of running as fast as the host allows.
func (e *Emulator) EnableRealTimePacing() {
	e.clock = NewUnderclocker(e.totalCycles, dmgClockHz)
}

// DisableRealTimePacing detaches any Underclocker, letting the emulator
// run unthrottled again.
func (e *Emulator) DisableRealTimePacing() {
	e.clock = nil
}
