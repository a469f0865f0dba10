package timing

import (
	"log/slog"
	"time"
)

// driftCheckInterval is how often, in frames, WaitForNextFrame reconciles
// accumulated scheduling error against the wall clock.
const driftCheckInterval = 60

// driftCorrectionThreshold is the minimum observed drift worth correcting;
// smaller deviations are assumed to be scheduler jitter, not real clock
// divergence, and are left for the next interval to reassess.
const driftCorrectionThreshold = 10 * time.Millisecond

// busyWaitThreshold is the point below which AdaptiveLimiter stops
// sleeping and spins instead, since time.Sleep's OS-scheduler granularity
// overshoots by more than this on most platforms.
const busyWaitThreshold = 2 * time.Millisecond

// AdaptiveLimiter paces emulation to the DMG's native ~59.7 fps by sleeping
// most of the way to the next frame boundary and busy-waiting the last
// couple milliseconds, then periodically reconciling against the wall
// clock so small per-frame errors don't accumulate into audible drift.
type AdaptiveLimiter struct {
	frameInterval time.Duration
	nextDeadline  time.Time
	frameCount    int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		frameInterval: FrameDuration(),
		nextDeadline:  time.Now(),
	}
}

// WaitForNextFrame blocks until the next frame's scheduled deadline, then
// advances that deadline by one frame interval.
func (a *AdaptiveLimiter) WaitForNextFrame() {
	remaining := a.nextDeadline.Sub(time.Now())

	switch {
	case remaining > busyWaitThreshold:
		time.Sleep(remaining - time.Millisecond)
		a.spinUntil(a.nextDeadline)
	case remaining > 0:
		a.spinUntil(a.nextDeadline)
	case remaining < -5*time.Millisecond:
		// fell badly behind (e.g. debugger pause); resync instead of
		// trying to race the clock back to zero.
		a.nextDeadline = time.Now()
	}

	a.nextDeadline = a.nextDeadline.Add(a.frameInterval)
	a.frameCount++

	if a.frameCount%driftCheckInterval == 0 {
		a.correctDrift()
	}
}

func (a *AdaptiveLimiter) spinUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
	}
}

func (a *AdaptiveLimiter) correctDrift() {
	elapsedTarget := time.Duration(a.frameCount) * a.frameInterval
	startTime := a.nextDeadline.Add(-elapsedTarget)
	drift := time.Now().Sub(a.nextDeadline)

	if drift.Abs() <= driftCorrectionThreshold {
		return
	}
	a.nextDeadline = a.nextDeadline.Add(drift / 10)
	fps := float64(a.frameCount) * float64(time.Second) / float64(time.Since(startTime))
	slog.Debug("frame timing drift correction", "drift_ms", drift.Milliseconds(), "fps", fps)
}

// Reset resynchronizes to the wall clock, used after the emulator has been
// paused and frame pacing would otherwise see a large apparent drift.
func (a *AdaptiveLimiter) Reset() {
	a.nextDeadline = time.Now()
	a.frameCount = 0
}
