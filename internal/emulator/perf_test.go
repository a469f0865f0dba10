package emulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPerfCounterSamplesAfterAWindow(t *testing.T) {
	p := NewPerfCounter()
	p.windowStart = time.Now().Add(-1100 * time.Millisecond)

	p.Sample(1000, 60)

	require.InDelta(t, 1000.0/1.1, p.IPS(), 200)
	require.InDelta(t, 60.0/1.1, p.FPS(), 20)
}

func TestPerfCounterNoSampleBeforeWindowElapses(t *testing.T) {
	p := NewPerfCounter()
	p.Sample(1000, 60)

	require.Zero(t, p.IPS())
	require.Zero(t, p.FPS())
}
