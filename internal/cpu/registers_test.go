package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagLowNibbleAlwaysZero(t *testing.T) {
	c, _ := newTestCPU()
	c.setAF(0x12FF)
	require.Equal(t, uint8(0xF0), c.f, "low nibble of F must read as zero")
}

func TestRegisterPairRoundTrip(t *testing.T) {
	c, _ := newTestCPU()

	c.setBC(0x1234)
	require.Equal(t, uint16(0x1234), c.bc())

	c.setDE(0xABCD)
	require.Equal(t, uint16(0xABCD), c.de())

	c.setHL(0xBEEF)
	require.Equal(t, uint16(0xBEEF), c.hl())
}

func TestGet8SetHLIndirectReadsMemory(t *testing.T) {
	c, bus := newTestCPU()
	c.setHL(0x9000)
	bus.mem[0x9000] = 0x55

	require.Equal(t, uint8(0x55), c.get8(regHLInd))

	c.set8(regHLInd, 0xAA)
	require.Equal(t, uint8(0xAA), bus.mem[0x9000])
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.pc = 0x0150
	c.sp = 0xFFF0
	c.ime = true

	snap := c.Snapshot()

	c2, _ := newTestCPU()
	c2.Restore(snap)

	require.Equal(t, c.a, c2.a)
	require.Equal(t, c.f, c2.f)
	require.Equal(t, c.bc(), c2.bc())
	require.Equal(t, c.pc, c2.pc)
	require.Equal(t, c.sp, c2.sp)
	require.Equal(t, c.ime, c2.ime)
}
