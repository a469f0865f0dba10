package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBus is a flat 64KiB memory used only by tests; addr.IF/addr.IE live at
// their normal offsets so interrupt tests can poke them directly.
type fakeBus struct {
	mem [0x10000]byte
}

func (b *fakeBus) Read(a uint16) uint8       { return b.mem[a] }
func (b *fakeBus) Write(a uint16, v uint8)   { b.mem[a] = v }

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	c := New(bus)
	c.pc = 0x0000
	c.sp = 0xFFFE
	return c, bus
}

func loadProgram(bus *fakeBus, at uint16, bytes ...byte) {
	for i, b := range bytes {
		bus.mem[int(at)+i] = b
	}
}

func TestNOPConsumesFourCyclesAndAdvancesPC(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, 0x00)

	cycles := c.Tick()

	require.Equal(t, 4, cycles)
	require.Equal(t, uint16(1), c.PC())
	require.Equal(t, uint64(4), c.ElapsedCycles())
}

func TestElapsedCyclesMonotonic(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, 0x00, 0x00, 0x00, 0x00)

	var last uint64
	for i := 0; i < 4; i++ {
		c.Tick()
		require.GreaterOrEqual(t, c.ElapsedCycles(), last)
		last = c.ElapsedCycles()
	}
}

func TestLDRegisterToRegister(t *testing.T) {
	c, bus := newTestCPU()
	// LD B,A ; with A preset via LD A,d8 first
	loadProgram(bus, 0, 0x3E, 0x42, 0x47)
	c.Tick() // LD A,0x42
	c.Tick() // LD B,A

	require.Equal(t, uint8(0x42), c.b)
}

func TestAddAFlags(t *testing.T) {
	cases := []struct {
		a, n                   uint8
		wantZ, wantH, wantC    bool
		wantResult             uint8
	}{
		{0x00, 0x00, true, false, false, 0x00},
		{0x0F, 0x01, false, true, false, 0x10},
		{0xFF, 0x01, true, true, true, 0x00},
		{0x3A, 0xC6, true, true, true, 0x00},
		{0x12, 0x13, false, false, false, 0x25},
	}

	for _, tc := range cases {
		c, bus := newTestCPU()
		loadProgram(bus, 0, 0x3E, tc.a, 0xC6, tc.n) // LD A,a ; ADD A,n
		c.Tick()
		c.Tick()

		require.Equal(t, tc.wantResult, c.a, "A result for %02X+%02X", tc.a, tc.n)
		require.Equal(t, tc.wantZ, c.flagSet(flagZero), "Z for %02X+%02X", tc.a, tc.n)
		require.False(t, c.flagSet(flagSubtract), "N must be clear after ADD")
		require.Equal(t, tc.wantH, c.flagSet(flagHalfCarry), "H for %02X+%02X", tc.a, tc.n)
		require.Equal(t, tc.wantC, c.flagSet(flagCarry), "C for %02X+%02X", tc.a, tc.n)
	}
}

func TestSubAFlags(t *testing.T) {
	cases := []struct {
		a, n                uint8
		wantZ, wantH, wantC bool
		wantResult          uint8
	}{
		{0x10, 0x01, false, true, false, 0x0F},
		{0x00, 0x01, false, true, true, 0xFF},
		{0x05, 0x05, true, false, false, 0x00},
	}

	for _, tc := range cases {
		c, bus := newTestCPU()
		loadProgram(bus, 0, 0x3E, tc.a, 0xD6, tc.n) // LD A,a ; SUB n
		c.Tick()
		c.Tick()

		require.Equal(t, tc.wantResult, c.a)
		require.Equal(t, tc.wantZ, c.flagSet(flagZero))
		require.True(t, c.flagSet(flagSubtract))
		require.Equal(t, tc.wantH, c.flagSet(flagHalfCarry))
		require.Equal(t, tc.wantC, c.flagSet(flagCarry))
	}
}

func TestAddHLFlagsPreserveZero(t *testing.T) {
	c, bus := newTestCPU()
	// LD A,0 ; ADD A,0 (sets Z) ; LD HL,0x0FFF ; LD BC,1 ; ADD HL,BC
	loadProgram(bus, 0,
		0x3E, 0x00, // LD A,0
		0xC6, 0x00, // ADD A,0 -> Z set
		0x21, 0xFF, 0x0F, // LD HL,0x0FFF
		0x01, 0x01, 0x00, // LD BC,1
		0x09, // ADD HL,BC
	)
	for i := 0; i < 5; i++ {
		c.Tick()
	}

	require.Equal(t, uint16(0x1000), c.hl())
	require.True(t, c.flagSet(flagZero), "Z must be preserved by ADD HL,rr")
	require.True(t, c.flagSet(flagHalfCarry))
	require.False(t, c.flagSet(flagCarry))
}

func TestCBBitResSet(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0,
		0x3E, 0b1010_0000, // LD A,0xA0
		0xCB, 0x47, // BIT 0,A -> Z=1 (bit0 is 0)
		0xCB, 0xBF, // RES 7,A -> A=0x20
		0xCB, 0xC7, // SET 0,A -> A=0x21
	)
	c.Tick()
	c.Tick()
	require.True(t, c.flagSet(flagZero))
	require.True(t, c.flagSet(flagHalfCarry))
	require.False(t, c.flagSet(flagSubtract))

	c.Tick()
	require.Equal(t, uint8(0x20), c.a)
	c.Tick()
	require.Equal(t, uint8(0x21), c.a)
}

func TestJRTakenAndNotTaken(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0,
		0xAF,       // XOR A (A=0, sets Z)
		0x28, 0x02, // JR Z,+2
		0x00, 0x00, // (skipped)
		0x3E, 0x99, // LD A,0x99
	)
	c.Tick() // XOR A
	cycles := c.Tick()
	require.Equal(t, 12, cycles)
	require.Equal(t, uint16(5), c.PC())

	c2, bus2 := newTestCPU()
	loadProgram(bus2, 0,
		0xAF,       // XOR A (A=0, sets Z)
		0x20, 0x02, // JR NZ,+2 (not taken)
	)
	c2.Tick() // XOR A
	cycles = c2.Tick()
	require.Equal(t, 8, cycles)
	require.Equal(t, uint16(3), c2.PC())
}

func TestUnknownOpcodeCrashes(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, 0xD3) // illegal opcode
	c.Tick()

	msg, crashed := c.Crashed()
	require.True(t, crashed)
	require.Contains(t, msg, "unknown opcode 0xD3")

	// further ticks must not execute anything
	before := c.PC()
	c.Tick()
	require.Equal(t, before, c.PC())
}
