// Package cpu implements the LR35902 instruction executor: fetch/decode/
// execute, flag arithmetic, and interrupt servicing (§4.1).
package cpu

import (
	"fmt"

	"github.com/zxcodes/gbcore/internal/addr"
)

// MemoryBus is the subset of the memory map the CPU needs: byte-addressed
// read/write over the full 64 KiB space. The concrete implementation is
// internal/memory.MMU; interrupt request/enable are ordinary reads/writes to
// addr.IF/addr.IE through this same interface.
type MemoryBus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// interruptVector holds an interrupt's IF/IE bit position and its service
// vector, ordered highest to lowest priority (§4.1).
type interruptVector struct {
	bit    uint8
	vector uint16
}

var interruptsByPriority = [5]interruptVector{
	{0, 0x40}, // VBlank
	{1, 0x48}, // LCD STAT
	{2, 0x50}, // Timer
	{3, 0x58}, // Serial
	{4, 0x60}, // Joypad
}

// CPU holds LR35902 register state and the cooperative execution state
// machine described in §3/§4.1.
type CPU struct {
	mem MemoryBus

	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8
	sp   uint16
	pc   uint16

	elapsedCycles uint64

	ime        bool
	eiDelay    int // 0 = inactive; counts down to 0, at which point ime is set
	halted     bool
	stopped    bool
	haltBug    bool // next fetch must not advance PC (HALT bug, §4.1)
	crashed    string
	hasCrashed bool
}

// New creates a CPU wired to mem, in the post-power-on state used by the
// DMG boot ROM's final handoff (register values the boot ROM leaves behind
// when it jumps to 0x0100).
func New(mem MemoryBus) *CPU {
	c := &CPU{mem: mem}
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	return c
}

// ElapsedCycles returns the number of clock cycles (4 per machine cycle)
// since power-on. Monotonically non-decreasing across ticks (§8).
func (c *CPU) ElapsedCycles() uint64 { return c.elapsedCycles }

// PC returns the current program counter, mainly for debugger/disasm use.
func (c *CPU) PC() uint16 { return c.pc }

// SetPC forces the program counter, used by the debugger and by test/bench
// harnesses that jump straight into a loaded routine.
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// SP returns the current stack pointer.
func (c *CPU) SP() uint16 { return c.sp }

// IsHalted reports whether the CPU is currently parked in HALT.
func (c *CPU) IsHalted() bool { return c.halted }

// Crashed reports the fatal decode error message, if any (§4.1, §7). The
// emulator is expected to stop ticking once this is non-empty.
func (c *CPU) Crashed() (msg string, crashed bool) {
	return c.crashed, c.hasCrashed
}

func (c *CPU) crash(format string, args ...any) {
	c.crashed = fmt.Sprintf(format, args...)
	c.hasCrashed = true
}

// pendingInterrupts returns the bitmask of interrupts that are both
// requested (IF) and enabled (IE).
func (c *CPU) pendingInterrupts() uint8 {
	return c.mem.Read(addr.IF) & c.mem.Read(addr.IE) & 0x1F
}

// Tick advances the CPU by exactly one micro-step: servicing a pending
// interrupt, resuming from HALT, or executing the next instruction. It
// returns the number of clock cycles consumed, added to elapsedCycles
// before any further side effects become visible to the rest of the
// system (§4.1 "Cycle accounting").
func (c *CPU) Tick() int {
	if c.hasCrashed {
		return 0
	}

	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.ime = true
		}
	}

	pending := c.pendingInterrupts()

	if c.halted {
		if pending == 0 {
			c.elapsedCycles += 4
			return 4
		}
		// HALT wakes on any enabled+flagged interrupt regardless of IME;
		// IME only gates whether we actually jump to the handler.
		c.halted = false
	}

	if c.ime && pending != 0 {
		return c.serviceInterrupt(pending)
	}

	return c.step()
}

// serviceInterrupt pushes PC, clears IME, clears the serviced IF bit, and
// jumps to the interrupt's vector. Costs 5 machine cycles (20 clock
// cycles).
func (c *CPU) serviceInterrupt(pending uint8) int {
	for _, iv := range interruptsByPriority {
		if pending&(1<<iv.bit) == 0 {
			continue
		}

		c.ime = false
		c.eiDelay = 0

		ifReg := c.mem.Read(addr.IF)
		c.mem.Write(addr.IF, ifReg&^(1<<iv.bit))

		c.pushStack(c.pc)
		c.pc = iv.vector

		c.elapsedCycles += 20
		return 20
	}
	// pending != 0 guarantees one of the cases above matched.
	panic("serviceInterrupt called with no pending bit set")
}

// fetch reads the byte at PC. Under the HALT bug, the very next fetch
// after a buggy HALT re-reads the same address instead of advancing,
// reproducing "the byte after HALT executes twice" (§4.1, §8 scenario 6).
func (c *CPU) fetch() uint8 {
	v := c.mem.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) pushStack(v uint16) {
	c.sp--
	c.mem.Write(c.sp, uint8(v>>8))
	c.sp--
	c.mem.Write(c.sp, uint8(v))
}

func (c *CPU) popStack() uint16 {
	lo := c.mem.Read(c.sp)
	c.sp++
	hi := c.mem.Read(c.sp)
	c.sp++
	return uint16(hi)<<8 | uint16(lo)
}

// step fetches and executes exactly one instruction, returning its cycle
// cost (including the extra cost of taken branches).
func (c *CPU) step() int {
	opcode := c.fetch()
	cycles := c.execute(opcode)
	c.elapsedCycles += uint64(cycles)
	return cycles
}
