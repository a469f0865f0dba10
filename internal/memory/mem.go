package memory

import (
	"github.com/zxcodes/gbcore/internal/addr"
	"github.com/zxcodes/gbcore/internal/serial"
	"github.com/zxcodes/gbcore/internal/util"
)

// soundUnit is the subset of *sound.APU the MMU needs to route register
// I/O through. A narrow interface (rather than importing sound's concrete
// type everywhere) keeps the emulator package free to substitute a stub
// when constructing the MMU for tests that don't care about audio.
type soundUnit interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// PPUMode is the subset of the GPU's mode state the MMU needs to enforce
// VRAM/OAM locking (§4.3). The video package owns the authoritative state
// machine; the MMU only reads it through this narrow view to decide
// whether a given address is currently accessible.
type PPUMode uint8

const (
	PPUModeHBlank PPUMode = iota
	PPUModeVBlank
	PPUModeOAMScan
	PPUModeDraw
)

// PPUView is the read-only slice of GPU state the MMU consults for memory
// locking and the LY/STAT register shortcuts (§4.3).
type PPUView interface {
	Mode() PPUMode
	LCDEnabled() bool
}

// MMU is the DMG's 64 KiB address space (§3): it owns the fixed RAM
// regions directly and routes cartridge ROM/RAM space through the
// inserted MBC, I/O register addresses to their owning component, and OAM
// DMA transfers through dma.go.
type MMU struct {
	cart *Cartridge
	mbc  MBC

	vram *chunk // 0x8000-0x9FFF
	wram *chunk // 0xC000-0xDFFF (+ echo at 0xE000-0xFDFF)
	oam  *chunk // 0xFE00-0xFE9F
	hram *chunk // 0xFF80-0xFFFE

	ioRegs [0x80]byte // raw backing store for registers with no dedicated owner

	timer   *Timer
	joypad  *Joypad
	serial  *serial.NullModem
	dma     *dmaEngine
	ppu     PPUView
	apu     soundUnit
	ifReg   byte
	ieReg   byte

	scheduler *util.Scheduler
	cycles    uint64
}

// New builds an MMU with no cartridge inserted; call InsertCartridge once
// a ROM is available. The closures passed to NewTimer, NewJoypad and
// serial.New set IF bits without giving those components a reference
// back to the MMU.
func New(scheduler *util.Scheduler) *MMU {
	m := &MMU{
		vram:      newChunk(0x2000),
		wram:      newChunk(0x2000),
		oam:       newChunk(0xA0),
		hram:      newChunk(0x7F),
		scheduler: scheduler,
	}
	m.timer = NewTimer(func() { m.RequestInterrupt(addr.TimerInterrupt) })
	m.joypad = NewJoypad(func() { m.RequestInterrupt(addr.JoypadInterrupt) })
	m.serial = serial.New(func() { m.RequestInterrupt(addr.SerialInterrupt) })
	m.dma = newDMAEngine(m, scheduler)
	m.cart = NewCartridge()
	m.mbc = NewNoMBC(nil, 0)
	return m
}

// SetPPU wires the GPU's read-only view in; called once during emulator
// construction to break the import cycle between memory and video.
func (m *MMU) SetPPU(p PPUView) { m.ppu = p }

// SetAPU wires the sound unit in so NR10-NR52 and wave RAM I/O reach it;
// called once during emulator construction, mirroring SetPPU's cycle-break
// rationale.
func (m *MMU) SetAPU(a soundUnit) { m.apu = a }

func (m *MMU) Timer() *Timer       { return m.timer }
func (m *MMU) Joypad() *Joypad     { return m.joypad }
func (m *MMU) Serial() *serial.NullModem { return m.serial }
func (m *MMU) Cartridge() *Cartridge   { return m.cart }

// InsertCartridge parses rom and selects the matching MBC implementation
// (§4.7), restoring any previously-persisted battery RAM.
func (m *MMU) InsertCartridge(rom []byte, savedRAM []byte) {
	cart := NewCartridgeWithData(rom)
	m.cart = cart
	banks := cart.RAMBankCount()

	switch cart.Header.MBCType {
	case MBC1, MBC1Multi:
		m.mbc = NewMBC1(rom, cart.Header.HasBattery, banks)
	case MBC2:
		m.mbc = NewMBC2(rom, cart.Header.HasBattery)
	case MBC3:
		m.mbc = NewMBC3(rom, banks, cart.Header.HasBattery, cart.Header.HasRTC, nil)
	case MBC5:
		m.mbc = NewMBC5(rom, banks, cart.Header.HasBattery, cart.Header.HasRumble)
	default:
		m.mbc = NewNoMBC(rom, cart.Header.RAMSizeBytes)
	}

	if savedRAM != nil {
		m.mbc.LoadRAM(savedRAM)
	}
}

// BatteryRAM returns the current battery-backed RAM contents for
// persistence, or nil if the cartridge has none (§6).
func (m *MMU) BatteryRAM() []byte { return m.mbc.RAM() }

// Tick advances cycle-owning components (timer, serial, DMA completion) by
// the given number of clock cycles and must be called once per CPU step
// with the cycle count that step consumed.
func (m *MMU) Tick(cycles int) {
	m.cycles += uint64(cycles)
	m.timer.Tick(cycles)
	m.serial.Tick(cycles)

	for {
		ev, ok := m.scheduler.Peek()
		if !ok || ev.Time > m.cycles {
			break
		}
		ev, _ = m.scheduler.Poll(m.cycles)
		if ev.Kind == util.EventDMAComplete {
			m.dma.Complete()
		}
	}
}

// oamLocked/vramLocked report whether the CPU's view of those regions is
// currently blocked out by the PPU (§4.3). With no PPU wired (e.g. disasm
// tooling running headless against raw memory) nothing is locked.
func (m *MMU) vramLocked() bool {
	if m.ppu == nil || !m.ppu.LCDEnabled() {
		return false
	}
	return m.ppu.Mode() == PPUModeDraw
}

func (m *MMU) oamLocked() bool {
	if m.dma.Active() {
		return true
	}
	if m.ppu == nil || !m.ppu.LCDEnabled() {
		return false
	}
	mode := m.ppu.Mode()
	return mode == PPUModeOAMScan || mode == PPUModeDraw
}

// rawRead/rawWrite bypass CPU-visibility locking; used internally by the
// DMA engine, which moves bytes the CPU itself could not reach mid-transfer.
func (m *MMU) rawRead(a uint16) byte {
	switch {
	case a <= 0x7FFF:
		return m.mbc.Read(a)
	case a >= 0x8000 && a <= 0x9FFF:
		return m.vram.rawRead(a - 0x8000)
	case a >= 0xA000 && a <= 0xBFFF:
		return m.mbc.Read(a)
	case a >= 0xC000 && a <= 0xDFFF:
		return m.wram.rawRead(a - 0xC000)
	case a >= 0xE000 && a <= 0xFDFF:
		return m.wram.rawRead(a - 0xE000)
	case a >= 0xFE00 && a <= 0xFE9F:
		return m.oam.rawRead(a - 0xFE00)
	default:
		return m.Read(a)
	}
}

func (m *MMU) Read(a uint16) byte {
	switch {
	case a <= 0x7FFF:
		return m.mbc.Read(a)
	case a >= 0x8000 && a <= 0x9FFF:
		if m.vramLocked() {
			return 0xFF
		}
		return m.vram.read(a - 0x8000)
	case a >= 0xA000 && a <= 0xBFFF:
		return m.mbc.Read(a)
	case a >= 0xC000 && a <= 0xDFFF:
		return m.wram.read(a - 0xC000)
	case a >= 0xE000 && a <= 0xFDFF: // echo RAM (§3 invariant)
		return m.wram.read(a - 0xE000)
	case a >= 0xFE00 && a <= 0xFE9F:
		if m.oamLocked() {
			return 0xFF
		}
		return m.oam.read(a - 0xFE00)
	case a >= 0xFEA0 && a <= 0xFEFF:
		return 0xFF // unusable region
	case a >= 0xFF00 && a <= 0xFF7F:
		return m.readIO(a)
	case a >= 0xFF80 && a <= 0xFFFE:
		return m.hram.read(a - 0xFF80)
	case a == addr.IE:
		return m.ieReg
	default:
		return 0xFF
	}
}

func (m *MMU) Write(a uint16, v byte) {
	switch {
	case a <= 0x7FFF:
		m.mbc.Write(a, v)
	case a >= 0x8000 && a <= 0x9FFF:
		if m.vramLocked() {
			return
		}
		m.vram.write(a-0x8000, v)
	case a >= 0xA000 && a <= 0xBFFF:
		m.mbc.Write(a, v)
	case a >= 0xC000 && a <= 0xDFFF:
		m.wram.write(a-0xC000, v)
	case a >= 0xE000 && a <= 0xFDFF:
		m.wram.write(a-0xE000, v)
	case a >= 0xFE00 && a <= 0xFE9F:
		if m.oamLocked() {
			return
		}
		m.oam.write(a-0xFE00, v)
	case a >= 0xFEA0 && a <= 0xFEFF:
		// unusable region, writes dropped
	case a >= 0xFF00 && a <= 0xFF7F:
		m.writeIO(a, v)
	case a >= 0xFF80 && a <= 0xFFFE:
		m.hram.write(a-0xFF80, v)
	case a == addr.IE:
		m.ieReg = v
	}
}

func (m *MMU) readIO(a uint16) byte {
	switch {
	case a == addr.P1:
		return m.joypad.Read()
	case a == addr.SB || a == addr.SC:
		return m.serial.Read(a)
	case a == addr.DIV:
		return m.timer.ReadDIV()
	case a == addr.TIMA:
		return m.timer.ReadTIMA()
	case a == addr.TMA:
		return m.timer.ReadTMA()
	case a == addr.TAC:
		return m.timer.ReadTAC()
	case a == addr.IF:
		return m.ifReg | 0xE0
	case a >= addr.NR10 && a <= addr.WaveRAMEnd:
		if m.apu != nil {
			return m.apu.ReadRegister(a)
		}
		return m.ioRegs[a-0xFF00]
	default:
		return m.ioRegs[a-0xFF00]
	}
}

func (m *MMU) writeIO(a uint16, v byte) {
	switch {
	case a == addr.P1:
		m.joypad.Write(v)
	case a == addr.SB || a == addr.SC:
		m.serial.Write(a, v)
	case a == addr.DIV:
		m.timer.WriteDIV(v)
	case a == addr.TIMA:
		m.timer.WriteTIMA(v)
	case a == addr.TMA:
		m.timer.WriteTMA(v)
	case a == addr.TAC:
		m.timer.WriteTAC(v)
	case a == addr.IF:
		m.ifReg = v & 0x1F
	case a == addr.DMA:
		m.ioRegs[a-0xFF00] = v
		m.dma.Start(v)
	case a >= addr.NR10 && a <= addr.WaveRAMEnd:
		m.ioRegs[a-0xFF00] = v
		if m.apu != nil {
			m.apu.WriteRegister(a, v)
		}
	default:
		m.ioRegs[a-0xFF00] = v
	}
}

// RequestInterrupt sets the given bit in IF; components call this via the
// closures handed to them at construction rather than touching IF
// directly, so the CPU's read path stays the single source of truth.
func (m *MMU) RequestInterrupt(i addr.Interrupt) {
	m.ifReg |= uint8(i)
}

// ReadBit reports whether the given bit of the byte at address is set; a
// small convenience the PPU uses heavily when decoding STAT/LCDC.
func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return m.Read(address)&(1<<index) != 0
}

func (m *MMU) IF() byte { return m.ifReg | 0xE0 }
func (m *MMU) IE() byte { return m.ieReg }

// WriteIF/WriteIE let the CPU clear a serviced interrupt's bit directly.
func (m *MMU) WriteIF(v byte) { m.ifReg = v & 0x1F }
func (m *MMU) WriteIE(v byte) { m.ieReg = v }
