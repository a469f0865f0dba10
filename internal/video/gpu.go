package video

import (
	"fmt"
	"log/slog"

	"github.com/zxcodes/gbcore/internal/addr"
	"github.com/zxcodes/gbcore/internal/bit"
	"github.com/zxcodes/gbcore/internal/memory"
)

// GpuMode represents the PPU's current rendering stage.
// These values match the STAT register bits 1-0.
type GpuMode int

const (
	// hblankMode (Mode 0): Horizontal blank period, CPU can access VRAM/OAM
	hblankMode GpuMode = 0
	// vblankMode (Mode 1): Vertical blank period, CPU can access VRAM/OAM
	vblankMode GpuMode = 1
	// oamReadMode (Mode 2): PPU is reading OAM, CPU cannot access OAM
	oamReadMode GpuMode = 2
	// vramReadMode (Mode 3): PPU is reading VRAM, CPU cannot access VRAM/OAM
	vramReadMode GpuMode = 3
)

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles
	vblankLineCycles   = scanlineCycles
	lastVisibleLine    = 143
	lastLine           = 153
)

// GPU drives the DMG's four-mode raster state machine and composites each
// scanline into a shadow framebuffer. The STAT interrupt line is modeled
// as a single internal signal per Pan Docs: it is the logical OR of every
// enabled condition (LYC==LY, mode 0/1/2), and the interrupt only fires on
// a 0->1 transition of that signal, never while it is held high.
type GPU struct {
	memory         *memory.MMU
	framebuffer    *FrameBuffer
	bgPixelBuffer  []byte // background/window color index per pixel, for sprite priority
	spritePriority SpritePriorityBuffer

	mode                 GpuMode
	line                 int // LY register, 0-153
	cycles               int // cycles elapsed in the current mode
	vblankCycleAcc       int // cycles elapsed in the current VBlank scanline
	vBlankLine           int // which of the 10 VBlank lines we're on
	isScanLineTransfered bool
	windowLine           int // internal window line counter, separate from LY

	statLineAsserted bool // tracks the STAT interrupt line for edge detection
}

func NewGpu(mmu *memory.MMU) *GPU {
	fb := NewFrameBuffer()
	gpu := &GPU{
		framebuffer:   fb,
		memory:        mmu,
		mode:          vblankMode,
		bgPixelBuffer: make([]byte, FramebufferSize),
		line:          144,
	}

	lcdc := mmu.Read(addr.LCDC)
	bgp := mmu.Read(addr.BGP)
	slog.Debug("GPU initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "LCD_enabled", (lcdc&0x80) != 0, "BGP", fmt.Sprintf("0x%02X", bgp))

	return gpu
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Mode reports the PPU's current mode in memory.PPUMode terms, satisfying
// memory.PPUView so the MMU can enforce VRAM/OAM locking.
func (g *GPU) Mode() memory.PPUMode {
	switch g.mode {
	case hblankMode:
		return memory.PPUModeHBlank
	case vblankMode:
		return memory.PPUModeVBlank
	case oamReadMode:
		return memory.PPUModeOAMScan
	default:
		return memory.PPUModeDraw
	}
}

// LCDEnabled reports whether LCDC bit 7 is set.
func (g *GPU) LCDEnabled() bool {
	return g.readLCDCVariable(lcdDisplayEnable) == 1
}

// Tick advances the PPU state machine by the given T-cycles, switching
// modes and rendering scanlines as their budgeted cycle counts elapse.
func (g *GPU) Tick(cycles int) {
	g.cycles += cycles

	switch g.mode {
	case hblankMode:
		g.tickHBlank()
	case vblankMode:
		g.tickVBlank(cycles)
	case oamReadMode:
		g.tickOAMScan()
	case vramReadMode:
		g.tickPixelTransfer()
	}

	if g.cycles >= scanlineCycles*2 {
		// Defensive clamp: a mode handler should always have consumed its
		// own budget by now. Avoids runaway accumulation if cycles arrives
		// in an unexpectedly large burst.
		g.cycles %= scanlineCycles
	}
}

func (g *GPU) tickHBlank() {
	if g.cycles < hblankCycles {
		return
	}
	g.cycles -= hblankCycles
	g.setLY(g.line + 1)

	if g.line == lastVisibleLine+1 {
		g.vBlankLine = 0
		g.vblankCycleAcc = g.cycles
		g.windowLine = 0
		g.setMode(vblankMode)
		g.memory.RequestInterrupt(addr.VBlankInterrupt)
	} else {
		g.setMode(oamReadMode)
	}
}

func (g *GPU) tickVBlank(cycles int) {
	g.vblankCycleAcc += cycles

	if g.vblankCycleAcc >= vblankLineCycles {
		g.vblankCycleAcc -= vblankLineCycles
		g.vBlankLine++
		if g.vBlankLine <= lastLine-lastVisibleLine-1 {
			g.setLY(g.line + 1)
		}
	}

	if g.line == lastLine && g.vblankCycleAcc >= 4 {
		g.setLY(0)
	}

	if g.cycles >= 4560 {
		g.cycles -= 4560
		g.setMode(oamReadMode)
	}
}

func (g *GPU) tickOAMScan() {
	if g.cycles < oamScanlineCycles {
		return
	}
	g.cycles -= oamScanlineCycles
	g.isScanLineTransfered = false
	g.setMode(vramReadMode)
}

func (g *GPU) tickPixelTransfer() {
	if !g.isScanLineTransfered {
		if g.readLCDCVariable(lcdDisplayEnable) == 1 {
			g.drawScanline()
		}
		g.isScanLineTransfered = true
	}

	if g.cycles < vramScanlineCycles {
		return
	}
	g.cycles -= vramScanlineCycles
	g.setMode(hblankMode)
}

func (g *GPU) drawScanline() {
	if g.readLCDCVariable(lcdDisplayEnable) != 1 {
		lineWidth := g.line * FramebufferWidth
		for i := 0; i < FramebufferWidth; i++ {
			g.framebuffer.buffer[lineWidth+i] = 0xFFFFFFFF
		}
		return
	}

	g.drawBackground()
	g.drawWindow()
	g.drawSprites()
}

// LCD Stat (Status) Register bit values
// Bit 6 - LYC==LY interrupt source select
// Bit 5 - Mode 2 (OAM scan) interrupt source select
// Bit 4 - Mode 1 (VBlank) interrupt source select
// Bit 3 - Mode 0 (HBlank) interrupt source select
// Bit 2 - LYC==LY coincidence flag
// Bit 1,0 - current PPU mode
type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq                = 5
	statVblankIrq             = 4
	statHblankIrq             = 3
	statLycCondition          = 2
)

// LCDC (LCD Control) Register bit values
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect             = 6
	windowDisplayEnable             = 5
	bgWindowTileDataSelect          = 4
	bgTileMapDisplaySelect          = 3
	spriteSize                      = 2
	spriteDisplayEnable             = 1
	bgDisplay                       = 0
)

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), g.memory.Read(addr.LCDC)) {
		return 1
	}
	return 0
}

// setMode writes the new mode into STAT bits 1-0 and refreshes the STAT
// interrupt line, since modes 0/1/2 are each a potential interrupt source.
func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	stat := g.memory.Read(addr.STAT)
	stat = stat&0xFC | byte(g.mode)
	g.memory.Write(addr.STAT, stat)
	g.refreshStatLine()
}

// setLY updates LY, re-evaluates the LYC coincidence flag, and refreshes
// the STAT interrupt line.
func (g *GPU) setLY(line int) {
	g.line = line
	g.memory.Write(addr.LY, byte(g.line))

	stat := g.memory.Read(addr.STAT)
	if g.line == int(g.memory.Read(addr.LYC)) {
		stat = bit.Set(uint8(statLycCondition), stat)
	} else {
		stat = bit.Reset(uint8(statLycCondition), stat)
	}
	g.memory.Write(addr.STAT, stat)
	g.refreshStatLine()
}

// refreshStatLine recomputes the logical OR of every enabled STAT
// interrupt source and requests an LCD STAT interrupt only when the
// combined signal transitions from low to high, matching the DMG's single
// shared "STAT line" behavior rather than firing once per source per
// transition.
func (g *GPU) refreshStatLine() {
	stat := g.memory.Read(addr.STAT)

	level := (bit.IsSet(uint8(statLycIrq), stat) && bit.IsSet(uint8(statLycCondition), stat)) ||
		(bit.IsSet(uint8(statOamIrq), stat) && g.mode == oamReadMode) ||
		(bit.IsSet(uint8(statVblankIrq), stat) && g.mode == vblankMode) ||
		(bit.IsSet(uint8(statHblankIrq), stat) && g.mode == hblankMode)

	if level && !g.statLineAsserted {
		g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLineAsserted = level
}
