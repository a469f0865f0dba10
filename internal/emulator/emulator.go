// Package emulator wires a CPU, MMU, GPU and APU into a single runnable
// unit, and layers a debugger pause/step/step-frame state machine (§7) on
// top of the raw run loop used by the original core (§4.1, §4.3).
package emulator

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/zxcodes/gbcore/internal/cpu"
	"github.com/zxcodes/gbcore/internal/memory"
	"github.com/zxcodes/gbcore/internal/sound"
	"github.com/zxcodes/gbcore/internal/storage"
	"github.com/zxcodes/gbcore/internal/util"
	"github.com/zxcodes/gbcore/internal/video"
)

// DebuggerState is the current run mode of the emulator's main loop (§7).
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerStep
	DebuggerStepFrame
)

// cyclesPerFrame is the number of clock cycles in one 59.7 Hz video frame
// (§8): 70224 = 154 scanlines * 456 cycles.
const cyclesPerFrame = 70224

// keyReleaseDelay is how long a momentary HandleKeyPress holds a button
// down before auto-releasing it, since the terminal renderer only sees
// key-down events from its polling loop, never key-up.
const keyReleaseDelay = 100 * time.Millisecond

// Emulator is the root orchestrator: it owns the CPU/MMU/GPU/APU quartet,
// runs them in lockstep one frame at a time, and exposes the debugger
// controls and inspection hooks the terminal and CLI front ends drive.
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	apu *sound.APU
	mem *memory.MMU

	input      *memory.StaticSource
	joypadTick func()
	romPath    string

	debuggerMu       sync.RWMutex
	debuggerState    DebuggerState
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
	totalCycles      uint64

	clock *Underclocker
	perf  *PerfCounter

	completionMaxFrames    uint64
	completionMinLoopCount int
}

// New creates an emulator with no cartridge inserted.
func New() *Emulator {
	return newFromROM(nil, nil)
}

// NewWithFile loads the ROM at path and returns a ready-to-run emulator,
// restoring any battery RAM saved from a previous run at path's
// conventional .sav location.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	savedRAM, err := storage.LoadBatteryRAM(path)
	if err != nil {
		slog.Warn("failed to load battery RAM", "path", path, "error", err)
	}
	slog.Debug("loaded ROM", "path", path, "size", len(data), "saved_ram", len(savedRAM) > 0)
	e := newFromROM(data, savedRAM)
	e.romPath = path
	return e, nil
}

func newFromROM(rom []byte, savedRAM []byte) *Emulator {
	scheduler := util.NewScheduler()
	mem := memory.New(scheduler)
	if rom != nil {
		mem.InsertCartridge(rom, savedRAM)
	}

	gpu := video.NewGpu(mem)
	apu := sound.New()
	mem.SetPPU(gpu)
	mem.SetAPU(apu)

	input := memory.NewStaticSource()
	mem.Joypad().SetSource(input)

	return &Emulator{
		cpu:   cpu.New(mem),
		gpu:   gpu,
		apu:   apu,
		mem:   mem,
		input: input,
	}
}

// RunUntilFrame advances the emulator according to the current debugger
// state: a full frame when running, a single instruction under
// DebuggerStep, a single frame under DebuggerStepFrame (then pausing in
// both cases), or nothing while paused (§7).
func (e *Emulator) RunUntilFrame() {
	state := e.GetDebuggerState()

	switch state {
	case DebuggerPaused:
		return

	case DebuggerStep:
		e.debuggerMu.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMu.Unlock()
		if !requested {
			return
		}
		oldPC := e.cpu.PC()
		e.stepOne()
		slog.Debug("step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.PC()))
		e.SetDebuggerState(DebuggerPaused)

	case DebuggerStepFrame:
		e.debuggerMu.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMu.Unlock()
		if !requested {
			return
		}
		e.runFrame()
		e.SetDebuggerState(DebuggerPaused)

	default: // DebuggerRunning
		e.runFrame()
	}
}

// stepOne executes exactly one CPU instruction (or interrupt service /
// HALT tick) and advances every other component by the same cycle count.
func (e *Emulator) stepOne() int {
	cycles := e.cpu.Tick()
	e.mem.Tick(cycles)
	e.gpu.Tick(cycles)
	e.apu.Tick(cycles)
	e.instructionCount++
	e.totalCycles += uint64(cycles)
	return cycles
}

func (e *Emulator) runFrame() {
	total := 0
	for total < cyclesPerFrame {
		total += e.stepOne()
	}
	e.frameCount++
	if e.joypadTick != nil {
		e.joypadTick()
	}
	if e.clock != nil {
		e.clock.Sync(e.totalCycles)
	}
	if e.perf != nil {
		e.perf.Sample(e.instructionCount, e.frameCount)
	}
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.PC()))
	}
}

// GetCurrentFrame returns the most recently completed framebuffer.
func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// HandleKeyPress presses b and schedules an automatic release shortly
// after, modeling a momentary tap for front ends that only deliver
// key-down events.
func (e *Emulator) HandleKeyPress(b memory.JoypadButton) {
	e.input.Press(b)
	e.mem.Joypad().Poll()
	time.AfterFunc(keyReleaseDelay, func() {
		e.input.Release(b)
	})
}

// HandleKeyRelease releases b immediately, for front ends that do
// deliver real key-up events.
func (e *Emulator) HandleKeyRelease(b memory.JoypadButton) {
	e.input.Release(b)
}

// frameTicker is satisfied by JoypadSource implementations that need to
// advance once per video frame (replay.Recorder, replay.Player); plain
// keyboard/controller sources don't implement it.
type frameTicker interface{ Tick() }

// SetJoypadSource swaps the source the joypad register polls, e.g. to
// wrap live input in a replay.Recorder, substitute a replay.Player, or
// install a ControllerSource (§4.9, §9). If s also implements the
// per-frame Tick() method, RunUntilFrame drives it automatically once per
// completed frame.
func (e *Emulator) SetJoypadSource(s memory.JoypadSource) {
	e.mem.Joypad().SetSource(s)
	if t, ok := s.(frameTicker); ok {
		e.joypadTick = t.Tick
	} else {
		e.joypadTick = nil
	}
}

// InputSource returns the live keyboard/controller-independent StaticSource
// created at construction, for wrapping with SetJoypadSource(replay.NewRecorder(...)).
func (e *Emulator) InputSource() *memory.StaticSource { return e.input }

func (e *Emulator) GetCPU() *cpu.CPU    { return e.cpu }
func (e *Emulator) GetMMU() *memory.MMU { return e.mem }
func (e *Emulator) GetAPU() *sound.APU  { return e.apu }

func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.debuggerMu.Lock()
	defer e.debuggerMu.Unlock()
	e.debuggerState = state
	slog.Debug("debugger state changed", "state", state)
}

func (e *Emulator) GetDebuggerState() DebuggerState {
	e.debuggerMu.RLock()
	defer e.debuggerMu.RUnlock()
	return e.debuggerState
}

func (e *Emulator) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("emulator paused")
}

func (e *Emulator) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("emulator resumed")
}

func (e *Emulator) DebuggerStepInstruction() {
	e.debuggerMu.Lock()
	defer e.debuggerMu.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("step instruction requested")
}

func (e *Emulator) DebuggerStepFrame() {
	e.debuggerMu.Lock()
	defer e.debuggerMu.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("step frame requested")
}

func (e *Emulator) GetInstructionCount() uint64 { return e.instructionCount }
func (e *Emulator) GetFrameCount() uint64       { return e.frameCount }

// SaveBatteryRAM persists the cartridge's battery RAM to the conventional
// .sav path next to the loaded ROM. A no-op if no ROM was loaded via
// NewWithFile or the cartridge has no battery RAM.
func (e *Emulator) SaveBatteryRAM() error {
	if e.romPath == "" {
		return nil
	}
	return storage.SaveBatteryRAM(e.romPath, e.mem.BatteryRAM())
}

// ROMHash returns the loaded cartridge's identity hash, or 0 if none is
// inserted, for keying replay recordings to the ROM they were captured
// against (§9).
func (e *Emulator) ROMHash() uint32 {
	cart := e.mem.Cartridge()
	if cart == nil {
		return 0
	}
	return cart.Hash()
}
