// Package debugger is a line-oriented REPL that owns an emulator and
// drives it in single-step or run-until-breakpoint mode, formatting
// register/memory/disassembly state through plain text (§4.10). It is
// deliberately decoupled from any particular renderer: it reads commands
// from an io.Reader and writes responses to an io.Writer, so the CLI can
// wire it to stdin/stdout while tests wire it to in-memory buffers.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/zxcodes/gbcore/internal/disasm"
	"github.com/zxcodes/gbcore/internal/emulator"
)

// REPL drives emu from command lines read off in, writing responses to out.
type REPL struct {
	emu *emulator.Emulator
	in  *bufio.Scanner
	out io.Writer

	breakpoints map[uint16]bool
	interrupted atomic.Bool
}

// New returns a REPL reading commands from in and writing to out.
func New(emu *emulator.Emulator, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		emu:         emu,
		in:          bufio.NewScanner(in),
		out:         out,
		breakpoints: make(map[uint16]bool),
	}
}

// Interrupt requests that a running "continue" stop at the next
// frame boundary and return control to the prompt, for a host SIGINT
// handler to call (§5 "Cancellation & shutdown").
func (r *REPL) Interrupt() { r.interrupted.Store(true) }

// Run reads and executes commands until "quit" or EOF.
func (r *REPL) Run() error {
	r.printf("gbcore debugger — type 'help' for commands\n")
	for {
		r.printf("(gbcore) ")
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if quit := r.dispatch(line); quit {
			return nil
		}
	}
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "h":
		r.help()
	case "quit", "q", "exit":
		return true
	case "step", "s":
		r.cmdStep()
	case "frame", "f":
		r.cmdFrame()
	case "continue", "c", "run":
		r.cmdContinue()
	case "break", "b":
		r.cmdBreak(args)
	case "delete", "d":
		r.cmdDelete(args)
	case "regs", "r":
		r.cmdRegs()
	case "mem", "m", "x":
		r.cmdMem(args)
	case "disasm", "dis":
		r.cmdDisasm(args)
	default:
		r.printf("unknown command %q (try 'help')\n", cmd)
	}
	return false
}

func (r *REPL) help() {
	r.printf(`commands:
  step, s              execute one instruction
  frame, f             run until the next frame completes
  continue, c, run     run until a breakpoint or Interrupt()
  break, b <addr>      set a breakpoint at a hex address (e.g. b 0x0150)
  delete, d <addr>     clear a breakpoint
  regs, r              print CPU registers and flags
  mem, m <addr> [n]     dump n bytes (default 16) starting at addr
  disasm, dis [n]      disassemble n instructions around PC (default 8)
  quit, q              exit the debugger
`)
}

func (r *REPL) cmdStep() {
	r.emu.DebuggerStepInstruction()
	r.emu.RunUntilFrame()
	r.printRegs()
}

func (r *REPL) cmdFrame() {
	r.emu.DebuggerStepFrame()
	r.emu.RunUntilFrame()
	r.printf("frame %d complete\n", r.emu.GetFrameCount())
}

// cmdContinue runs whole frames, checking the interrupted flag and the
// breakpoint set only between frames: a breakpoint is hit only when PC
// equals it at a frame boundary, not when it is passed mid-frame.
func (r *REPL) cmdContinue() {
	r.emu.DebuggerResume()
	r.interrupted.Store(false)
	for {
		if r.interrupted.Load() {
			r.emu.DebuggerPause()
			r.printf("interrupted\n")
			return
		}
		pc := r.emu.GetCPU().PC()
		if r.breakpoints[pc] {
			r.emu.DebuggerPause()
			r.printf("breakpoint hit at 0x%04X\n", pc)
			r.printRegs()
			return
		}
		r.emu.RunUntilFrame()
		if err := r.emu.CheckCrash(); err != nil {
			r.emu.DebuggerPause()
			r.printf("%s\n", err)
			return
		}
	}
}

func (r *REPL) cmdBreak(args []string) {
	if len(args) != 1 {
		r.printf("usage: break <addr>\n")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		r.printf("%s\n", err)
		return
	}
	r.breakpoints[addr] = true
	r.printf("breakpoint set at 0x%04X\n", addr)
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 1 {
		r.printf("usage: delete <addr>\n")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		r.printf("%s\n", err)
		return
	}
	delete(r.breakpoints, addr)
	r.printf("breakpoint cleared at 0x%04X\n", addr)
}

func (r *REPL) cmdRegs() { r.printRegs() }

func (r *REPL) printRegs() {
	cpu := r.emu.GetCPU()
	reg := cpu.Snapshot()
	r.printf("PC=0x%04X SP=0x%04X A=0x%02X F=%s BC=0x%02X%02X DE=0x%02X%02X HL=0x%02X%02X IME=%v halted=%v\n",
		reg.PC, reg.SP, reg.A, cpu.GetFlagString(), reg.B, reg.C, reg.D, reg.E, reg.H, reg.L, reg.IME, reg.Halted)
}

func (r *REPL) cmdMem(args []string) {
	if len(args) < 1 {
		r.printf("usage: mem <addr> [count]\n")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		r.printf("%s\n", err)
		return
	}
	count := 16
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err == nil && n > 0 {
			count = n
		}
	}
	mmu := r.emu.GetMMU()
	for i := 0; i < count; i += 16 {
		r.printf("0x%04X: ", addr+uint16(i))
		for j := 0; j < 16 && i+j < count; j++ {
			r.printf("%02X ", mmu.Read(addr+uint16(i+j)))
		}
		r.printf("\n")
	}
}

func (r *REPL) cmdDisasm(args []string) {
	count := 8
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			count = n
		}
	}
	pc := r.emu.GetCPU().PC()
	lines := disasm.DisassembleAround(pc, count/2, count/2, r.emu.GetMMU())
	for _, line := range lines {
		r.printf("%s\n", disasm.FormatDisassemblyLine(line, line.Address == pc))
	}
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}
