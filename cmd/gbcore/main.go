package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/zxcodes/gbcore/internal/debugger"
	"github.com/zxcodes/gbcore/internal/disasm"
	"github.com/zxcodes/gbcore/internal/emulator"
	"github.com/zxcodes/gbcore/internal/memory"
	"github.com/zxcodes/gbcore/internal/render"
	"github.com/zxcodes/gbcore/internal/render/ebiten"
	"github.com/zxcodes/gbcore/internal/render/sdl2"
	"github.com/zxcodes/gbcore/internal/replay"
	"github.com/zxcodes/gbcore/internal/storage"
	"github.com/zxcodes/gbcore/internal/util"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Description = "A Game Boy (DMG) emulation core"
	app.Usage = "gbcore <command> [options]"
	app.Version = "1.0.0"

	romFlag := cli.StringFlag{Name: "rom", Usage: "path to the ROM file"}
	scaleFlag := cli.IntFlag{Name: "scale", Usage: "pixel scale for sdl2/ebiten backends", Value: 0}
	rendererFlag := cli.StringFlag{Name: "renderer", Usage: "terminal, sdl2, or ebiten", Value: "terminal"}
	saveStateFlag := cli.StringFlag{Name: "save-state", Usage: "accepted but not read; battery RAM always uses <rom>.sav"}
	ticksFlag := cli.IntFlag{Name: "ticks", Usage: "number of frames to run in headless/replay modes; number of instructions for disassemble (default 32)", Value: 0}
	outputFlag := cli.StringFlag{Name: "output", Usage: "output file path"}
	inputFlag := cli.StringFlag{Name: "input", Usage: "input file path"}
	pcOnlyFlag := cli.BoolFlag{Name: "pc-only", Usage: "game-pak: print only the ROM title and MBC type"}

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run the emulator interactively",
			Flags: []cli.Flag{romFlag, scaleFlag, rendererFlag, saveStateFlag},
			Action: func(c *cli.Context) error {
				return runInteractive(c)
			},
		},
		{
			Name:  "debugger",
			Usage: "run the line-oriented debugger REPL over stdin/stdout",
			Flags: []cli.Flag{romFlag},
			Action: func(c *cli.Context) error {
				return runDebugger(c)
			},
		},
		{
			Name:  "disassembler",
			Usage: "disassemble a ROM's entry point range",
			Flags: []cli.Flag{romFlag, ticksFlag},
			Action: func(c *cli.Context) error {
				return runDisassembler(c)
			},
		},
		{
			Name:  "replay",
			Usage: "record, play back, or print an input replay",
			Subcommands: []cli.Command{
				{
					Name:  "record",
					Usage: "run the emulator while recording joypad input to --output",
					Flags: []cli.Flag{romFlag, ticksFlag, outputFlag, rendererFlag, scaleFlag},
					Action: func(c *cli.Context) error {
						return runReplayRecord(c)
					},
				},
				{
					Name:  "playback",
					Usage: "run the emulator replaying joypad input from --input",
					Flags: []cli.Flag{romFlag, inputFlag, rendererFlag, scaleFlag},
					Action: func(c *cli.Context) error {
						return runReplayPlayback(c)
					},
				},
				{
					Name:  "print",
					Usage: "print a replay file's header and recorded frames as text",
					Flags: []cli.Flag{inputFlag},
					Action: func(c *cli.Context) error {
						return runReplayPrint(c)
					},
				},
			},
		},
		{
			Name:  "screenshot",
			Usage: "run headlessly for --ticks frames and write the final frame as half-block text to --output",
			Flags: []cli.Flag{romFlag, ticksFlag, outputFlag},
			Action: func(c *cli.Context) error {
				return runScreenshot(c)
			},
		},
		{
			Name:  "game-pak",
			Usage: "print a ROM's header fields without running the emulator",
			Flags: []cli.Flag{romFlag, pcOnlyFlag},
			Action: func(c *cli.Context) error {
				return runGamePak(c)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func requireROM(c *cli.Context) (string, error) {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			return "", errors.New("no ROM path provided (use --rom or a positional argument)")
		}
	}
	return romPath, nil
}

func runInteractive(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	emu, err := emulator.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer saveOnExit(emu)
	installCrashWatchdog(emu)

	return runRenderer(emu, c.String("renderer"), c.Int("scale"))
}

func runRenderer(emu *emulator.Emulator, name string, scale int) error {
	switch name {
	case "", "terminal":
		renderer, err := render.NewTerminalRenderer(emu)
		if err != nil {
			return err
		}
		return renderer.Run()
	case "sdl2":
		renderer, err := sdl2.New(emu, scale)
		if err != nil {
			return err
		}
		return renderer.Run()
	case "ebiten":
		return ebiten.Run(emu, "gbcore", scale)
	default:
		return fmt.Errorf("unknown renderer %q (want terminal, sdl2, or ebiten)", name)
	}
}

// installCrashWatchdog logs and exits on a fatal CPU decode error so a
// crashed ROM doesn't spin the renderer forever on a dead core.
func installCrashWatchdog(emu *emulator.Emulator) {
	go func() {
		for range time.Tick(500 * time.Millisecond) {
			if err := emu.CheckCrash(); err != nil {
				slog.Error("emulator crashed", "error", err)
				os.Exit(1)
			}
		}
	}()
}

func saveOnExit(emu *emulator.Emulator) {
	if err := emu.SaveBatteryRAM(); err != nil {
		slog.Warn("failed to save battery RAM", "error", err)
	}
}

func runDebugger(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	emu, err := emulator.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer saveOnExit(emu)

	repl := debugger.New(emu, os.Stdin, os.Stdout)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT)
	go func() {
		for range sig {
			repl.Interrupt()
		}
	}()

	return repl.Run()
}

func runDisassembler(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}
	mmu := memory.New(util.NewScheduler())
	mmu.InsertCartridge(data, nil)

	count := c.Int("ticks")
	if count <= 0 {
		count = 32
	}
	lines := disasm.DisassembleRange(0x0100, count, mmu)
	for _, line := range lines {
		fmt.Println(disasm.FormatDisassemblyLine(line, false))
	}
	return nil
}

func runReplayRecord(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = storage.ReplayPath(romPath)
	}
	ticks := c.Int("ticks")

	emu, err := emulator.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer saveOnExit(emu)

	recorder := replay.NewRecorder(emu.InputSource(), emu.ROMHash())
	emu.SetJoypadSource(recorder)

	rendererName := c.String("renderer")
	if ticks > 0 {
		for i := 0; i < ticks; i++ {
			emu.RunUntilFrame()
		}
	} else {
		if rendererName == "ebiten" {
			// The ebiten backend installs its own ControllerSource for
			// keyboard+gamepad input, which would replace the recorder
			// installed above; recording is only wired for terminal/sdl2.
			return errors.New("replay record does not support --renderer ebiten (its input source would override the recorder); use terminal or sdl2")
		}
		if err := runRenderer(emu, rendererName, c.Int("scale")); err != nil {
			return err
		}
	}

	encoded, err := replay.Encode(recorder.Replay())
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
		return fmt.Errorf("save replay: %w", err)
	}
	slog.Info("replay saved", "path", outputPath, "frames", len(recorder.Replay().Frames))
	return nil
}

func runReplayPlayback(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	inputPath := c.String("input")
	if inputPath == "" {
		return errors.New("replay playback requires --input")
	}

	emu, err := emulator.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer saveOnExit(emu)

	raw, err := storage.LoadReplay(inputPath)
	if err != nil {
		return err
	}
	rec, err := replay.Decode(raw)
	if err != nil {
		return err
	}
	player, err := replay.NewPlayer(rec, emu.ROMHash())
	if err != nil {
		return err
	}
	emu.SetJoypadSource(player)

	for !player.Done() {
		emu.RunUntilFrame()
	}
	slog.Info("replay playback complete", "frames", len(rec.Frames))
	return nil
}

func runReplayPrint(c *cli.Context) error {
	inputPath := c.String("input")
	if inputPath == "" {
		return errors.New("replay print requires --input")
	}
	raw, err := storage.LoadReplay(inputPath)
	if err != nil {
		return err
	}
	rec, err := replay.Decode(raw)
	if err != nil {
		return err
	}
	return replay.Print(os.Stdout, rec)
}

func runScreenshot(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	ticks := c.Int("ticks")
	if ticks <= 0 {
		ticks = 60
	}
	outputPath := c.String("output")

	emu, err := emulator.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer saveOnExit(emu)

	for i := 0; i < ticks; i++ {
		emu.RunUntilFrame()
	}

	frame := emu.GetCurrentFrame().ToSlice()
	lines := render.RenderFrameToHalfBlocks(frame, 160, 144)

	var w *os.File
	if outputPath == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func runGamePak(c *cli.Context) error {
	romPath, err := requireROM(c)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}
	cart := memory.NewCartridgeWithData(data)
	h := cart.Header

	if c.Bool("pc-only") {
		fmt.Printf("%s %s\n", h.Title, h.MBCType)
		return nil
	}

	fmt.Printf("title:        %s\n", h.Title)
	fmt.Printf("mbc type:     %s\n", h.MBCType)
	fmt.Printf("has battery:  %v\n", h.HasBattery)
	fmt.Printf("has rtc:      %v\n", h.HasRTC)
	fmt.Printf("has rumble:   %v\n", h.HasRumble)
	fmt.Printf("rom size:     %d bytes\n", h.ROMSizeBytes)
	fmt.Printf("ram size:     %d bytes\n", h.RAMSizeBytes)
	fmt.Printf("rom hash:     0x%08X\n", cart.Hash())
	return nil
}
