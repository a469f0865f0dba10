//go:build ebiten

// Package ebiten renders an emulator through an ebiten.Game, with audio
// output driven directly through oto/v3 rather than ebiten's own audio
// package, pulling PCM samples straight from the APU's ring buffer.
package ebiten

import (
	"image/color"
	"unsafe"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zxcodes/gbcore/internal/emulator"
	"github.com/zxcodes/gbcore/internal/memory"
	"github.com/zxcodes/gbcore/internal/video"
)

const (
	sampleRate     = 44100
	defaultScale   = 3
	bytesPerFrame  = 8 // stereo float32: 2 channels * 4 bytes
)

// Game adapts an *emulator.Emulator to the ebiten.Game interface.
type Game struct {
	emu   *emulator.Emulator
	tex   *ebiten.Image
	input *memory.ControllerSource

	audio    *oto.Context
	player   *oto.Player
	toPlayer *sampleReader
}

// sampleReader implements io.Reader by pulling interleaved stereo float32
// PCM straight from the APU's mixer and packing it little-endian, the
// format oto.NewContext was configured for.
type sampleReader struct {
	emu *emulator.Emulator
}

func (r *sampleReader) Read(p []byte) (int, error) {
	wantFrames := len(p) / bytesPerFrame
	if wantFrames == 0 {
		return 0, nil
	}
	frames := r.emu.GetAPU().GetSamples(wantFrames)
	if len(frames) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := 0
	for _, s := range frames {
		if n+4 > len(p) {
			break
		}
		buf := (*[4]byte)(unsafe.Pointer(&s))[:]
		copy(p[n:n+4], buf)
		n += 4
	}
	return n, nil
}

// NewGame builds a Game around emu and starts audio playback. Input is
// read from both keyboard and every connected standard-layout gamepad into a
// single ControllerSource installed as the joypad's active source, so
// either input method works interchangeably (§4.9).
func NewGame(emu *emulator.Emulator) (*Game, error) {
	input := memory.NewControllerSource()
	emu.SetJoypadSource(input)
	g := &Game{emu: emu, input: input, tex: ebiten.NewImage(video.FramebufferWidth, video.FramebufferHeight)}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return g, nil // run silent rather than failing the whole renderer
	}
	<-ready
	g.audio = ctx
	g.toPlayer = &sampleReader{emu: emu}
	g.player = ctx.NewPlayer(g.toPlayer)
	g.player.Play()

	return g, nil
}

func (g *Game) Update() error {
	g.input.SetButton(memory.JoypadStart, ebiten.IsKeyPressed(ebiten.KeyEnter))
	g.input.SetButton(memory.JoypadSelect, ebiten.IsKeyPressed(ebiten.KeyShiftRight))
	g.input.SetButton(memory.JoypadA, ebiten.IsKeyPressed(ebiten.KeyZ))
	g.input.SetButton(memory.JoypadB, ebiten.IsKeyPressed(ebiten.KeyX))

	up := ebiten.IsKeyPressed(ebiten.KeyUp)
	down := ebiten.IsKeyPressed(ebiten.KeyDown)
	left := ebiten.IsKeyPressed(ebiten.KeyLeft)
	right := ebiten.IsKeyPressed(ebiten.KeyRight)

	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			g.input.SetButton(memory.JoypadA, true)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight) {
			g.input.SetButton(memory.JoypadB, true)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight) {
			g.input.SetButton(memory.JoypadStart, true)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterLeft) {
			g.input.SetButton(memory.JoypadSelect, true)
		}
		up = up || ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop)
		down = down || ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom)
		left = left || ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft)
		right = right || ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight)
	}

	axisX, axisY := 0.0, 0.0
	if right {
		axisX = 1
	} else if left {
		axisX = -1
	}
	if down {
		axisY = 1
	} else if up {
		axisY = -1
	}
	g.input.SetAxis(axisX, axisY)

	g.emu.RunUntilFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	fb := g.emu.GetCurrentFrame().ToSlice()
	pix := make([]byte, len(fb)*4)
	for i, c := range fb {
		pix[i*4] = byte(c >> 24)
		pix[i*4+1] = byte(c >> 16)
		pix[i*4+2] = byte(c >> 8)
		pix[i*4+3] = 0xFF
	}
	g.tex.WritePixels(pix)
	screen.Fill(color.Black)
	screen.DrawImage(g.tex, nil)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.FramebufferWidth, video.FramebufferHeight
}

// Run starts the ebiten run loop with a window sized for the Game Boy
// screen at the given pixel scale (0 or negative selects defaultScale).
func Run(emu *emulator.Emulator, title string, scale int) error {
	if scale <= 0 {
		scale = defaultScale
	}
	game, err := NewGame(emu)
	if err != nil {
		return err
	}
	ebiten.SetWindowSize(video.FramebufferWidth*scale, video.FramebufferHeight*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(game)
}
