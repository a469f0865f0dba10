//go:build sdl2

// Package sdl2 renders an emulator through an SDL2 window and audio
// device, scaling the 160x144 framebuffer up into a resizable window and
// queuing APU samples for playback.
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/zxcodes/gbcore/internal/emulator"
	"github.com/zxcodes/gbcore/internal/memory"
	"github.com/zxcodes/gbcore/internal/video"
)

const (
	defaultScale    = 3
	bytesPerPixel     = 4
	audioSampleRate   = 44100
	audioBufferSize   = 512
	bytesPerAudioFrame = 8 // stereo float32
	targetQueueSize   = 2048 * bytesPerAudioFrame
)

// Renderer drives an emulator inside an SDL2 window until closed.
type Renderer struct {
	emu *emulator.Emulator

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte

	audioDevice sdl.AudioDeviceID
}

// New creates an SDL2 window/renderer/texture sized for the Game Boy
// screen at the given pixel scale (0 or negative selects defaultScale) and
// opens an audio output device.
func New(emu *emulator.Emulator, scale int) (*Renderer, error) {
	if scale <= 0 {
		scale = defaultScale
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl2: init: %w", err)
	}

	window, err := sdl.CreateWindow("gbcore",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		video.FramebufferWidth*scale, video.FramebufferHeight*scale,
		sdl.WINDOW_RESIZABLE|sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create window: %w", err)
	}

	ren, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create renderer: %w", err)
	}

	tex, err := ren.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth, video.FramebufferHeight)
	if err != nil {
		ren.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create texture: %w", err)
	}

	r := &Renderer{
		emu:      emu,
		window:   window,
		renderer: ren,
		texture:  tex,
		pixels:   make([]byte, video.FramebufferWidth*video.FramebufferHeight*bytesPerPixel),
	}

	if err := r.initAudio(); err != nil {
		slog.Warn("sdl2: audio unavailable", "error", err)
	}

	return r, nil
}

func (r *Renderer) initAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     audioSampleRate,
		Format:   sdl.AUDIO_F32SYS,
		Channels: 2,
		Samples:  audioBufferSize,
	}
	obtained := &sdl.AudioSpec{}
	dev, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		return err
	}
	r.audioDevice = dev
	sdl.PauseAudioDevice(dev, false)
	return nil
}

// Run pumps the SDL event loop, stepping the emulator one frame per
// iteration, until a quit event or Escape is received.
func (r *Renderer) Run() error {
	defer r.Close()

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				r.handleKey(e)
				if e.Keysym.Sym == sdl.K_ESCAPE {
					running = false
				}
			}
		}

		r.emu.RunUntilFrame()
		r.draw(r.emu.GetCurrentFrame())
		r.queueAudio()
	}

	return nil
}

func (r *Renderer) handleKey(e *sdl.KeyboardEvent) {
	if e.Type != sdl.KEYDOWN {
		return
	}
	switch e.Keysym.Sym {
	case sdl.K_RETURN:
		r.emu.HandleKeyPress(memory.JoypadStart)
	case sdl.K_RSHIFT, sdl.K_LSHIFT:
		r.emu.HandleKeyPress(memory.JoypadSelect)
	case sdl.K_z:
		r.emu.HandleKeyPress(memory.JoypadA)
	case sdl.K_x:
		r.emu.HandleKeyPress(memory.JoypadB)
	case sdl.K_UP:
		r.emu.HandleKeyPress(memory.JoypadUp)
	case sdl.K_DOWN:
		r.emu.HandleKeyPress(memory.JoypadDown)
	case sdl.K_LEFT:
		r.emu.HandleKeyPress(memory.JoypadLeft)
	case sdl.K_RIGHT:
		r.emu.HandleKeyPress(memory.JoypadRight)
	}
}

func (r *Renderer) draw(fb *video.FrameBuffer) {
	pixels := fb.ToSlice()
	for i, gbColor := range pixels {
		dst := i * bytesPerPixel
		red := byte(gbColor >> 24)
		green := byte(gbColor >> 16)
		blue := byte(gbColor >> 8)
		r.pixels[dst] = 0xFF   // alpha
		r.pixels[dst+1] = blue
		r.pixels[dst+2] = green
		r.pixels[dst+3] = red
	}

	r.texture.Update(nil, unsafe.Pointer(&r.pixels[0]), video.FramebufferWidth*bytesPerPixel)
	r.renderer.SetDrawColor(0, 0, 0, 255)
	r.renderer.Clear()
	r.renderer.Copy(r.texture, nil, nil)
	r.renderer.Present()
}

func (r *Renderer) queueAudio() {
	if r.audioDevice == 0 {
		return
	}
	queued := sdl.GetQueuedAudioSize(r.audioDevice)
	if queued >= targetQueueSize {
		return
	}
	wantFrames := int((targetQueueSize - queued) / bytesPerAudioFrame)
	frames := r.emu.GetAPU().GetSamples(wantFrames)
	if len(frames) == 0 {
		return
	}

	bytes := (*[1 << 30]byte)(unsafe.Pointer(&frames[0]))[: len(frames)*4 : len(frames)*4]
	sdl.QueueAudio(r.audioDevice, bytes)
}

// Close tears down the SDL2 window, renderer and audio device.
func (r *Renderer) Close() {
	if r.audioDevice != 0 {
		sdl.CloseAudioDevice(r.audioDevice)
	}
	r.texture.Destroy()
	r.renderer.Destroy()
	r.window.Destroy()
	sdl.Quit()
}
