package replay

import "github.com/zxcodes/gbcore/internal/memory"

// Recorder wraps a live JoypadSource and appends one Frame per call to
// Tick, capturing exactly the button state the emulator observed that
// frame so a later Player reproduces it bit for bit.
type Recorder struct {
	source  memory.JoypadSource
	romHash uint32
	frame   uint64
	frames  []Frame
}

func NewRecorder(source memory.JoypadSource, romHash uint32) *Recorder {
	return &Recorder{source: source, romHash: romHash}
}

// Pressed satisfies memory.JoypadSource, delegating to the wrapped source.
func (r *Recorder) Pressed(b memory.JoypadButton) bool {
	return r.source.Pressed(b)
}

// Tick snapshots the current button state as the input for this frame and
// advances the frame counter. Call once per emulated video frame.
func (r *Recorder) Tick() {
	var buttons uint8
	for b := memory.JoypadButton(0); b < 8; b++ {
		if r.source.Pressed(b) {
			buttons |= 1 << b
		}
	}
	r.frames = append(r.frames, Frame{FrameIndex: r.frame, Buttons: buttons})
	r.frame++
}

// Replay returns the recording captured so far.
func (r *Recorder) Replay() *Replay {
	return &Replay{ROMHash: r.romHash, Frames: r.frames}
}
