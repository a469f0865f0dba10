package replay

import (
	"log/slog"

	"github.com/zxcodes/gbcore/internal/memory"
)

// Player is a memory.JoypadSource that replays a previously recorded
// Replay frame by frame instead of reading live input. It must be
// advanced once per emulated video frame via Tick, in lockstep with the
// frame rate the recording was captured at.
type Player struct {
	replay  *Replay
	index   int
	current uint8
}

// NewPlayer checks romHash against the recording before returning a
// Player. A mismatch is logged, not rejected: playback proceeds anyway,
// since a stale or renamed ROM with identical behavior is common and the
// recording is still useful for review (§6 edge case).
func NewPlayer(r *Replay, romHash uint32) (*Player, error) {
	if r.ROMHash != romHash {
		slog.Warn("replay ROM hash mismatch", "recorded", r.ROMHash, "got", romHash)
	}
	p := &Player{replay: r}
	if len(r.Frames) > 0 {
		p.current = r.Frames[0].Buttons
	}
	return p, nil
}

func (p *Player) Pressed(b memory.JoypadButton) bool {
	return p.current&(1<<b) != 0
}

// Tick advances to the next recorded frame's button state. Once the
// recording is exhausted it does nothing and the last state stays in
// effect (see Done).
func (p *Player) Tick() {
	if p.index >= len(p.replay.Frames) {
		return
	}
	p.current = p.replay.Frames[p.index].Buttons
	p.index++
}

// Done reports whether every recorded frame has been consumed.
func (p *Player) Done() bool {
	return p.index >= len(p.replay.Frames)
}
