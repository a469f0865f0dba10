package replay

import (
	"fmt"
	"io"
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Right", "Left", "Up", "Down"}

// Print writes r's header and every recorded frame as text to w, the Go
// equivalent of the original's `replay print` subcommand
// (cli/src/bin/replay.rs).
func Print(w io.Writer, r *Replay) error {
	if _, err := fmt.Fprintf(w, "rom_hash: 0x%08X\nframes: %d\n", r.ROMHash, len(r.Frames)); err != nil {
		return err
	}
	for _, f := range r.Frames {
		if _, err := fmt.Fprintf(w, "%8d: %s\n", f.FrameIndex, formatButtons(f.Buttons)); err != nil {
			return err
		}
	}
	return nil
}

func formatButtons(bits uint8) string {
	if bits == 0 {
		return "-"
	}
	held := make([]string, 0, 8)
	for i, name := range buttonNames {
		if bits&(1<<uint(i)) != 0 {
			held = append(held, name)
		}
	}
	out := held[0]
	for _, h := range held[1:] {
		out += "," + h
	}
	return out
}
