//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/zxcodes/gbcore/internal/emulator"
)

// Renderer is a stub used when the binary is built without the sdl2 tag
// (SDL2's development headers aren't assumed to be present everywhere
// gbcore is built).
type Renderer struct{}

// New returns an error directing the caller to rebuild with -tags sdl2.
func New(_ *emulator.Emulator, _ int) (*Renderer, error) {
	return nil, fmt.Errorf("sdl2 backend not available: rebuild with -tags sdl2")
}

func (r *Renderer) Run() error { return fmt.Errorf("sdl2 backend not available") }
func (r *Renderer) Close()     {}
