//go:build !ebiten

package ebiten

import (
	"fmt"

	"github.com/zxcodes/gbcore/internal/emulator"
)

// Run returns an error when the binary is built without the ebiten tag.
func Run(_ *emulator.Emulator, _ string, _ int) error {
	return fmt.Errorf("ebiten backend not available: rebuild with -tags ebiten")
}
