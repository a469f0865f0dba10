package render

import "github.com/zxcodes/gbcore/internal/video"

// shadeOf maps a raw framebuffer pixel to one of the DMG's 4 shades,
// defaulting unrecognized values to black rather than white so a corrupt
// or not-yet-drawn pixel doesn't read as a blank screen.
func shadeOf(pixel uint32) int {
	switch pixel {
	case uint32(video.BlackColor):
		return 0
	case uint32(video.DarkGreyColor):
		return 1
	case uint32(video.LightGreyColor):
		return 2
	case uint32(video.WhiteColor):
		return 3
	default:
		return 0
	}
}

// halfBlockRune picks a Unicode half-block glyph for a stacked pair of
// pixel shades. Two terminal rows of text can only carry one foreground
// color each, so anything other than "both same shade" or "one of the two
// is white" collapses to an upper half-block; the caller is expected to
// pick the foreground color from the more prominent of the two shades.
func halfBlockRune(top, bottom int) rune {
	switch {
	case top == bottom:
		return '█'
	case top == 3 && bottom != 3:
		return '▄'
	default:
		return '▀'
	}
}

// RenderFrameToHalfBlocks packs a 160x144 DMG frame into height/2 lines of
// half-block glyphs, letting a plain terminal render two pixel rows per
// character cell.
func RenderFrameToHalfBlocks(frame []uint32, width, height int) []string {
	if len(frame) < width*height {
		return nil
	}

	textHeight := (height + 1) / 2
	lines := make([]string, textHeight)

	for row := 0; row < textHeight; row++ {
		line := make([]rune, width)
		topRow, bottomRow := row*2, row*2+1

		for x := 0; x < width; x++ {
			top := shadeOf(pixelOrWhite(frame, width, height, topRow, x))
			bottom := shadeOf(pixelOrWhite(frame, width, height, bottomRow, x))
			line[x] = halfBlockRune(top, bottom)
		}

		lines[row] = string(line)
	}

	return lines
}

func pixelOrWhite(frame []uint32, width, height, row, col int) uint32 {
	if row >= height {
		return uint32(video.WhiteColor)
	}
	return frame[row*width+col]
}
