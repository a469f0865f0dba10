package video

import (
	"log/slog"

	"github.com/zxcodes/gbcore/internal/addr"
	"github.com/zxcodes/gbcore/internal/bit"
)

// tileFetch resolves the signed/unsigned LCDC tile data addressing mode
// into the VRAM address of a tile's row, shared by background, window and
// is deliberately NOT used by sprites (which always address unsigned from
// 0x8000).
func (g *GPU) tileRowAddress(tileValue uint8, signedMode bool, rowBytes int) uint16 {
	tilesBase := addr.TileData0
	if signedMode {
		tilesBase = addr.TileData2
		return uint16(int(tilesBase) + int(int8(tileValue))*16 + rowBytes)
	}
	return tilesBase + uint16(int(tileValue)*16+rowBytes)
}

// pixelFromPlanes decodes one pixel's 2-bit color index from a tile row's
// low/high bit planes at the given bit position (7=leftmost).
func pixelFromPlanes(bitPos uint8, low, high uint8) uint8 {
	var px uint8
	if bit.IsSet(bitPos, low) {
		px |= 1
	}
	if bit.IsSet(bitPos, high) {
		px |= 2
	}
	return px
}

func paletteLookup(mmu interface{ Read(uint16) uint8 }, paletteAddr uint16, colorIndex uint8) uint32 {
	palette := mmu.Read(paletteAddr)
	shade := (palette >> (colorIndex * 2)) & 0x03
	return uint32(ByteToColor(shade))
}

func (g *GPU) drawBackground() {
	lineWidth := g.line * FramebufferWidth

	if g.readLCDCVariable(bgDisplay) != 1 {
		color0 := paletteLookup(g.memory, addr.BGP, 0)
		for i := range FramebufferWidth {
			g.framebuffer.buffer[lineWidth+i] = color0
			g.bgPixelBuffer[lineWidth+i] = 0
		}
		return
	}

	signedMode := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	tileMapAddr := addr.TileMap1
	if g.readLCDCVariable(bgTileMapDisplaySelect) == 0 {
		tileMapAddr = addr.TileMap0
	}

	scrollX := g.memory.Read(addr.SCX)
	scrollY := g.memory.Read(addr.SCY)
	bgLine := (g.line + int(scrollY)) & 0xFF // wraps at the 256px background size
	bgTileRow := (bgLine / 8) * 32
	rowBytes := (bgLine % 8) * 2

	for x := 0; x < FramebufferWidth; x++ {
		bgX := (x + int(scrollX)) & 0xFF
		tileCol := bgX / 8

		tileValue := g.memory.Read(tileMapAddr + uint16(bgTileRow+tileCol))
		tileAddr := g.tileRowAddress(tileValue, signedMode, rowBytes)
		low := g.memory.Read(tileAddr)
		high := g.memory.Read(tileAddr + 1)

		colorIndex := pixelFromPlanes(7-uint8(bgX%8), low, high)
		pos := lineWidth + x
		g.framebuffer.buffer[pos] = paletteLookup(g.memory, addr.BGP, colorIndex)
		g.bgPixelBuffer[pos] = colorIndex
	}
}

func (g *GPU) drawWindow() {
	if g.windowLine > lastVisibleLine {
		return
	}
	if g.readLCDCVariable(windowDisplayEnable) != 1 {
		return
	}

	wx := int(g.memory.Read(addr.WX)) - 7
	wy := g.memory.Read(addr.WY)
	if wx > FramebufferWidth-1 || int(wy) > lastVisibleLine || int(wy) > g.line {
		return
	}

	if g.line < 5 {
		slog.Debug("window scanline", "line", g.line, "windowLine", g.windowLine, "wx", wx, "wy", wy)
	}

	signedMode := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	tileMapAddr := addr.TileMap1
	if g.readLCDCVariable(windowTileMapSelect) == 0 {
		tileMapAddr = addr.TileMap0
	}

	winTileRow := (g.windowLine / 8) * 32
	rowBytes := (g.windowLine % 8) * 2
	lineWidth := g.line * FramebufferWidth

	visibleCols := (FramebufferWidth - wx + 7) / 8
	if visibleCols > 32 {
		visibleCols = 32
	}

	for tileCol := 0; tileCol < visibleCols; tileCol++ {
		tileValue := g.memory.Read(tileMapAddr + uint16(winTileRow+tileCol))
		tileAddr := g.tileRowAddress(tileValue, signedMode, rowBytes)
		low := g.memory.Read(tileAddr)
		high := g.memory.Read(tileAddr + 1)

		for px := 0; px < 8; px++ {
			bufferX := tileCol*8 + px + wx
			if bufferX < wx || bufferX >= FramebufferWidth {
				continue
			}

			pos := lineWidth + bufferX
			if pos >= len(g.framebuffer.buffer) {
				continue
			}

			colorIndex := pixelFromPlanes(uint8(7-px), low, high)
			g.framebuffer.buffer[pos] = paletteLookup(g.memory, addr.BGP, colorIndex)
			g.bgPixelBuffer[pos] = colorIndex
		}
	}
	g.windowLine++
}

// oamSprite is one decoded OAM entry for the scanline being composed.
type oamSprite struct {
	index int
	y, x  int
	tile  uint8
	flags uint8
}

func (g *GPU) readOAMEntry(index int) oamSprite {
	base := addr.OAMStart + uint16(index*4)
	return oamSprite{
		index: index,
		y:     int(g.memory.Read(base)) - 16,
		x:     int(g.memory.Read(base+1)) - 8,
		tile:  g.memory.Read(base + 2),
		flags: g.memory.Read(base + 3),
	}
}

// scanSprites implements the PPU's OAM selection phase (Pan Docs: OAM,
// selection priority): only Y position determines which of up to 10
// sprites are candidates for this scanline, X range is irrelevant here.
func (g *GPU) scanSprites(height int) []oamSprite {
	var picked []oamSprite
	for i := 0; i < 40; i++ {
		s := g.readOAMEntry(i)
		if s.y > g.line || s.y+height <= g.line {
			continue
		}
		picked = append(picked, s)
		if len(picked) >= 10 {
			break
		}
	}
	return picked
}

func (g *GPU) drawSprites() {
	if g.readLCDCVariable(spriteDisplayEnable) != 1 {
		return
	}

	height := 8
	if g.readLCDCVariable(spriteSize) == 1 {
		height = 16
	}

	sprites := g.scanSprites(height)
	lineWidth := g.line * FramebufferWidth

	g.spritePriority.Clear()
	for _, s := range sprites {
		for px := range 8 {
			g.spritePriority.TryClaimPixel(s.x+px, s.index, s.x)
		}
	}

	for _, s := range sprites {
		g.drawSpriteRow(s, height, lineWidth)
	}
}

func (g *GPU) drawSpriteRow(s oamSprite, height, lineWidth int) {
	owns := false
	for x := 0; x < 8; x++ {
		if g.spritePriority.GetOwner(s.x+x) == s.index {
			owns = true
			break
		}
	}
	if !owns {
		return
	}

	tileMask := 0xFE
	if height == 8 {
		tileMask = 0xFF
	}
	tileNumber := (int(s.tile) & tileMask) * 16

	paletteAddr := addr.OBP0
	flipX := bit.IsSet(5, s.flags)
	flipY := bit.IsSet(6, s.flags)
	aboveBG := !bit.IsSet(7, s.flags)
	if bit.IsSet(4, s.flags) {
		paletteAddr = addr.OBP1
	}

	row := g.line - s.y
	if flipY {
		row = height - 1 - row
	}

	rowBytes := row * 2
	tileOffset := 0
	if height == 16 && row >= 8 {
		rowBytes = (row - 8) * 2
		tileOffset = 16
	}

	tileAddr := addr.TileData0 + uint16(tileNumber+rowBytes+tileOffset)
	low := g.memory.Read(tileAddr)
	high := g.memory.Read(tileAddr + 1)

	for px := 0; px < 8; px++ {
		bufferX := s.x + px
		if g.spritePriority.GetOwner(bufferX) != s.index {
			continue
		}

		bitPos := uint8(7 - px)
		if flipX {
			bitPos = uint8(px)
		}
		colorIndex := pixelFromPlanes(bitPos, low, high)
		if colorIndex == 0 {
			continue // transparent
		}

		pos := lineWidth + bufferX
		if !aboveBG && g.bgPixelBuffer[pos] != 0 {
			continue // background wins priority
		}

		g.framebuffer.buffer[pos] = paletteLookup(g.memory, paletteAddr, colorIndex)
	}
}
