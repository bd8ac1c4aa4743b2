package ppu

import "github.com/Notedsite/supergba/internal/bus"

// renderScanline fills one visible line of the pixel buffer. The backdrop
// (palette entry 0) always goes down first; forced blank stops there, and
// so does any display mode without a renderer. Alpha stays opaque.
func (p *PPU) renderScanline(y int) {
	r, g, b := p.bus.PaletteRGB(0)
	row := p.fb[y*ScreenWidth*4 : (y+1)*ScreenWidth*4]
	for x := 0; x < ScreenWidth; x++ {
		row[x*4+0] = r
		row[x*4+1] = g
		row[x*4+2] = b
		row[x*4+3] = 0xFF
	}
	if p.dispcnt&dispcntForcedBlank != 0 {
		return
	}
	switch p.dispcnt & dispcntModeMask {
	case 0:
		p.renderTiledLine(y, row)
	case 3:
		p.renderBitmapLine(y, row)
	}
}

// renderBitmapLine draws one line of the mode-3 linear framebuffer: a
// 15-bit color per pixel straight out of VRAM.
func (p *PPU) renderBitmapLine(y int, row []byte) {
	for x := 0; x < ScreenWidth; x++ {
		v := p.bus.Read16(bus.VRAMBase + uint32(y*ScreenWidth+x)*2)
		r5 := byte(v & 0x1F)
		g5 := byte(v >> 5 & 0x1F)
		b5 := byte(v >> 10 & 0x1F)
		row[x*4+0] = r5<<3 | r5>>2
		row[x*4+1] = g5<<3 | g5>>2
		row[x*4+2] = b5<<3 | b5>>2
	}
}

// renderTiledLine draws one line of the mode-0 tiled backgrounds. Layers go
// down from BG3 to BG0 so the lowest priority lands first and higher layers
// paint over it. Palette index 0 is transparent at both color depths.
func (p *PPU) renderTiledLine(y int, row []byte) {
	for layer := 3; layer >= 0; layer-- {
		if p.dispcnt&(dispcntBG0Enable<<layer) == 0 {
			continue
		}
		p.renderBackgroundLine(p.bgcnt[layer], y, row)
	}
}

func (p *PPU) renderBackgroundLine(cnt uint16, y int, row []byte) {
	charBase := bus.VRAMBase + uint32(cnt>>2&3)*0x4000
	screenBase := bus.VRAMBase + uint32(cnt>>8&0x1F)*0x800
	depth8 := cnt&1<<7 != 0

	mapRow := uint32(y / 8 * 32)
	fineY := y % 8

	for tileX := 0; tileX < ScreenWidth/8; tileX++ {
		entry := p.bus.Read16(screenBase + (mapRow+uint32(tileX))*2)
		tile := uint32(entry & 0x3FF)
		hflip := entry&1<<10 != 0
		vflip := entry&1<<11 != 0
		bank := uint32(entry >> 12)

		ty := fineY
		if vflip {
			ty = 7 - ty
		}

		for px := 0; px < 8; px++ {
			tx := px
			if hflip {
				tx = 7 - tx
			}
			var index uint32
			if depth8 {
				index = uint32(p.bus.Read8(charBase + tile*64 + uint32(ty)*8 + uint32(tx)))
			} else {
				b := p.bus.Read8(charBase + tile*32 + uint32(ty)*4 + uint32(tx/2))
				if tx&1 == 0 {
					index = uint32(b & 0x0F)
				} else {
					index = uint32(b >> 4)
				}
				if index != 0 {
					index += bank * 16
				}
			}
			if index == 0 {
				continue
			}
			r, g, bl := p.bus.PaletteRGB(int(index))
			x := tileX*8 + px
			row[x*4+0] = r
			row[x*4+1] = g
			row[x*4+2] = bl
		}
	}
}
