package ppu

import (
	"testing"

	"github.com/Notedsite/supergba/internal/bus"
)

func pixelAt(fb []byte, x, y int) (r, g, b byte) {
	i := (y*ScreenWidth + x) * 4
	return fb[i], fb[i+1], fb[i+2]
}

// renderFrame runs two full frames: the render queue is exclusive of the
// line it last stopped on, so line 0 only lands in the buffer once the
// second frame's flush wraps past it.
func renderFrame(p *PPU) {
	p.Advance(CyclesPerLine * TotalLines * 2)
}

func TestScanline_Mode3Pixel(t *testing.T) {
	p, b := newTestPPU()
	b.Write16(bus.IOBase+bus.RegDISPCNT, 3)

	// 15-bit color with distinct channels: r=0x1F g=0x10 b=0x01
	const c15 = 0x1F | 0x10<<5 | 0x01<<10
	b.Write16(bus.VRAMBase+uint32(17*ScreenWidth+23)*2, c15)

	renderFrame(p)
	r, g, bl := pixelAt(p.Framebuffer(), 23, 17)
	if r != 0xFF {
		t.Fatalf("red got %02x want FF", r)
	}
	if g != 0x84 { // (0x10<<3)|(0x10>>2)
		t.Fatalf("green got %02x want 84", g)
	}
	if bl != 0x08 { // (0x01<<3)|(0x01>>2)
		t.Fatalf("blue got %02x want 08", bl)
	}
}

func TestScanline_BackdropAndForcedBlank(t *testing.T) {
	p, b := newTestPPU()
	b.Write16(bus.PaletteBase, 0x03E0) // green backdrop
	b.Write16(bus.IOBase+bus.RegDISPCNT, 3|1<<7)
	b.Write16(bus.VRAMBase+uint32(40*ScreenWidth+40)*2, 0x7FFF)

	renderFrame(p)
	// Forced blank: even the written bitmap pixel renders as backdrop
	r, g, bl := pixelAt(p.Framebuffer(), 40, 40)
	if r != 0 || g != 0xFF || bl != 0 {
		t.Fatalf("forced blank pixel got %02x,%02x,%02x want green backdrop", r, g, bl)
	}
}

func TestScanline_UnimplementedModeRendersBackdrop(t *testing.T) {
	p, b := newTestPPU()
	b.Write16(bus.PaletteBase, 0x7C00) // blue backdrop
	b.Write16(bus.IOBase+bus.RegDISPCNT, 5)

	renderFrame(p)
	r, g, bl := pixelAt(p.Framebuffer(), 0, 0)
	if r != 0 || g != 0 || bl != 0xFF {
		t.Fatalf("mode 5 pixel got %02x,%02x,%02x want blue backdrop", r, g, bl)
	}
}

// writeTile4bpp fills one 8x8 4bpp tile with a single palette index.
func writeTile4bpp(b *bus.Bus, charBase uint32, tile uint32, index byte) {
	v := index&0xF | index<<4
	for i := uint32(0); i < 32; i++ {
		b.Write8(charBase+tile*32+i, v)
	}
}

func TestScanline_Mode0TiledBackground(t *testing.T) {
	p, b := newTestPPU()

	// Backdrop red, palette bank 2 entry 1 white
	b.Write16(bus.PaletteBase, 0x001F)
	b.Write16(bus.PaletteBase+(2*16+1)*2, 0x7FFF)

	// BG0: char base block 1, screen base block 2, 4bpp
	b.Write16(bus.IOBase+bus.RegBG0CNT, 1<<2|2<<8)
	charBase := uint32(bus.VRAMBase + 0x4000)
	screenBase := uint32(bus.VRAMBase + 2*0x800)

	// Tile 5 painted with palette index 1, mapped at tile column 3, row 2
	// with palette bank 2
	writeTile4bpp(b, charBase, 5, 1)
	b.Write16(screenBase+(2*32+3)*2, 5|2<<12)

	// Enable BG0, mode 0
	b.Write16(bus.IOBase+bus.RegDISPCNT, dispcntBG0Enable)

	renderFrame(p)
	fb := p.Framebuffer()

	// Inside the tile: white
	if r, g, bl := pixelAt(fb, 3*8+4, 2*8+4); r != 0xFF || g != 0xFF || bl != 0xFF {
		t.Fatalf("tile pixel got %02x,%02x,%02x want white", r, g, bl)
	}
	// Outside: backdrop red (tile 0 is all index 0, transparent)
	if r, g, bl := pixelAt(fb, 0, 0); r != 0xFF || g != 0 || bl != 0 {
		t.Fatalf("outside pixel got %02x,%02x,%02x want red", r, g, bl)
	}
}

func TestScanline_Mode0TileFlips(t *testing.T) {
	p, b := newTestPPU()

	b.Write16(bus.PaletteBase+2, 0x7FFF) // entry 1 white

	// Tile 1: only the top-left pixel set (index 1), rest transparent
	charBase := uint32(bus.VRAMBase)
	b.Write8(charBase+1*32, 0x01)

	screenBase := uint32(bus.VRAMBase + 1*0x800)
	b.Write16(bus.IOBase+bus.RegBG0CNT, 1<<8)

	// Three copies: plain, h-flipped, hv-flipped, at tile columns 0,1,2
	b.Write16(screenBase+0*2, 1)
	b.Write16(screenBase+1*2, 1|1<<10)
	b.Write16(screenBase+2*2, 1|1<<10|1<<11)

	b.Write16(bus.IOBase+bus.RegDISPCNT, dispcntBG0Enable)

	renderFrame(p)
	fb := p.Framebuffer()

	white := func(x, y int) bool {
		r, g, bl := pixelAt(fb, x, y)
		return r == 0xFF && g == 0xFF && bl == 0xFF
	}
	if !white(0, 0) {
		t.Fatalf("plain tile: (0,0) not set")
	}
	if !white(8+7, 0) {
		t.Fatalf("h-flip tile: (15,0) not set")
	}
	if white(8, 0) {
		t.Fatalf("h-flip tile: (8,0) unexpectedly set")
	}
	if !white(16+7, 7) {
		t.Fatalf("hv-flip tile: (23,7) not set")
	}
}

func TestScanline_Mode0LayerOrder(t *testing.T) {
	p, b := newTestPPU()

	// BG3 paints entry 1 (red), BG0 paints entry 2 (white); BG0 must win.
	b.Write16(bus.PaletteBase+2, 0x001F)
	b.Write16(bus.PaletteBase+4, 0x7FFF)

	charBase := uint32(bus.VRAMBase)
	writeTile4bpp(b, charBase, 1, 1)
	writeTile4bpp(b, charBase, 2, 2)

	// BG3 on screen block 1, BG0 on screen block 2, shared char base 0
	b.Write16(bus.IOBase+bus.RegBG3CNT, 1<<8)
	b.Write16(bus.IOBase+bus.RegBG0CNT, 2<<8)
	b.Write16(bus.VRAMBase+1*0x800, 1) // BG3 map (0,0) -> tile 1
	b.Write16(bus.VRAMBase+2*0x800, 2) // BG0 map (0,0) -> tile 2

	b.Write16(bus.IOBase+bus.RegDISPCNT, dispcntBG0Enable|dispcntBG0Enable<<3)

	renderFrame(p)
	if r, g, bl := pixelAt(p.Framebuffer(), 0, 0); r != 0xFF || g != 0xFF || bl != 0xFF {
		t.Fatalf("layer order: got %02x,%02x,%02x want BG0 white on top", r, g, bl)
	}
}

func TestScanline_Mode08bppTiles(t *testing.T) {
	p, b := newTestPPU()

	b.Write16(bus.PaletteBase+0x47*2, 0x7FFF) // raw byte value indexes palette

	charBase := uint32(bus.VRAMBase)
	// Tile 1 at 8bpp: 64 bytes, all 0x47
	for i := uint32(0); i < 64; i++ {
		b.Write8(charBase+64+i, 0x47)
	}
	b.Write16(bus.IOBase+bus.RegBG0CNT, 1<<7|1<<8) // 8bpp, screen block 1
	b.Write16(bus.VRAMBase+1*0x800, 1)
	b.Write16(bus.IOBase+bus.RegDISPCNT, dispcntBG0Enable)

	renderFrame(p)
	if r, g, bl := pixelAt(p.Framebuffer(), 4, 4); r != 0xFF || g != 0xFF || bl != 0xFF {
		t.Fatalf("8bpp pixel got %02x,%02x,%02x want white", r, g, bl)
	}
}
