package ppu

import "github.com/Notedsite/supergba/internal/bus"

const (
	ScreenWidth  = 240
	ScreenHeight = 160

	// TotalLines covers the visible frame plus the vertical blanking
	// interval; VCOUNT wraps at this value.
	TotalLines = 228

	// CyclesPerLine is the full scanline period; the last HBlankCycles of
	// it are the horizontal blanking tail.
	CyclesPerLine = 1232
	HBlankCycles  = 272
)

// DISPSTAT bits.
const (
	statVBlank = 1 << 0
	statHBlank = 1 << 1
	statVMatch = 1 << 2

	// Bits the CPU may set: interrupt enables and the VCOUNT match value.
	statWritableMask = 0xFF38
)

// DISPCNT bits.
const (
	dispcntModeMask    = 0x0007
	dispcntForcedBlank = 1 << 7
	dispcntBG0Enable   = 1 << 8 // BG1-3 follow in bits 9-11
)

// PPU owns display timing and the frame pixel buffer. Rendering is
// deferred: scanlines accumulate unrendered until the queue is flushed,
// either on entering the vertical blank or on a write to a register the
// renderer consumes, so each line reflects register state as of the time it
// was on screen.
type PPU struct {
	bus *bus.Bus
	fb  []byte // ScreenWidth*ScreenHeight RGBA, alpha always 0xFF

	line         int // current scanline, 0..TotalLines-1
	cyclesLeft   int // budget remaining in the current scanline
	lastRendered int // last scanline flushed into fb

	// register mirrors
	dispcnt  uint16
	dispstat uint16
	bgcnt    [4]uint16
}

func New(b *bus.Bus) *PPU {
	p := &PPU{
		bus: b,
		fb:  make([]byte, ScreenWidth*ScreenHeight*4),
	}
	p.Reset()
	return p
}

// Reset restarts timing at the top of the frame and clears register
// mirrors. Pixel buffer contents are left to the next flush.
func (p *PPU) Reset() {
	p.line = 0
	p.cyclesLeft = CyclesPerLine
	p.lastRendered = 0
	p.dispcnt = 0
	p.dispstat = 0
	p.bgcnt = [4]uint16{}
	for i := 3; i < len(p.fb); i += 4 {
		p.fb[i] = 0xFF
	}
	p.bus.StoreIO16(bus.RegVCOUNT, 0)
	p.syncStatus()
}

// Framebuffer returns the RGBA pixel buffer. The caller must not retain it
// past one frame; the next flush overwrites it in place.
func (p *PPU) Framebuffer() []byte { return p.fb }

// Line returns the current scanline (what VCOUNT reads).
func (p *PPU) Line() int { return p.line }

// Advance consumes cycles from the scanline budget, stepping VCOUNT and the
// blanking flags across however many line boundaries the budget crossed.
// Entering the vertical blank flushes the render queue for the frame.
func (p *PPU) Advance(cycles int) {
	p.cyclesLeft -= cycles
	for p.cyclesLeft <= 0 {
		p.cyclesLeft += CyclesPerLine
		p.line = (p.line + 1) % TotalLines
		p.bus.StoreIO16(bus.RegVCOUNT, uint16(p.line))
		if p.line == ScreenHeight {
			p.FlushRenderQueue()
		}
	}
	p.syncStatus()
}

// OnIOWrite implements bus.IOWriteObserver. Writes to registers the
// scanline renderer reads flush pending lines first, so lines already
// elapsed render with the pre-write values.
func (p *PPU) OnIOWrite(addr uint32, value uint16) {
	switch addr - bus.IOBase {
	case bus.RegDISPCNT:
		p.FlushRenderQueue()
		p.dispcnt = value
	case bus.RegBG0CNT, bus.RegBG1CNT, bus.RegBG2CNT, bus.RegBG3CNT:
		p.FlushRenderQueue()
		p.bgcnt[(addr-bus.IOBase-bus.RegBG0CNT)/2] = value
	case bus.RegDISPSTAT:
		p.dispstat = p.dispstat&^statWritableMask | value&statWritableMask
		p.syncStatus()
	case bus.RegVCOUNT:
		// read-only; restore the live value
		p.bus.StoreIO16(bus.RegVCOUNT, uint16(p.line))
	}
}

// FlushRenderQueue renders every scanline after the last flushed one up to
// and including the current line, wrapping at the frame boundary, then
// marks the queue empty. Only visible lines produce pixels.
func (p *PPU) FlushRenderQueue() {
	for l := p.lastRendered; l != p.line; {
		l = (l + 1) % TotalLines
		if l < ScreenHeight {
			p.renderScanline(l)
		}
	}
	p.lastRendered = p.line
}

// syncStatus recomputes the DISPSTAT hardware flags and pushes the register
// into the bus backing store.
func (p *PPU) syncStatus() {
	p.dispstat &^= statVBlank | statHBlank | statVMatch
	if p.line >= ScreenHeight {
		p.dispstat |= statVBlank
	}
	if p.cyclesLeft <= HBlankCycles {
		p.dispstat |= statHBlank
	}
	if p.line == int(p.dispstat>>8) {
		p.dispstat |= statVMatch
	}
	p.bus.StoreIO16(bus.RegDISPSTAT, p.dispstat)
}
