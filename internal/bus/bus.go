package bus

import "encoding/binary"

// Fixed address map. Each region decodes by address range; offsets inside a
// region wrap at its capacity so mirrored addresses resolve into the same
// storage.
const (
	BIOSBase = 0x00000000
	BIOSSize = 0x4000

	EWRAMBase = 0x02000000
	EWRAMSize = 0x40000

	IWRAMBase = 0x03000000
	IWRAMSize = 0x8000

	IOBase = 0x04000000
	IOSize = 0x400

	PaletteBase = 0x05000000
	PaletteSize = 0x400

	VRAMBase = 0x06000000
	VRAMSize = 0x18000

	OAMBase = 0x07000000
	OAMSize = 0x400

	ROMBase = 0x08000000
	ROMEnd  = 0x09FFFFFF
)

// IO register offsets within the 1KiB block at 0x04000000.
const (
	RegDISPCNT  = 0x000
	RegDISPSTAT = 0x004
	RegVCOUNT   = 0x006
	RegBG0CNT   = 0x008
	RegBG1CNT   = 0x00A
	RegBG2CNT   = 0x00C
	RegBG3CNT   = 0x00E
	RegKEYINPUT = 0x130
	RegWAITCNT  = 0x204
	RegIME      = 0x208
)

// Open-bus sentinels for cartridge reads with no (or too short an) image
// present. Boot code probes the cartridge space, so these must read back
// deterministically instead of faulting.
const (
	ROMOpenBus32 = 0xDEADBEEF
	ROMOpenBus16 = 0xFFFF
)

// IOWriteObserver is notified after every 16-bit store into the IO register
// block. The PPU and DMA controller attach themselves here so register side
// effects (render flushes, DMA triggers) happen inside the write call.
type IOWriteObserver interface {
	OnIOWrite(addr uint32, value uint16)
}

// region is a named fixed-capacity byte buffer with a base address.
type region struct {
	name string
	base uint32
	data []byte
}

func (r *region) offset(addr uint32) uint32 {
	return (addr - r.base) % uint32(len(r.data))
}

func (r *region) read8(addr uint32) byte {
	return r.data[r.offset(addr)]
}

func (r *region) read16(addr uint32) uint16 {
	return binary.LittleEndian.Uint16(r.data[r.offset(addr&^1):])
}

func (r *region) write8(addr uint32, v byte) {
	r.data[r.offset(addr)] = v
}

func (r *region) write16(addr uint32, v uint16) {
	binary.LittleEndian.PutUint16(r.data[r.offset(addr&^1):], v)
}

// Bus owns all memory regions and decodes every CPU-visible access into one
// of them. It never faults: unmapped or out-of-range accesses return
// sentinel values and writes to read-only space are dropped. Unaligned
// addresses are masked down, never trapped.
type Bus struct {
	bios    []byte // nil until a BIOS image is supplied
	ewram   region
	iwram   region
	io      region
	palette region
	vram    region
	oam     region
	rom     []byte

	// palCache[i] is the RGB888 expansion of the 15-bit entry at palette
	// index i, kept in sync on every palette write.
	palCache [512][3]byte

	observers []IOWriteObserver
}

func New() *Bus {
	return &Bus{
		ewram:   region{name: "ewram", base: EWRAMBase, data: make([]byte, EWRAMSize)},
		iwram:   region{name: "iwram", base: IWRAMBase, data: make([]byte, IWRAMSize)},
		io:      region{name: "io", base: IOBase, data: make([]byte, IOSize)},
		palette: region{name: "palette", base: PaletteBase, data: make([]byte, PaletteSize)},
		vram:    region{name: "vram", base: VRAMBase, data: make([]byte, VRAMSize)},
		oam:     region{name: "oam", base: OAMBase, data: make([]byte, OAMSize)},
	}
}

// AttachIOObserver registers an observer for IO register writes. Observers
// run in attach order, after the backing store has been updated.
func (b *Bus) AttachIOObserver(o IOWriteObserver) {
	b.observers = append(b.observers, o)
}

// SetBIOS installs an optional BIOS image. Only the first 16KiB are kept.
func (b *Bus) SetBIOS(data []byte) {
	if len(data) == 0 {
		b.bios = nil
		return
	}
	n := len(data)
	if n > BIOSSize {
		n = BIOSSize
	}
	b.bios = make([]byte, n)
	copy(b.bios, data[:n])
}

// SetROM replaces the cartridge ROM image wholesale.
func (b *Bus) SetROM(data []byte) { b.rom = data }

// ROMLen reports the length of the loaded cartridge image.
func (b *Bus) ROMLen() int { return len(b.rom) }

func (b *Bus) romOffset(addr, size uint32) (uint32, bool) {
	if len(b.rom) == 0 {
		return 0, false
	}
	off := (addr - ROMBase) % uint32(len(b.rom))
	if off+size > uint32(len(b.rom)) {
		return 0, false
	}
	return off, true
}

func (b *Bus) Read8(addr uint32) byte {
	switch {
	case addr < EWRAMBase:
		if addr >= BIOSSize || int(addr) >= len(b.bios) {
			return 0
		}
		return b.bios[addr]
	case addr < IWRAMBase:
		return b.ewram.read8(addr)
	case addr < IOBase:
		return b.iwram.read8(addr)
	case addr < PaletteBase:
		return b.io.read8(addr)
	case addr < VRAMBase:
		return b.palette.read8(addr)
	case addr < OAMBase:
		return b.vram.read8(addr)
	case addr < ROMBase:
		return b.oam.read8(addr)
	case addr <= ROMEnd:
		off, ok := b.romOffset(addr, 1)
		if !ok {
			return 0xFF
		}
		return b.rom[off]
	default:
		return 0
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	addr &^= 1
	switch {
	case addr < EWRAMBase:
		if addr+2 > BIOSSize || int(addr)+2 > len(b.bios) {
			return 0
		}
		return binary.LittleEndian.Uint16(b.bios[addr:])
	case addr < IWRAMBase:
		return b.ewram.read16(addr)
	case addr < IOBase:
		return b.iwram.read16(addr)
	case addr < PaletteBase:
		return b.io.read16(addr)
	case addr < VRAMBase:
		return b.palette.read16(addr)
	case addr < OAMBase:
		return b.vram.read16(addr)
	case addr < ROMBase:
		return b.oam.read16(addr)
	case addr <= ROMEnd:
		off, ok := b.romOffset(addr, 2)
		if !ok {
			return ROMOpenBus16
		}
		return binary.LittleEndian.Uint16(b.rom[off:])
	default:
		return 0
	}
}

func (b *Bus) Read32(addr uint32) uint32 {
	addr &^= 3
	if addr >= ROMBase && addr <= ROMEnd {
		off, ok := b.romOffset(addr, 4)
		if !ok {
			return ROMOpenBus32
		}
		return binary.LittleEndian.Uint32(b.rom[off:])
	}
	lo := uint32(b.Read16(addr))
	hi := uint32(b.Read16(addr + 2))
	return lo | hi<<16
}

func (b *Bus) Write8(addr uint32, v byte) {
	switch {
	case addr < EWRAMBase:
		// BIOS is read-only
	case addr < IWRAMBase:
		b.ewram.write8(addr, v)
	case addr < IOBase:
		b.iwram.write8(addr, v)
	case addr < PaletteBase:
		// Merge into the containing halfword so observers always see the
		// full 16-bit register value.
		half := addr &^ 1
		cur := b.io.read16(half)
		if addr&1 == 0 {
			cur = cur&0xFF00 | uint16(v)
		} else {
			cur = cur&0x00FF | uint16(v)<<8
		}
		b.Write16(half, cur)
	case addr < VRAMBase:
		b.palette.write8(addr, v)
		b.refreshPalette(b.palette.offset(addr) >> 1)
	case addr < OAMBase:
		b.vram.write8(addr, v)
	case addr < ROMBase:
		b.oam.write8(addr, v)
	default:
		// cartridge space is read-only
	}
}

func (b *Bus) Write16(addr uint32, v uint16) {
	addr &^= 1
	switch {
	case addr < EWRAMBase:
	case addr < IWRAMBase:
		b.ewram.write16(addr, v)
	case addr < IOBase:
		b.iwram.write16(addr, v)
	case addr < PaletteBase:
		b.io.write16(addr, v)
		for _, o := range b.observers {
			o.OnIOWrite(addr, v)
		}
	case addr < VRAMBase:
		b.palette.write16(addr, v)
		b.refreshPalette(b.palette.offset(addr) >> 1)
	case addr < OAMBase:
		b.vram.write16(addr, v)
	case addr < ROMBase:
		b.oam.write16(addr, v)
	default:
	}
}

// Write32 is composed of two 16-bit writes, low half first, so the IO write
// observer hook stays the single point of register side effects.
func (b *Bus) Write32(addr uint32, v uint32) {
	addr &^= 3
	b.Write16(addr, uint16(v))
	b.Write16(addr+2, uint16(v>>16))
}

// ReadIO16 reads a register from the IO block by offset.
func (b *Bus) ReadIO16(off uint32) uint16 {
	return b.io.read16(IOBase + off)
}

// StoreIO16 updates the IO backing store without dispatching observers.
// Hardware-side register updates (VCOUNT, DISPSTAT flags, DMA enable clear,
// KEYINPUT) go through here so they cannot retrigger themselves.
func (b *Bus) StoreIO16(off uint32, v uint16) {
	b.io.write16(IOBase+off, v)
}

// PaletteRGB returns the cached RGB888 expansion of palette entry i.
func (b *Bus) PaletteRGB(i int) (r, g, bl byte) {
	c := &b.palCache[i&511]
	return c[0], c[1], c[2]
}

// refreshPalette recomputes the cache entry for one 15-bit palette slot.
// Channel expansion replicates the top bits into the low bits so pure white
// maps to 0xFF, not 0xF8.
func (b *Bus) refreshPalette(index uint32) {
	v := binary.LittleEndian.Uint16(b.palette.data[index*2:])
	r5 := byte(v & 0x1F)
	g5 := byte(v >> 5 & 0x1F)
	b5 := byte(v >> 10 & 0x1F)
	b.palCache[index][0] = r5<<3 | r5>>2
	b.palCache[index][1] = g5<<3 | g5>>2
	b.palCache[index][2] = b5<<3 | b5>>2
}
