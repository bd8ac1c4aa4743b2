// Package gba wires the bus, CPU, PPU and DMA controller into one machine
// and drives them one frame at a time.
package gba

import (
	"errors"

	"github.com/Notedsite/supergba/internal/bus"
	"github.com/Notedsite/supergba/internal/cpu"
	"github.com/Notedsite/supergba/internal/dma"
	"github.com/Notedsite/supergba/internal/ppu"
)

// ErrEmptyROM is reported when a zero-length image is handed to LoadROM.
// It is the one load-time contract violation; everything else the core
// absorbs with sentinel reads.
var ErrEmptyROM = errors.New("empty ROM image")

// CyclesPerFrame is the display period the per-frame loop budgets against.
const CyclesPerFrame = ppu.CyclesPerLine * ppu.TotalLines

// KEYINPUT is active low: a set bit means the key is up.
const keysReleased = 0x03FF

// Buttons is the host-side key state for one frame.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
	L, R                  bool
}

// KEYINPUT bit positions.
const (
	KeyA = 1 << iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL
)

// Machine owns one core instance: all mutable state is single-threaded and
// mutated strictly in program order, so a fixed ROM+BIOS pair replays
// deterministically.
type Machine struct {
	cfg Config

	bus *bus.Bus
	cpu *cpu.CPU
	ppu *ppu.PPU
	dma *dma.Controller
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	b := bus.New()
	p := ppu.New(b)
	d := dma.New(b)
	b.AttachIOObserver(p)
	b.AttachIOObserver(d)
	b.StoreIO16(bus.RegKEYINPUT, keysReleased)
	return &Machine{
		cfg: cfg,
		bus: b,
		cpu: cpu.New(b),
		ppu: p,
		dma: d,
	}
}

// LoadROM replaces the cartridge image and resets the CPU and PPU to boot
// state. A zero-length image is rejected and leaves all prior state
// untouched.
func (m *Machine) LoadROM(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyROM
	}
	m.bus.SetROM(data)
	m.Reset()
	return nil
}

// Reset restarts execution from the cartridge entry point, keeping the
// loaded ROM and BIOS images.
func (m *Machine) Reset() {
	m.cpu.Reset(bus.ROMBase)
	m.ppu.Reset()
	m.bus.StoreIO16(bus.RegKEYINPUT, keysReleased)
}

// LoadBIOS installs an optional BIOS image. Without one, BIOS reads return
// zero and execution starts straight at the cartridge entry point.
func (m *Machine) LoadBIOS(data []byte) {
	m.bus.SetBIOS(data)
}

// StepFrame advances the machine by one display frame: it alternates one
// CPU instruction and a matching PPU advance until the frame's cycle or
// instruction budget runs out. The bound guarantees the host regains
// control every frame regardless of what the ROM does.
func (m *Machine) StepFrame() {
	budget := CyclesPerFrame
	for instr := 0; budget > 0 && instr < m.cfg.MaxInstructionsPerFrame; instr++ {
		cycles := m.cpu.Step()
		m.ppu.Advance(cycles)
		budget -= cycles
	}
}

// Framebuffer returns the PPU's 240x160 RGBA pixel buffer. It is valid
// until the next StepFrame.
func (m *Machine) Framebuffer() []byte { return m.ppu.Framebuffer() }

// SetButtons folds host key state into the active-low KEYINPUT register.
func (m *Machine) SetButtons(b Buttons) {
	mask := uint16(keysReleased)
	press := func(down bool, bit uint16) {
		if down {
			mask &^= bit
		}
	}
	press(b.A, KeyA)
	press(b.B, KeyB)
	press(b.Select, KeySelect)
	press(b.Start, KeyStart)
	press(b.Right, KeyRight)
	press(b.Left, KeyLeft)
	press(b.Up, KeyUp)
	press(b.Down, KeyDown)
	press(b.R, KeyR)
	press(b.L, KeyL)
	m.bus.StoreIO16(bus.RegKEYINPUT, mask)
}

// Bus exposes the memory bus for tests/tools.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Debug state for the host overlay.

// PC returns the address of the instruction the CPU will execute next.
func (m *Machine) PC() uint32 { return m.cpu.PC() }

// CPSR returns the status register.
func (m *Machine) CPSR() uint32 { return m.cpu.CPSR }

// Scanline returns the PPU's current line (what VCOUNT reads).
func (m *Machine) Scanline() int { return m.ppu.Line() }
