package cpu

import (
	"math/bits"

	"github.com/Notedsite/supergba/internal/bus"
)

// Register indices with an architectural role.
const (
	RegSP = 13
	RegLR = 14
	RegPC = 15
)

// Status register flag bits. Only N and Z are modeled; carry and overflow
// are a known limitation of this core.
const (
	FlagN uint32 = 1 << 31
	FlagZ uint32 = 1 << 30
)

// Default stack top in internal WRAM, where the BIOS leaves SP for user code.
const defaultSP = 0x03007F00

// SWI service numbers (ARM-state convention: bits 16-23 of the comment).
const (
	swiCpuSet     = 0x0B
	swiCpuFastSet = 0x0C
)

// CPU is an ARM7TDMI-class interpreter core for a representative subset of
// the ARM instruction set. R15 holds the fetch address plus 8, the classic
// pipeline offset; the instruction executing is always at R15-8.
//
// Condition codes other than "always" are not evaluated and every opcode
// executes unconditionally. Unknown encodings consume a cycle and advance
// the PC with no other effect, so execution never stalls on partial
// coverage.
type CPU struct {
	R    [16]uint32
	CPSR uint32

	bus *bus.Bus
}

func New(b *bus.Bus) *CPU {
	c := &CPU{bus: b}
	c.Reset(bus.ROMBase)
	return c
}

// Reset clears all registers and starts fetching at entry.
func (c *CPU) Reset(entry uint32) {
	c.R = [16]uint32{}
	c.CPSR = 0
	c.R[RegSP] = defaultSP
	c.R[RegPC] = entry + 8
}

// PC returns the address of the instruction currently being executed.
func (c *CPU) PC() uint32 { return c.R[RegPC] - 8 }

// Bus exposes the underlying bus for tests/tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

func (c *CPU) setNZ(result uint32) {
	c.CPSR &^= FlagN | FlagZ
	if result == 0 {
		c.CPSR |= FlagZ
	}
	if result&1<<31 != 0 {
		c.CPSR |= FlagN
	}
}

// reg reads a register as an instruction operand. R15 reads as the
// executing instruction's address plus 8.
func (c *CPU) reg(i uint32, iaddr uint32) uint32 {
	if i == RegPC {
		return iaddr + 8
	}
	return c.R[i]
}

// setPC redirects execution to target, re-establishing the pipeline offset.
func (c *CPU) setPC(target uint32) {
	c.R[RegPC] = (target &^ 3) + 8
}

// Step fetches, decodes and executes exactly one instruction, returning the
// cycle count it consumed. The PC advances by 4 afterwards unless the
// instruction redirected control flow. Step never panics: malformed or
// out-of-range accesses resolve through the bus sentinel policy.
func (c *CPU) Step() int {
	iaddr := c.R[RegPC] - 8
	op := c.bus.Read32(iaddr)

	var branched bool
	cycles := 1
	switch Decode(op) {
	case KindBranch:
		branched = c.execBranch(op, iaddr)
		cycles = 3
	case KindDataProcessing:
		branched = c.execDataProcessing(op, iaddr)
	case KindLoadStore:
		branched = c.execLoadStore(op, iaddr)
		cycles = 3
	case KindLoadStoreHalf:
		branched = c.execLoadStoreHalf(op, iaddr)
		cycles = 3
	case KindBlockTransfer:
		cycles = c.execBlockTransfer(op, iaddr)
	case KindSoftwareInterrupt:
		cycles = c.execSoftwareInterrupt(op)
	case KindUnknown:
		// silent no-op
	}
	if !branched {
		c.R[RegPC] += 4
	}
	return cycles
}

// execBranch handles B/BL. The 24-bit word offset is shifted left twice and
// sign-extended; the target is relative to the executing address plus 8.
func (c *CPU) execBranch(op, iaddr uint32) bool {
	offset := uint32(int32(op<<8) >> 6)
	if op&1<<24 != 0 { // BL
		c.R[RegLR] = iaddr + 4
	}
	c.setPC(iaddr + 8 + offset)
	return true
}

// shiftedOperand applies the barrel shifter for a register operand 2 with
// an immediate shift amount. Shift-by-register forms are not implemented
// and read as an unshifted register.
func (c *CPU) shiftedOperand(op, iaddr uint32) uint32 {
	v := c.reg(op&0xF, iaddr)
	if op&1<<4 != 0 { // shift amount in register: unimplemented
		return v
	}
	amount := op >> 7 & 0x1F
	switch op >> 5 & 3 {
	case 0: // LSL
		return v << amount
	case 1: // LSR; amount 0 encodes LSR #32
		if amount == 0 {
			return 0
		}
		return v >> amount
	case 2: // ASR; amount 0 encodes ASR #32
		if amount == 0 {
			amount = 32
		}
		return uint32(int64(int32(v)) >> amount)
	default: // ROR
		return bits.RotateLeft32(v, -int(amount))
	}
}

func (c *CPU) execDataProcessing(op, iaddr uint32) bool {
	opcode := op >> 21 & 0xF
	setFlags := op&1<<20 != 0
	rn := op >> 16 & 0xF
	rd := op >> 12 & 0xF

	var op2 uint32
	if op&1<<25 != 0 { // rotated 8-bit immediate
		rot := op >> 8 & 0xF
		op2 = bits.RotateLeft32(op&0xFF, -int(rot*2))
	} else {
		op2 = c.shiftedOperand(op, iaddr)
	}
	op1 := c.reg(rn, iaddr)

	var result uint32
	writeRd := true
	switch opcode {
	case opAND:
		result = op1 & op2
	case opSUB:
		result = op1 - op2
	case opADD:
		result = op1 + op2
	case opORR:
		result = op1 | op2
	case opMOV:
		result = op2
	case opTST:
		result = op1 & op2
		writeRd = false
		setFlags = true
	case opCMP:
		result = op1 - op2
		writeRd = false
		setFlags = true
	default:
		// unimplemented ALU op: no-op
		return false
	}

	if setFlags {
		c.setNZ(result)
	}
	if !writeRd {
		return false
	}
	if rd == RegPC {
		c.setPC(result)
		return true
	}
	c.R[rd] = result
	return false
}

// execLoadStore handles LDR/STR/LDRB/STRB with a 12-bit immediate or
// shifted-register offset, honoring pre/post indexing, the up/down bit and
// base writeback.
func (c *CPU) execLoadStore(op, iaddr uint32) bool {
	pre := op&1<<24 != 0
	up := op&1<<23 != 0
	byteWide := op&1<<22 != 0
	writeback := op&1<<21 != 0
	load := op&1<<20 != 0
	rn := op >> 16 & 0xF
	rd := op >> 12 & 0xF

	var offset uint32
	if op&1<<25 != 0 {
		offset = c.shiftedOperand(op, iaddr)
	} else {
		offset = op & 0xFFF
	}

	base := c.reg(rn, iaddr)
	indexed := base
	if up {
		indexed += offset
	} else {
		indexed -= offset
	}
	addr := base
	if pre {
		addr = indexed
	}
	if !pre || writeback {
		if rn != RegPC {
			c.R[rn] = indexed
		}
	}

	if load {
		var v uint32
		if byteWide {
			v = uint32(c.bus.Read8(addr))
		} else {
			v = c.bus.Read32(addr)
		}
		if rd == RegPC {
			c.setPC(v)
			return true
		}
		c.R[rd] = v
		return false
	}
	v := c.reg(rd, iaddr)
	if byteWide {
		c.bus.Write8(addr, byte(v))
	} else {
		c.bus.Write32(addr, v)
	}
	return false
}

// execLoadStoreHalf handles LDRH/STRH with the split 8-bit immediate or a
// register offset. Signed variants (SH=10,11) are not implemented and
// execute as no-ops.
func (c *CPU) execLoadStoreHalf(op, iaddr uint32) bool {
	if op>>5&3 != 1 {
		return false
	}
	pre := op&1<<24 != 0
	up := op&1<<23 != 0
	immediate := op&1<<22 != 0
	writeback := op&1<<21 != 0
	load := op&1<<20 != 0
	rn := op >> 16 & 0xF
	rd := op >> 12 & 0xF

	var offset uint32
	if immediate {
		offset = op>>4&0xF0 | op&0xF
	} else {
		offset = c.reg(op&0xF, iaddr)
	}

	base := c.reg(rn, iaddr)
	indexed := base
	if up {
		indexed += offset
	} else {
		indexed -= offset
	}
	addr := base
	if pre {
		addr = indexed
	}
	if !pre || writeback {
		if rn != RegPC {
			c.R[rn] = indexed
		}
	}

	if load {
		v := uint32(c.bus.Read16(addr))
		if rd == RegPC {
			c.setPC(v)
			return true
		}
		c.R[rd] = v
		return false
	}
	c.bus.Write16(addr, uint16(c.reg(rd, iaddr)))
	return false
}

// execBlockTransfer handles STM over a 16-bit register mask. Registers are
// always stored lowest-numbered at the lowest address; decrement addressing
// only shifts the range downwards. LDM is not implemented and executes as
// a no-op. Returns the cycle count.
func (c *CPU) execBlockTransfer(op, iaddr uint32) int {
	if op&1<<20 != 0 { // LDM: unimplemented
		return 1
	}
	pre := op&1<<24 != 0
	up := op&1<<23 != 0
	writeback := op&1<<21 != 0
	rn := op >> 16 & 0xF
	mask := op & 0xFFFF

	n := uint32(bits.OnesCount32(mask))
	if n == 0 {
		return 1
	}
	base := c.reg(rn, iaddr)

	var start uint32
	switch {
	case up && pre: // STMIB
		start = base + 4
	case up && !pre: // STMIA
		start = base
	case !up && pre: // STMDB
		start = base - 4*n
	default: // STMDA
		start = base - 4*n + 4
	}

	addr := start
	for i := uint32(0); i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		c.bus.Write32(addr, c.reg(i, iaddr))
		addr += 4
	}

	if writeback && rn != RegPC {
		if up {
			c.R[rn] = base + 4*n
		} else {
			c.R[rn] = base - 4*n
		}
	}
	return int(n) + 1
}

// execSoftwareInterrupt dispatches BIOS services on the SWI comment field.
// CpuSet is the block copy/fill the boot path uses to populate palette RAM
// and VRAM. Unknown services are no-ops. Returns the cycle count.
func (c *CPU) execSoftwareInterrupt(op uint32) int {
	switch op >> 16 & 0xFF {
	case swiCpuSet:
		return c.cpuSet(false)
	case swiCpuFastSet:
		return c.cpuSet(true)
	default:
		return 1
	}
}

// cpuSet implements the CpuSet/CpuFastSet transfer: R0 = source, R1 =
// destination, R2 = control (bits 0-20 unit count, bit 24 fill-vs-copy,
// bit 26 unit size for CpuSet; CpuFastSet always moves words).
func (c *CPU) cpuSet(fast bool) int {
	src := c.R[0]
	dst := c.R[1]
	ctl := c.R[2]
	count := ctl & 0x1FFFFF
	fill := ctl&1<<24 != 0
	words := fast || ctl&1<<26 != 0

	unit := uint32(2)
	if words {
		unit = 4
	}
	for i := uint32(0); i < count; i++ {
		from := src
		if !fill {
			from = src + i*unit
		}
		if words {
			c.bus.Write32(dst+i*unit, c.bus.Read32(from))
		} else {
			c.bus.Write16(dst+i*unit, c.bus.Read16(from))
		}
	}
	return int(count) + 8
}
