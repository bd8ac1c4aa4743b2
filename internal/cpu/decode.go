package cpu

// Kind is the instruction category an opcode word classifies into.
type Kind int

const (
	KindUnknown Kind = iota
	KindBranch
	KindDataProcessing
	KindLoadStore
	KindLoadStoreHalf
	KindBlockTransfer
	KindSoftwareInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindDataProcessing:
		return "data-processing"
	case KindLoadStore:
		return "load-store"
	case KindLoadStoreHalf:
		return "load-store-half"
	case KindBlockTransfer:
		return "block-transfer"
	case KindSoftwareInterrupt:
		return "swi"
	default:
		return "unknown"
	}
}

// Decode classifies a 32-bit ARM word using fixed bit-field masks. The
// order matters: the halfword-transfer pattern overlaps the data-processing
// space and must win when bits 7 and 4 are both set with a non-zero SH
// field (SH=00 there is the multiply family, which is not implemented).
func Decode(op uint32) Kind {
	switch {
	case op&0x0F000000 == 0x0F000000:
		return KindSoftwareInterrupt
	case op&0x0E000000 == 0x0A000000:
		return KindBranch
	case op&0x0E000000 == 0x08000000:
		return KindBlockTransfer
	case op&0x0C000000 == 0x04000000:
		return KindLoadStore
	case op&0x0E000090 == 0x00000090 && op>>5&3 != 0:
		return KindLoadStoreHalf
	case op&0x0C000000 == 0x00000000:
		return KindDataProcessing
	default:
		return KindUnknown
	}
}

// Data-processing opcode field values (bits 24-21) for the implemented
// subset. Anything else executes as a no-op.
const (
	opAND = 0x0
	opSUB = 0x2
	opADD = 0x4
	opTST = 0x8
	opCMP = 0xA
	opORR = 0xC
	opMOV = 0xD
)
