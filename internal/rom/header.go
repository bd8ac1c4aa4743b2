package rom

import (
	"errors"
	"strings"
)

// The cartridge header occupies the first 0xC0 bytes of the image.
const headerSize = 0xC0

// Header holds the fields of a GBA cartridge header.
type Header struct {
	Title        string // 0xA0-0xAB, trimmed ASCII
	GameCode     string // 0xAC-0xAF
	MakerCode    string // 0xB0-0xB1
	FixedValue   byte   // 0xB2, always 0x96 on licensed carts
	MainUnitCode byte   // 0xB3
	Version      byte   // 0xBC
	Checksum     byte   // 0xBD, complement over 0xA0-0xBC
}

// ParseHeader reads the cartridge header. Images too small to contain one
// are rejected; a bad checksum is not an error (homebrew and test ROMs
// frequently skip it), use ChecksumOK for validation.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerSize {
		return nil, errors.New("ROM too small to contain header")
	}
	return &Header{
		Title:        strings.TrimRight(string(rom[0xA0:0xAC]), "\x00"),
		GameCode:     string(rom[0xAC:0xB0]),
		MakerCode:    string(rom[0xB0:0xB2]),
		FixedValue:   rom[0xB2],
		MainUnitCode: rom[0xB3],
		Version:      rom[0xBC],
		Checksum:     rom[0xBD],
	}, nil
}

// ChecksumOK recomputes the header complement check. The stored byte at
// 0xBD must equal -(sum(0xA0..0xBC) + 0x19).
func ChecksumOK(rom []byte) bool {
	if len(rom) < headerSize {
		return false
	}
	var sum byte
	for addr := 0xA0; addr <= 0xBC; addr++ {
		sum += rom[addr]
	}
	return rom[0xBD] == -(sum + 0x19)
}
