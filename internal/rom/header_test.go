package rom

import "testing"

func buildImage(title, code string) []byte {
	img := make([]byte, 0x100)
	copy(img[0xA0:], title)
	copy(img[0xAC:], code)
	copy(img[0xB0:], "01")
	img[0xB2] = 0x96
	var sum byte
	for addr := 0xA0; addr <= 0xBC; addr++ {
		sum += img[addr]
	}
	img[0xBD] = -(sum + 0x19)
	return img
}

func TestParseHeader(t *testing.T) {
	img := buildImage("TESTCART", "ATSE")
	h, err := ParseHeader(img)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "TESTCART" {
		t.Fatalf("title got %q want TESTCART", h.Title)
	}
	if h.GameCode != "ATSE" {
		t.Fatalf("game code got %q want ATSE", h.GameCode)
	}
	if h.FixedValue != 0x96 {
		t.Fatalf("fixed value got %02x want 96", h.FixedValue)
	}
}

func TestParseHeader_TooSmall(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x40)); err == nil {
		t.Fatalf("expected error for undersized image")
	}
}

func TestChecksumOK(t *testing.T) {
	img := buildImage("TESTCART", "ATSE")
	if !ChecksumOK(img) {
		t.Fatalf("valid checksum rejected")
	}
	img[0xA0] ^= 0xFF
	if ChecksumOK(img) {
		t.Fatalf("corrupted header accepted")
	}
}
