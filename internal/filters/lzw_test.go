package filters

import (
	"bytes"
	"compress/lzw"
	"math/rand"
	"testing"
)

// TestLZWDecodeEarlyChange decodes the example stream from the PDF
// reference, written with the default EarlyChange of 1.
func TestLZWDecodeEarlyChange(t *testing.T) {
	encoded := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}
	want := []byte{0x2D, 0x2D, 0x2D, 0x2D, 0x2D, 0x41, 0x2D, 0x2D, 0x2D, 0x42}

	decoded, err := LZWDecode(encoded, nil)
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, want) {
		t.Errorf("decoded = % X, want % X", decoded, want)
	}
}

// TestLZWDecodeNoEarlyChange round-trips through compress/lzw, which
// switches code widths late. The input is long enough to reach 12-bit
// codes and a table reset.
func TestLZWDecodeNoEarlyChange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	original := make([]byte, 40000)
	for i := range original {
		original[i] = "abcdefghijklmnop"[rng.Intn(16)]
	}

	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	w.Write(original)
	w.Close()

	decoded, err := LZWDecode(buf.Bytes(), Params{"EarlyChange": 0})
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(decoded), len(original))
	}
}

func TestLZWDecodeMissingEOD(t *testing.T) {
	// the reference example without its final EOD code
	encoded := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85}

	decoded, err := LZWDecode(encoded, nil)
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	want := []byte{0x2D, 0x2D, 0x2D, 0x2D, 0x2D, 0x41, 0x2D, 0x2D, 0x2D, 0x42}
	if !bytes.Equal(decoded, want) {
		t.Errorf("decoded = % X, want % X", decoded, want)
	}
}

func TestLZWDecodeInvalidCode(t *testing.T) {
	// clear, then code 300 which has not been defined yet
	encoded := []byte{0x80, 0x4B, 0x00}

	_, err := LZWDecode(encoded, nil)
	if err == nil {
		t.Fatal("expected error for undefined code")
	}
}
