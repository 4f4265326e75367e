package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"testing"
)

// zlibCompress compresses data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// TestFlateDecodeBasic tests basic zlib decompression
func TestFlateDecodeBasic(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")
	compressed := zlibCompress(original)

	decoded, err := FlateDecode(compressed, nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}

	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded data doesn't match original\ngot:  %s\nwant: %s", decoded, original)
	}
}

// TestFlateDecodeNoPredictor tests with Predictor=1 (no prediction)
func TestFlateDecodeNoPredictor(t *testing.T) {
	original := []byte("Test data with no predictor")
	compressed := zlibCompress(original)

	decoded, err := FlateDecode(compressed, Params{"Predictor": 1})
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}

	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded data doesn't match original")
	}
}

// TestFlateDecodeRawDeflate covers streams written without the zlib header.
func TestFlateDecodeRawDeflate(t *testing.T) {
	original := []byte("raw deflate data, no zlib wrapper")
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	w.Write(original)
	w.Close()

	decoded, err := FlateDecode(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded = %q, want %q", decoded, original)
	}
}

// TestFlateDecodeBadChecksum accepts data whose Adler-32 trailer is wrong.
func TestFlateDecodeBadChecksum(t *testing.T) {
	original := []byte("checksum will be damaged")
	compressed := zlibCompress(original)
	compressed[len(compressed)-1] ^= 0xff

	decoded, err := FlateDecode(compressed, nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded = %q, want %q", decoded, original)
	}
}

// TestFlateDecodeTruncated checks that data before the cut is returned.
func TestFlateDecodeTruncated(t *testing.T) {
	first := bytes.Repeat([]byte("first part of the stream. "), 200)
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(first)
	w.Flush()
	cut := buf.Len()
	w.Write(bytes.Repeat([]byte("second part "), 200))
	w.Close()

	decoded, err := FlateDecode(buf.Bytes()[:cut+4], nil)
	if err == nil {
		t.Fatal("expected error for truncated data")
	}
	if len(decoded) < len(first) || !bytes.Equal(decoded[:len(first)], first) {
		t.Errorf("partial output has %d bytes, want the first %d", len(decoded), len(first))
	}
}

func TestFlateDecodeLimit(t *testing.T) {
	compressed := zlibCompress(bytes.Repeat([]byte{'x'}, 10000))

	decoded, err := decodeFlate(compressed, nil, 100)
	if err == nil {
		t.Fatal("expected limit error")
	}
	if len(decoded) != 100 {
		t.Errorf("partial output has %d bytes, want 100", len(decoded))
	}
}

func TestPNGPredictors(t *testing.T) {
	params := Params{
		"Predictor":        10,
		"Columns":          3,
		"Colors":           1,
		"BitsPerComponent": 8,
	}

	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{
			name: "none",
			data: []byte{0, 1, 2, 3, 0, 4, 5, 6},
			want: []byte{1, 2, 3, 4, 5, 6},
		},
		{
			name: "sub",
			data: []byte{1, 10, 10, 10},
			want: []byte{10, 20, 30},
		},
		{
			name: "up",
			data: []byte{0, 1, 2, 3, 2, 1, 1, 1},
			want: []byte{1, 2, 3, 2, 3, 4},
		},
		{
			// row 2: 5+avg(0,10), 5+avg(10,20), 5+avg(20,30)
			name: "average",
			data: []byte{0, 10, 20, 30, 3, 5, 5, 5},
			want: []byte{10, 20, 30, 10, 20, 30},
		},
		{
			// Paeth picks the value above when the row repeats
			name: "paeth",
			data: []byte{0, 10, 20, 30, 4, 0, 0, 0},
			want: []byte{10, 20, 30, 10, 20, 30},
		},
		{
			name: "trailing partial row",
			data: []byte{0, 1, 2, 3, 0, 4},
			want: []byte{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := FlateDecode(zlibCompress(tt.data), params)
			if err != nil {
				t.Fatalf("FlateDecode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("decoded = %v, want %v", decoded, tt.want)
			}
		})
	}
}

// TestPNGPredictorMultiByte uses a 3-colour layout, so Sub reaches back
// three bytes.
func TestPNGPredictorMultiByte(t *testing.T) {
	params := Params{"Predictor": 11, "Columns": 2, "Colors": 3, "BitsPerComponent": 8}
	data := []byte{1, 10, 20, 30, 1, 2, 3}

	decoded, err := FlateDecode(zlibCompress(data), params)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	want := []byte{10, 20, 30, 11, 22, 33}
	if !bytes.Equal(decoded, want) {
		t.Errorf("decoded = %v, want %v", decoded, want)
	}
}

// TestTIFFPredictor2 tests TIFF Predictor 2
func TestTIFFPredictor2(t *testing.T) {
	// Original: [10, 20, 30, 40]
	// Encoded:  [10, 10, 10, 10] (differences)
	data := []byte{10, 10, 10, 10}

	params := Params{
		"Predictor":        2,
		"Columns":          4,
		"Colors":           1,
		"BitsPerComponent": 8,
	}

	decoded, err := FlateDecode(zlibCompress(data), params)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}

	expected := []byte{10, 20, 30, 40}
	if !bytes.Equal(decoded, expected) {
		t.Errorf("decoded data doesn't match\ngot:  %v\nwant: %v", decoded, expected)
	}
}

// TestPaethPredictor tests the Paeth predictor algorithm
func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		name     string
		a, b, c  byte
		expected byte
	}{
		// a=left, b=up, c=upper-left
		{"upper-left wins", 10, 20, 15, 15},
		{"upper-left wins mirrored", 20, 10, 15, 15},
		{"up wins", 15, 20, 10, 20},
		{"left wins", 20, 30, 30, 20},
		{"all zero", 0, 0, 0, 0},
		{"all same", 10, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := paethPredictor(tt.a, tt.b, tt.c)
			if result != tt.expected {
				t.Errorf("paethPredictor(%d, %d, %d) = %d, want %d",
					tt.a, tt.b, tt.c, result, tt.expected)
			}
		})
	}
}

// TestGetIntParam tests the parameter extraction helper
func TestGetIntParam(t *testing.T) {
	params := Params{
		"Columns": 100,
		"Colors":  int64(3),
		"Width":   2.0,
		"Name":    "x",
	}

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{"Columns", 1, 100},
		{"Colors", 1, 3},
		{"Width", 1, 2},
		{"Name", 7, 7},
		{"Missing", 42, 42},
	}
	for _, tt := range tests {
		if got := getIntParam(params, tt.key, tt.def); got != tt.want {
			t.Errorf("getIntParam(%s) = %d, want %d", tt.key, got, tt.want)
		}
	}

	if val := getIntParam(nil, "Any", 99); val != 99 {
		t.Errorf("getIntParam(nil) = %d, want 99", val)
	}
}

// TestFlateDecodeInvalidZlib tests error handling for invalid zlib data
func TestFlateDecodeInvalidZlib(t *testing.T) {
	invalidData := []byte("not zlib data")

	_, err := FlateDecode(invalidData, nil)
	if err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

func TestFlateDecodePredictorErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		params Params
	}{
		{"unsupported predictor", []byte("test"), Params{"Predictor": 99}},
		{"bad bits per component", []byte{0, 1, 2, 3}, Params{"Predictor": 10, "Columns": 3, "BitsPerComponent": 3}},
		{"bad PNG tag", []byte{7, 1, 2, 3}, Params{"Predictor": 10, "Columns": 3}},
		{"TIFF with 16 bits", []byte{0, 1, 0, 2}, Params{"Predictor": 2, "Columns": 2, "BitsPerComponent": 16}},
		{"zero colours", []byte{0, 1}, Params{"Predictor": 12, "Colors": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FlateDecode(zlibCompress(tt.data), tt.params)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}
