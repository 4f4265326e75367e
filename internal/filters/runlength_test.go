package filters

import (
	"bytes"
	"testing"
)

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
		want    []byte
	}{
		{"literal", []byte{2, 'a', 'b', 'c', 128}, []byte("abc")},
		{"repeat", []byte{254, 'x', 128}, []byte("xxx")},
		{"mixed", []byte{0, 'a', 255, 'b', 1, 'c', 'd', 128}, []byte("abbcd")},
		{"longest repeat", []byte{129, 'z', 128}, bytes.Repeat([]byte("z"), 128)},
		{"no EOD", []byte{1, 'h', 'i'}, []byte("hi")},
		{"data after EOD", []byte{0, 'a', 128, 0, 'b'}, []byte("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.encoded)
			if err != nil {
				t.Fatalf("RunLengthDecode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("RunLengthDecode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunLengthDecodeTruncated(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
		partial []byte
	}{
		{"literal", []byte{0, 'a', 4, 'b', 'c'}, []byte("abc")},
		{"repeat", []byte{0, 'a', 250}, []byte("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.encoded)
			if err == nil {
				t.Fatal("expected error for truncated run")
			}
			if !bytes.Equal(got, tt.partial) {
				t.Errorf("partial output = %q, want %q", got, tt.partial)
			}
		})
	}
}
