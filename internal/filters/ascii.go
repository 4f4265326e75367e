package filters

import (
	"github.com/pkg/errors"
)

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, and > marks end of data.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	return decodeASCIIHex(data, nil, 0)
}

func decodeASCIIHex(data []byte, _ Params, max int64) ([]byte, error) {
	out := newLimitBuffer(max)

	var hi byte
	odd := false
	for i, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, ok := hexDigit(c)
		if !ok {
			return out.Bytes(), errors.Errorf("invalid hex digit %q at %d", c, i)
		}
		if !odd {
			hi = v
			odd = true
			continue
		}
		if err := out.WriteByte(hi<<4 | v); err != nil {
			return out.Bytes(), err
		}
		odd = false
	}
	if odd {
		// odd number of digits: assume a trailing 0
		if err := out.WriteByte(hi << 4); err != nil {
			return out.Bytes(), err
		}
	}
	return out.Bytes(), nil
}

// ASCII85Decode decodes ASCII base-85 (Ascii85) encoded data.
// Each group of 5 ASCII characters (! to u, values 33-117) represents 4 bytes.
// The special character 'z' represents four zero bytes. The sequence ~> marks
// end of data.
func ASCII85Decode(data []byte) ([]byte, error) {
	return decodeASCII85(data, nil, 0)
}

func decodeASCII85(data []byte, _ Params, max int64) ([]byte, error) {
	out := newLimitBuffer(max)

	var group [5]byte
	n := 0
	flush := func(count int) error {
		for i := count; i < 5; i++ {
			group[i] = 84 // pad with 'u'
		}
		var v uint64
		for _, d := range group {
			v = v*85 + uint64(d)
		}
		if v > 0xffffffff {
			return errors.New("ASCII85 group overflows 32 bits")
		}
		b := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		_, err := out.Write(b[:count-1])
		return err
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] != '>' {
				return out.Bytes(), errors.Errorf("invalid ASCII85 end marker at %d", i)
			}
			i = len(data)
			continue
		case c == 'z' && n == 0:
			if _, err := out.Write([]byte{0, 0, 0, 0}); err != nil {
				return out.Bytes(), err
			}
			continue
		case c < '!' || c > 'u':
			return out.Bytes(), errors.Errorf("invalid ASCII85 character %q at %d", c, i)
		}

		group[n] = c - '!'
		n++
		if n == 5 {
			if err := flush(5); err != nil {
				return out.Bytes(), err
			}
			n = 0
		}
	}

	switch n {
	case 0:
	case 1:
		return out.Bytes(), errors.New("ASCII85 data ends with a single character group")
	default:
		if err := flush(n); err != nil {
			return out.Bytes(), err
		}
	}
	return out.Bytes(), nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
