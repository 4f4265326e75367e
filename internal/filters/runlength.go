package filters

import (
	"github.com/pkg/errors"
)

// RunLengthDecode decodes the PackBits-style RunLengthDecode filter. A
// length byte L below 128 copies the next L+1 bytes, L above 128 repeats
// the next byte 257-L times, and 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	return decodeRunLength(data, nil, 0)
}

func decodeRunLength(data []byte, _ Params, max int64) ([]byte, error) {
	out := newLimitBuffer(max)
	for i := 0; i < len(data); {
		l := int(data[i])
		i++
		switch {
		case l == 128:
			return out.Bytes(), nil
		case l < 128:
			n := l + 1
			if i+n > len(data) {
				out.Write(data[i:])
				return out.Bytes(), errors.Errorf("literal run of %d bytes truncated", n)
			}
			if _, err := out.Write(data[i : i+n]); err != nil {
				return out.Bytes(), err
			}
			i += n
		default:
			if i >= len(data) {
				return out.Bytes(), errors.New("repeat run truncated")
			}
			run := make([]byte, 257-l)
			for j := range run {
				run[j] = data[i]
			}
			if _, err := out.Write(run); err != nil {
				return out.Bytes(), err
			}
			i++
		}
	}
	return out.Bytes(), nil
}
