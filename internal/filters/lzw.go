package filters

import (
	"github.com/pkg/errors"
)

const (
	lzwClear    = 256
	lzwEOD      = 257
	lzwMaxWidth = 12
)

// LZWDecode decompresses LZW data as written by PDF producers: MSB-first
// codes of 9 to 12 bits, with the width switching one code early unless
// EarlyChange is 0. Predictors are applied as for FlateDecode.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	return decodeLZW(data, params, 0)
}

func decodeLZW(data []byte, params Params, max int64) ([]byte, error) {
	early := getIntParam(params, "EarlyChange", 1)
	if early != 0 {
		early = 1
	}

	out := newLimitBuffer(max)
	var (
		table [1 << lzwMaxWidth][]byte
		next  int
		width uint
		prev  []byte
	)
	reset := func() {
		for i := 0; i < 256; i++ {
			table[i] = []byte{byte(i)}
		}
		for i := 256; i < len(table); i++ {
			table[i] = nil
		}
		next = 258
		width = 9
		prev = nil
	}
	reset()

	var acc uint32
	var nbits uint
	pos := 0
	for {
		for nbits < width && pos < len(data) {
			acc = acc<<8 | uint32(data[pos])
			nbits += 8
			pos++
		}
		if nbits < width {
			break // missing EOD is tolerated
		}
		code := int(acc>>(nbits-width)) & (1<<width - 1)
		nbits -= width

		if code == lzwClear {
			reset()
			continue
		}
		if code == lzwEOD {
			break
		}

		var entry []byte
		switch {
		case code < next && table[code] != nil:
			entry = table[code]
		case code == next && prev != nil:
			entry = make([]byte, len(prev)+1)
			copy(entry, prev)
			entry[len(prev)] = prev[0]
		default:
			return out.Bytes(), errors.Errorf("invalid LZW code %d", code)
		}
		if _, err := out.Write(entry); err != nil {
			return out.Bytes(), err
		}

		if prev != nil && next < len(table) {
			added := make([]byte, len(prev)+1)
			copy(added, prev)
			added[len(prev)] = entry[0]
			table[next] = added
			next++
		}
		prev = entry
		if next+early >= 1<<width && width < lzwMaxWidth {
			width++
		}
	}

	return applyPredictor(out.Bytes(), params, max)
}
