package core

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// pdfDocEncoding maps the bytes where PDFDocEncoding differs from Latin-1.
var pdfDocEncoding = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙', 0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰', 0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł', 0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž',
	0xa0: '€',
}

var (
	bomUTF16BE = []byte{0xfe, 0xff}
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
)

// Text decodes the string as a PDF text string: UTF-16BE or UTF-8 when a
// byte order mark is present, PDFDocEncoding otherwise.
func (s String) Text() string {
	v := s.Value
	switch {
	case bytes.HasPrefix(v, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(v)
		if err == nil {
			return string(out)
		}
	case bytes.HasPrefix(v, bomUTF8):
		if utf8.Valid(v[3:]) {
			return string(v[3:])
		}
	}

	runes := make([]rune, 0, len(v))
	for _, c := range v {
		if r, ok := pdfDocEncoding[c]; ok {
			runes = append(runes, r)
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
