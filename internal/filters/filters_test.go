package filters

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChain(t *testing.T) {
	original := []byte("chained filters: hex on top of flate")
	encoded := []byte(hex.EncodeToString(zlibCompress(original)) + ">")

	got, err := Decode(encoded, []Spec{{Name: "ASCIIHexDecode"}, {Name: "FlateDecode"}}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestDecodeAbbreviations(t *testing.T) {
	got, err := Decode([]byte("87cURDZ~>"), []Spec{{Name: "A85"}}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), got)

	got, err = Decode([]byte{2, 'a', 'b', 'c', 128}, []Spec{{Name: "RL"}}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestDecodeEmptyChain(t *testing.T) {
	got, err := Decode([]byte("raw"), nil, Limits{MaxFilters: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)
}

func TestDecodeUnknownFilter(t *testing.T) {
	got, err := Decode([]byte("DA7A"), []Spec{{Name: "AHx"}, {Name: "BogusDecode"}}, Limits{})
	require.Error(t, err)

	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "BogusDecode", fe.Filter)
	assert.Equal(t, 1, fe.Index)
	assert.True(t, errors.Is(err, ErrUnknownFilter))
	// the output of the previous stage is kept
	assert.Equal(t, []byte{0xDA, 0x7A}, got)
}

func TestDecodePartialOutput(t *testing.T) {
	got, err := Decode([]byte("48656C6CZZ"), []Spec{{Name: "ASCIIHexDecode"}}, Limits{})
	require.Error(t, err)

	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "ASCIIHexDecode", fe.Filter)
	assert.Equal(t, []byte("Hell"), fe.Partial)
	assert.Equal(t, fe.Partial, got)
}

func TestDecodeOutputLimit(t *testing.T) {
	compressed := zlibCompress(bytes.Repeat([]byte("a"), 1<<16))

	got, err := Decode(compressed, []Spec{{Name: "Fl"}}, Limits{MaxOutput: 1024})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Len(t, got, 1024)

	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "FlateDecode", fe.Filter)
}

func TestDecodeTooManyFilters(t *testing.T) {
	chain := []Spec{{Name: "AHx"}, {Name: "AHx"}, {Name: "AHx"}}
	_, err := Decode([]byte("00"), chain, Limits{MaxFilters: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
}

func TestDecodeUnsupported(t *testing.T) {
	raw := []byte{0x97, 0x4A, 0x42, 0x32}

	got, err := Decode(raw, []Spec{{Name: "JBIG2Decode"}}, Limits{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Equal(t, raw, got)

	_, err = Decode(raw, []Spec{{Name: "Crypt", Params: Params{"Name": "StdCF"}}}, Limits{})
	assert.True(t, errors.Is(err, ErrUnsupported))

	got, err = Decode(raw, []Spec{{Name: "Crypt"}}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeDCTTrimsToMarkers(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}
	raw := append(append([]byte{'\n', '\r'}, jpeg...), '\n', 0)

	got, err := Decode(raw, []Spec{{Name: "DCTDecode"}}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, jpeg, got)

	got, err = Decode(jpeg, []Spec{{Name: "JPXDecode"}}, Limits{MaxOutput: 4})
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Len(t, got, 4)
}

func TestCanonicalAndKnown(t *testing.T) {
	assert.Equal(t, "FlateDecode", Canonical("Fl"))
	assert.Equal(t, "CCITTFaxDecode", Canonical("CCF"))
	assert.Equal(t, "JBIG2Decode", Canonical("JBIG2Decode"))
	assert.True(t, Known("LZW"))
	assert.True(t, Known("JPXDecode"))
	assert.False(t, Known("Flate"))
}

func TestLimitBuffer(t *testing.T) {
	b := newLimitBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defg"))
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("abcde"), b.Bytes())

	unlimited := newLimitBuffer(0)
	_, err = unlimited.Write(bytes.Repeat([]byte("x"), 1<<12))
	require.NoError(t, err)
	assert.Equal(t, 1<<12, unlimited.Len())
}
