package filters

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// Spec names one filter of a chain together with its decode parameters.
type Spec struct {
	Name   string
	Params Params
}

// Limits bounds a single Decode call. Zero fields mean unlimited.
type Limits struct {
	MaxOutput  int64 // bytes produced by any single stage
	MaxFilters int   // length of the chain
}

var (
	// ErrLimitExceeded is wrapped by errors caused by Limits.
	ErrLimitExceeded = errors.New("decode limit exceeded")
	// ErrUnsupported is wrapped when a filter is known but not decoded here.
	ErrUnsupported = errors.New("unsupported filter")
	// ErrUnknownFilter is wrapped for names outside the PDF filter vocabulary.
	ErrUnknownFilter = errors.New("unknown filter")
)

// FilterError reports a failure at one stage of a filter chain. Partial holds
// whatever that stage produced before failing.
type FilterError struct {
	Filter  string
	Index   int
	Partial []byte
	Err     error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %d (%s): %v", e.Index, e.Filter, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// decodeFunc decodes data with params, writing no more than max bytes
// (0 = unlimited). On failure it returns the output produced so far.
type decodeFunc func(data []byte, params Params, max int64) ([]byte, error)

// registry is the closed set of filters defined by PDF, keyed by both the
// full and the abbreviated inline-image name.
var registry = map[string]decodeFunc{
	"ASCIIHexDecode":  decodeASCIIHex,
	"AHx":             decodeASCIIHex,
	"ASCII85Decode":   decodeASCII85,
	"A85":             decodeASCII85,
	"LZWDecode":       decodeLZW,
	"LZW":             decodeLZW,
	"FlateDecode":     decodeFlate,
	"Fl":              decodeFlate,
	"RunLengthDecode": decodeRunLength,
	"RL":              decodeRunLength,
	"CCITTFaxDecode":  decodeCCITTFax,
	"CCF":             decodeCCITTFax,
	"DCTDecode":       decodeDCT,
	"DCT":             decodeDCT,
	"JPXDecode":       passThrough,
	"Crypt":           decodeCrypt,
	"JBIG2Decode":     unsupported,
}

var canonical = map[string]string{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"Fl":  "FlateDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// Canonical maps abbreviated filter names to their full form.
func Canonical(name string) string {
	if full, ok := canonical[name]; ok {
		return full
	}
	return name
}

// Known reports whether name is a PDF filter name.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Decode runs data through chain in order. On failure it returns the partial
// output of the failing stage together with a *FilterError.
func Decode(data []byte, chain []Spec, lim Limits) ([]byte, error) {
	if lim.MaxFilters > 0 && len(chain) > lim.MaxFilters {
		return nil, &FilterError{
			Filter: "chain",
			Index:  lim.MaxFilters,
			Err:    errors.Wrapf(ErrLimitExceeded, "%d filters, at most %d allowed", len(chain), lim.MaxFilters),
		}
	}

	for i, spec := range chain {
		fn, ok := registry[spec.Name]
		if !ok {
			return data, &FilterError{
				Filter:  spec.Name,
				Index:   i,
				Partial: data,
				Err:     errors.Wrap(ErrUnknownFilter, spec.Name),
			}
		}
		out, err := fn(data, spec.Params, lim.MaxOutput)
		if err != nil {
			return out, &FilterError{Filter: Canonical(spec.Name), Index: i, Partial: out, Err: err}
		}
		data = out
	}
	return data, nil
}

// limitBuffer collects output and refuses to grow beyond max bytes. It has
// no ReadFrom method, so io.Copy always goes through Write.
type limitBuffer struct {
	buf bytes.Buffer
	max int64
}

func newLimitBuffer(max int64) *limitBuffer {
	return &limitBuffer{max: max}
}

func (b *limitBuffer) Write(p []byte) (int, error) {
	if b.max > 0 && int64(b.buf.Len())+int64(len(p)) > b.max {
		room := int(b.max - int64(b.buf.Len()))
		b.buf.Write(p[:room])
		return room, errors.Wrapf(ErrLimitExceeded, "output exceeds %d bytes", b.max)
	}
	return b.buf.Write(p)
}

func (b *limitBuffer) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

func (b *limitBuffer) Bytes() []byte { return b.buf.Bytes() }

func (b *limitBuffer) Len() int { return b.buf.Len() }

func passThrough(data []byte, _ Params, max int64) ([]byte, error) {
	if max > 0 && int64(len(data)) > max {
		return data[:max], errors.Wrapf(ErrLimitExceeded, "output exceeds %d bytes", max)
	}
	return data, nil
}

func unsupported(data []byte, _ Params, _ int64) ([]byte, error) {
	return data, ErrUnsupported
}

// decodeCrypt accepts only the Identity crypt filter; decryption belongs to
// the security handler.
func decodeCrypt(data []byte, params Params, max int64) ([]byte, error) {
	name := getStringParam(params, "Name", "Identity")
	if name != "Identity" {
		return data, errors.Wrapf(ErrUnsupported, "crypt filter %s", name)
	}
	return passThrough(data, params, max)
}

// decodeDCT trims anything outside the JPEG SOI/EOI markers and otherwise
// leaves the image compressed.
func decodeDCT(data []byte, params Params, max int64) ([]byte, error) {
	if soi := bytes.Index(data, []byte{0xff, 0xd8}); soi > 0 {
		data = data[soi:]
	}
	if eoi := bytes.LastIndex(data, []byte{0xff, 0xd9}); eoi >= 0 && eoi+2 < len(data) {
		data = data[:eoi+2]
	}
	return passThrough(data, params, max)
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}

func getStringParam(params Params, key, defaultValue string) string {
	if params == nil {
		return defaultValue
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return defaultValue
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
