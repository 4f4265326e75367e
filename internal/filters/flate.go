package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// FlateDecode decompresses Flate (zlib/deflate) compressed data.
// This is the most common compression filter in PDFs. It optionally applies
// a predictor algorithm for image data decompression.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	return decodeFlate(data, params, 0)
}

func decodeFlate(data []byte, params Params, max int64) ([]byte, error) {
	out, err := inflate(data, max)
	if err != nil {
		return out, err
	}
	return applyPredictor(out, params, max)
}

// inflate decompresses a zlib stream, falling back to raw deflate when the
// two-byte zlib header is missing or damaged. Output decoded before a
// corrupt or truncated point is returned with the error.
func inflate(data []byte, max int64) ([]byte, error) {
	var r io.ReadCloser
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err == nil {
		r = zr
	} else {
		r = flate.NewReader(bytes.NewReader(data))
	}
	defer r.Close()

	out := newLimitBuffer(max)
	_, err = io.Copy(out, r)
	if err == nil {
		return out.Bytes(), nil
	}
	if errors.Is(err, ErrLimitExceeded) {
		return out.Bytes(), err
	}
	if errors.Is(err, zlib.ErrChecksum) {
		// the data itself decoded cleanly
		return out.Bytes(), nil
	}
	return out.Bytes(), errors.Wrap(err, "inflate")
}

// applyPredictor undoes the prediction selected by /Predictor.
// Predictor 1 is identity (no prediction), 2 is TIFF Predictor 2,
// and 10-15 are PNG predictors (None, Sub, Up, Average, Paeth).
func applyPredictor(data []byte, params Params, max int64) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		return applyTIFFPredictor2(data, params)
	case predictor >= 10 && predictor <= 15:
		return applyPNGPredictor(data, params, max)
	}
	return data, errors.Errorf("unsupported predictor %d", predictor)
}

type predictorLayout struct {
	colors, bpc, columns int
}

func layoutOf(params Params) (predictorLayout, error) {
	l := predictorLayout{
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
		columns: getIntParam(params, "Columns", 1),
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, errors.Errorf("invalid BitsPerComponent %d", l.bpc)
	}
	if l.colors < 1 || l.colors > 32 || l.columns < 1 || l.columns > 1<<24 {
		return l, errors.Errorf("invalid predictor layout colors=%d columns=%d", l.colors, l.columns)
	}
	return l, nil
}

// rowBytes is the size of one row without the PNG tag byte.
func (l predictorLayout) rowBytes() int {
	return (l.columns*l.colors*l.bpc + 7) / 8
}

// pixelBytes is the distance to the corresponding byte of the left pixel.
func (l predictorLayout) pixelBytes() int {
	n := (l.colors*l.bpc + 7) / 8
	if n < 1 {
		n = 1
	}
	return n
}

// applyTIFFPredictor2 applies TIFF Predictor 2, which predicts each sample
// from the sample to its left. Only 8-bit components are supported.
func applyTIFFPredictor2(data []byte, params Params) ([]byte, error) {
	l, err := layoutOf(params)
	if err != nil {
		return data, err
	}
	if l.bpc != 8 {
		return data, errors.Errorf("TIFF predictor with %d bits per component", l.bpc)
	}

	rowSize := l.rowBytes()
	result := make([]byte, len(data)-len(data)%rowSize)
	for row := 0; row+rowSize <= len(data); row += rowSize {
		for col := 0; col < rowSize; col++ {
			idx := row + col
			if col < l.colors {
				result[idx] = data[idx]
			} else {
				result[idx] = data[idx] + result[idx-l.colors]
			}
		}
	}
	return result, nil
}

// applyPNGPredictor applies PNG predictor algorithms. Each row starts with
// a tag byte (0-4) that selects the algorithm for that row. A trailing
// partial row is dropped.
func applyPNGPredictor(data []byte, params Params, max int64) ([]byte, error) {
	l, err := layoutOf(params)
	if err != nil {
		return data, err
	}
	rowSize := l.rowBytes()
	bpp := l.pixelBytes()

	out := newLimitBuffer(max)
	prev := make([]byte, rowSize)
	cur := make([]byte, rowSize)
	for pos := 0; pos+rowSize+1 <= len(data); pos += rowSize + 1 {
		tag := data[pos]
		copy(cur, data[pos+1:pos+1+rowSize])
		if err := unfilterRow(tag, cur, prev, bpp); err != nil {
			return out.Bytes(), errors.Wrapf(err, "row %d", pos/(rowSize+1))
		}
		if _, err := out.Write(cur); err != nil {
			return out.Bytes(), err
		}
		prev, cur = cur, prev
	}
	return out.Bytes(), nil
}

// unfilterRow reverses one PNG filter in place.
// Filter types: 0=None, 1=Sub (left), 2=Up (above), 3=Average, 4=Paeth.
func unfilterRow(tag byte, cur, prev []byte, bpp int) error {
	switch tag {
	case 0:
	case 1:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case 2:
		for i := range cur {
			cur[i] += prev[i]
		}
	case 3:
		for i := range cur {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			cur[i] += byte((left + int(prev[i])) / 2)
		}
	case 4:
		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			cur[i] += paethPredictor(left, prev[i], upLeft)
		}
	default:
		return errors.Errorf("unknown PNG filter type %d", tag)
	}
	return nil
}

// paethPredictor implements the Paeth predictor algorithm from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear prediction.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
