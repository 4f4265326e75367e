package filters

import (
	"github.com/pkg/errors"
)

var (
	errFaxEOF     = errors.New("CCITT data ends inside a row")
	errFaxCode    = errors.New("invalid CCITT code")
	errFaxEOL     = errors.New("unexpected EOL inside a row")
	errFaxRow     = errors.New("CCITT run crosses the row boundary")
	errFaxUncomp  = errors.New("CCITT uncompressed mode is not supported")
	errFaxTooWide = errors.New("CCITT Columns out of range")
)

const maxFaxColumns = 1 << 20

// faxParams mirrors the CCITTFaxDecode entries of a DecodeParms dictionary.
type faxParams struct {
	k          int // <0 Group 4, 0 Group 3 1D, >0 mixed Group 3 1D/2D
	columns    int
	rows       int // 0 decodes until the data runs out
	endOfLine  bool
	byteAlign  bool
	endOfBlock bool
	blackIs1   bool
	damaged    int // DamagedRowsBeforeError
}

func faxParamsOf(params Params) faxParams {
	return faxParams{
		k:          getIntParam(params, "K", 0),
		columns:    getIntParam(params, "Columns", 1728),
		rows:       getIntParam(params, "Rows", 0),
		endOfLine:  getBoolParam(params, "EndOfLine", false),
		byteAlign:  getBoolParam(params, "EncodedByteAlign", false),
		endOfBlock: getBoolParam(params, "EndOfBlock", true),
		blackIs1:   getBoolParam(params, "BlackIs1", false),
		damaged:    getIntParam(params, "DamagedRowsBeforeError", 0),
	}
}

// CCITTFaxDecode decodes CCITT Group 3/4 fax compressed data.
// This is commonly used for bi-level (black and white) images in PDFs,
// particularly for scanned documents.
//
// Parameters from the PDF decode parameters dictionary:
//   - K: Group selector (<0=Group4, 0=Group3 1D, >0=Group3 mixed 1D/2D)
//   - Columns: Image width in pixels (default 1728)
//   - Rows: Image height in pixels (default 0, decode until the data ends)
//   - EndOfLine, EncodedByteAlign, EndOfBlock: framing of the encoded rows
//   - BlackIs1: 1 bits are black (default false: 0 bits are black)
//   - DamagedRowsBeforeError: damaged rows replaced by zero rows before failing
//
// The result has one bit per pixel, rows padded to whole bytes.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	return decodeCCITTFax(data, params, 0)
}

func decodeCCITTFax(data []byte, params Params, max int64) ([]byte, error) {
	p := faxParamsOf(params)
	if p.columns < 1 || p.columns > maxFaxColumns {
		return nil, errors.Wrapf(errFaxTooWide, "Columns %d", p.columns)
	}
	d := &faxDecoder{
		p:   p,
		br:  bitReader{data: data},
		out: newLimitBuffer(max),
		row: make([]byte, (p.columns+7)/8),
	}
	err := d.decode()
	return d.out.Bytes(), err
}

// faxDecoder holds the state of one decode. Lines are kept as lists of
// changing elements: the positions where the colour flips, starting white.
type faxDecoder struct {
	p       faxParams
	br      bitReader
	out     *limitBuffer
	ref     []int // reference line, padded with two columns sentinels
	cur     []int
	row     []byte
	damaged int
}

func (d *faxDecoder) decode() error {
	d.ref = append(d.ref[:0], d.p.columns, d.p.columns)

	for n := 0; d.p.rows <= 0 || n < d.p.rows; n++ {
		twoD, done := d.startRow()
		if done {
			return nil
		}

		var err error
		if twoD {
			err = d.decode2D()
		} else {
			err = d.decode1D()
		}
		if err != nil {
			d.damaged++
			if d.damaged > d.p.damaged {
				return errors.Wrapf(err, "row %d", n)
			}
			// a damaged row is emitted as all zero bytes
			for i := range d.row {
				d.row[i] = 0
			}
			if _, err := d.out.Write(d.row); err != nil {
				return err
			}
			d.cur = d.cur[:0]
			d.swapLines()
			if !d.resync() {
				return nil
			}
			continue
		}

		if err := d.emitRow(); err != nil {
			return err
		}
		d.swapLines()
	}
	return nil
}

// startRow consumes the framing in front of a row and reports whether the
// row is 2D coded, or whether the data has ended.
func (d *faxDecoder) startRow() (twoD bool, done bool) {
	if d.p.k < 0 {
		if d.p.byteAlign {
			d.br.align()
		}
		if d.br.peek(12) == 1 {
			d.br.consume(12)
			if d.p.endOfBlock && d.br.peek(12) == 1 {
				d.br.consume(12)
				return false, true // EOFB
			}
		}
		if d.p.rows <= 0 && d.br.onlyZeros() {
			return false, true
		}
		return true, false
	}

	if d.skipEOL() && d.p.endOfBlock {
		// RTC: consecutive EOLs (with their tag bit for K > 0)
		if d.p.k > 0 && d.br.peek(13) == 0x1001 || d.p.k == 0 && d.br.peek(12) == 1 {
			return false, true
		}
	}
	if d.p.rows <= 0 && d.br.onlyZeros() {
		return false, true
	}
	if d.p.k > 0 {
		tag := d.br.peek(1)
		d.br.consume(1)
		return tag == 0, false
	}
	return false, false
}

// skipEOL consumes fill bits and an EOL if one is next. Without an EOL and
// with EncodedByteAlign set the row starts at the next byte boundary.
func (d *faxDecoder) skipEOL() bool {
	mark := d.br.mark()
	zeros := 0
	for d.br.peek(1) == 0 && d.br.left() > 0 {
		d.br.consume(1)
		zeros++
	}
	if zeros >= 11 && d.br.left() > 0 {
		d.br.consume(1)
		return true
	}
	d.br.reset(mark)
	if d.p.byteAlign {
		d.br.align()
	}
	return false
}

// resync moves to the next EOL after a damaged row. Group 4 data has no
// sync points, so decoding just continues from the current position.
func (d *faxDecoder) resync() bool {
	if d.p.k < 0 {
		return d.br.consume(1)
	}
	for d.br.left() >= 12 {
		if d.br.peek(12) == 1 {
			return true
		}
		d.br.consume(1)
	}
	return false
}

func (d *faxDecoder) swapLines() {
	d.ref, d.cur = d.cur, d.ref
	d.ref = append(d.ref, d.p.columns, d.p.columns)
	d.cur = d.cur[:0]
}

// addChange records a colour change at pos. Two changes at the same
// position cancel, keeping the list strictly increasing.
func (d *faxDecoder) addChange(pos int) {
	if pos >= d.p.columns {
		return
	}
	if n := len(d.cur); n > 0 && d.cur[n-1] == pos {
		d.cur = d.cur[:n-1]
		return
	}
	d.cur = append(d.cur, pos)
}

// decode1D decodes a Modified Huffman row.
func (d *faxDecoder) decode1D() error {
	d.cur = d.cur[:0]
	pos := 0
	black := false
	for pos < d.p.columns {
		run, err := d.readRun(black)
		if err != nil {
			return err
		}
		pos += run
		if pos > d.p.columns {
			return errFaxRow
		}
		d.addChange(pos)
		black = !black
	}
	return nil
}

// decode2D decodes a Modified READ row against the reference line.
func (d *faxDecoder) decode2D() error {
	d.cur = d.cur[:0]
	a0 := -1
	black := false
	bi := 0
	for a0 < d.p.columns {
		bi = d.findB1(bi, a0, black)
		b1 := d.refAt(bi)
		b2 := d.refAt(bi + 1)

		mode, err := d.readMode()
		if err != nil {
			return err
		}

		start := a0
		if start < 0 {
			start = 0
		}
		switch mode {
		case modePass:
			// the pixels up to b2 keep the current colour
			a0 = b2

		case modeHorizontal:
			run1, err := d.readRun(black)
			if err != nil {
				return err
			}
			run2, err := d.readRun(!black)
			if err != nil {
				return err
			}
			a1 := start + run1
			a2 := a1 + run2
			if a2 > d.p.columns {
				return errFaxRow
			}
			d.addChange(a1)
			d.addChange(a2)
			a0 = a2

		case modeExtension:
			return errFaxUncomp

		case modeEOL:
			return errFaxEOL

		default:
			a1 := b1 + verticalDelta[mode]
			if a1 < start || a1 > d.p.columns {
				return errFaxRow
			}
			d.addChange(a1)
			a0 = a1
			black = !black
			if bi > 2 {
				bi -= 2
			} else {
				bi = 0
			}
		}
	}
	return nil
}

// findB1 returns the index of b1: the first changing element on the
// reference line right of a0 whose colour is opposite to the colour at a0.
// Changes at even indices turn black, odd ones turn white. The trailing
// sentinels guarantee a match.
func (d *faxDecoder) findB1(from, a0 int, black bool) int {
	for i := from; i < len(d.ref); i++ {
		if d.ref[i] > a0 && (i%2 == 1) == black {
			return i
		}
	}
	return len(d.ref) - 1
}

func (d *faxDecoder) refAt(i int) int {
	if i < len(d.ref) {
		return d.ref[i]
	}
	return d.p.columns
}

func (d *faxDecoder) readMode() (faxMode, error) {
	if d.br.left() == 0 {
		return modeInvalid, errFaxEOF
	}
	v := d.br.peek(modeWidth)
	e := modeTable[v]
	if e.bits == 0 {
		if d.br.peek(12) == 1 {
			d.br.consume(12)
			return modeEOL, nil
		}
		return modeInvalid, errFaxCode
	}
	if !d.br.consume(uint(e.bits)) {
		return modeInvalid, errFaxEOF
	}
	return e.mode, nil
}

// readRun reads make-up codes followed by a terminating code.
func (d *faxDecoder) readRun(black bool) (int, error) {
	total := 0
	for {
		if d.br.left() == 0 {
			return 0, errFaxEOF
		}
		var e runEntry
		if black {
			e = blackTable[d.br.peek(blackWidth)]
		} else {
			e = whiteTable[d.br.peek(whiteWidth)]
		}
		switch {
		case e.bits == 0:
			return 0, errFaxCode
		case e.run == runEOL:
			return 0, errFaxEOL
		}
		if !d.br.consume(uint(e.bits)) {
			return 0, errFaxEOF
		}
		total += int(e.run)
		if total > d.p.columns {
			return 0, errFaxRow
		}
		if e.run < 64 {
			return total, nil
		}
	}
}

// emitRow renders the changing elements of the current line.
func (d *faxDecoder) emitRow() error {
	for i := range d.row {
		d.row[i] = 0
	}
	for i := 0; i < len(d.cur); i += 2 {
		from := d.cur[i]
		to := d.p.columns
		if i+1 < len(d.cur) {
			to = d.cur[i+1]
		}
		setBits(d.row, from, to)
	}
	if !d.p.blackIs1 {
		for i := range d.row {
			d.row[i] = ^d.row[i]
		}
		if pad := d.p.columns % 8; pad != 0 {
			d.row[len(d.row)-1] &= 0xff << (8 - pad)
		}
	}
	_, err := d.out.Write(d.row)
	return err
}

// setBits sets the bits for pixels [from, to) of an MSB-first row.
func setBits(row []byte, from, to int) {
	for x := from; x < to; {
		if x%8 == 0 && to-x >= 8 {
			row[x/8] = 0xff
			x += 8
			continue
		}
		row[x/8] |= 0x80 >> (x % 8)
		x++
	}
}

// bitReader reads bits MSB first. Bits past the end of data read as zero.
type bitReader struct {
	data []byte
	pos  int    // next byte to load into acc
	acc  uint64 // buffered bits, left-aligned
	n    uint   // number of valid bits in acc
}

type bitMark struct {
	pos int
	acc uint64
	n   uint
}

func (r *bitReader) fill() {
	for r.n <= 56 && r.pos < len(r.data) {
		r.acc |= uint64(r.data[r.pos]) << (56 - r.n)
		r.n += 8
		r.pos++
	}
}

// peek returns the next k bits (k <= 32) without consuming them.
func (r *bitReader) peek(k uint) uint32 {
	r.fill()
	return uint32(r.acc >> (64 - k))
}

// consume drops k bits. It reports false if fewer than k bits remain.
func (r *bitReader) consume(k uint) bool {
	r.fill()
	if k > r.n {
		r.acc, r.n = 0, 0
		return false
	}
	r.acc <<= k
	r.n -= k
	return true
}

// left returns the number of unread bits.
func (r *bitReader) left() int {
	return int(r.n) + 8*(len(r.data)-r.pos)
}

// align skips to the next byte boundary.
func (r *bitReader) align() {
	r.consume(r.n % 8)
}

// onlyZeros reports whether every remaining bit is zero.
func (r *bitReader) onlyZeros() bool {
	if r.acc != 0 {
		return false
	}
	for _, b := range r.data[r.pos:] {
		if b != 0 {
			return false
		}
	}
	return true
}

func (r *bitReader) mark() bitMark {
	return bitMark{pos: r.pos, acc: r.acc, n: r.n}
}

func (r *bitReader) reset(m bitMark) {
	r.pos, r.acc, r.n = m.pos, m.acc, m.n
}
