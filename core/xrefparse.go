package core

import (
	"bytes"
)

// parseTable parses a classic "xref ... trailer << >>" section starting at
// the xref keyword.
func (x *XRefResolver) parseTable(start int64) (*Revision, error) {
	data := x.data
	rev := newRevision(start, XRefSectionTable)
	pos := int(start) + len("xref")
	total := 0

subsections:
	for {
		pos = skipSpace(data, pos)
		if pos >= len(data) {
			return nil, NewError(XRefError, UnexpectedEOF, int64(pos), "cross-reference table has no trailer")
		}
		if hasKeyword(data, pos, "trailer") {
			break
		}

		first, p, ok1 := readUint(data, pos)
		count, p, ok2 := readUint(data, skipInline(data, p))
		if !ok1 || !ok2 {
			err := NewError(XRefError, MalformedXRef, int64(pos), "expected subsection header or trailer")
			if err := x.recover(rev, err); err != nil {
				return nil, err
			}
			idx := bytes.Index(data[pos:], []byte("trailer"))
			if idx < 0 {
				return nil, NewError(XRefError, MalformedXRef, int64(pos), "cross-reference table has no trailer")
			}
			pos += idx
			break
		}
		total += int(count)
		if total > x.limits.MaxObjects {
			return nil, limitError(int64(pos), "cross-reference table lists more than %d entries", x.limits.MaxObjects)
		}
		pos = p

		for i := 0; i < int(count); i++ {
			if hasKeyword(data, skipSpace(data, pos), "trailer") {
				err := NewError(XRefError, MalformedXRef, int64(pos), "subsection %d has %d of %d entries", first, i, count)
				if err := x.recover(rev, err); err != nil {
					return nil, err
				}
				continue subsections
			}
			e, next, err := parseTableEntry(data, pos)
			pos = next
			if err != nil {
				// the line is skipped
				if err := x.recover(rev, err); err != nil {
					return nil, err
				}
				continue
			}
			rev.add(int(first)+i, e)
		}
	}

	p := NewParser(data)
	p.SetMode(x.mode)
	p.SetLimits(x.limits)
	p.SeekTo(int64(pos + len("trailer")))
	obj, err := p.ParseObject()
	if err != nil {
		return nil, toError(err, XRefError, MalformedXRef, int64(pos))
	}
	rev.Issues = append(rev.Issues, p.Issues()...)
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, NewError(XRefError, MalformedXRef, int64(pos), "trailer is %s, not a dictionary", objectTypeOf(obj))
	}
	rev.Trailer = trailer
	return rev, nil
}

// parseTableEntry reads one "oooooooooo ggggg n" entry. The fixed 20-byte
// layout is not required; producers that write 19 or 21 byte lines are
// accepted. On failure the returned position is the start of the next line.
func parseTableEntry(data []byte, pos int) (*XRefEntry, int, *Error) {
	pos = skipSpace(data, pos)
	start := pos
	fail := func(msg string) (*XRefEntry, int, *Error) {
		next := start
		for next < len(data) && data[next] != '\n' && data[next] != '\r' {
			next++
		}
		return nil, next, NewError(XRefError, MalformedXRef, int64(start), "%s", msg)
	}

	off, p, ok := readUint(data, pos)
	if !ok {
		return fail("entry offset is not a number")
	}
	gen, p, ok := readUint(data, skipInline(data, p))
	if !ok {
		return fail("entry generation is not a number")
	}
	p = skipInline(data, p)
	if p >= len(data) {
		return fail("entry type missing")
	}

	switch data[p] {
	case 'n':
		if gen > 0xFFFF {
			return fail("generation out of range")
		}
		return &XRefEntry{Type: XRefInUse, Offset: off, Generation: int(gen)}, p + 1, nil
	case 'f':
		if gen > 0xFFFF {
			// "0000000000 65536 f" is a common producer mistake
			gen = 0xFFFF
		}
		return &XRefEntry{Type: XRefFree, NextFree: int(off), Generation: int(gen)}, p + 1, nil
	}
	return fail("entry type must be n or f")
}

// skipInline skips spaces and tabs only.
func skipInline(data []byte, pos int) int {
	for pos < len(data) && (data[pos] == ' ' || data[pos] == '\t') {
		pos++
	}
	return pos
}

// parseStream parses a cross-reference stream object at start.
func (x *XRefResolver) parseStream(start int64) (*Revision, error) {
	p := NewParser(x.data)
	p.SetMode(x.mode)
	p.SetLimits(x.limits)
	p.SeekTo(start)

	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, toError(err, XRefError, MalformedXRef, start)
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, NewError(XRefError, MalformedXRef, start, "no cross-reference table or stream at offset")
	}

	rev := newRevision(start, XRefSectionStream)
	rev.XRefStream = obj.Ref.ID()
	rev.Trailer = stream.Dict
	rev.Issues = append(rev.Issues, obj.Issues...)

	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		e := NewError(XRefError, MalformedXRef, start, "cross-reference stream has /Type %s", objectString(stream.Dict.Get("Type")))
		if err := x.recover(rev, e); err != nil {
			return nil, err
		}
	}

	widths, sections, perr := xrefStreamLayout(stream.Dict, start)
	if perr != nil {
		return nil, perr
	}
	total := 0
	for _, s := range sections {
		total += s.count
	}
	if total > x.limits.MaxObjects {
		return nil, limitError(start, "cross-reference stream lists more than %d entries", x.limits.MaxObjects)
	}

	decoded, err := stream.Decode()
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		if err := x.recover(rev, toError(err, FilterError, DecodeFailed, start)); err != nil {
			return nil, err
		}
	}
	if short := decodeXRefStream(rev, decoded, widths, sections); short {
		e := NewError(XRefError, MalformedXRef, start, "cross-reference stream data ends early")
		if err := x.recover(rev, e); err != nil {
			return nil, err
		}
	}
	return rev, nil
}

type xrefSubsection struct {
	first, count int
}

// xrefStreamLayout reads /W, /Index and /Size.
func xrefStreamLayout(dict Dict, pos int64) ([3]int, []xrefSubsection, *Error) {
	var w [3]int
	size, ok := dict.GetInt("Size")
	if !ok || size < 0 {
		return w, nil, NewError(XRefError, MalformedXRef, pos, "cross-reference stream has invalid /Size")
	}
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) < 3 {
		return w, nil, NewError(XRefError, MalformedXRef, pos, "cross-reference stream has invalid /W")
	}
	for i := 0; i < 3; i++ {
		wi, ok := arr.GetInt(i)
		if !ok || wi < 0 || wi > 8 {
			return w, nil, NewError(XRefError, MalformedXRef, pos, "invalid /W field %d", i)
		}
		w[i] = int(wi)
	}

	index, ok := dict.GetArray("Index")
	if !ok {
		return w, []xrefSubsection{{0, int(size)}}, nil
	}
	if len(index)%2 != 0 {
		return w, nil, NewError(XRefError, MalformedXRef, pos, "/Index has odd length %d", len(index))
	}
	var sections []xrefSubsection
	for i := 0; i < len(index); i += 2 {
		first, ok1 := index.GetInt(i)
		count, ok2 := index.GetInt(i + 1)
		if !ok1 || !ok2 || first < 0 || count < 0 {
			return w, nil, NewError(XRefError, MalformedXRef, pos, "invalid /Index pair %d", i/2)
		}
		sections = append(sections, xrefSubsection{int(first), int(count)})
	}
	return w, sections, nil
}

// decodeXRefStream adds the binary entries of an xref stream to rev and
// reports whether the data ran out early.
func decodeXRefStream(rev *Revision, data []byte, w [3]int, sections []xrefSubsection) bool {
	rowSize := w[0] + w[1] + w[2]
	if rowSize == 0 {
		return false
	}
	pos := 0
	for _, sec := range sections {
		for i := 0; i < sec.count; i++ {
			if pos+rowSize > len(data) {
				return true
			}
			row := data[pos : pos+rowSize]
			pos += rowSize

			tp := int64(1)
			if w[0] > 0 {
				tp = decodeInt(row[:w[0]])
			}
			a := decodeInt(row[w[0] : w[0]+w[1]])
			b := decodeInt(row[w[0]+w[1]:])

			num := sec.first + i
			switch tp {
			case 0:
				rev.add(num, &XRefEntry{Type: XRefFree, NextFree: int(a), Generation: int(b)})
			case 1:
				rev.add(num, &XRefEntry{Type: XRefInUse, Offset: a, Generation: int(b)})
			case 2:
				rev.add(num, &XRefEntry{Type: XRefCompressed, StreamNumber: int(a), Index: int(b)})
			default:
				// unknown types are references to the null object
			}
		}
	}
	return false
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}
