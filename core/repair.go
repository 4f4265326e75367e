package core

import (
	"bytes"
	"strconv"
)

// ScannedObject is an object header found by a linear scan.
type ScannedObject struct {
	Ref    IndirectRef
	Offset int64
}

// ScanObjectHeaders finds every "N G obj" header in data, in offset order.
// At most max headers are returned; the second result reports whether the
// scan stopped early.
func ScanObjectHeaders(data []byte, max int) ([]ScannedObject, bool) {
	var found []ScannedObject
	kw := []byte("obj")
	for pos := 0; pos < len(data); {
		idx := bytes.Index(data[pos:], kw)
		if idx < 0 {
			break
		}
		at := pos + idx
		pos = at + len(kw)
		if pos < len(data) && !isWhitespace(data[pos]) && !isDelimiter(data[pos]) {
			continue // part of a longer keyword
		}
		if ref, start, ok := headerBefore(data, at); ok {
			if max > 0 && len(found) >= max {
				return found, true
			}
			found = append(found, ScannedObject{Ref: ref, Offset: int64(start)})
		}
	}
	return found, false
}

// headerBefore matches "N G " immediately in front of the obj keyword at
// kw and returns the header's start.
func headerBefore(data []byte, kw int) (IndirectRef, int, bool) {
	p := kw
	genEnd := p
	for p > 0 && isWhitespace(data[p-1]) {
		p--
	}
	if p == genEnd {
		return IndirectRef{}, 0, false
	}
	genEnd = p
	for p > 0 && isDigit(data[p-1]) {
		p--
	}
	genStart := p
	if genStart == genEnd || genEnd-genStart > 5 {
		return IndirectRef{}, 0, false
	}
	numEnd := p
	for p > 0 && isWhitespace(data[p-1]) {
		p--
	}
	if p == numEnd {
		return IndirectRef{}, 0, false
	}
	numEnd = p
	for p > 0 && isDigit(data[p-1]) {
		p--
	}
	numStart := p
	if numStart == numEnd || numEnd-numStart > 10 {
		return IndirectRef{}, 0, false
	}
	if p > 0 && !isWhitespace(data[p-1]) && !isDelimiter(data[p-1]) {
		return IndirectRef{}, 0, false
	}

	num, err1 := strconv.ParseInt(string(data[numStart:numEnd]), 10, 64)
	gen, err2 := strconv.ParseInt(string(data[genStart:genEnd]), 10, 64)
	ref := IndirectRef{Number: int(num), Generation: int(gen)}
	if err1 != nil || err2 != nil || !ref.Valid() {
		return IndirectRef{}, 0, false
	}
	return ref, numStart, true
}

// RepairScan rebuilds a cross-reference table from the raw bytes when the
// xref chain can not be read. Later definitions of an object win, as they
// would in an incremental update. Objects packed in object streams are
// added as compressed entries unless defined directly.
//
// The trailer is taken from the last "trailer" dictionary, or else from the
// last cross-reference stream. When neither names a /Root, the last object
// with /Type /Catalog is used.
func RepairScan(data []byte, limits Limits) (*XRefTable, *Revision, error) {
	limits = limits.WithDefaults()
	rev := newRevision(-1, XRefSectionRepaired)

	headers, truncated := ScanObjectHeaders(data, limits.MaxObjects)
	if truncated {
		return nil, nil, limitError(-1, "more than %d object headers", limits.MaxObjects)
	}

	for _, h := range headers {
		// later headers override earlier ones
		rev.Entries[h.Ref.Number] = &XRefEntry{Type: XRefInUse, Offset: h.Offset, Generation: h.Ref.Generation}
	}

	p := NewParser(data)
	p.SetLimits(limits)
	var streamTrailer Dict
	var catalog *IndirectRef
	for i := len(headers) - 1; i >= 0; i-- {
		h := headers[i]
		if e := rev.Entries[h.Ref.Number]; e.Offset != h.Offset {
			continue
		}
		p.SeekTo(h.Offset)
		obj, err := p.ParseIndirectObject()
		if err != nil {
			if IsFatal(err) {
				return nil, nil, err
			}
			continue
		}
		var dict Dict
		switch v := obj.Object.(type) {
		case Dict:
			dict = v
		case *Stream:
			dict = v.Dict
			if t, _ := dict.GetName("Type"); t == "ObjStm" {
				if err := repairObjectStream(rev, h.Ref.Number, v); IsFatal(err) {
					return nil, nil, err
				}
			}
		}
		switch t, _ := dict.GetName("Type"); t {
		case "XRef":
			if streamTrailer == nil {
				streamTrailer = dict
			}
		case "Catalog":
			if catalog == nil {
				ref := h.Ref
				catalog = &ref
			}
		}
	}

	if t := lastTrailer(data, limits); t != nil {
		rev.Trailer = t
	} else if streamTrailer != nil {
		rev.Trailer = Dict{}
		for _, k := range []string{"Root", "Info", "ID", "Encrypt"} {
			if v, ok := streamTrailer[k]; ok {
				rev.Trailer[k] = v
			}
		}
	}
	if _, ok := rev.Trailer.GetIndirectRef("Root"); !ok && catalog != nil {
		rev.Trailer["Root"] = *catalog
	}
	if _, ok := rev.Trailer.GetIndirectRef("Root"); !ok {
		rev.Issues = append(rev.Issues, NewError(XRefError, BrokenXRefChain, -1, "no document catalog found"))
	}

	rev.finish()
	table := NewXRefTable()
	table.merge(rev)
	return table, rev, nil
}

// repairObjectStream adds compressed entries for the members of an object
// stream that are not defined directly.
func repairObjectStream(rev *Revision, number int, s *Stream) error {
	os, err := NewObjectStream(s)
	if err != nil {
		return err
	}
	nums, err := os.ObjectNumbers()
	if err != nil {
		return err
	}
	for i, n := range nums {
		rev.add(n, &XRefEntry{Type: XRefCompressed, StreamNumber: number, Index: i})
	}
	return nil
}

// lastTrailer parses the dictionary after the last trailer keyword.
func lastTrailer(data []byte, limits Limits) Dict {
	kw := []byte("trailer")
	for end := len(data); end > 0; {
		idx := bytes.LastIndex(data[:end], kw)
		if idx < 0 {
			return nil
		}
		end = idx
		p := NewParser(data)
		p.SetLimits(limits)
		p.SeekTo(int64(idx + len(kw)))
		obj, err := p.ParseObject()
		if err != nil {
			continue
		}
		if d, ok := obj.(Dict); ok && d.Has("Root") {
			return d
		}
	}
	return nil
}
