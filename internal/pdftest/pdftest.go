// Package pdftest writes small synthetic PDF files with exact byte offsets
// for tests. It knows nothing about the parser; every file is assembled
// from text so tests can reason about each byte.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"strings"
)

type entryKind int

const (
	inUse entryKind = iota
	free
	compressed
)

type entry struct {
	kind   entryKind
	offset int64
	gen    int
	stream int
	index  int
}

// Member is one object packed into an object stream.
type Member struct {
	Num  int
	Body string
}

// Builder appends objects and cross-reference sections to a buffer. Each
// call to XRefTable or XRefStream closes the current revision; objects
// written afterwards belong to an incremental update whose section points
// back with /Prev.
type Builder struct {
	buf     bytes.Buffer
	section map[int]entry
	offsets map[int]int64
	maxNum  int
	prev    int64
	xrefs   []int64
}

// New starts a file with a "%PDF-version" header and a binary comment line.
// An empty version writes no header at all.
func New(version string) *Builder {
	b := &Builder{
		section: make(map[int]entry),
		offsets: make(map[int]int64),
		prev:    -1,
	}
	if version != "" {
		fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	}
	return b
}

// Raw appends s unchanged.
func (b *Builder) Raw(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Object writes "num 0 obj body endobj".
func (b *Builder) Object(num int, body string) *Builder {
	return b.ObjectGen(num, 0, body)
}

// ObjectGen writes an object with an explicit generation.
func (b *Builder) ObjectGen(num, gen int, body string) *Builder {
	b.record(num, gen)
	fmt.Fprintf(&b.buf, "%d %d obj\n%s\nendobj\n", num, gen, body)
	return b
}

// Stream writes a stream object. dict holds the dictionary entries without
// the angle brackets; /Length is added.
func (b *Builder) Stream(num int, dict string, data []byte) *Builder {
	b.record(num, 0)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return b
}

// FlateStream writes a stream compressed with FlateDecode.
func (b *Builder) FlateStream(num int, dict string, data []byte) *Builder {
	return b.Stream(num, strings.TrimSpace(dict+" /Filter /FlateDecode"), Deflate(data))
}

// ObjStm writes an uncompressed object stream holding members and records
// compressed entries for them. Those entries only appear in a following
// XRefStream section.
func (b *Builder) ObjStm(num int, members ...Member) *Builder {
	hdr, data := ObjStmData(members)
	b.packMembers(num, members)
	return b.Stream(num, fmt.Sprintf("/Type /ObjStm /N %d /First %d", len(members), hdr), data)
}

// FlateObjStm is ObjStm with the payload compressed.
func (b *Builder) FlateObjStm(num int, members ...Member) *Builder {
	hdr, data := ObjStmData(members)
	b.packMembers(num, members)
	return b.FlateStream(num, fmt.Sprintf("/Type /ObjStm /N %d /First %d", len(members), hdr), data)
}

func (b *Builder) packMembers(num int, members []Member) {
	for i, m := range members {
		b.section[m.Num] = entry{kind: compressed, stream: num, index: i}
		b.bump(m.Num)
	}
}

// ObjStmData lays out members as object stream content and returns the
// /First offset with the data.
func ObjStmData(members []Member) (int, []byte) {
	var hdr, body bytes.Buffer
	for _, m := range members {
		fmt.Fprintf(&hdr, "%d %d ", m.Num, body.Len())
		body.WriteString(m.Body)
		body.WriteByte(' ')
	}
	first := hdr.Len()
	hdr.Write(body.Bytes())
	return first, hdr.Bytes()
}

// Free marks num as free in the current section.
func (b *Builder) Free(num, gen int) *Builder {
	b.section[num] = entry{kind: free, gen: gen}
	b.bump(num)
	return b
}

// XRefTable writes a classic cross-reference table for the current
// section, followed by the trailer, startxref and %%EOF. extra is added to
// the trailer dictionary.
func (b *Builder) XRefTable(extra string) *Builder {
	off := int64(b.buf.Len())
	b.headOfFreeList()

	b.buf.WriteString("xref\n")
	for _, run := range runs(b.section, true) {
		fmt.Fprintf(&b.buf, "%d %d\n", run[0], len(run))
		for _, num := range run {
			e := b.section[num]
			if e.kind == free {
				fmt.Fprintf(&b.buf, "%010d %05d f\r\n", 0, e.gen)
				continue
			}
			fmt.Fprintf(&b.buf, "%010d %05d n\r\n", e.offset, e.gen)
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d%s %s >>\nstartxref\n%d\n%%%%EOF\n", b.maxNum+1, b.prevEntry(), extra, off)
	b.closeSection(off)
	return b
}

// XRefStream writes the current section as cross-reference stream object
// num with /W [1 4 2], followed by startxref and %%EOF.
func (b *Builder) XRefStream(num int, extra string) *Builder {
	off := int64(b.buf.Len())
	b.record(num, 0)
	b.headOfFreeList()

	var data bytes.Buffer
	var index []string
	for _, run := range runs(b.section, false) {
		index = append(index, fmt.Sprintf("%d %d", run[0], len(run)))
		for _, n := range run {
			e := b.section[n]
			switch e.kind {
			case free:
				data.Write(row(0, 0, e.gen))
			case compressed:
				data.Write(row(2, e.stream, e.index))
			default:
				data.Write(row(1, int(e.offset), e.gen))
			}
		}
	}
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Index [%s]%s %s /Length %d >>\nstream\n",
		num, b.maxNum+1, strings.Join(index, " "), b.prevEntry(), extra, data.Len())
	b.buf.Write(data.Bytes())
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", off)
	b.closeSection(off)
	return b
}

func row(tp, a, c int) []byte {
	return []byte{byte(tp), byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a), byte(c >> 8), byte(c)}
}

func (b *Builder) headOfFreeList() {
	if _, ok := b.section[0]; !ok && b.prev < 0 {
		b.section[0] = entry{kind: free, gen: 65535}
	}
}

func (b *Builder) prevEntry() string {
	if b.prev < 0 {
		return ""
	}
	return fmt.Sprintf(" /Prev %d", b.prev)
}

func (b *Builder) closeSection(off int64) {
	b.prev = off
	b.xrefs = append(b.xrefs, off)
	b.section = make(map[int]entry)
}

func (b *Builder) record(num, gen int) {
	off := int64(b.buf.Len())
	b.section[num] = entry{kind: inUse, offset: off, gen: gen}
	b.offsets[num] = off
	b.bump(num)
}

func (b *Builder) bump(num int) {
	if num > b.maxNum {
		b.maxNum = num
	}
}

// runs groups the section's object numbers into contiguous subsections.
func runs(section map[int]entry, table bool) [][]int {
	nums := make([]int, 0, len(section))
	for n, e := range section {
		if table && e.kind == compressed {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	var out [][]int
	for _, n := range nums {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last[len(last)-1] == n-1 {
				out[len(out)-1] = append(last, n)
				continue
			}
		}
		out = append(out, []int{n})
	}
	return out
}

// Offset returns the offset of the most recent definition of num.
func (b *Builder) Offset(num int) int64 {
	return b.offsets[num]
}

// XRefOffsets returns the offsets of the written sections, oldest first.
func (b *Builder) XRefOffsets() []int64 {
	return append([]int64(nil), b.xrefs...)
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Bytes returns a copy of the file.
func (b *Builder) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// Deflate compresses data with zlib.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Minimal returns a one-page document: catalog 1, pages 2, page 3 with
// content stream 4 and an Info dictionary 5.
func Minimal() []byte {
	return New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>").
		Stream(4, "", []byte("BT /F1 12 Tf (Hello) Tj ET")).
		Object(5, "<< /Title (Minimal) /Producer (pdftest) >>").
		XRefTable("/Root 1 0 R /Info 5 0 R").
		Bytes()
}
