package core

import (
	"bytes"
	"strconv"

	"golang.org/x/exp/slices"
)

// XRefEntryType tags the three kinds of cross-reference entries.
type XRefEntryType int

const (
	// XRefFree is a slot on the free list.
	XRefFree XRefEntryType = iota
	// XRefInUse is an object stored at a byte offset.
	XRefInUse
	// XRefCompressed is an object stored inside an object stream.
	XRefCompressed
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefInUse:
		return "in-use"
	case XRefCompressed:
		return "compressed"
	default:
		return "free"
	}
}

// XRefEntry represents a single cross-reference entry.
//
// Which fields are meaningful depends on Type: Offset and Generation for
// in-use objects, NextFree and Generation for free slots, StreamNumber and
// Index for compressed objects (whose generation is always 0).
type XRefEntry struct {
	Type         XRefEntryType
	Offset       int64
	Generation   int
	NextFree     int
	StreamNumber int
	Index        int

	// Revision is the position in the revision chain (0 = newest) of the
	// section that supplied this entry.
	Revision int
	// Unresolved is set when the entry points outside the file.
	Unresolved bool
}

// InUse reports whether the entry names a live object.
func (e *XRefEntry) InUse() bool {
	return e.Type != XRefFree
}

// XRefTable represents the effective cross-reference table, keyed by object
// number.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
	Issues  []*Error
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// Lookup returns the entry for id when the generation matches. Compressed
// entries match generation 0 only.
func (x *XRefTable) Lookup(id ObjectID) (*XRefEntry, bool) {
	e, ok := x.Entries[int(id.Number)]
	if !ok || !e.InUse() {
		return nil, false
	}
	if e.Type == XRefCompressed {
		return e, id.Generation == 0
	}
	return e, e.Generation == int(id.Generation)
}

// ObjectNumbers returns the numbers of all in-use and compressed entries in
// ascending order.
func (x *XRefTable) ObjectNumbers() []int {
	nums := make([]int, 0, len(x.Entries))
	for n, e := range x.Entries {
		if e.InUse() {
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}

// IDs returns the object ids of all live entries in ascending order.
func (x *XRefTable) IDs() []ObjectID {
	nums := x.ObjectNumbers()
	ids := make([]ObjectID, 0, len(nums))
	for _, n := range nums {
		e := x.Entries[n]
		gen := 0
		if e.Type == XRefInUse {
			gen = e.Generation
		}
		ids = append(ids, IndirectRef{Number: n, Generation: gen}.ID())
	}
	return ids
}

// merge adds the entries of rev that are not yet present. Revisions are
// merged newest first, so an existing entry is never overwritten.
func (x *XRefTable) merge(rev *Revision) {
	for num, e := range rev.Entries {
		if _, ok := x.Entries[num]; ok {
			continue
		}
		e.Revision = rev.Index
		x.Entries[num] = e
	}
	newest := len(x.Trailer) == 0
	for key, val := range rev.Trailer {
		if !newest && !inheritedTrailerKey(key) {
			continue
		}
		if _, ok := x.Trailer[key]; !ok {
			x.Trailer[key] = val
		}
	}
	x.Issues = append(x.Issues, rev.Issues...)
}

// inheritedTrailerKey reports whether an older trailer may supply key when
// the newer ones lack it.
func inheritedTrailerKey(key string) bool {
	switch key {
	case "Root", "Info", "ID", "Encrypt":
		return true
	}
	return false
}

// XRefSectionKind tells how a revision's cross-reference data was stored.
type XRefSectionKind int

const (
	XRefSectionTable XRefSectionKind = iota
	XRefSectionStream
	// XRefSectionHybrid is a classic table with an /XRefStm companion stream.
	XRefSectionHybrid
	// XRefSectionRepaired is synthesised by RepairScan.
	XRefSectionRepaired
)

func (k XRefSectionKind) String() string {
	switch k {
	case XRefSectionStream:
		return "stream"
	case XRefSectionHybrid:
		return "hybrid"
	case XRefSectionRepaired:
		return "repaired"
	default:
		return "table"
	}
}

// Revision is one incremental update: one cross-reference section and its
// trailer.
type Revision struct {
	Index      int   // position in the chain, 0 = newest
	XRefOffset int64 // -1 for repaired revisions
	Kind       XRefSectionKind
	Trailer    Dict
	Prev       int64 // -1 when there is no /Prev
	// XRefStream is the id of the cross-reference stream object, if any.
	XRefStream ObjectID

	// Entries holds this section's own entries.
	Entries map[int]*XRefEntry
	// AddedObjects lists the ids this revision introduces or overrides.
	AddedObjects []ObjectID
	// FreedObjects lists object numbers this revision marks free.
	FreedObjects []int
	Issues       []*Error
}

func newRevision(offset int64, kind XRefSectionKind) *Revision {
	return &Revision{
		XRefOffset: offset,
		Kind:       kind,
		Trailer:    Dict{},
		Prev:       -1,
		Entries:    make(map[int]*XRefEntry),
	}
}

// add records e unless the section already has an entry for num.
func (r *Revision) add(num int, e *XRefEntry) {
	if _, ok := r.Entries[num]; ok {
		return
	}
	r.Entries[num] = e
}

// finish derives AddedObjects and FreedObjects from the entries.
func (r *Revision) finish() {
	r.AddedObjects = r.AddedObjects[:0]
	r.FreedObjects = r.FreedObjects[:0]
	for num, e := range r.Entries {
		switch e.Type {
		case XRefInUse:
			r.AddedObjects = append(r.AddedObjects, IndirectRef{Number: num, Generation: e.Generation}.ID())
		case XRefCompressed:
			r.AddedObjects = append(r.AddedObjects, IndirectRef{Number: num}.ID())
		default:
			if num > 0 {
				r.FreedObjects = append(r.FreedObjects, num)
			}
		}
	}
	slices.SortFunc(r.AddedObjects, func(a, b ObjectID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	slices.Sort(r.FreedObjects)
}

// XRefResolver locates cross-reference sections and follows the /Prev
// chain across incremental revisions.
type XRefResolver struct {
	data   []byte
	mode   Mode
	limits Limits
}

// NewXRefResolver returns a tolerant resolver over data with default limits.
func NewXRefResolver(data []byte) *XRefResolver {
	return &XRefResolver{data: data, limits: DefaultLimits()}
}

// SetMode selects strict or tolerant handling of defects.
func (x *XRefResolver) SetMode(m Mode) {
	x.mode = m
}

// SetLimits replaces the limits. Zero fields take defaults.
func (x *XRefResolver) SetLimits(l Limits) {
	x.limits = l.WithDefaults()
}

// recover records err on rev in tolerant mode and returns nil, or returns
// err when it must abort.
func (x *XRefResolver) recover(rev *Revision, err *Error) error {
	if x.mode == Strict || err.Fatal() {
		return err
	}
	rev.Issues = append(rev.Issues, err)
	return nil
}

// FindXRef finds the byte offset named by the last startxref keyword,
// scanning backwards from the end of the file in 1 KiB windows.
func (x *XRefResolver) FindXRef() (int64, error) {
	pos := lastOccurrence(x.data, []byte("startxref"))
	if pos < 0 {
		return 0, NewError(XRefError, BrokenXRefChain, -1, "startxref not found")
	}
	p := skipSpace(x.data, pos+len("startxref"))
	off, end, ok := readUint(x.data, p)
	if !ok {
		return 0, NewError(XRefError, MalformedXRef, int64(p), "startxref is not followed by an offset")
	}
	if off >= int64(len(x.data)) {
		return 0, NewError(XRefError, OffsetOutOfBounds, int64(end), "startxref offset %d beyond end of file (%d bytes)", off, len(x.data))
	}
	return off, nil
}

// lastOccurrence returns the offset of the last pat in data, or -1.
func lastOccurrence(data, pat []byte) int {
	const window = 1024
	end := len(data)
	for end >= len(pat) {
		start := end - window
		if start < 0 {
			start = 0
		}
		if idx := bytes.LastIndex(data[start:end], pat); idx >= 0 {
			return start + idx
		}
		if start == 0 {
			break
		}
		// overlap so a keyword across the boundary is found
		end = start + len(pat) - 1
	}
	return -1
}

// ParseAllXRefs resolves the chain starting at startxref. Revisions are
// returned newest first.
func (x *XRefResolver) ParseAllXRefs() (*XRefTable, []*Revision, error) {
	start, err := x.FindXRef()
	if err != nil {
		return nil, nil, err
	}
	return x.ParseChain(start)
}

// ParseChain follows /Prev links from offset and merges every section into
// one effective table in which the newest entry for each object wins.
//
// A section that was already visited ends the chain. A broken section
// after the first one ends the chain with an issue in tolerant mode; a
// broken first section is always returned as an error.
func (x *XRefResolver) ParseChain(offset int64) (*XRefTable, []*Revision, error) {
	table := NewXRefTable()
	var revs []*Revision
	seen := make(map[int64]bool)

	for offset >= 0 {
		if len(revs) >= x.limits.MaxXRefChain {
			return table, revs, limitError(offset, "more than %d cross-reference sections", x.limits.MaxXRefChain)
		}
		if seen[offset] {
			err := NewError(XRefError, BrokenXRefChain, offset, "/Prev loop back to section at %d", offset)
			if x.mode == Strict {
				return table, revs, err
			}
			table.Issues = append(table.Issues, err)
			break
		}
		seen[offset] = true

		rev, err := x.ParseXRef(offset)
		if err != nil {
			if len(revs) == 0 || x.mode == Strict || IsFatal(err) {
				return table, revs, err
			}
			table.Issues = append(table.Issues, toError(err, XRefError, BrokenXRefChain, offset))
			break
		}
		rev.Index = len(revs)
		revs = append(revs, rev)
		table.merge(rev)
		offset = rev.Prev
	}

	return table, revs, nil
}

// ParseXRef parses the cross-reference section at offset: a classic table
// (with its /XRefStm companion, if any) or a cross-reference stream.
func (x *XRefResolver) ParseXRef(offset int64) (*Revision, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, NewError(XRefError, OffsetOutOfBounds, offset, "cross-reference offset outside the file (%d bytes)", len(x.data))
	}

	var rev *Revision
	var err error
	pos := skipSpace(x.data, int(offset))
	if hasKeyword(x.data, pos, "xref") {
		rev, err = x.parseTable(int64(pos))
	} else {
		rev, err = x.parseStream(int64(pos))
	}
	if err != nil {
		return nil, err
	}
	rev.XRefOffset = offset

	if stm, ok := rev.Trailer.GetInt("XRefStm"); ok && rev.Kind == XRefSectionTable {
		if err := x.mergeXRefStm(rev, int64(stm)); err != nil {
			return nil, err
		}
	}

	if prev, ok := rev.Trailer["Prev"]; ok {
		n, isInt := prev.(Int)
		if !isInt || n < 0 || int64(n) >= int64(len(x.data)) {
			e := NewError(XRefError, BrokenXRefChain, offset, "invalid /Prev %s", objectString(prev))
			if err := x.recover(rev, e); err != nil {
				return nil, err
			}
		} else {
			rev.Prev = int64(n)
		}
	}

	x.checkOffsets(rev)
	rev.finish()
	return rev, nil
}

// mergeXRefStm adds the entries of a hybrid file's companion stream. Table
// entries of the same section take precedence.
func (x *XRefResolver) mergeXRefStm(rev *Revision, offset int64) error {
	rev.Kind = XRefSectionHybrid
	if offset < 0 || offset >= int64(len(x.data)) {
		return x.recover(rev, NewError(XRefError, OffsetOutOfBounds, offset, "/XRefStm outside the file"))
	}
	stm, err := x.parseStream(offset)
	if err != nil {
		return x.recover(rev, toError(err, XRefError, MalformedXRef, offset))
	}
	for num, e := range stm.Entries {
		rev.add(num, e)
	}
	rev.XRefStream = stm.XRefStream
	rev.Issues = append(rev.Issues, stm.Issues...)
	return nil
}

// checkOffsets flags in-use entries that point outside the file. They stay
// in the table, marked unresolved.
func (x *XRefResolver) checkOffsets(rev *Revision) {
	size := int64(len(x.data))
	nums := make([]int, 0, len(rev.Entries))
	for num := range rev.Entries {
		nums = append(nums, num)
	}
	slices.Sort(nums)
	for _, num := range nums {
		e := rev.Entries[num]
		if e.Type != XRefInUse || (e.Offset >= 0 && e.Offset < size) {
			continue
		}
		e.Unresolved = true
		issue := NewError(XRefError, OffsetOutOfBounds, rev.XRefOffset,
			"object %d at offset %d outside the file (%d bytes)", num, e.Offset, size)
		issue.Object = IndirectRef{Number: num, Generation: e.Generation}.ID()
		rev.Issues = append(rev.Issues, issue)
	}
}

// skipSpace returns the first position at or after pos that is not PDF
// whitespace. Comments are skipped too.
func skipSpace(data []byte, pos int) int {
	for pos < len(data) {
		switch {
		case isWhitespace(data[pos]):
			pos++
		case data[pos] == '%':
			for pos < len(data) && data[pos] != '\n' && data[pos] != '\r' {
				pos++
			}
		default:
			return pos
		}
	}
	return pos
}

// hasKeyword reports whether kw starts at pos and is not followed by a
// regular character.
func hasKeyword(data []byte, pos int, kw string) bool {
	if !bytes.HasPrefix(data[pos:], []byte(kw)) {
		return false
	}
	end := pos + len(kw)
	return end >= len(data) || isWhitespace(data[end]) || isDelimiter(data[end])
}

// readUint reads an unsigned decimal integer of at most 19 digits.
func readUint(data []byte, pos int) (int64, int, bool) {
	end := pos
	for end < len(data) && isDigit(data[end]) && end-pos < 19 {
		end++
	}
	if end == pos {
		return 0, pos, false
	}
	n, err := strconv.ParseInt(string(data[pos:end]), 10, 64)
	if err != nil {
		return 0, pos, false
	}
	return n, end, true
}
