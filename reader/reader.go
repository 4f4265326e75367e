package reader

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/sirupsen/logrus"
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7"), or "" for the
// zero version.
func (v PDFVersion) String() string {
	if v.IsZero() {
		return ""
	}
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// IsZero reports whether no version is known.
func (v PDFVersion) IsZero() bool {
	return v == PDFVersion{}
}

// Less reports whether v is older than o.
func (v PDFVersion) Less(o PDFVersion) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// ParseVersion parses "major.minor".
func ParseVersion(s string) (PDFVersion, bool) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok || major == "" || minor == "" {
		return PDFVersion{}, false
	}
	a, err1 := strconv.Atoi(major)
	b, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil || a < 0 || b < 0 {
		return PDFVersion{}, false
	}
	return PDFVersion{Major: a, Minor: b}, true
}

// Linearization describes the linearization dictionary found at the start
// of the file.
type Linearization struct {
	Object core.ObjectID
	Dict   core.Dict
	// FileLength is the /L entry, or -1 when absent.
	FileLength int64
	// LengthMatches reports whether /L equals the actual input size.
	LengthMatches bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithMode selects strict or tolerant reading (default tolerant).
func WithMode(m core.Mode) Option {
	return func(r *Reader) {
		r.mode = m
	}
}

// WithLimits sets the resource ceilings. Zero fields take defaults.
func WithLimits(l core.Limits) Option {
	return func(r *Reader) {
		r.limits = l.WithDefaults()
	}
}

// WithLogger sets the logger recovered defects are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) {
		r.log = l
	}
}

type cachedObject struct {
	obj *core.IndirectObject
	err error
}

type cachedObjStm struct {
	stm *core.ObjectStream
	err error
}

// Reader gives random access to the indirect objects of a PDF held in
// memory. It locates objects through the merged cross-reference table and
// falls back to a linear scan of the bytes when that table is unusable.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	data   []byte
	mode   core.Mode
	limits core.Limits
	log    logrus.FieldLogger

	header       PDFVersion
	version      PDFVersion
	headerOffset int64

	xref      *core.XRefTable
	revisions []*core.Revision
	repaired  bool
	issues    []*core.Error

	linearized *Linearization

	objCache map[core.ObjectID]*cachedObject
	objStms  map[int]*cachedObjStm
	pending  map[core.ObjectID]bool
	scan     map[core.ObjectID]int64
}

var _ core.ReferenceResolver = (*Reader)(nil)

// NewReader reads the header and cross-reference data of the PDF in data.
// Objects are parsed lazily by ReadObject.
//
// In strict mode a missing header or an unreadable cross-reference chain
// is an error. In tolerant mode they become issues and the objects are
// located by scanning the file.
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	r := &Reader{
		data:     data,
		limits:   core.DefaultLimits(),
		objCache: make(map[core.ObjectID]*cachedObject),
		objStms:  make(map[int]*cachedObjStm),
		pending:  make(map[core.ObjectID]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.For(r.log, "reader")

	if err := r.readHeader(); err != nil {
		return nil, errors.Wrap(err, "failed to parse header")
	}
	if err := r.loadXRef(); err != nil {
		return nil, errors.Wrap(err, "failed to load xref")
	}
	r.detectLinearization()
	r.applyCatalogVersion()
	return r, nil
}

func (r *Reader) addIssue(e *core.Error) {
	logging.Issue(r.log, e).Warn(e.Error())
	r.issues = append(r.issues, e)
}

// readHeader finds %PDF-x.y within the first KiB.
func (r *Reader) readHeader() error {
	window := r.data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	r.headerOffset = int64(bytes.Index(window, []byte("%PDF-")))
	if r.headerOffset < 0 {
		err := core.NewError(core.StructuralError, core.InvalidObjectHeader, 0, "no %%PDF- header in the first %d bytes", headerWindow)
		if r.mode == core.Strict {
			return err
		}
		r.addIssue(err)
		return nil
	}

	rest := r.data[r.headerOffset+5:]
	end := 0
	for end < len(rest) && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	v, ok := ParseVersion(string(rest[:end]))
	if !ok {
		err := core.NewError(core.TokenError, core.MalformedNumber, r.headerOffset, "malformed version %q in header", rest[:end])
		if r.mode == core.Strict {
			return err
		}
		r.addIssue(err)
	}
	if r.headerOffset > 0 {
		err := core.NewError(core.StructuralError, core.UnexpectedToken, 0, "%d bytes before the %%PDF- header", r.headerOffset)
		if r.mode == core.Strict {
			return err
		}
		r.addIssue(err)
	}
	r.header = v
	r.version = v
	return nil
}

// loadXRef resolves the /Prev chain from startxref. In tolerant mode a
// broken chain is replaced or completed by a repair scan.
func (r *Reader) loadXRef() error {
	xr := core.NewXRefResolver(r.data)
	xr.SetMode(r.mode)
	xr.SetLimits(r.limits)

	table, revs, err := xr.ParseAllXRefs()
	if err != nil {
		if r.mode == core.Strict || core.IsFatal(err) {
			return err
		}
		r.addIssue(asIssue(err, core.XRefError, core.BrokenXRefChain, -1))
		r.log.WithError(err).Warn("cross-reference chain unreadable, scanning for objects")
		return r.repair()
	}

	r.xref = table
	r.revisions = revs
	for _, issue := range table.Issues {
		logging.Issue(r.log, issue).Debug(issue.Error())
	}
	if _, ok := table.Trailer.GetIndirectRef("Root"); !ok || len(table.Issues) > 0 {
		if r.mode == core.Tolerant {
			r.backfill()
		}
	}
	return nil
}

// repair replaces the cross-reference data with a linear scan of the file.
func (r *Reader) repair() error {
	table, rev, err := core.RepairScan(r.data, r.limits)
	if err != nil {
		return errors.Wrap(err, "repair scan failed")
	}
	r.xref = table
	r.revisions = []*core.Revision{rev}
	r.repaired = true
	r.log.WithField("objects", len(table.Entries)).Info("rebuilt cross-reference table from object headers")
	return nil
}

// backfill adds objects found by a repair scan that the chain does not
// locate, and replaces entries that point outside the file. The scan is
// appended as the oldest revision when it contributes anything.
func (r *Reader) backfill() {
	table, rev, err := core.RepairScan(r.data, r.limits)
	if err != nil {
		r.log.WithError(err).Warn("repair scan failed, keeping the chain as is")
		return
	}

	rev.Index = len(r.revisions)
	entries := make(map[int]*core.XRefEntry)
	var added []core.ObjectID
	for _, num := range table.ObjectNumbers() {
		if cur, ok := r.xref.Entries[num]; ok && !cur.Unresolved {
			continue
		}
		e := table.Entries[num]
		e.Revision = rev.Index
		r.xref.Entries[num] = e
		entries[num] = e
		gen := 0
		if e.Type == core.XRefInUse {
			gen = e.Generation
		}
		added = append(added, core.IndirectRef{Number: num, Generation: gen}.ID())
	}

	if _, ok := r.xref.Trailer.GetIndirectRef("Root"); !ok {
		if root, ok := table.Trailer.GetIndirectRef("Root"); ok {
			r.xref.Trailer["Root"] = root
		}
	}

	if len(added) == 0 {
		return
	}
	rev.Entries = entries
	rev.AddedObjects = added
	rev.FreedObjects = nil
	r.revisions = append(r.revisions, rev)
	r.log.WithField("objects", len(added)).Info("recovered objects missing from the cross-reference chain")
}

// detectLinearization looks for /Linearized in the first object.
func (r *Reader) detectLinearization() {
	start := r.headerOffset
	if start < 0 {
		start = 0
	}
	p := core.NewParser(r.data)
	p.SetLimits(r.limits)
	p.SeekTo(start)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return
	}
	dict, ok := obj.Object.(core.Dict)
	if !ok || !dict.Has("Linearized") {
		return
	}
	lin := &Linearization{Object: obj.Ref.ID(), Dict: dict, FileLength: -1}
	if n, ok := dict.GetInt("L"); ok {
		lin.FileLength = int64(n)
		lin.LengthMatches = int64(n) == int64(len(r.data))
	}
	r.linearized = lin
	r.log.WithFields(logrus.Fields{"object": lin.Object.String(), "length_matches": lin.LengthMatches}).Debug("linearized file")
}

// applyCatalogVersion lets a newer catalog /Version override the header.
func (r *Reader) applyCatalogVersion() {
	catalog, err := r.GetCatalog()
	if err != nil {
		return
	}
	name, ok := catalog.GetName("Version")
	if !ok {
		return
	}
	v, ok := ParseVersion(string(name))
	if ok && r.version.Less(v) {
		r.log.WithFields(logrus.Fields{"header": r.header.String(), "catalog": v.String()}).Debug("catalog overrides version")
		r.version = v
	}
}

// ReadObject returns the indirect object id, parsing it on first use.
//
// Objects stored in object streams are returned with Offset -1. Free,
// missing and generation-mismatched objects yield a ReferenceError with
// code DanglingReference. In tolerant mode an object whose table offset
// does not hold its header is looked up by scanning the file; the defect
// is attached to the returned object.
func (r *Reader) ReadObject(id core.ObjectID) (*core.IndirectObject, error) {
	if c, ok := r.objCache[id]; ok {
		return c.obj, c.err
	}
	if r.pending[id] {
		e := core.NewError(core.ReferenceError, core.CircularReference, -1, "object is needed to read itself")
		e.Object = id
		return nil, e
	}

	r.pending[id] = true
	obj, err := r.readObject(id)
	delete(r.pending, id)

	r.objCache[id] = &cachedObject{obj: obj, err: err}
	return obj, err
}

func (r *Reader) readObject(id core.ObjectID) (*core.IndirectObject, error) {
	e, ok := r.xref.Get(int(id.Number))
	switch {
	case !ok:
		return nil, dangling(id, "not in the cross-reference table")
	case e.Type == core.XRefFree:
		return nil, dangling(id, "free")
	}
	if _, ok := r.xref.Lookup(id); !ok {
		return nil, dangling(id, "generation differs from the cross-reference table")
	}

	if e.Type == core.XRefCompressed {
		return r.readCompressed(id, e)
	}
	if e.Unresolved {
		err := core.NewError(core.ReferenceError, core.OffsetOutOfBounds, e.Offset, "offset outside the file (%d bytes)", len(r.data))
		err.Object = id
		return nil, err
	}
	return r.readAt(id, e.Offset)
}

func dangling(id core.ObjectID, why string) *core.Error {
	e := core.NewError(core.ReferenceError, core.DanglingReference, -1, "object %s is %s", id, why)
	e.Object = id
	return e
}

func (r *Reader) parseAt(offset int64) (*core.IndirectObject, error) {
	p := core.NewParser(r.data)
	p.SetMode(r.mode)
	p.SetLimits(r.limits)
	p.SetReferenceResolver(r)
	p.SeekTo(offset)
	return p.ParseIndirectObject()
}

// readAt parses the object at offset and checks its header.
func (r *Reader) readAt(id core.ObjectID, offset int64) (*core.IndirectObject, error) {
	obj, err := r.parseAt(offset)
	if err == nil && obj.Ref.ID() == id {
		return obj, nil
	}
	if core.IsFatal(err) {
		return nil, err
	}

	var cause *core.Error
	if err != nil {
		cause = asIssue(err, core.StructuralError, core.InvalidObjectHeader, offset)
	} else {
		cause = core.NewError(core.StructuralError, core.InvalidObjectHeader, offset, "found object %s instead", obj.Ref.ID())
	}
	if cause.Object == (core.ObjectID{}) {
		cause.Object = id
	}
	if r.mode == core.Strict {
		return nil, cause
	}

	alt, ok := r.scannedOffset(id)
	if !ok || alt == offset {
		return nil, cause
	}
	obj, err = r.parseAt(alt)
	if err != nil || obj.Ref.ID() != id {
		return nil, cause
	}
	logging.Issue(r.log, cause).WithField("found_at", alt).Warn("object not at its cross-reference offset")
	obj.Issues = append([]*core.Error{cause}, obj.Issues...)
	return obj, nil
}

// scannedOffset returns the offset of the last "N G obj" header for id.
func (r *Reader) scannedOffset(id core.ObjectID) (int64, bool) {
	if r.scan == nil {
		r.scan = make(map[core.ObjectID]int64)
		found, _ := core.ScanObjectHeaders(r.data, r.limits.MaxObjects)
		for _, h := range found {
			r.scan[h.Ref.ID()] = h.Offset
		}
	}
	off, ok := r.scan[id]
	return off, ok
}

func (r *Reader) readCompressed(id core.ObjectID, e *core.XRefEntry) (*core.IndirectObject, error) {
	stm, err := r.ObjectStream(e.StreamNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "object %s in object stream %d", id, e.StreamNumber)
	}

	var issues []*core.Error
	obj, num, err := stm.GetObjectByIndex(e.Index)
	if err == nil && num != int(id.Number) {
		mismatch := core.NewError(core.StructuralError, core.InvalidObjectHeader, -1,
			"object stream %d slot %d holds object %d", e.StreamNumber, e.Index, num)
		mismatch.Object = id
		if r.mode == core.Strict {
			return nil, mismatch
		}
		issues = append(issues, mismatch)
		obj, _, err = stm.GetObjectByNumber(int(id.Number))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "object %s in object stream %d", id, e.StreamNumber)
	}
	return &core.IndirectObject{Ref: id.Ref(), Object: obj, Offset: -1, Issues: issues}, nil
}

// ObjectStream returns the decoded-on-demand object stream stored as
// object num. Object streams may not themselves be compressed.
func (r *Reader) ObjectStream(num int) (*core.ObjectStream, error) {
	if c, ok := r.objStms[num]; ok {
		return c.stm, c.err
	}
	stm, err := r.loadObjectStream(num)
	r.objStms[num] = &cachedObjStm{stm: stm, err: err}
	return stm, err
}

func (r *Reader) loadObjectStream(num int) (*core.ObjectStream, error) {
	id := core.IndirectRef{Number: num}.ID()
	e, ok := r.xref.Get(num)
	if !ok || e.Type == core.XRefFree {
		return nil, dangling(id, "not a live object stream")
	}
	if e.Type == core.XRefCompressed {
		err := core.NewError(core.StructuralError, core.UnexpectedToken, -1, "object stream %d is stored in object stream %d", num, e.StreamNumber)
		err.Object = id
		return nil, err
	}

	obj, err := r.ReadObject(core.IndirectRef{Number: num, Generation: e.Generation}.ID())
	if err != nil {
		return nil, err
	}
	s, ok := obj.Object.(*core.Stream)
	if !ok {
		err := core.NewError(core.StructuralError, core.UnexpectedToken, obj.Offset, "object stream %d is a %s", num, obj.Object.Type())
		err.Object = obj.Ref.ID()
		return nil, err
	}
	stm, err := core.NewObjectStream(s)
	if err != nil {
		return nil, err
	}
	stm.SetMode(r.mode)
	return stm, nil
}

// ResolveReference resolves an indirect reference
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	if !ref.Valid() {
		return nil, core.NewError(core.ReferenceError, core.DanglingReference, -1, "invalid reference %s", ref)
	}
	obj, err := r.ReadObject(ref.ID())
	if err != nil {
		return nil, err
	}
	return obj.Object, nil
}

// Resolve resolves an object if it's an indirect reference, otherwise returns it as-is
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog() (core.Dict, error) {
	ref, ok := r.Trailer().GetIndirectRef("Root")
	if !ok {
		return nil, core.NewError(core.StructuralError, core.MissingKeyword, -1, "trailer has no /Root reference")
	}

	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve catalog")
	}

	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, core.NewError(core.StructuralError, core.UnexpectedToken, -1, "catalog is a %s, not a dictionary", obj.Type())
	}
	return catalog, nil
}

// GetInfo returns the document info dictionary, or nil when the trailer
// has none.
func (r *Reader) GetInfo() (core.Dict, error) {
	ref, ok := r.Trailer().GetIndirectRef("Info")
	if !ok {
		return nil, nil
	}

	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve info")
	}

	info, ok := obj.(core.Dict)
	if !ok {
		return nil, core.NewError(core.StructuralError, core.UnexpectedToken, -1, "info is a %s, not a dictionary", obj.Type())
	}
	return info, nil
}

// Version returns the effective version: the header version, or the
// catalog /Version when that is newer.
func (r *Reader) Version() PDFVersion {
	return r.version
}

// HeaderVersion returns the version named by the %PDF- header.
func (r *Reader) HeaderVersion() PDFVersion {
	return r.header
}

// HeaderOffset returns the offset of the %PDF- marker, or -1.
func (r *Reader) HeaderOffset() int64 {
	return r.headerOffset
}

// Mode returns the reading mode.
func (r *Reader) Mode() core.Mode {
	return r.mode
}

// Limits returns the effective resource ceilings.
func (r *Reader) Limits() core.Limits {
	return r.limits
}

// Logger returns the logger the reader reports to.
func (r *Reader) Logger() logrus.FieldLogger {
	return r.log
}

// Data returns the input bytes.
func (r *Reader) Data() []byte {
	return r.data
}

// Size returns the input size in bytes.
func (r *Reader) Size() int64 {
	return int64(len(r.data))
}

// XRefTable returns the merged cross-reference table.
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xref
}

// Revisions returns the revision chain, newest first.
func (r *Reader) Revisions() []*core.Revision {
	return r.revisions
}

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() core.Dict {
	return r.xref.Trailer
}

// Repaired reports whether the table was rebuilt by scanning because the
// cross-reference chain was unreadable.
func (r *Reader) Repaired() bool {
	return r.repaired
}

// Linearization returns the linearization dictionary, or nil.
func (r *Reader) Linearization() *Linearization {
	return r.linearized
}

// Issues returns the document-level defects: header problems and every
// issue recorded while resolving cross-reference data.
func (r *Reader) Issues() []*core.Error {
	out := make([]*core.Error, 0, len(r.issues)+len(r.xref.Issues))
	out = append(out, r.issues...)
	return append(out, r.xref.Issues...)
}

// NumObjects returns the trailer /Size.
func (r *Reader) NumObjects() int {
	size, ok := r.Trailer().GetInt("Size")
	if !ok {
		return 0
	}
	return int(size)
}

// ClearCache drops every parsed object and object stream.
func (r *Reader) ClearCache() {
	r.objCache = make(map[core.ObjectID]*cachedObject)
	r.objStms = make(map[int]*cachedObjStm)
}

// CacheSize returns the number of cached objects
func (r *Reader) CacheSize() int {
	return len(r.objCache)
}

func asIssue(err error, kind core.ErrorKind, code core.ParseErrorKind, offset int64) *core.Error {
	if pe, ok := core.AsError(err); ok {
		return pe
	}
	e := core.NewError(kind, code, offset, "")
	e.Err = err
	return e
}
