package core

import (
	"io"
)

// ObjectStream represents a PDF Object Stream (Type /ObjStm), introduced in PDF 1.5.
// Object streams store multiple objects in a single compressed stream, providing
// better compression than storing objects individually.
//
// The decoded data starts with N pairs of integers (object number and offset
// relative to /First) followed by the objects themselves. Objects inside an
// object stream can not be streams and carry generation 0.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	extends *IndirectRef
	mode    Mode
	limits  Limits

	objects map[int]Object
	offsets []objectStreamOffset
	decoded []byte
	err     error
}

type objectStreamOffset struct {
	ObjNum int
	Offset int // relative to First
}

// NewObjectStream creates an ObjectStream from a Stream object.
// The stream must have Type /ObjStm and required entries /N and /First.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, NewError(StructuralError, UnexpectedToken, -1, "object stream is nil")
	}
	off := stream.Offset()

	if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
		return nil, NewError(StructuralError, UnexpectedToken, off, "stream is not an object stream, got /Type %v", stream.Dict.Get("Type"))
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, NewError(StructuralError, MissingKeyword, off, "object stream has invalid /N %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, NewError(StructuralError, MissingKeyword, off, "object stream has invalid /First %v", stream.Dict.Get("First"))
	}

	limits := stream.limits.WithDefaults()
	if int64(n) > int64(limits.MaxObjects) {
		return nil, limitError(off, "object stream declares %d objects, at most %d allowed", n, limits.MaxObjects)
	}

	o := &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		limits:  limits,
		objects: make(map[int]Object),
	}
	if ref, ok := stream.Dict.GetIndirectRef("Extends"); ok {
		o.extends = &ref
	}
	return o, nil
}

// SetMode selects strict or tolerant parsing of the embedded objects.
func (o *ObjectStream) SetMode(m Mode) {
	o.mode = m
}

// N returns the number of objects stored in the stream.
func (o *ObjectStream) N() int {
	return o.n
}

// First returns the byte offset to the first object's data in the decoded stream.
func (o *ObjectStream) First() int {
	return o.first
}

// Extends returns the reference to another object stream this one extends, or nil.
func (o *ObjectStream) Extends() *IndirectRef {
	return o.extends
}

// decode decodes the stream data and parses the header once.
func (o *ObjectStream) decode() error {
	if o.decoded != nil || o.err != nil {
		return o.err
	}

	decoded, err := o.stream.Decode()
	if err != nil {
		o.err = err
		return err
	}
	o.decoded = decoded
	if err := o.parseHeader(); err != nil {
		o.err = err
		return err
	}
	return nil
}

// parseHeader parses the N pairs of integers in front of First.
func (o *ObjectStream) parseHeader() error {
	if o.first > len(o.decoded) {
		return NewError(StructuralError, OffsetOutOfBounds, o.stream.Offset(),
			"/First %d exceeds decoded length %d", o.first, len(o.decoded))
	}

	p := NewParser(o.decoded[:o.first])
	p.SetMode(Strict)
	p.SetLimits(o.limits)

	o.offsets = make([]objectStreamOffset, 0, o.n)
	for i := 0; i < o.n; i++ {
		num, err := p.ParseObject()
		if err != nil {
			return o.headerError(i, err)
		}
		off, err := p.ParseObject()
		if err != nil {
			return o.headerError(i, err)
		}
		numInt, ok1 := num.(Int)
		offInt, ok2 := off.(Int)
		if !ok1 || !ok2 || numInt <= 0 || offInt < 0 {
			return NewError(StructuralError, UnexpectedToken, o.stream.Offset(),
				"object stream header pair %d is %v %v", i, num, off)
		}
		o.offsets = append(o.offsets, objectStreamOffset{ObjNum: int(numInt), Offset: int(offInt)})
	}
	return nil
}

func (o *ObjectStream) headerError(i int, err error) error {
	if err == io.EOF {
		return NewError(StructuralError, UnexpectedEOF, o.stream.Offset(),
			"object stream header has %d of %d pairs", i, o.n)
	}
	return err
}

// GetObjectByIndex extracts an object by its index within the stream (0-based).
// Returns the object and its object number.
func (o *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := o.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(o.offsets) {
		return nil, 0, NewError(ReferenceError, OffsetOutOfBounds, o.stream.Offset(),
			"index %d out of range [0, %d)", index, len(o.offsets))
	}
	num := o.offsets[index].ObjNum
	if obj, ok := o.objects[index]; ok {
		return obj, num, nil
	}

	start := o.first + o.offsets[index].Offset
	if start >= len(o.decoded) {
		return nil, num, NewError(StructuralError, OffsetOutOfBounds, o.stream.Offset(),
			"object %d at offset %d beyond decoded length %d", num, start, len(o.decoded))
	}

	// objects are read with the whole remainder visible; the parser stops
	// after one value
	p := NewParser(o.decoded)
	p.SetMode(o.mode)
	p.SetLimits(o.limits)
	p.object = ObjectID{Number: uint32(num)}
	p.SeekTo(int64(start))

	obj, err := p.ParseObject()
	if err == io.EOF {
		err = NewError(StructuralError, UnexpectedEOF, int64(start), "object %d is empty", num)
	}
	if err != nil {
		return nil, num, err
	}

	o.objects[index] = obj
	return obj, num, nil
}

// GetObjectByNumber finds and extracts an object by its object number.
// Returns the object and its index within the stream.
func (o *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	if err := o.decode(); err != nil {
		return nil, 0, err
	}
	for i, entry := range o.offsets {
		if entry.ObjNum == objNum {
			obj, _, err := o.GetObjectByIndex(i)
			return obj, i, err
		}
	}
	return nil, 0, NewError(ReferenceError, DanglingReference, o.stream.Offset(),
		"object %d not found in object stream", objNum)
}

// ObjectNumbers returns a slice of all object numbers stored in this stream.
func (o *ObjectStream) ObjectNumbers() ([]int, error) {
	if err := o.decode(); err != nil {
		return nil, err
	}
	nums := make([]int, len(o.offsets))
	for i, entry := range o.offsets {
		nums[i] = entry.ObjNum
	}
	return nums, nil
}

// ContainsObject reports whether the given object number is stored in this stream.
func (o *ObjectStream) ContainsObject(objNum int) (bool, error) {
	if err := o.decode(); err != nil {
		return false, err
	}
	for _, entry := range o.offsets {
		if entry.ObjNum == objNum {
			return true, nil
		}
	}
	return false, nil
}
