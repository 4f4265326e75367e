package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

var objectTypeNames = [...]string{
	ObjNull:     "Null",
	ObjBool:     "Bool",
	ObjInt:      "Int",
	ObjReal:     "Real",
	ObjString:   "String",
	ObjName:     "Name",
	ObjArray:    "Array",
	ObjDict:     "Dict",
	ObjStream:   "Stream",
	ObjIndirect: "IndirectRef",
}

// String returns the string representation of the object type
func (t ObjectType) String() string {
	if t >= 0 && int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return "Unknown"
}

// ObjectID identifies an indirect object. The same number may appear in
// several revisions with different generations.
type ObjectID struct {
	Number     uint32
	Generation uint16
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d", id.Number, id.Generation)
}

// Less orders ids by number, then generation.
func (id ObjectID) Less(other ObjectID) bool {
	if id.Number != other.Number {
		return id.Number < other.Number
	}
	return id.Generation < other.Generation
}

// Ref returns the reference that names id.
func (id ObjectID) Ref() IndirectRef {
	return IndirectRef{Number: int(id.Number), Generation: int(id.Generation)}
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string. Value holds the exact bytes after escape
// processing; Hex records whether it was written as <...>.
type String struct {
	Value []byte
	Hex   bool
}

// NewString returns a literal string holding s.
func NewString(s string) String {
	return String{Value: []byte(s)}
}

func (s String) Type() ObjectType { return ObjString }

// String returns the string in PDF syntax.
func (s String) String() string {
	if s.Hex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for _, c := range s.Value {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&sb, "\\%03o", c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Name is a PDF name, stored without its leading slash and with #xx escapes
// resolved.
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return n.Raw() }

// Raw returns the name in PDF syntax: a leading slash, with delimiters,
// whitespace and non-printable bytes written as #xx.
func (n Name) Raw() string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(&sb, "#%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, obj := range a {
		parts = append(parts, objectString(obj))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// Dict represents a PDF dictionary. Keys are names without the slash.
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	parts := make([]string, 0, len(d))
	for _, key := range d.Keys() {
		parts = append(parts, Name(key).Raw()+" "+objectString(d[key]))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get retrieves a value from the dictionary
func (d Dict) Get(key string) Object {
	return d[key]
}

// GetName retrieves a name value
func (d Dict) GetName(key string) (Name, bool) {
	name, ok := d[key].(Name)
	return name, ok
}

// GetInt retrieves an integer value
func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

// GetDict retrieves a dictionary value
func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

// GetArray retrieves an array value
func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

// GetString retrieves a string value
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

// GetBool retrieves a boolean value
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d[key].(Bool)
	return b, ok
}

// GetStream retrieves a stream value
func (d Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d[key].(*Stream)
	return s, ok
}

// GetIndirectRef retrieves an indirect reference
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// Has checks if a key exists in the dictionary
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set sets a value in the dictionary
func (d Dict) Set(key string, value Object) {
	d[key] = value
}

// Keys returns all keys in the dictionary in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IndirectRef represents an indirect object reference
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// ID converts the reference to an ObjectID. Out-of-range numbers are clamped
// to zero; callers validate with Valid first.
func (r IndirectRef) ID() ObjectID {
	if !r.Valid() {
		return ObjectID{}
	}
	return ObjectID{Number: uint32(r.Number), Generation: uint16(r.Generation)}
}

// Valid reports whether the reference fits the u32/u16 id ranges and names
// a real object (object 0 is always the free-list head).
func (r IndirectRef) Valid() bool {
	return r.Number > 0 && int64(r.Number) <= 0xFFFFFFFF && r.Generation >= 0 && r.Generation <= 0xFFFF
}

// IndirectObject is an object parsed from an "N G obj ... endobj" block.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
	Offset int64    // offset of the object header
	Size   int64    // bytes from the header to just past endobj
	Issues []*Error // recoverable defects seen while parsing, tolerant mode only
}

func objectString(obj Object) string {
	if obj == nil {
		return "null"
	}
	return obj.String()
}
