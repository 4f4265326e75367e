package core

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectStrings(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
		typ  ObjectType
	}{
		{"null", Null{}, "null", ObjNull},
		{"true", Bool(true), "true", ObjBool},
		{"false", Bool(false), "false", ObjBool},
		{"int", Int(-42), "-42", ObjInt},
		{"real", Real(3.25), "3.25", ObjReal},
		{"literal", NewString("a(b)\n"), `(a\(b\)\n)`, ObjString},
		{"literal binary", String{Value: []byte{0x01, 'x'}}, `(\001x)`, ObjString},
		{"hex", String{Value: []byte{0xAB, 0x01}, Hex: true}, "<AB01>", ObjString},
		{"name", Name("Type"), "/Type", ObjName},
		{"array", Array{Int(1), Name("X"), nil}, "[1 /X null]", ObjArray},
		{"dict", Dict{"B": Int(2), "A": Bool(true)}, "<</A true /B 2>>", ObjDict},
		{"ref", IndirectRef{Number: 12, Generation: 3}, "12 3 R", ObjIndirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obj.String())
			assert.Equal(t, tt.typ, tt.obj.Type())
		})
	}
}

func TestObjectTypeString(t *testing.T) {
	assert.Equal(t, "Dict", ObjDict.String())
	assert.Equal(t, "IndirectRef", ObjIndirect.String())
	assert.Equal(t, "Unknown", ObjectType(-1).String())
}

func TestNameRaw(t *testing.T) {
	tests := []struct {
		name Name
		want string
	}{
		{"Type", "/Type"},
		{"A B", "/A#20B"},
		{"a#b", "/a#23b"},
		{"x/y", "/x#2Fy"},
		{"", "/"},
		{"\xe9", "/#E9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.name.Raw())
	}
}

func TestNameRawRoundTrip(t *testing.T) {
	for _, n := range []Name{"Plain", "with space", "hash#", "(paren)", "\x00\xff"} {
		obj, _, err := ParseValueAt([]byte(n.Raw()), 0)
		require.NoError(t, err)
		assert.Equal(t, n, obj)
	}
}

func TestDictAccessors(t *testing.T) {
	s := NewStream(nil, []byte("x"))
	d := Dict{
		"Name":  Name("N"),
		"Int":   Int(7),
		"Dict":  Dict{},
		"Array": Array{},
		"Str":   NewString("s"),
		"Bool":  Bool(true),
		"Strm":  s,
		"Ref":   IndirectRef{Number: 1},
	}

	_, ok := d.GetName("Name")
	assert.True(t, ok)
	_, ok = d.GetName("Int")
	assert.False(t, ok)
	i, ok := d.GetInt("Int")
	assert.True(t, ok)
	assert.Equal(t, Int(7), i)
	_, ok = d.GetDict("Dict")
	assert.True(t, ok)
	_, ok = d.GetArray("Array")
	assert.True(t, ok)
	_, ok = d.GetString("Str")
	assert.True(t, ok)
	_, ok = d.GetBool("Bool")
	assert.True(t, ok)
	got, ok := d.GetStream("Strm")
	assert.True(t, ok)
	assert.Same(t, s, got)
	ref, ok := d.GetIndirectRef("Ref")
	assert.True(t, ok)
	assert.Equal(t, 1, ref.Number)

	assert.True(t, d.Has("Int"))
	assert.False(t, d.Has("Missing"))
	assert.Nil(t, d.Get("Missing"))
	d.Set("New", Null{})
	assert.Equal(t, []string{"Array", "Bool", "Dict", "Int", "Name", "New", "Ref", "Str", "Strm"}, d.Keys())
}

func TestArrayAccessors(t *testing.T) {
	a := Array{Int(1), Name("N")}
	assert.Equal(t, 2, a.Len())
	assert.Nil(t, a.Get(-1))
	assert.Nil(t, a.Get(2))
	i, ok := a.GetInt(0)
	assert.True(t, ok)
	assert.Equal(t, Int(1), i)
	_, ok = a.GetInt(1)
	assert.False(t, ok)
	n, ok := a.GetName(1)
	assert.True(t, ok)
	assert.Equal(t, Name("N"), n)
}

func TestIndirectRefValid(t *testing.T) {
	tests := []struct {
		ref  IndirectRef
		want bool
	}{
		{IndirectRef{Number: 1}, true},
		{IndirectRef{Number: 0}, false},
		{IndirectRef{Number: -1}, false},
		{IndirectRef{Number: 1, Generation: 65535}, true},
		{IndirectRef{Number: 1, Generation: 65536}, false},
		{IndirectRef{Number: 0xFFFFFFFF}, true},
		{IndirectRef{Number: 0x100000000}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ref.Valid(), tt.ref.String())
	}

	id := IndirectRef{Number: 9, Generation: 2}.ID()
	assert.Equal(t, ObjectID{Number: 9, Generation: 2}, id)
	assert.Equal(t, IndirectRef{Number: 9, Generation: 2}, id.Ref())
	assert.Equal(t, "9 2", id.String())
	assert.Equal(t, ObjectID{}, IndirectRef{Number: -3}.ID())
}

func TestObjectIDLess(t *testing.T) {
	assert.True(t, ObjectID{Number: 1, Generation: 5}.Less(ObjectID{Number: 2}))
	assert.True(t, ObjectID{Number: 2}.Less(ObjectID{Number: 2, Generation: 1}))
	assert.False(t, ObjectID{Number: 2}.Less(ObjectID{Number: 2}))
}

func TestStringText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("Report"), "Report"},
		{"latin1", []byte{'c', 'a', 'f', 0xe9}, "café"},
		{"pdfdoc bullet", []byte{0x80, ' ', 0x92}, "• ™"},
		{"utf16be", []byte{0xfe, 0xff, 0x00, 'H', 0x00, 'i', 0x26, 0x3a}, "Hi☺"},
		{"utf8 bom", []byte("\xef\xbb\xbfna\xc3\xafve"), "naïve"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String{Value: tt.in}.Text())
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	e := NewError(StructuralError, MissingKeyword, 120, "missing %s", "endobj")
	e.Object = ObjectID{Number: 4}
	assert.Equal(t, "StructuralError(MissingKeyword) in object 4 0 at offset 120: missing endobj", e.Error())

	e = &Error{Kind: FilterError, Offset: -1, Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "FilterError: unexpected EOF", e.Error())
	assert.True(t, errors.Is(e, io.ErrUnexpectedEOF))

	assert.Equal(t, "LimitExceeded", LimitExceeded.String())
	assert.Equal(t, "ParseErrorKind(999)", ParseErrorKind(999).String())
	assert.Equal(t, "UnknownError", ErrorKind(0).String())
}

func TestErrorHelpers(t *testing.T) {
	limit := limitError(5, "too deep")
	wrapped := errors.Wrap(limit, "parsing page")

	assert.True(t, IsFatal(wrapped))
	assert.Equal(t, ResourceLimitExceeded, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, ResourceLimitExceeded))
	assert.False(t, IsKind(nil, ResourceLimitExceeded))
	assert.Equal(t, ErrorKind(0), KindOf(io.EOF))

	pe, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, limit, pe)

	conv := toError(io.EOF, StructuralError, UnexpectedEOF, 9)
	assert.Equal(t, StructuralError, conv.Kind)
	assert.Equal(t, int64(9), conv.Offset)
	assert.Same(t, limit, toError(wrapped, StructuralError, UnexpectedEOF, 0))
}

func TestLimitsWithDefaults(t *testing.T) {
	l := Limits{MaxDepth: 3}.WithDefaults()
	d := DefaultLimits()
	assert.Equal(t, 3, l.MaxDepth)
	assert.Equal(t, d.MaxDecodeSize, l.MaxDecodeSize)
	assert.Equal(t, d.MaxXRefChain, l.MaxXRefChain)
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "tolerant", Tolerant.String())
}
