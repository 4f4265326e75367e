package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind is the coarse category of a parse failure.
type ErrorKind int

const (
	// TokenError is a malformed lexical unit.
	TokenError ErrorKind = iota + 1
	// StructuralError means dictionary, array, stream or object framing was violated.
	StructuralError
	// ReferenceError is a dangling, cyclic or out-of-bounds indirect reference.
	ReferenceError
	// XRefError is a corrupt or unreachable cross-reference section.
	XRefError
	// FilterError is a filter chain decode failure. It carries partial output.
	FilterError
	// ResourceLimitExceeded means a depth, size or count ceiling was hit.
	ResourceLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case TokenError:
		return "TokenError"
	case StructuralError:
		return "StructuralError"
	case ReferenceError:
		return "ReferenceError"
	case XRefError:
		return "XRefError"
	case FilterError:
		return "FilterError"
	case ResourceLimitExceeded:
		return "ResourceLimitExceeded"
	default:
		return "UnknownError"
	}
}

// ParseErrorKind is the fine-grained reason attached to an Error.
type ParseErrorKind int

const (
	UnknownParseError ParseErrorKind = iota
	UnexpectedToken
	UnexpectedEOF
	UnterminatedString
	MalformedNumber
	MalformedName
	MalformedHexString
	MissingKeyword
	TruncatedStream
	StreamLengthMismatch
	InvalidObjectHeader
	DanglingReference
	CircularReference
	OffsetOutOfBounds
	BrokenXRefChain
	MalformedXRef
	UnsupportedFilter
	DecodeFailed
	LimitExceeded
)

var parseErrorKindNames = map[ParseErrorKind]string{
	UnknownParseError:    "Unknown",
	UnexpectedToken:      "UnexpectedToken",
	UnexpectedEOF:        "UnexpectedEOF",
	UnterminatedString:   "UnterminatedString",
	MalformedNumber:      "MalformedNumber",
	MalformedName:        "MalformedName",
	MalformedHexString:   "MalformedHexString",
	MissingKeyword:       "MissingKeyword",
	TruncatedStream:      "TruncatedStream",
	StreamLengthMismatch: "StreamLengthMismatch",
	InvalidObjectHeader:  "InvalidObjectHeader",
	DanglingReference:    "DanglingReference",
	CircularReference:    "CircularReference",
	OffsetOutOfBounds:    "OffsetOutOfBounds",
	BrokenXRefChain:      "BrokenXRefChain",
	MalformedXRef:        "MalformedXRef",
	UnsupportedFilter:    "UnsupportedFilter",
	DecodeFailed:         "DecodeFailed",
	LimitExceeded:        "LimitExceeded",
}

func (k ParseErrorKind) String() string {
	if s, ok := parseErrorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// Error is the structured error produced by every stage of the parser.
//
// Offset is the byte offset the problem was detected at, or -1 when the
// problem has no position. Object is the indirect object being parsed; the
// zero ObjectID means "not inside an indirect object".
type Error struct {
	Kind    ErrorKind
	Code    ParseErrorKind
	Offset  int64
	Object  ObjectID
	Msg     string
	Err     error
	Partial []byte // partially decoded output, FilterError only
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Code != UnknownParseError {
		sb.WriteString("(")
		sb.WriteString(e.Code.String())
		sb.WriteString(")")
	}
	if e.Object != (ObjectID{}) {
		fmt.Fprintf(&sb, " in object %s", e.Object)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " at offset %d", e.Offset)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the current operation even in
// tolerant mode.
func (e *Error) Fatal() bool {
	return e.Kind == ResourceLimitExceeded
}

// NewError returns an Error of the given kind and code.
func NewError(kind ErrorKind, code ParseErrorKind, offset int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Code:   code,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func limitError(offset int64, format string, args ...interface{}) *Error {
	return NewError(ResourceLimitExceeded, LimitExceeded, offset, format, args...)
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf returns the ErrorKind of err, or 0 if err does not carry one.
func KindOf(err error) ErrorKind {
	if pe, ok := AsError(err); ok {
		return pe.Kind
	}
	return 0
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	return err != nil && KindOf(err) == k
}

// IsFatal reports whether err is a resource ceiling violation.
func IsFatal(err error) bool {
	return IsKind(err, ResourceLimitExceeded)
}

// toError converts any error into an *Error, keeping the original as cause.
func toError(err error, kind ErrorKind, code ParseErrorKind, offset int64) *Error {
	if pe, ok := AsError(err); ok {
		return pe
	}
	return &Error{Kind: kind, Code: code, Offset: offset, Err: err}
}
