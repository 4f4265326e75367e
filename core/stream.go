package core

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/internal/filters"
)

// StreamState records how far a stream has been decoded.
type StreamState int

const (
	// StreamRaw means Decode has not been called.
	StreamRaw StreamState = iota
	// StreamDecoded means the filter chain ran to completion.
	StreamDecoded
	// StreamFailed means the filter chain failed; partial output is kept.
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamDecoded:
		return "decoded"
	case StreamFailed:
		return "failed"
	default:
		return "raw"
	}
}

// Stream represents a PDF stream object. Data holds the raw bytes between
// the stream and endstream keywords; decoding is lazy and cached.
type Stream struct {
	Dict Dict
	Data []byte

	mu      sync.Mutex
	state   StreamState
	decoded []byte
	err     *Error

	limits Limits
	offset int64
}

// NewStream returns a stream over raw data with default limits.
func NewStream(dict Dict, data []byte) *Stream {
	if dict == nil {
		dict = Dict{}
	}
	return &Stream{Dict: dict, Data: data, limits: DefaultLimits(), offset: -1}
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// Offset returns the file offset of the first data byte, or -1 for streams
// not read from a file.
func (s *Stream) Offset() int64 {
	return s.offset
}

// State reports the decode state.
func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Decode runs the stream through its /Filter chain under the limits the
// stream was parsed with. The result is cached.
//
// On failure the partially decoded bytes are returned together with an
// *Error: FilterError for decode failures, ResourceLimitExceeded when the
// output or chain length limit is hit.
func (s *Stream) Decode() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StreamDecoded:
		return s.decoded, nil
	case StreamFailed:
		return s.decoded, s.err
	}

	l := s.limits.WithDefaults()
	out, err := s.decode(l.MaxDecodeSize, l.MaxFilters)
	s.decoded = out
	if err != nil {
		s.state = StreamFailed
		s.err = err
		return out, err
	}
	s.state = StreamDecoded
	return out, nil
}

// DecodeWithLimits decodes without touching the cache, producing at most
// maxBytes per filter stage and accepting at most maxFilters filters.
// Non-positive values mean unlimited.
func (s *Stream) DecodeWithLimits(maxBytes int64, maxFilters int) ([]byte, error) {
	out, err := s.decode(maxBytes, maxFilters)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (s *Stream) decode(maxBytes int64, maxFilters int) ([]byte, *Error) {
	chain, perr := s.filterChain()
	if perr != nil {
		return nil, perr
	}
	if len(chain) == 0 {
		if maxBytes > 0 && int64(len(s.Data)) > maxBytes {
			e := limitError(s.offset, "stream of %d bytes exceeds %d", len(s.Data), maxBytes)
			e.Partial = s.Data[:maxBytes]
			return e.Partial, e
		}
		return s.Data, nil
	}

	out, err := filters.Decode(s.Data, chain, filters.Limits{MaxOutput: maxBytes, MaxFilters: maxFilters})
	if err == nil {
		return out, nil
	}
	return out, s.filterError(err, out)
}

// filterError converts a filters error into an *Error carrying the
// partial output.
func (s *Stream) filterError(err error, partial []byte) *Error {
	e := &Error{Kind: FilterError, Code: DecodeFailed, Offset: s.offset, Err: err, Partial: partial}
	switch {
	case errors.Is(err, filters.ErrLimitExceeded):
		e.Kind = ResourceLimitExceeded
		e.Code = LimitExceeded
	case errors.Is(err, filters.ErrUnsupported), errors.Is(err, filters.ErrUnknownFilter):
		e.Code = UnsupportedFilter
	}
	return e
}

// FilterNames returns the stream's filter chain in application order, with
// abbreviated names expanded.
func (s *Stream) FilterNames() []string {
	chain, err := s.filterChain()
	if err != nil {
		return nil
	}
	names := make([]string, len(chain))
	for i, spec := range chain {
		names[i] = filters.Canonical(spec.Name)
	}
	return names
}

// filterChain reads /Filter and /DecodeParms. A single parameter dictionary
// with a filter array applies to every filter.
func (s *Stream) filterChain() ([]filters.Spec, *Error) {
	var names []Name
	switch f := s.Dict.Get("Filter").(type) {
	case nil, Null:
		return nil, nil
	case Name:
		names = []Name{f}
	case Array:
		for i, v := range f {
			n, ok := v.(Name)
			if !ok {
				return nil, NewError(FilterError, UnsupportedFilter, s.offset, "filter %d is %s, not a name", i, objectTypeOf(v))
			}
			names = append(names, n)
		}
	default:
		return nil, NewError(FilterError, UnsupportedFilter, s.offset, "/Filter is %s", objectTypeOf(f))
	}

	chain := make([]filters.Spec, len(names))
	parms := s.Dict.Get("DecodeParms")
	for i, n := range names {
		chain[i].Name = string(n)
		switch p := parms.(type) {
		case Dict:
			chain[i].Params = dictToParams(p)
		case Array:
			if d, ok := p.Get(i).(Dict); ok {
				chain[i].Params = dictToParams(d)
			}
		}
	}
	return chain, nil
}

// dictToParams converts a core.Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params)
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj.Value)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
