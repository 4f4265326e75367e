package core

// Mode selects how parse defects are handled.
type Mode int

const (
	// Tolerant records recoverable defects on the affected object and
	// keeps going.
	Tolerant Mode = iota
	// Strict aborts on the first malformed construct.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "tolerant"
}

// Limits bounds the resources any single parse may consume. A zero field
// means the default from DefaultLimits.
type Limits struct {
	MaxDepth        int   // nesting of arrays and dictionaries, and reference expansion
	MaxObjectSize   int64 // bytes in a single raw stream or object
	MaxArrayLength  int
	MaxDictLength   int
	MaxStringLength int
	MaxDecodeSize   int64 // bytes produced by a filter chain
	MaxFilters      int   // filters in one chain
	MaxObjects      int   // objects scanned and graph nodes created
	MaxXRefChain    int   // revisions followed through /Prev
}

// DefaultLimits returns limits suitable for analysing untrusted input.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        128,
		MaxObjectSize:   256 << 20,
		MaxArrayLength:  1 << 20,
		MaxDictLength:   1 << 16,
		MaxStringLength: 32 << 20,
		MaxDecodeSize:   512 << 20,
		MaxFilters:      16,
		MaxObjects:      4 << 20,
		MaxXRefChain:    1024,
	}
}

// WithDefaults returns a copy of l with every zero field replaced by its
// default.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxObjectSize <= 0 {
		l.MaxObjectSize = d.MaxObjectSize
	}
	if l.MaxArrayLength <= 0 {
		l.MaxArrayLength = d.MaxArrayLength
	}
	if l.MaxDictLength <= 0 {
		l.MaxDictLength = d.MaxDictLength
	}
	if l.MaxStringLength <= 0 {
		l.MaxStringLength = d.MaxStringLength
	}
	if l.MaxDecodeSize <= 0 {
		l.MaxDecodeSize = d.MaxDecodeSize
	}
	if l.MaxFilters <= 0 {
		l.MaxFilters = d.MaxFilters
	}
	if l.MaxObjects <= 0 {
		l.MaxObjects = d.MaxObjects
	}
	if l.MaxXRefChain <= 0 {
		l.MaxXRefChain = d.MaxXRefChain
	}
	return l
}
