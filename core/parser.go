package core

import (
	"bytes"
	"io"
	"strconv"
)

// ReferenceResolver is an interface for resolving indirect references.
// This allows the parser to resolve indirect stream lengths when needed.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from a byte slice using a Lexer for tokenization.
// It supports parsing all PDF object types including indirect objects and streams.
//
// In Tolerant mode recoverable defects are collected and returned with the
// object (see IndirectObject.Issues and Parser.Issues); in Strict mode the
// first defect is returned as the error. Limit violations are always errors.
type Parser struct {
	lex      *Lexer
	mode     Mode
	limits   Limits
	resolver ReferenceResolver
	issues   []*Error
	object   ObjectID // object being parsed, for error attribution
}

// NewParser creates a parser over data, positioned at offset 0, in tolerant
// mode with default limits.
func NewParser(data []byte) *Parser {
	p := &Parser{
		lex:    NewLexer(data),
		limits: DefaultLimits(),
	}
	p.lex.SetMaxStringLength(p.limits.MaxStringLength)
	return p
}

// SetReferenceResolver sets the reference resolver for the parser.
// This is needed to resolve indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// SetMode selects strict or tolerant parsing.
func (p *Parser) SetMode(m Mode) {
	p.mode = m
}

// SetLimits replaces the parser limits. Zero fields take defaults.
func (p *Parser) SetLimits(l Limits) {
	p.limits = l.WithDefaults()
	p.lex.SetMaxStringLength(p.limits.MaxStringLength)
}

// SeekTo moves the parser to an absolute offset.
func (p *Parser) SeekTo(offset int64) {
	p.lex.SeekTo(offset)
}

// Pos returns the offset just past the last consumed token.
func (p *Parser) Pos() int64 {
	return p.lex.Pos()
}

// Issues returns and clears the recoverable defects collected since the
// last call.
func (p *Parser) Issues() []*Error {
	issues := p.issues
	p.issues = nil
	return issues
}

// ParseValueAt parses one value from data starting at offset and returns it
// together with the offset immediately after it. Parsing is strict.
func ParseValueAt(data []byte, offset int64) (Object, int64, error) {
	p := NewParser(data)
	p.SetMode(Strict)
	p.SeekTo(offset)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, p.Pos(), err
	}
	return obj, p.Pos(), nil
}

// recoverable records err as an issue when running tolerant and reports
// whether parsing may continue.
func (p *Parser) recoverable(err error) bool {
	pe := toError(err, StructuralError, UnknownParseError, p.lex.Pos())
	if p.mode == Strict || pe.Fatal() {
		return false
	}
	if pe.Object == (ObjectID{}) {
		pe.Object = p.object
	}
	p.issues = append(p.issues, pe)
	return true
}

// next returns the next non-comment token.
func (p *Parser) next() (*Token, error) {
	for {
		tok, err := p.lex.NextToken()
		for _, w := range p.lex.Warnings() {
			if !p.recoverable(w) {
				return nil, w
			}
		}
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenComment {
			return tok, nil
		}
	}
}

// ParseObject parses and returns the next PDF object from the input.
// It handles all PDF object types: null, boolean, integer, real, string,
// name, array, dictionary, and indirect references. At end of input it
// returns io.EOF.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEOF {
		return nil, io.EOF
	}
	return p.parseValue(tok, 0)
}

func (p *Parser) parseValue(tok *Token, depth int) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, NewError(StructuralError, UnexpectedEOF, tok.Pos, "unexpected end of input")

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, NewError(TokenError, UnexpectedToken, tok.Pos, "unexpected keyword %q", tok.Value)

	case TokenInteger:
		return p.parseNumber(tok)

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, NewError(TokenError, MalformedNumber, tok.Pos, "invalid real %q", tok.Value)
		}
		return Real(val), nil

	case TokenString:
		return String{Value: tok.Value}, nil

	case TokenHexString:
		return String{Value: tok.Value, Hex: true}, nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray(tok, depth+1)

	case TokenDictStart:
		return p.parseDict(tok, depth+1)
	}
	return nil, NewError(TokenError, UnexpectedToken, tok.Pos, "unexpected %s token", tok.Type)
}

// parseNumber parses an integer, real number, or indirect reference.
// Indirect references are detected by lookahead: "num gen R" pattern.
func (p *Parser) parseNumber(tok *Token) (Object, error) {
	first, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		// too large for int64
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, NewError(TokenError, MalformedNumber, tok.Pos, "invalid integer %q", tok.Value)
		}
		return Real(f), nil
	}

	save := p.lex.Pos()
	nWarn := len(p.lex.warnings)
	restore := func() {
		p.lex.SeekTo(save)
		p.lex.warnings = p.lex.warnings[:nWarn]
	}

	second, err := p.lex.NextToken()
	if err != nil || second.Type != TokenInteger {
		restore()
		return Int(first), nil
	}
	third, err := p.lex.NextToken()
	if err != nil || third.Type != TokenIndirectRef {
		restore()
		return Int(first), nil
	}
	gen, err := strconv.ParseInt(string(second.Value), 10, 64)
	if err != nil {
		restore()
		return Int(first), nil
	}
	return IndirectRef{Number: int(first), Generation: int(gen)}, nil
}

// isBoundary reports whether tok ends the current indirect object, so an
// unterminated array or dictionary must stop before it.
func isBoundary(tok *Token) bool {
	if tok.Type == TokenEOF {
		return true
	}
	if tok.Type != TokenKeyword {
		return false
	}
	switch string(tok.Value) {
	case "endobj", "obj", "stream", "endstream", "xref", "trailer", "startxref":
		return true
	}
	return false
}

// unterminated handles an array or dictionary cut off by tok.
func (p *Parser) unterminated(tok *Token, what string) error {
	code := MissingKeyword
	if tok.Type == TokenEOF {
		code = UnexpectedEOF
	}
	err := NewError(StructuralError, code, tok.Pos, "%s not closed", what)
	if !p.recoverable(err) {
		return err
	}
	p.lex.SeekTo(tok.Pos)
	return nil
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray(open *Token, depth int) (Object, error) {
	if depth > p.limits.MaxDepth {
		return nil, limitError(open.Pos, "nesting deeper than %d", p.limits.MaxDepth)
	}

	arr := Array{}
	for {
		tok, err := p.next()
		if err != nil {
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		if tok.Type == TokenArrayEnd {
			return arr, nil
		}
		if isBoundary(tok) {
			if err := p.unterminated(tok, "array"); err != nil {
				return nil, err
			}
			return arr, nil
		}
		if len(arr) >= p.limits.MaxArrayLength {
			return nil, limitError(open.Pos, "array longer than %d elements", p.limits.MaxArrayLength)
		}

		obj, err := p.parseValue(tok, depth)
		if err != nil {
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>".
func (p *Parser) parseDict(open *Token, depth int) (Object, error) {
	if depth > p.limits.MaxDepth {
		return nil, limitError(open.Pos, "nesting deeper than %d", p.limits.MaxDepth)
	}

	dict := make(Dict)
	for {
		tok, err := p.next()
		if err != nil {
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		if tok.Type == TokenDictEnd {
			return dict, nil
		}
		if isBoundary(tok) {
			if err := p.unterminated(tok, "dictionary"); err != nil {
				return nil, err
			}
			return dict, nil
		}
		if tok.Type != TokenName {
			err := NewError(StructuralError, UnexpectedToken, tok.Pos, "dictionary key must be a name, got %s", tok.Type)
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		key := string(tok.Value)
		if len(dict) >= p.limits.MaxDictLength {
			return nil, limitError(open.Pos, "dictionary larger than %d entries", p.limits.MaxDictLength)
		}

		valTok, err := p.next()
		if err != nil {
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		if valTok.Type == TokenDictEnd || isBoundary(valTok) {
			missing := NewError(StructuralError, UnexpectedToken, valTok.Pos, "missing value for key /%s", key)
			if !p.recoverable(missing) {
				return nil, missing
			}
			dict[key] = Null{}
			p.lex.SeekTo(valTok.Pos)
			continue
		}

		value, err := p.parseValue(valTok, depth)
		if err != nil {
			if p.recoverable(err) {
				continue
			}
			return nil, err
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj"
//
// A missing endobj is a StructuralError in strict mode and an issue on the
// returned object in tolerant mode.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.issues = nil
	p.object = ObjectID{}

	ref, start, err := p.parseObjectHeader()
	if err != nil {
		return nil, err
	}
	p.object = ref.ID()
	defer func() { p.object = ObjectID{} }()

	tok, err := p.next()
	if err != nil {
		if !p.recoverable(err) {
			return nil, err
		}
		tok = &Token{Type: TokenKeyword, Value: []byte("null"), Pos: p.lex.Pos()}
	}

	obj, err := p.parseValue(tok, 0)
	if err != nil {
		if !p.recoverable(err) {
			return nil, err
		}
		obj = Null{}
		p.skipToEndobj()
	}

	tok, err = p.next()
	if err != nil {
		if !p.recoverable(err) {
			return nil, err
		}
		tok = &Token{Type: TokenEOF, Pos: p.lex.Pos()}
	}

	if tok.Is("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			err := NewError(StructuralError, UnexpectedToken, tok.Pos, "stream keyword after %s", objectTypeOf(obj))
			if !p.recoverable(err) {
				return nil, err
			}
			p.skipToEndobj()
		} else {
			stream, err := p.parseStream(dict, tok)
			if err != nil {
				return nil, err
			}
			obj = stream
		}
		tok, err = p.next()
		if err != nil {
			if !p.recoverable(err) {
				return nil, err
			}
			tok = &Token{Type: TokenEOF, Pos: p.lex.Pos()}
		}
	}

	if !tok.Is("endobj") {
		err := NewError(StructuralError, MissingKeyword, tok.Pos, "missing endobj")
		if !p.recoverable(err) {
			return nil, err
		}
		// leave whatever follows for the next object
		p.lex.SeekTo(tok.Pos)
	}

	return &IndirectObject{
		Ref:    ref,
		Object: obj,
		Offset: start,
		Size:   p.lex.Pos() - start,
		Issues: p.Issues(),
	}, nil
}

// parseObjectHeader reads "num gen obj".
func (p *Parser) parseObjectHeader() (IndirectRef, int64, error) {
	numTok, err := p.next()
	if err != nil {
		return IndirectRef{}, 0, err
	}
	start := numTok.Pos
	if numTok.Type == TokenEOF {
		return IndirectRef{}, start, io.EOF
	}
	genTok, err := p.next()
	if err != nil {
		return IndirectRef{}, start, err
	}
	objTok, err := p.next()
	if err != nil {
		return IndirectRef{}, start, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger || !objTok.Is("obj") {
		return IndirectRef{}, start, NewError(StructuralError, InvalidObjectHeader, start, "expected \"N G obj\"")
	}

	num, err1 := strconv.ParseInt(string(numTok.Value), 10, 64)
	gen, err2 := strconv.ParseInt(string(genTok.Value), 10, 64)
	ref := IndirectRef{Number: int(num), Generation: int(gen)}
	if err1 != nil || err2 != nil || !ref.Valid() {
		return IndirectRef{}, start, NewError(StructuralError, InvalidObjectHeader, start,
			"object id %s %s out of range", numTok.Value, genTok.Value)
	}
	return ref, start, nil
}

// skipToEndobj positions the lexer at the next endobj keyword, or at the
// end of input.
func (p *Parser) skipToEndobj() {
	data := p.lex.Bytes()
	pos := p.lex.Pos()
	if idx := bytes.Index(data[pos:], []byte("endobj")); idx >= 0 {
		p.lex.SeekTo(pos + int64(idx))
		return
	}
	p.lex.SeekTo(int64(len(data)))
}

// parseStream parses a stream object after the "stream" keyword.
//
// The /Length entry is trusted only when the declared span ends at an
// endstream keyword; otherwise the data runs up to the first endstream
// found by scanning.
func (p *Parser) parseStream(dict Dict, kw *Token) (*Stream, error) {
	data := p.lex.Bytes()
	size := int64(len(data))

	// stream is followed by CRLF or LF; a lone CR is tolerated
	start := kw.End
	if start < size && data[start] == '\r' {
		start++
	}
	if start < size && data[start] == '\n' {
		start++
	}

	length, declared, err := p.streamLength(dict, kw.Pos)
	if err != nil {
		return nil, err
	}

	end := int64(-1)
	if declared && length >= 0 && start+length <= size && endstreamAt(data, start+length) {
		end = start + length
	}

	if end < 0 {
		idx := bytes.Index(data[start:], []byte("endstream"))
		if idx < 0 {
			err := NewError(StructuralError, TruncatedStream, start, "endstream not found")
			if !p.recoverable(err) {
				return nil, err
			}
			end = size
			if declared && length >= 0 && start+length <= size {
				end = start + length
			}
		} else {
			end = start + int64(idx)
			if end > start && data[end-1] == '\n' {
				end--
			}
			if end > start && data[end-1] == '\r' {
				end--
			}
			if declared {
				err := NewError(StructuralError, StreamLengthMismatch, start,
					"/Length %d but endstream found after %d bytes", length, end-start)
				if !p.recoverable(err) {
					return nil, err
				}
			}
		}
	}

	if end-start > p.limits.MaxObjectSize {
		return nil, limitError(start, "stream of %d bytes exceeds %d", end-start, p.limits.MaxObjectSize)
	}

	p.lex.SeekTo(end)
	save := p.lex.Pos()
	if tok, err := p.lex.NextToken(); err != nil || !tok.Is("endstream") {
		p.lex.SeekTo(save)
	}

	s := NewStream(dict, data[start:end])
	s.limits = p.limits
	s.offset = start
	return s, nil
}

// streamLength returns the declared /Length, resolving an indirect value
// through the reference resolver when one is set.
func (p *Parser) streamLength(dict Dict, pos int64) (int64, bool, error) {
	switch v := dict["Length"].(type) {
	case Int:
		return int64(v), true, nil
	case IndirectRef:
		if p.resolver == nil {
			return 0, false, nil
		}
		obj, err := p.resolver.ResolveReference(v)
		if err != nil {
			if IsFatal(err) {
				return 0, false, err
			}
			return 0, false, nil
		}
		if n, ok := obj.(Int); ok {
			return int64(n), true, nil
		}
		return 0, false, nil
	case nil:
		err := NewError(StructuralError, StreamLengthMismatch, pos, "stream dictionary has no /Length")
		if !p.recoverable(err) {
			return 0, false, err
		}
	}
	return 0, false, nil
}

// endstreamAt reports whether the endstream keyword follows pos after
// optional whitespace.
func endstreamAt(data []byte, pos int64) bool {
	for pos < int64(len(data)) && isWhitespace(data[pos]) {
		pos++
	}
	return bytes.HasPrefix(data[pos:], []byte("endstream"))
}

func objectTypeOf(obj Object) string {
	if obj == nil {
		return "nothing"
	}
	return obj.Type().String()
}
