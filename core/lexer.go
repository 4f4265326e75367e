package core

import (
	"bytes"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, etc.
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R (after two numbers)
)

var tokenTypeNames = [...]string{
	TokenEOF:         "EOF",
	TokenComment:     "Comment",
	TokenKeyword:     "Keyword",
	TokenInteger:     "Integer",
	TokenReal:        "Real",
	TokenString:      "String",
	TokenHexString:   "HexString",
	TokenName:        "Name",
	TokenArrayStart:  "ArrayStart",
	TokenArrayEnd:    "ArrayEnd",
	TokenDictStart:   "DictStart",
	TokenDictEnd:     "DictEnd",
	TokenIndirectRef: "R",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "Unknown"
}

// Token represents a lexical token. For strings, hex strings and names Value
// holds the decoded bytes; for everything else the source text.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // offset of the first byte
	End   int64 // offset just past the last byte
}

// Is reports whether t is the keyword kw.
func (t *Token) Is(kw string) bool {
	return t != nil && t.Type == TokenKeyword && string(t.Value) == kw
}

// Lexer splits a byte slice into PDF tokens. It never reads outside data
// and every call to NextToken makes progress, even on error.
type Lexer struct {
	data      []byte
	pos       int
	maxString int
	warnings  []*Error
}

// NewLexer creates a lexer positioned at the start of data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{
		data:      data,
		maxString: DefaultLimits().MaxStringLength,
	}
}

// SetMaxStringLength bounds the decoded length of string tokens.
func (l *Lexer) SetMaxStringLength(n int) {
	if n > 0 {
		l.maxString = n
	}
}

// Pos returns the current offset.
func (l *Lexer) Pos() int64 { return int64(l.pos) }

// Len returns the size of the input.
func (l *Lexer) Len() int64 { return int64(len(l.data)) }

// SeekTo moves the lexer to an absolute offset, clamped to the input.
func (l *Lexer) SeekTo(pos int64) {
	switch {
	case pos < 0:
		l.pos = 0
	case pos > int64(len(l.data)):
		l.pos = len(l.data)
	default:
		l.pos = int(pos)
	}
}

// Bytes returns the underlying input.
func (l *Lexer) Bytes() []byte { return l.data }

// Warnings returns and clears the recoverable lexical defects seen so far,
// such as name escapes that are not followed by two hex digits.
func (l *Lexer) Warnings() []*Error {
	w := l.warnings
	l.warnings = nil
	return w
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (*Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.data) {
		return &Token{Type: TokenEOF, Pos: int64(l.pos), End: int64(l.pos)}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return l.token(TokenArrayStart, start, l.data[start:l.pos]), nil
	case ']':
		l.pos++
		return l.token(TokenArrayEnd, start, l.data[start:l.pos]), nil
	case '(':
		return l.readString()
	case '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return l.token(TokenDictStart, start, l.data[start:l.pos]), nil
		}
		return l.readHexString()
	case '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return l.token(TokenDictEnd, start, l.data[start:l.pos]), nil
		}
		l.pos++
		return nil, NewError(TokenError, UnexpectedToken, int64(start), "unexpected '>'")
	case '/':
		return l.readName(), nil
	case ')', '{', '}':
		l.pos++
		return nil, NewError(TokenError, UnexpectedToken, int64(start), "unexpected %q", b)
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}

	return l.readKeyword(), nil
}

func (l *Lexer) token(typ TokenType, start int, value []byte) *Token {
	return &Token{Type: typ, Value: value, Pos: int64(start), End: int64(l.pos)}
}

// skipWhitespace skips all whitespace characters
// PDF whitespace: space (0x20), tab (0x09), LF (0x0A), CR (0x0D), FF (0x0C), null (0x00)
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readComment reads a comment (% to end of line). The line break is not
// part of the token.
func (l *Lexer) readComment() *Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	return l.token(TokenComment, start, l.data[start:l.pos])
}

// readString reads a literal string (hello)
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer

	depth := 1
	for {
		if l.pos >= len(l.data) {
			return nil, NewError(TokenError, UnterminatedString, int64(start), "literal string not closed")
		}
		if buf.Len() > l.maxString {
			l.skipStringTail(depth)
			return nil, limitError(int64(start), "string longer than %d bytes", l.maxString)
		}

		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return l.token(TokenString, start, buf.Bytes()), nil
			}
			buf.WriteByte(b)
		case '\r':
			// an unescaped end-of-line is read as a single LF
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		case '\\':
			l.readEscape(&buf)
		default:
			buf.WriteByte(b)
		}
	}
}

// readEscape handles the byte(s) after a backslash inside a literal string.
func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// line continuation
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		val := int(next - '0')
		for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
			val = val*8 + int(l.data[l.pos]-'0')
			l.pos++
		}
		buf.WriteByte(byte(val)) // high-order overflow is ignored
	default:
		// unknown escapes keep the character
		buf.WriteByte(next)
	}
}

// skipStringTail moves past the rest of an oversized literal string.
func (l *Lexer) skipStringTail(depth int) {
	for l.pos < len(l.data) && depth > 0 {
		switch l.data[l.pos] {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
		}
		l.pos++
	}
	if l.pos > len(l.data) {
		l.pos = len(l.data)
	}
}

// readHexString reads a hexadecimal string <48656C6C6F>. An odd digit count
// is padded with a trailing zero.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.pos++ // <

	out := make([]byte, 0, 32)
	var hi byte
	odd := false
	var bad *Error
	for {
		if l.pos >= len(l.data) {
			return nil, NewError(TokenError, UnterminatedString, int64(start), "hex string not closed")
		}
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			if bad == nil {
				bad = NewError(TokenError, MalformedHexString, int64(l.pos-1), "invalid hex digit %q", b)
			}
			continue
		}
		if len(out) > l.maxString {
			bad = limitError(int64(start), "string longer than %d bytes", l.maxString)
			continue
		}
		if odd {
			out = append(out, hi<<4|hexValue(b))
		} else {
			hi = hexValue(b)
		}
		odd = !odd
	}
	if bad != nil {
		return nil, bad
	}
	if odd {
		out = append(out, hi<<4)
	}
	return l.token(TokenHexString, start, out), nil
}

// readName reads a name object /Type. A '#' that does not start a valid
// two-digit escape is kept literally and reported as a warning.
func (l *Lexer) readName() *Token {
	start := l.pos
	l.pos++ // /

	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b != '#' {
			buf.WriteByte(b)
			continue
		}
		if l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		l.warnings = append(l.warnings,
			NewError(TokenError, MalformedName, int64(l.pos-1), "invalid # escape in name"))
		buf.WriteByte(b)
	}
	return l.token(TokenName, start, buf.Bytes())
}

// readNumber reads an integer or real number. PDF numbers have an optional
// sign, digits and at most one decimal point; exponents are not allowed.
func (l *Lexer) readNumber() (*Token, error) {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if !isDigit(b) && b != '.' && b != '-' && b != '+' {
			break
		}
		l.pos++
	}

	text := l.data[start:l.pos]
	digits, dots := 0, 0
	valid := true
	for i, b := range text {
		switch {
		case isDigit(b):
			digits++
		case b == '.':
			dots++
		case i != 0:
			valid = false
		}
	}
	if !valid || digits == 0 || dots > 1 {
		return nil, NewError(TokenError, MalformedNumber, int64(start), "malformed number %q", text)
	}
	if dots == 1 {
		return l.token(TokenReal, start, text), nil
	}
	return l.token(TokenInteger, start, text), nil
}

// readKeyword reads a run of regular characters (true, false, null, R, obj,
// endobj, ...).
func (l *Lexer) readKeyword() *Token {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		// a lone delimiter not handled by NextToken
		l.pos++
	}

	value := l.data[start:l.pos]
	if len(value) == 1 && value[0] == 'R' {
		return l.token(TokenIndirectRef, start, value)
	}
	return l.token(TokenKeyword, start, value)
}

// Helper functions

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
