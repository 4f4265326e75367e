package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, input string) []*Token {
	t.Helper()
	l := NewLexer([]byte(input))
	var out []*Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "EOF", TokenEOF.String())
	assert.Equal(t, "DictStart", TokenDictStart.String())
	assert.Equal(t, "R", TokenIndirectRef.String())
	assert.Equal(t, "Unknown", TokenType(99).String())
}

func TestLexerEOF(t *testing.T) {
	for _, input := range []string{"", "   \t\n\r\f\x00 "} {
		l := NewLexer([]byte(input))
		tok, err := l.NextToken()
		require.NoError(t, err)
		assert.Equal(t, TokenEOF, tok.Type)
		assert.Equal(t, int64(len(input)), tok.Pos)
	}
}

func TestLexerTokenSequence(t *testing.T) {
	toks := tokens(t, "<< /Type /Page /Kids [3 0 R] /Rotate -90 /W 1.5 >> % note\nnull")
	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenDictStart, "<<"},
		{TokenName, "Type"},
		{TokenName, "Page"},
		{TokenName, "Kids"},
		{TokenArrayStart, "["},
		{TokenInteger, "3"},
		{TokenInteger, "0"},
		{TokenIndirectRef, "R"},
		{TokenArrayEnd, "]"},
		{TokenName, "Rotate"},
		{TokenInteger, "-90"},
		{TokenName, "W"},
		{TokenReal, "1.5"},
		{TokenDictEnd, ">>"},
		{TokenComment, "% note"},
		{TokenKeyword, "null"},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w.typ, toks[i].Type, "token %d", i)
		assert.Equal(t, w.value, string(toks[i].Value), "token %d", i)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := tokens(t, "  /Type  12")
	require.Len(t, toks, 2)
	assert.Equal(t, int64(2), toks[0].Pos)
	assert.Equal(t, int64(7), toks[0].End)
	assert.Equal(t, int64(9), toks[1].Pos)
	assert.Equal(t, int64(11), toks[1].End)
}

func TestLexerLiteralStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "(Hello World)", "Hello World"},
		{"balanced parens", "(a(b)c)", "a(b)c"},
		{"escaped parens", `(a\(b\)c)`, "a(b)c"},
		{"escapes", `(\n\r\t\b\f\\)`, "\n\r\t\b\f\\"},
		{"octal", `(\101\60\0053)`, "A0\x053"},
		{"octal overflow", `(\777)`, "\xff"},
		{"unknown escape", `(\q)`, "q"},
		{"line continuation", "(ab\\\ncd)", "abcd"},
		{"crlf continuation", "(ab\\\r\ncd)", "abcd"},
		{"bare crlf", "(ab\r\ncd)", "ab\ncd"},
		{"bare cr", "(ab\rcd)", "ab\ncd"},
		{"empty", "()", ""},
		{"binary", "(\x00\xff)", "\x00\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, TokenString, toks[0].Type)
			assert.Equal(t, tt.want, string(toks[0].Value))
		})
	}
}

func TestLexerHexStrings(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"<48656C6C6F>", []byte("Hello")},
		{"<48 65\n6c 6c 6f>", []byte("Hello")},
		{"<414>", []byte{0x41, 0x40}},
		{"<>", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokens(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, TokenHexString, toks[0].Type)
			assert.Equal(t, tt.want, toks[0].Value)
		})
	}
}

func TestLexerNames(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/Type", "Type"},
		{"/A#20B", "A B"},
		{"/#2Fslash", "/slash"},
		{"/", ""},
		{"/a;b", "a;b"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokens(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, TokenName, toks[0].Type)
			assert.Equal(t, tt.want, string(toks[0].Value))
		})
	}
}

func TestLexerNameBadEscapeWarns(t *testing.T) {
	l := NewLexer([]byte("/A#2"))
	tok, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "A#2", string(tok.Value))

	warnings := l.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, TokenError, warnings[0].Kind)
	assert.Equal(t, MalformedName, warnings[0].Code)
	assert.Equal(t, int64(2), warnings[0].Offset)
	assert.Empty(t, l.Warnings(), "warnings are cleared")
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"123", TokenInteger},
		{"+17", TokenInteger},
		{"-98", TokenInteger},
		{"0", TokenInteger},
		{"34.5", TokenReal},
		{"-3.62", TokenReal},
		{"+123.6", TokenReal},
		{"4.", TokenReal},
		{"-.002", TokenReal},
		{".5", TokenReal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokens(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, tt.typ, toks[0].Type)
			assert.Equal(t, tt.input, string(toks[0].Value))
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ParseErrorKind
	}{
		{"two dots", "1.2.3", MalformedNumber},
		{"sign only", "-", MalformedNumber},
		{"inner sign", "12-4", MalformedNumber},
		{"unterminated literal", "(abc", UnterminatedString},
		{"unterminated hex", "<4142", UnterminatedString},
		{"bad hex digit", "<41G2>", MalformedHexString},
		{"stray close paren", ")", UnexpectedToken},
		{"stray brace", "{", UnexpectedToken},
		{"single gt", ">", UnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer([]byte(tt.input))
			_, err := l.NextToken()
			require.Error(t, err)
			pe, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, TokenError, pe.Kind)
			assert.Equal(t, tt.code, pe.Code)
			assert.Greater(t, l.Pos(), int64(0), "lexer must make progress")
		})
	}
}

func TestLexerStringLimit(t *testing.T) {
	l := NewLexer([]byte("(abcdefgh) 7"))
	l.SetMaxStringLength(4)
	_, err := l.NextToken()
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	tok, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "7", string(tok.Value), "lexer resumes after the oversized string")
}

func TestLexerSeekTo(t *testing.T) {
	l := NewLexer([]byte("1 2 3"))
	l.SeekTo(4)
	tok, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "3", string(tok.Value))

	l.SeekTo(-5)
	assert.Equal(t, int64(0), l.Pos())
	l.SeekTo(100)
	assert.Equal(t, l.Len(), l.Pos())
}

func TestLexerKeywords(t *testing.T) {
	toks := tokens(t, "true false obj endobj stream R")
	require.Len(t, toks, 6)
	for _, tok := range toks[:5] {
		assert.Equal(t, TokenKeyword, tok.Type)
	}
	assert.True(t, toks[2].Is("obj"))
	assert.False(t, toks[2].Is("endobj"))
	assert.Equal(t, TokenIndirectRef, toks[5].Type)
}
