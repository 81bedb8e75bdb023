package xfile

import "fmt"

// TokenKind classifies a logical token. Text and binary streams produce the
// same kinds, so the parser never looks at the wire encoding.
type TokenKind uint8

const (
	TokenEOF        TokenKind = iota
	TokenName                 // identifier, keyword or bare word
	TokenString               // quoted string (binary STRING record)
	TokenInteger              // standalone binary integer
	TokenGUID                 // binary GUID record
	TokenIntList              // skipped binary integer list
	TokenFloatList            // skipped binary float list
	TokenOpenBrace            // {
	TokenCloseBrace           // }
	TokenSeparator            // , or ;
	TokenPunct                // ( ) [ ] < > .
)

// String returns a human-readable token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenName:
		return "Name"
	case TokenString:
		return "String"
	case TokenInteger:
		return "Integer"
	case TokenGUID:
		return "GUID"
	case TokenIntList:
		return "IntList"
	case TokenFloatList:
		return "FloatList"
	case TokenOpenBrace:
		return "OpenBrace"
	case TokenCloseBrace:
		return "CloseBrace"
	case TokenSeparator:
		return "Separator"
	case TokenPunct:
		return "Punct"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Token is one lexical unit.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

// EOF reports whether the stream is exhausted.
func (t Token) EOF() bool {
	return t.Kind == TokenEOF
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// Cursor is the read position within a payload. Every lexer call takes the
// cursor explicitly, so two cursors over one Lexer never interfere.
type Cursor struct {
	Pos  int
	Line int // text mode only

	// pending counts values left in a binary list announced by an earlier
	// INTEGER_LIST or FLOAT_LIST record.
	pending uint32
}

// Binary token opcodes.
const (
	opEOF       = 0x00
	opName      = 0x01
	opString    = 0x02
	opInteger   = 0x03
	opGUID      = 0x05
	opIntList   = 0x06
	opFloatList = 0x07
	opOBrace    = 0x0A
	opCBrace    = 0x0B
	opComma     = 0x13
	opSemicolon = 0x14
)

var binaryPunct = map[uint16]string{
	0x0C: "(",
	0x0D: ")",
	0x0E: "[",
	0x0F: "]",
	0x10: "<",
	0x11: ">",
	0x12: ".",
}

var binaryKeywords = map[uint16]string{
	0x1F: "template",
	0x28: "WORD",
	0x29: "DWORD",
	0x2A: "FLOAT",
	0x2B: "DOUBLE",
	0x2C: "CHAR",
	0x2D: "UCHAR",
	0x2E: "SWORD",
	0x2F: "SDWORD",
	0x30: "void",
	0x31: "string",
	0x32: "unicode",
	0x33: "cstring",
	0x34: "array",
}
