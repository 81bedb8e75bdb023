package xfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	stdmath "math"
	"strconv"

	"golang.org/x/text/encoding"

	"github.com/Faultbox/xofkit/pkg/codepage"
	"github.com/Faultbox/xofkit/pkg/math"
)

// Lexer reads tokens and values from a flat (already decompressed) payload.
// It holds no position of its own; see Cursor.
type Lexer struct {
	buf       []byte
	binary    bool
	floatSize int
	text      encoding.Encoding
}

// NewLexer creates a lexer over buf. floatSize is 4 or 8 and only matters in
// binary mode. text, if non-nil, decodes names and strings to UTF-8.
func NewLexer(buf []byte, binary bool, floatSize int, text encoding.Encoding) *Lexer {
	return &Lexer{buf: buf, binary: binary, floatSize: floatSize, text: text}
}

// Binary reports whether the lexer reads binary records.
func (l *Lexer) Binary() bool {
	return l.binary
}

// NewCursor returns a cursor at the start of the payload.
func (l *Lexer) NewCursor() Cursor {
	c := Cursor{}
	if !l.binary {
		c.Line = 1
	}
	return c
}

func (l *Lexer) errorf(c *Cursor, class ErrorClass, sentinel error, format string, args ...any) *FormatError {
	e := newError(class, sentinel, c.Pos, format, args...)
	if !l.binary {
		e.Line = c.Line
	}
	return e
}

func (l *Lexer) eofError(c *Cursor, what string) *FormatError {
	return l.errorf(c, ClassLex, ErrUnexpectedEOF, "while reading %s", what)
}

// NextToken returns the next logical token, or an EOF token at the end.
func (l *Lexer) NextToken(c *Cursor) (Token, error) {
	if l.binary {
		return l.nextBinaryToken(c)
	}
	return l.nextTextToken(c), nil
}

// Text mode

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	return b == '{' || b == '}' || b == ',' || b == ';'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// skipSpace skips whitespace and line comments.
func (l *Lexer) skipSpace(c *Cursor) {
	for {
		for c.Pos < len(l.buf) && isSpace(l.buf[c.Pos]) {
			if l.buf[c.Pos] == '\n' {
				c.Line++
			}
			c.Pos++
		}
		if c.Pos >= len(l.buf) {
			return
		}
		rest := l.buf[c.Pos:]
		if rest[0] == '#' || bytes.HasPrefix(rest, []byte("//")) {
			l.skipLine(c)
			continue
		}
		return
	}
}

// skipLine advances past the next line break.
func (l *Lexer) skipLine(c *Cursor) {
	for c.Pos < len(l.buf) {
		b := l.buf[c.Pos]
		c.Pos++
		if b == '\n' {
			c.Line++
			return
		}
		if b == '\r' {
			return
		}
	}
}

// SkipLine discards the rest of the current line. No-op in binary mode.
func (l *Lexer) SkipLine(c *Cursor) {
	if !l.binary {
		l.skipLine(c)
	}
}

func (l *Lexer) nextTextToken(c *Cursor) Token {
	l.skipSpace(c)
	if c.Pos >= len(l.buf) {
		return Token{Kind: TokenEOF, Offset: c.Pos}
	}

	start := c.Pos
	switch b := l.buf[c.Pos]; b {
	case '{':
		c.Pos++
		return Token{Kind: TokenOpenBrace, Text: "{", Offset: start}
	case '}':
		c.Pos++
		return Token{Kind: TokenCloseBrace, Text: "}", Offset: start}
	case ',', ';':
		c.Pos++
		return Token{Kind: TokenSeparator, Text: string(b), Offset: start}
	}

	for c.Pos < len(l.buf) && !isSpace(l.buf[c.Pos]) && !isDelimiter(l.buf[c.Pos]) {
		c.Pos++
	}
	return Token{Kind: TokenName, Text: codepage.Decode(l.text, l.buf[start:c.Pos]), Offset: start}
}

// Binary mode

func (l *Lexer) remaining(c *Cursor) int {
	return len(l.buf) - c.Pos
}

func (l *Lexer) word(c *Cursor) uint16 {
	v := binary.LittleEndian.Uint16(l.buf[c.Pos:])
	c.Pos += 2
	return v
}

func (l *Lexer) dword(c *Cursor, what string) (uint32, error) {
	if l.remaining(c) < 4 {
		return 0, l.eofError(c, what)
	}
	v := binary.LittleEndian.Uint32(l.buf[c.Pos:])
	c.Pos += 4
	return v, nil
}

// skip advances over n items of size bytes each.
func (l *Lexer) skip(c *Cursor, n uint32, size int, what string) error {
	total := uint64(n) * uint64(size)
	if total > uint64(l.remaining(c)) {
		return l.eofError(c, what)
	}
	c.Pos += int(total)
	return nil
}

func (l *Lexer) nextBinaryToken(c *Cursor) (Token, error) {
	if l.remaining(c) < 2 {
		c.Pos = len(l.buf)
		return Token{Kind: TokenEOF, Offset: c.Pos}, nil
	}

	start := c.Pos
	op := l.word(c)
	switch op {
	case opEOF:
		c.Pos = len(l.buf)
		return Token{Kind: TokenEOF, Offset: start}, nil

	case opName, opString:
		n, err := l.dword(c, "name length")
		if err != nil {
			return Token{}, err
		}
		if uint64(n) > uint64(l.remaining(c)) {
			return Token{}, l.eofError(c, "name")
		}
		text := codepage.Decode(l.text, l.buf[c.Pos:c.Pos+int(n)])
		c.Pos += int(n)
		if op == opName {
			return Token{Kind: TokenName, Text: text, Offset: start}, nil
		}
		// A string record carries its terminator (';' or ',') as a trailing word.
		c.Pos = min(c.Pos+2, len(l.buf))
		return Token{Kind: TokenString, Text: text, Offset: start}, nil

	case opInteger:
		v, err := l.dword(c, "integer")
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenInteger, Text: strconv.FormatUint(uint64(v), 10), Offset: start}, nil

	case opGUID:
		if l.remaining(c) < 16 {
			return Token{}, l.eofError(c, "GUID")
		}
		g := l.buf[c.Pos : c.Pos+16]
		c.Pos += 16
		return Token{Kind: TokenGUID, Text: formatGUID(g), Offset: start}, nil

	case opIntList:
		n, err := l.dword(c, "integer list length")
		if err != nil {
			return Token{}, err
		}
		if err := l.skip(c, n, 4, "integer list"); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenIntList, Text: "<int_list>", Offset: start}, nil

	case opFloatList:
		n, err := l.dword(c, "float list length")
		if err != nil {
			return Token{}, err
		}
		if err := l.skip(c, n, l.floatSize, "float list"); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenFloatList, Text: "<flt_list>", Offset: start}, nil

	case opOBrace:
		return Token{Kind: TokenOpenBrace, Text: "{", Offset: start}, nil
	case opCBrace:
		return Token{Kind: TokenCloseBrace, Text: "}", Offset: start}, nil
	case opComma:
		return Token{Kind: TokenSeparator, Text: ",", Offset: start}, nil
	case opSemicolon:
		return Token{Kind: TokenSeparator, Text: ";", Offset: start}, nil
	}

	if p, ok := binaryPunct[op]; ok {
		return Token{Kind: TokenPunct, Text: p, Offset: start}, nil
	}
	if kw, ok := binaryKeywords[op]; ok {
		return Token{Kind: TokenName, Text: kw, Offset: start}, nil
	}
	c.Pos = start
	return Token{}, l.errorf(c, ClassLex, ErrBadOpcode, "0x%04X", op)
}

// formatGUID renders a binary GUID the way text files spell it.
func formatGUID(g []byte) string {
	return fmt.Sprintf("<%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X>",
		binary.LittleEndian.Uint32(g[0:]),
		binary.LittleEndian.Uint16(g[4:]),
		binary.LittleEndian.Uint16(g[6:]),
		g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15])
}

// beginValue makes sure a binary list has a value pending, reading the next
// list record when the previous one is drained.
func (l *Lexer) beginValue(c *Cursor, listOp, singleOp uint16, what string) error {
	for c.pending == 0 {
		if l.remaining(c) < 2 {
			return l.eofError(c, what)
		}
		op := l.word(c)
		switch {
		case op == listOp:
			n, err := l.dword(c, what+" list length")
			if err != nil {
				return err
			}
			c.pending = n
		case singleOp != 0 && op == singleOp:
			c.pending = 1
		default:
			c.Pos -= 2
			return l.errorf(c, ClassGrammar, ErrUnexpectedToken, "expected %s, got opcode 0x%04X", what, op)
		}
	}
	c.pending--
	return nil
}

// ReadInt reads an unsigned 32-bit integer.
func (l *Lexer) ReadInt(c *Cursor) (uint32, error) {
	if l.binary {
		if err := l.beginValue(c, opIntList, opInteger, "integer"); err != nil {
			return 0, err
		}
		return l.dword(c, "integer")
	}

	l.skipSpace(c)
	if c.Pos >= len(l.buf) {
		return 0, l.eofError(c, "integer")
	}
	negative := false
	if l.buf[c.Pos] == '-' {
		negative = true
		c.Pos++
	}
	if c.Pos >= len(l.buf) || !isDigit(l.buf[c.Pos]) {
		return 0, l.errorf(c, ClassLex, ErrNumberSyntax, "integer expected")
	}
	var n uint64
	for c.Pos < len(l.buf) && isDigit(l.buf[c.Pos]) {
		n = n*10 + uint64(l.buf[c.Pos]-'0')
		if n > stdmath.MaxUint32 {
			return 0, l.errorf(c, ClassLex, ErrNumberSyntax, "integer overflows 32 bits")
		}
		c.Pos++
	}
	if err := l.CheckForSeparator(c); err != nil {
		return 0, err
	}
	if negative {
		// Negative values wrap, matching the DWORD fields they populate.
		return uint32(-int64(n)), nil
	}
	return uint32(n), nil
}

// Literals written by exporters whose C runtime printed NaN and infinity.
var textFloatOddities = []string{"-1.#IND00", "1.#IND00", "-1.#QNAN0", "1.#QNAN0"}

func isFloatChar(b byte) bool {
	return isDigit(b) || b == '.' || b == '-' || b == '+' || b == 'e' || b == 'E'
}

// ReadFloat reads one float, widening or narrowing to float32.
func (l *Lexer) ReadFloat(c *Cursor) (float32, error) {
	if l.binary {
		if err := l.beginValue(c, opFloatList, 0, "float"); err != nil {
			return 0, err
		}
		if l.remaining(c) < l.floatSize {
			return 0, l.eofError(c, "float")
		}
		if l.floatSize == 8 {
			v := stdmath.Float64frombits(binary.LittleEndian.Uint64(l.buf[c.Pos:]))
			c.Pos += 8
			return float32(v), nil
		}
		v := stdmath.Float32frombits(binary.LittleEndian.Uint32(l.buf[c.Pos:]))
		c.Pos += 4
		return v, nil
	}

	l.skipSpace(c)
	if c.Pos >= len(l.buf) {
		return 0, l.eofError(c, "float")
	}
	rest := l.buf[c.Pos:]
	for _, odd := range textFloatOddities {
		if bytes.HasPrefix(rest, []byte(odd)) {
			c.Pos += len(odd)
			return 0, l.CheckForSeparator(c)
		}
	}

	start := c.Pos
	for c.Pos < len(l.buf) && isFloatChar(l.buf[c.Pos]) {
		c.Pos++
	}
	lit := string(l.buf[start:c.Pos])
	v, err := strconv.ParseFloat(lit, 32)
	if err != nil {
		c.Pos = start
		return 0, l.errorf(c, ClassLex, ErrNumberSyntax, "%q", l.peekWord(c))
	}
	if err := l.CheckForSeparator(c); err != nil {
		return 0, err
	}
	return float32(v), nil
}

// peekWord returns the text run at the cursor for error messages.
func (l *Lexer) peekWord(c *Cursor) string {
	end := c.Pos
	for end < len(l.buf) && end-c.Pos < 32 && !isSpace(l.buf[end]) && !isDelimiter(l.buf[end]) {
		end++
	}
	return string(l.buf[c.Pos:end])
}

// ReadVector2 reads two floats and an optional trailing separator.
func (l *Lexer) ReadVector2(c *Cursor) (math.Vec2, error) {
	var v math.Vec2
	var err error
	if v.X, err = l.ReadFloat(c); err != nil {
		return v, err
	}
	if v.Y, err = l.ReadFloat(c); err != nil {
		return v, err
	}
	l.TestForSeparator(c)
	return v, nil
}

// ReadVector3 reads three floats and an optional trailing separator.
func (l *Lexer) ReadVector3(c *Cursor) (math.Vec3, error) {
	var v math.Vec3
	var err error
	if v.X, err = l.ReadFloat(c); err != nil {
		return v, err
	}
	if v.Y, err = l.ReadFloat(c); err != nil {
		return v, err
	}
	if v.Z, err = l.ReadFloat(c); err != nil {
		return v, err
	}
	l.TestForSeparator(c)
	return v, nil
}

// ReadColor3 reads an RGB triple.
func (l *Lexer) ReadColor3(c *Cursor) (math.Color3, error) {
	var col math.Color3
	var err error
	if col.R, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	if col.G, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	if col.B, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	l.TestForSeparator(c)
	return col, nil
}

// ReadColor4 reads an RGBA quadruple.
func (l *Lexer) ReadColor4(c *Cursor) (math.Color4, error) {
	var col math.Color4
	var err error
	if col.R, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	if col.G, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	if col.B, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	if col.A, err = l.ReadFloat(c); err != nil {
		return col, err
	}
	l.TestForSeparator(c)
	return col, nil
}

// ReadMatrix reads sixteen floats in file order.
func (l *Lexer) ReadMatrix(c *Cursor) (math.Mat4, error) {
	var m math.Mat4
	for i := range m {
		v, err := l.ReadFloat(c)
		if err != nil {
			return m, err
		}
		m[i] = v
	}
	return m, nil
}

// ReadString reads a quoted string terminated by ";" (text) or a STRING
// record (binary).
func (l *Lexer) ReadString(c *Cursor) (string, error) {
	if l.binary {
		tok, err := l.NextToken(c)
		if err != nil {
			return "", err
		}
		switch tok.Kind {
		case TokenString, TokenName:
			return tok.Text, nil
		case TokenEOF:
			return "", l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "while reading string")
		}
		return "", l.errorf(c, ClassGrammar, ErrUnexpectedToken, "expected string, got %s", tok)
	}

	l.skipSpace(c)
	if c.Pos >= len(l.buf) {
		return "", l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "while reading string")
	}
	if l.buf[c.Pos] != '"' {
		return "", l.errorf(c, ClassGrammar, ErrUnexpectedToken, "expected quotation mark")
	}
	c.Pos++
	start := c.Pos
	for c.Pos < len(l.buf) && l.buf[c.Pos] != '"' {
		if l.buf[c.Pos] == '\n' {
			c.Line++
		}
		c.Pos++
	}
	if c.Pos >= len(l.buf) {
		return "", l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "unterminated string")
	}
	s := codepage.Decode(l.text, l.buf[start:c.Pos])
	c.Pos++

	l.skipSpace(c)
	if c.Pos >= len(l.buf) || l.buf[c.Pos] != ';' {
		return "", l.errorf(c, ClassGrammar, ErrUnexpectedToken, "string must be followed by ';'")
	}
	c.Pos++
	return s, nil
}

// CheckForSeparator requires a ',' or ';' token. No-op in binary mode.
func (l *Lexer) CheckForSeparator(c *Cursor) error {
	if l.binary {
		return nil
	}
	tok := l.nextTextToken(c)
	switch tok.Kind {
	case TokenSeparator:
		return nil
	case TokenEOF:
		return l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "separator expected")
	}
	return l.errorf(c, ClassGrammar, ErrUnexpectedToken, "separator expected, got %s", tok)
}

// TestForSeparator consumes a ',' or ';' if one is next. No-op in binary mode.
func (l *Lexer) TestForSeparator(c *Cursor) {
	if l.binary {
		return
	}
	l.skipSpace(c)
	if c.Pos < len(l.buf) && (l.buf[c.Pos] == ';' || l.buf[c.Pos] == ',') {
		c.Pos++
	}
}

// SkipOptionalSemicolon consumes a ';' if one is next. No-op in binary mode.
func (l *Lexer) SkipOptionalSemicolon(c *Cursor) {
	if l.binary {
		return
	}
	l.skipSpace(c)
	if c.Pos < len(l.buf) && l.buf[c.Pos] == ';' {
		c.Pos++
	}
}

// CheckForSemicolon requires a ';' token. No-op in binary mode.
func (l *Lexer) CheckForSemicolon(c *Cursor) error {
	if l.binary {
		return nil
	}
	tok := l.nextTextToken(c)
	if tok.Kind == TokenSeparator && tok.Text == ";" {
		return nil
	}
	if tok.EOF() {
		return l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "semicolon expected")
	}
	return l.errorf(c, ClassGrammar, ErrUnexpectedToken, "semicolon expected, got %s", tok)
}

// CheckForClosingBrace requires a '}' token.
func (l *Lexer) CheckForClosingBrace(c *Cursor) error {
	tok, err := l.NextToken(c)
	if err != nil {
		return err
	}
	switch tok.Kind {
	case TokenCloseBrace:
		return nil
	case TokenEOF:
		return l.errorf(c, ClassGrammar, ErrUnexpectedEOF, "closing brace expected")
	}
	return l.errorf(c, ClassGrammar, ErrUnexpectedToken, "closing brace expected, got %s", tok)
}
