package xfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass groups failures by the stage that detected them.
type ErrorClass int

const (
	ClassHeader      ErrorClass = iota + 1 // bad magic, version, encoding or float width
	ClassCompression                       // MSZIP framing or inflate failure
	ClassLex                               // malformed literal or token record
	ClassGrammar                           // token out of place
	ClassConsistency                       // parallel arrays disagree
)

// String returns a human-readable class name.
func (c ErrorClass) String() string {
	switch c {
	case ClassHeader:
		return "header"
	case ClassCompression:
		return "compression"
	case ClassLex:
		return "lex"
	case ClassGrammar:
		return "grammar"
	case ClassConsistency:
		return "consistency"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Header errors.
var (
	ErrNotAnXFile            = errors.New("not an X file: expected 'xof ' magic")
	ErrBadVersion            = errors.New("malformed version field")
	ErrUnsupportedEncoding   = errors.New("unsupported encoding")
	ErrUnsupportedFloatWidth = errors.New("unsupported float width")
)

// Compression errors.
var (
	ErrBadBlockOffset  = errors.New("invalid offset to next MSZIP block")
	ErrBadBlockMagic   = errors.New("expected MSZIP block magic")
	ErrTruncatedStream = errors.New("unexpected end of compressed block")
	ErrCorruptBlock    = errors.New("corrupt deflate data")
	ErrOversizedBlock  = errors.New("MSZIP block inflates past block size")
)

// Lex errors.
var (
	ErrNumberSyntax = errors.New("malformed number")
	ErrBadOpcode    = errors.New("unknown binary token")
)

// Grammar errors.
var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of file")
)

// Consistency errors.
var (
	ErrCountMismatch   = errors.New("count mismatch")
	ErrTooManyChannels = errors.New("too many channels")
	ErrBadFace         = errors.New("invalid face")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrBadKeyType      = errors.New("unknown animation key type")
)

// FormatError describes why a file could not be decoded.
// Err is one of the package sentinels, so errors.Is works on it.
type FormatError struct {
	Class  ErrorClass
	Err    error
	Detail string
	Object string // innermost object being parsed, if any
	Line   int    // 1-based line in text mode, 0 otherwise
	Offset int    // byte offset into the (decompressed) payload, -1 if unknown
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("xfile: ")
	b.WriteString(e.Class.String())
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	var where []string
	if e.Object != "" {
		where = append(where, "in "+e.Object)
	}
	if e.Line > 0 {
		where = append(where, fmt.Sprintf("line %d", e.Line))
	}
	if e.Offset >= 0 {
		where = append(where, fmt.Sprintf("offset %d", e.Offset))
	}
	if len(where) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(where, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of err, or 0 if err is not a *FormatError.
func ClassOf(err error) ErrorClass {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return 0
}

func newError(class ErrorClass, sentinel error, offset int, format string, args ...any) *FormatError {
	return &FormatError{
		Class:  class,
		Err:    sentinel,
		Detail: fmt.Sprintf(format, args...),
		Offset: offset,
	}
}
