package xfile

import (
	"fmt"
	"strconv"
)

const (
	headerSize = 16
	// Compressed payloads start after the header and six reserved bytes.
	compressedSkip = headerSize + 6
)

// Encoding is the wire encoding declared in the header.
type Encoding int

const (
	EncodingText Encoding = iota
	EncodingBinary
	EncodingTextZip
	EncodingBinaryZip
)

var encodingTags = map[string]Encoding{
	"txt ": EncodingText,
	"bin ": EncodingBinary,
	"tzip": EncodingTextZip,
	"bzip": EncodingBinaryZip,
}

// Binary reports whether the token stream uses binary records.
func (e Encoding) Binary() bool {
	return e == EncodingBinary || e == EncodingBinaryZip
}

// Compressed reports whether the payload is MSZIP compressed.
func (e Encoding) Compressed() bool {
	return e == EncodingTextZip || e == EncodingBinaryZip
}

// Tag returns the four-character header tag.
func (e Encoding) Tag() string {
	switch e {
	case EncodingText:
		return "txt "
	case EncodingBinary:
		return "bin "
	case EncodingTextZip:
		return "tzip"
	case EncodingBinaryZip:
		return "bzip"
	default:
		return "????"
	}
}

// String returns a human-readable encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingText:
		return "Text"
	case EncodingBinary:
		return "Binary"
	case EncodingTextZip:
		return "TextZip"
	case EncodingBinaryZip:
		return "BinaryZip"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// Header is the fixed 16-byte file preamble.
type Header struct {
	Major     int
	Minor     int
	Encoding  Encoding
	FloatSize int // 4 or 8 bytes
}

// Version returns the version as "Major.Minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.Major, h.Minor)
}

// ParseHeader validates and decodes the first 16 bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize || string(data[0:4]) != "xof " {
		return Header{}, newError(ClassHeader, ErrNotAnXFile, 0, "")
	}

	var h Header
	var err error
	if h.Major, err = parseDigits(data[4:6]); err != nil {
		return Header{}, newError(ClassHeader, ErrBadVersion, 4, "%q", data[4:6])
	}
	if h.Minor, err = parseDigits(data[6:8]); err != nil {
		return Header{}, newError(ClassHeader, ErrBadVersion, 6, "%q", data[6:8])
	}

	enc, ok := encodingTags[string(data[8:12])]
	if !ok {
		return Header{}, newError(ClassHeader, ErrUnsupportedEncoding, 8, "%q", data[8:12])
	}
	h.Encoding = enc

	bits, err := parseDigits(data[12:16])
	if err != nil || (bits != 32 && bits != 64) {
		return Header{}, newError(ClassHeader, ErrUnsupportedFloatWidth, 12, "%q", data[12:16])
	}
	h.FloatSize = bits / 8

	return h, nil
}

func parseDigits(b []byte) (int, error) {
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(string(b))
}
