package xfile

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"testing"
)

// binWriter builds binary token streams for tests.
type binWriter struct {
	buf     bytes.Buffer
	float64 bool
}

func newBinFile(floatBits string) *binWriter {
	w := &binWriter{float64: floatBits == "0064"}
	w.buf.WriteString("xof 0303bin " + floatBits)
	return w
}

func (w *binWriter) op(op uint16) *binWriter {
	binary.Write(&w.buf, binary.LittleEndian, op)
	return w
}

func (w *binWriter) u32(v uint32) {
	binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *binWriter) name(s string) *binWriter {
	w.op(opName)
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

// str writes a STRING record with its trailing separator word.
func (w *binWriter) str(s string) *binWriter {
	w.op(opString)
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	return w.op(opSemicolon)
}

func (w *binWriter) open() *binWriter  { return w.op(opOBrace) }
func (w *binWriter) close() *binWriter { return w.op(opCBrace) }

// head writes an object type, an optional name and the opening brace.
func (w *binWriter) head(typ, name string) *binWriter {
	w.name(typ)
	if name != "" {
		w.name(name)
	}
	return w.open()
}

func (w *binWriter) ints(v ...uint32) *binWriter {
	w.op(opIntList)
	w.u32(uint32(len(v)))
	for _, x := range v {
		w.u32(x)
	}
	return w
}

func (w *binWriter) integer(v uint32) *binWriter {
	w.op(opInteger)
	w.u32(v)
	return w
}

func (w *binWriter) floats(v ...float32) *binWriter {
	w.op(opFloatList)
	w.u32(uint32(len(v)))
	for _, x := range v {
		if w.float64 {
			binary.Write(&w.buf, binary.LittleEndian, float64(x))
		} else {
			binary.Write(&w.buf, binary.LittleEndian, x)
		}
	}
	return w
}

func (w *binWriter) guid(g [16]byte) *binWriter {
	w.op(opGUID)
	w.buf.Write(g[:])
	return w
}

func (w *binWriter) bytes() []byte {
	return w.buf.Bytes()
}

// payload returns the stream without the 16-byte header.
func (w *binWriter) payload() []byte {
	return w.buf.Bytes()[headerSize:]
}

// mszipFile frames plain as an MSZIP compressed X file. Blocks are laid out
// the way exporters write them: offset, "CK", deflate data, then the
// uncompressed size of the following block.
func mszipFile(t *testing.T, tag string, plain []byte, blockSize int) []byte {
	t.Helper()

	var out bytes.Buffer
	out.WriteString("xof 0303" + tag + "0032")
	out.Write(make([]byte, compressedSkip-headerSize))

	var dict []byte
	for start := 0; start < len(plain); start += blockSize {
		chunk := plain[start:min(start+blockSize, len(plain))]

		var payload bytes.Buffer
		fw, err := flate.NewWriterDict(&payload, flate.BestCompression, dict)
		if err != nil {
			t.Fatalf("flate.NewWriterDict failed: %v", err)
		}
		fw.Write(chunk)
		if err := fw.Close(); err != nil {
			t.Fatalf("flate close failed: %v", err)
		}

		binary.Write(&out, binary.LittleEndian, uint16(payload.Len()+2))
		binary.Write(&out, binary.LittleEndian, uint16(MSZIPMagic))
		out.Write(payload.Bytes())
		if next := start + blockSize; next < len(plain) {
			binary.Write(&out, binary.LittleEndian, uint16(min(blockSize, len(plain)-next)))
		}
		dict = chunk
	}
	return out.Bytes()
}

// requireFormatError fails unless err is a *FormatError of the given class
// wrapping sentinel.
func requireFormatError(t *testing.T, err error, class ErrorClass, sentinel error) *FormatError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error %v, got nil", class, sentinel)
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
	if fe.Class != class {
		t.Errorf("expected class %s, got %s (%v)", class, fe.Class, err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected %v, got %v", sentinel, err)
	}
	return fe
}
