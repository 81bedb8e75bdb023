package xfile

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"io"
)

const (
	// MSZIPMagic is the "CK" marker that opens every compressed block.
	MSZIPMagic = 0x4B43
	// MSZIPBlockSize bounds the inflated size of one block.
	MSZIPBlockSize = 32786
)

// Decompress inflates the MSZIP payload of a tzip or bzip file.
// data is the whole file; the header and reserved bytes are skipped.
// Each block inflates with the previous block's output as its dictionary,
// which is how MSZIP carries history across block boundaries.
func Decompress(data []byte) ([]byte, error) {
	if len(data) <= compressedSkip {
		return []byte{}, nil
	}
	in := data[compressedSkip:]

	estimate, err := estimateInflatedSize(in)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, estimate)
	var dict []byte
	pos := 0
	for pos+3 < len(in) {
		ofs := int(binary.LittleEndian.Uint16(in[pos:]))
		pos += 4
		// The last block may claim the two bytes of a block header that
		// never follows it; estimateInflatedSize bounds the rest.
		end := min(pos+ofs, len(in))

		block, err := inflateBlock(in[pos:end], dict, compressedSkip+pos)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		dict = block
		pos += ofs
	}
	return out, nil
}

// estimateInflatedSize walks the block headers without inflating anything.
func estimateInflatedSize(in []byte) (int, error) {
	estimate := 0
	pos := 0
	for pos+3 < len(in) {
		ofs := int(binary.LittleEndian.Uint16(in[pos:]))
		if ofs >= MSZIPBlockSize || pos+4+ofs > len(in)+2 {
			return 0, newError(ClassCompression, ErrBadBlockOffset, compressedSkip+pos,
				"offset %d", ofs)
		}
		magic := binary.LittleEndian.Uint16(in[pos+2:])
		if magic != MSZIPMagic {
			return 0, newError(ClassCompression, ErrBadBlockMagic, compressedSkip+pos+2,
				"got 0x%04X", magic)
		}
		pos += 4 + ofs
		estimate += MSZIPBlockSize
	}
	return estimate, nil
}

func inflateBlock(payload, dict []byte, offset int) ([]byte, error) {
	fr := flate.NewReaderDict(bytes.NewReader(payload), dict)
	defer fr.Close()

	block, err := io.ReadAll(io.LimitReader(fr, MSZIPBlockSize+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newError(ClassCompression, ErrTruncatedStream, offset, "%d payload bytes", len(payload))
		}
		return nil, newError(ClassCompression, ErrCorruptBlock, offset, "%v", err)
	}
	if len(block) > MSZIPBlockSize {
		return nil, newError(ClassCompression, ErrOversizedBlock, offset, "")
	}
	return block, nil
}
