// Package xfile decodes DirectX .x scene files.
//
// All four wire encodings are supported: text, binary, and their MSZIP
// compressed forms. Parsing produces an immutable Scene holding the frame
// hierarchy, meshes, materials and keyframe animations.
package xfile

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// Options controls how a file is decoded.
type Options struct {
	// FilterHierarchy folds anonymous single-child frames into their parent.
	FilterHierarchy bool
	// PruneEmptyFrames removes unnamed leaf frames with no meshes and an
	// identity transform.
	PruneEmptyFrames bool
	// TextEncoding decodes names and strings to UTF-8. Nil keeps raw bytes.
	TextEncoding encoding.Encoding
	// Logger receives diagnostics. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns the options used by Parse.
func DefaultOptions() Options {
	return Options{FilterHierarchy: true}
}

// Parse decodes an X file held in memory with default options.
func Parse(data []byte) (*Scene, error) {
	return ParseWithOptions(data, DefaultOptions())
}

// ParseWithOptions decodes an X file held in memory.
// It returns either a complete Scene or a *FormatError.
func ParseWithOptions(data []byte, opts Options) (*Scene, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	payload := data
	start := headerSize
	if h.Encoding.Compressed() {
		if payload, err = Decompress(data); err != nil {
			return nil, err
		}
		start = 0
	}

	lex := NewLexer(payload, h.Encoding.Binary(), h.FloatSize, opts.TextEncoding)
	cur := lex.NewCursor()
	cur.Pos = start
	if !h.Encoding.Compressed() {
		// The rest of the header line is free text in text files.
		lex.SkipLine(&cur)
	}

	b := newBuilder(log)
	p := newParser(lex, cur, b, log)
	if err := p.parseFile(); err != nil {
		return nil, err
	}

	scene := b.finish(opts)
	scene.Header = h
	log.Debug("parsed X file",
		zap.String("encoding", h.Encoding.String()),
		zap.String("version", h.Version()),
		zap.Int("nodes", len(scene.nodes)),
		zap.Int("meshes", len(scene.Meshes())),
		zap.Int("animations", len(scene.Animations)))
	return scene, nil
}

// ParseFile reads and decodes an X file from disk.
func ParseFile(path string, opts Options) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading X file: %w", err)
	}
	scene, err := ParseWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return scene, nil
}

// Inflate returns the uncompressed form of a tzip or bzip file: a rewritten
// header followed by the inflated payload. Uncompressed input is returned
// as a copy.
func Inflate(data []byte) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if !h.Encoding.Compressed() {
		return append([]byte(nil), data...), nil
	}

	payload, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	plain := EncodingText
	if h.Encoding.Binary() {
		plain = EncodingBinary
	}

	out := make([]byte, 0, headerSize+1+len(payload))
	out = append(out, data[:headerSize]...)
	copy(out[8:12], plain.Tag())
	if !plain.Binary() {
		out = append(out, '\n')
	}
	return append(out, payload...), nil
}
