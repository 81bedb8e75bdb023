package xfile

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.x")
	if err := os.WriteFile(path, []byte(textHeader+sceneBody), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := ParseFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	checkFullScene(t, s)
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseFile(filepath.Join(dir, "missing.x"), DefaultOptions())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.x")
	os.WriteFile(bad, []byte("not an x file at all"), 0644)
	_, err = ParseFile(bad, DefaultOptions())
	requireFormatError(t, err, ClassHeader, ErrNotAnXFile)
}

func TestInflate(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		header string
	}{
		{"tzip", mszipFile(t, "tzip", []byte(sceneBody), 700), "xof 0303txt 0032\n"},
		{"bzip", mszipFile(t, "bzip", sceneBinary("0032")[headerSize:], 700), "xof 0303bin 0032"},
	}

	want := parseText(t, sceneBody)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, err := Inflate(tt.data)
			if err != nil {
				t.Fatalf("Inflate failed: %v", err)
			}
			if !bytes.HasPrefix(plain, []byte(tt.header)) {
				t.Errorf("expected header %q, got %q", tt.header, plain[:headerSize])
			}

			s := mustParse(t, plain)
			if s.Header.Encoding.Compressed() {
				t.Errorf("expected uncompressed encoding, got %s", s.Header.Encoding)
			}
			s.Header = want.Header
			if !reflect.DeepEqual(s, want) {
				t.Errorf("inflated scene differs from the text scene")
			}
		})
	}
}

func TestInflate_Uncompressed(t *testing.T) {
	data := []byte(textHeader + "Frame A {}\n")
	got, err := Inflate(data)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("expected uncompressed input back unchanged")
	}
	got[0] = 'X'
	if data[0] != 'x' {
		t.Errorf("expected Inflate to return a copy")
	}
}

func TestOptions_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)

	_, err := ParseWithOptions([]byte(textHeader+`Frame A {
  Gizmo { 1; }
}
Frame B {}
Material {
  1.0;1.0;1.0;1.0;;
  0.0;
  0.0;0.0;0.0;;
  0.0;0.0;0.0;;
  TextureFilename { ""; }
}`), opts)
	if err != nil {
		t.Fatalf("ParseWithOptions failed: %v", err)
	}

	if n := logs.FilterMessage("skipping unknown data object").FilterField(zap.String("object", "Gizmo")).Len(); n != 1 {
		t.Errorf("expected 1 unknown object warning, got %d", n)
	}
	if n := logs.FilterMessage("empty texture file name").Len(); n != 1 {
		t.Errorf("expected 1 empty texture warning, got %d", n)
	}
	if n := logs.FilterMessage("multiple top-level frames, inserted synthetic root").Len(); n != 1 {
		t.Errorf("expected 1 root repair debug entry, got %d", n)
	}
	for _, e := range logs.FilterLevelExact(zapcore.WarnLevel).All() {
		if e.Message != "skipping unknown data object" && e.Message != "empty texture file name" {
			t.Errorf("unexpected warning %q", e.Message)
		}
	}
}
