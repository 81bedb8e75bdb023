package codepage

import (
	"testing"

	"golang.org/x/text/encoding/korean"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"utf-8", true, false},
		{"RAW", true, false},
		{"windows-1252", false, false},
		{" EUC-KR ", false, false},
		{"shift-jis", false, false},
		{"klingon", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Lookup(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if (enc == nil) != tt.wantNil {
				t.Errorf("Lookup(%q) nil = %v, want %v", tt.name, enc == nil, tt.wantNil)
			}
		})
	}
}

func TestDecodeEUCKR(t *testing.T) {
	original := "안녕하세요"
	encoded := Encode(korean.EUCKR, original)
	if string(encoded) == original {
		t.Fatal("Encode should change the byte form")
	}
	if got := Decode(korean.EUCKR, encoded); got != original {
		t.Errorf("Decode = %q, want %q", got, original)
	}
}

func TestDecodeWindows1252(t *testing.T) {
	enc, err := Lookup("windows-1252")
	if err != nil {
		t.Fatal(err)
	}
	// 0xE9 is e-acute in cp1252.
	if got := Decode(enc, []byte{'c', 'a', 'f', 0xE9}); got != "café" {
		t.Errorf("Decode = %q, want %q", got, "café")
	}
}

func TestDecodeNilEncoding(t *testing.T) {
	data := []byte{'a', 0xFF, 'b'}
	if got := Decode(nil, data); got != string(data) {
		t.Errorf("Decode(nil) changed bytes: %q", got)
	}
}

func TestTrimNull(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("abc\x00def"), "abc"},
		{[]byte("abc"), "abc"},
		{[]byte("\x00"), ""},
	}
	for _, tt := range tests {
		if got := string(TrimNull(tt.in)); got != tt.want {
			t.Errorf("TrimNull(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
