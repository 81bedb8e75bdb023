// Package codepage decodes legacy 8-bit text found in X files.
// Exporters write names and texture paths in the machine's ANSI code page,
// so a file from a Korean or Japanese workstation needs conversion to UTF-8.
package codepage

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var byName = map[string]encoding.Encoding{
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"euc-kr":       korean.EUCKR,
	"cp949":        korean.EUCKR,
	"shift-jis":    japanese.ShiftJIS,
	"cp932":        japanese.ShiftJIS,
	"gbk":          simplifiedchinese.GBK,
	"cp936":        simplifiedchinese.GBK,
}

// Lookup returns the encoding registered under name.
// An empty name, "utf-8" or "raw" returns nil, meaning bytes are kept as-is.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8", "raw":
		return nil, nil
	}
	enc, ok := byName[key]
	if !ok {
		return nil, fmt.Errorf("unknown text encoding %q", name)
	}
	return enc, nil
}

// Names returns the accepted encoding names.
func Names() []string {
	names := []string{"utf-8"}
	for name := range byName {
		names = append(names, name)
	}
	return names
}

// Decode converts data from enc to a UTF-8 string.
// A nil enc, or data that fails to decode, returns the bytes unchanged.
func Decode(enc encoding.Encoding, data []byte) string {
	if enc == nil || isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// Encode converts a UTF-8 string to enc, for building fixtures and paths.
// A nil enc, or text with no mapping, returns the string bytes unchanged.
func Encode(enc encoding.Encoding, s string) []byte {
	if enc == nil {
		return []byte(s)
	}
	result, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// TrimNull cuts data at the first NUL byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
