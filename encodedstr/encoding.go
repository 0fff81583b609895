// Package encodedstr provides strings whose offsets, lengths and searches are
// measured in the bytes of a declared text encoding rather than in characters.
package encodedstr

import (
	"strings"

	"golang.org/x/text/encoding/unicode"

	"webproof-redaction/shared"
)

// Encoding names a supported text encoding.
type Encoding string

const (
	UTF8  Encoding = "utf-8"
	UTF16 Encoding = "utf-16"
)

// SupportedEncodings lists every encoding ParseEncoding accepts.
var SupportedEncodings = []Encoding{UTF8, UTF16}

// utf16 is little-endian without a byte order mark, so encoded offsets line up
// with the text and no prefix bytes are counted.
var utf16 = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// aliases maps common charset spellings to their canonical name.
var aliases = map[string]Encoding{
	"utf8":  UTF8,
	"utf16": UTF16,
}

// ParseEncoding normalises a charset name (trimmed, lower-cased) and checks it
// is supported.
func ParseEncoding(name string) (Encoding, error) {
	normalized := Encoding(strings.ToLower(strings.TrimSpace(name)))
	if enc, ok := aliases[string(normalized)]; ok {
		return enc, nil
	}
	for _, enc := range SupportedEncodings {
		if normalized == enc {
			return enc, nil
		}
	}
	return "", shared.NewEngineError(shared.KindInvalidEncoding, "unsupported encoding %q", name)
}

// Valid reports whether e is one of SupportedEncodings.
func (e Encoding) Valid() bool {
	_, err := ParseEncoding(string(e))
	return err == nil
}

func (e Encoding) String() string {
	return string(e)
}

// UnitSize is the size of one code unit in bytes. Offsets reported by searches
// are always multiples of it.
func (e Encoding) UnitSize() int {
	if e == UTF16 {
		return 2
	}
	return 1
}

// Encode returns the byte representation of text. UTF-8 text is returned
// byte for byte, including any invalid sequences it carries.
func (e Encoding) Encode(text string) []byte {
	if e == UTF16 {
		// Invalid UTF-8 bytes are written as U+FFFD, one per byte; the encoder
		// never reports an error for complete input.
		out, _ := utf16.NewEncoder().Bytes([]byte(text))
		return out
	}
	return []byte(text)
}

// Decode is the inverse of Encode.
func (e Encoding) Decode(data []byte) string {
	if e == UTF16 {
		// Odd trailing bytes and lone surrogates decode to U+FFFD.
		out, _ := utf16.NewDecoder().Bytes(data)
		return string(out)
	}
	return string(data)
}

// EncodedLen returns the length of text in bytes under e.
func (e Encoding) EncodedLen(text string) int {
	if e != UTF16 {
		return len(text)
	}
	n := 0
	for _, r := range text {
		if r >= 0x10000 {
			n += 4
		} else {
			n += 2
		}
	}
	return n
}
