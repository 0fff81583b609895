package encodedstr

import (
	"bytes"

	"webproof-redaction/shared"
)

// String is an immutable text value paired with its encoding. All offsets
// taken or returned by its methods are byte offsets into the encoded form.
type String struct {
	text string
	enc  Encoding
	data []byte
}

// New encodes text under enc.
func New(text string, enc Encoding) String {
	return String{text: text, enc: enc, data: enc.Encode(text)}
}

// Text returns the logical text.
func (s String) Text() string {
	return s.text
}

// Encoding returns the declared encoding.
func (s String) Encoding() Encoding {
	return s.enc
}

// Bytes returns a copy of the encoded bytes.
func (s String) Bytes() []byte {
	return bytes.Clone(s.data)
}

// Len is the encoded length in bytes, not the number of characters.
func (s String) Len() int {
	return len(s.data)
}

// EncodedLen returns the length text would have under s's encoding.
func (s String) EncodedLen(text string) int {
	return s.enc.EncodedLen(text)
}

func (s String) String() string {
	return s.text
}

// IndexOf returns the byte offset of the first occurrence of needle at or
// after from, or -1.
func (s String) IndexOf(needle string, from int) int {
	return s.indexBytes(s.data, s.enc.Encode(needle), from)
}

// IndexOfEncoded is IndexOf for a needle that is itself an encoded String.
// The encodings must match.
func (s String) IndexOfEncoded(needle String, from int) (int, error) {
	if needle.enc != s.enc {
		return -1, shared.NewEngineError(shared.KindEncodingMismatch,
			"cannot search %s text for %s needle", s.enc, needle.enc)
	}
	return s.indexBytes(s.data, needle.data, from), nil
}

// NthIndexOf returns the offset of the n-th (1-indexed) occurrence of needle at
// or after from, or -1 if there are fewer than n. Occurrences may overlap.
func (s String) NthIndexOf(needle string, n int, from int) int {
	if n < 1 {
		return -1
	}
	encoded := s.enc.Encode(needle)
	pos := from
	for i := 0; i < n; i++ {
		if i > 0 {
			pos += s.enc.UnitSize()
		}
		pos = s.indexBytes(s.data, encoded, pos)
		if pos < 0 {
			return -1
		}
	}
	return pos
}

// CaseInsensitiveIndexOf is IndexOf with ASCII case folding. Folding only
// ASCII letters keeps the encoded length of both sides unchanged, so the
// returned offset is valid in s.
func (s String) CaseInsensitiveIndexOf(needle string, from int) int {
	haystack := s.enc.Encode(asciiLower(s.text))
	return s.indexBytes(haystack, s.enc.Encode(asciiLower(needle)), from)
}

// Slice returns the text between two byte offsets. Both offsets must lie within
// the string and on code unit boundaries.
func (s String) Slice(start, end int) (String, error) {
	if start < 0 || end > len(s.data) {
		return String{}, shared.NewEngineError(shared.KindOutOfBounds,
			"slice [%d,%d) outside string of %d bytes", start, end, len(s.data))
	}
	if start > end {
		return String{}, shared.NewEngineError(shared.KindInvalidRange, "slice start %d after end %d", start, end)
	}
	unit := s.enc.UnitSize()
	if start%unit != 0 || end%unit != 0 {
		return String{}, shared.NewEngineError(shared.KindInvalidRange,
			"slice [%d,%d) not aligned to %d-byte %s code units", start, end, unit, s.enc)
	}
	data := bytes.Clone(s.data[start:end])
	return String{text: s.enc.Decode(data), enc: s.enc, data: data}, nil
}

// Split cuts s around every occurrence of sep. An empty separator yields s
// unchanged as the only element.
func (s String) Split(sep string) []String {
	encodedSep := s.enc.Encode(sep)
	if len(encodedSep) == 0 {
		return []String{s}
	}
	var parts []String
	cursor := 0
	for {
		idx := s.indexBytes(s.data, encodedSep, cursor)
		if idx < 0 {
			break
		}
		parts = append(parts, s.mustSlice(cursor, idx))
		cursor = idx + len(encodedSep)
	}
	return append(parts, s.mustSlice(cursor, len(s.data)))
}

// mustSlice is Slice for offsets produced by indexBytes, which are always in
// bounds and aligned.
func (s String) mustSlice(start, end int) String {
	out, err := s.Slice(start, end)
	if err != nil {
		panic(err)
	}
	return out
}

// indexBytes searches haystack for needle starting at from, skipping matches
// that do not begin on a code unit boundary.
func (s String) indexBytes(haystack, needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	unit := s.enc.UnitSize()
	if r := from % unit; r != 0 {
		from += unit - r
	}
	for from <= len(haystack) {
		i := bytes.Index(haystack[from:], needle)
		if i < 0 {
			return -1
		}
		pos := from + i
		if pos%unit == 0 {
			return pos
		}
		from = pos + 1
	}
	return -1
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
