package providers

import (
	"strings"

	"go.uber.org/zap"

	"webproof-redaction/encodedstr"
	"webproof-redaction/shared"
)

// LocateHeaders returns the value range of each named header. Names match
// case-insensitively and a header that appears on several lines yields one
// range per line. The value starts after the colon and any spaces or tabs that
// follow it, and ends at the line break.
func LocateHeaders(msg *ParsedMessage, names []string) ([]shared.ByteRange, error) {
	var ranges []shared.ByteRange
	for _, name := range dedupeFold(names) {
		found, err := locateHeader(msg, name)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, found...)
	}
	logger.Debug("Headers located", zap.String("component", "HeaderLocator"), zap.String("operation", "LocateHeaders"), zap.Int("names", len(names)), zap.Int("ranges", len(ranges)))
	return ranges, nil
}

// LocateHeadersExcept locates every header of the message whose name is not
// in except.
func LocateHeadersExcept(msg *ParsedMessage, except []string) ([]shared.ByteRange, error) {
	skip := make(map[string]struct{}, len(except))
	for _, name := range except {
		skip[strings.ToLower(name)] = struct{}{}
	}
	var remaining []string
	for _, name := range HeaderNames(msg) {
		if _, ok := skip[strings.ToLower(name)]; !ok {
			remaining = append(remaining, name)
		}
	}
	return LocateHeaders(msg, remaining)
}

// HeaderNames lists the distinct header names of the message in first-seen
// order. Lines without a colon are ignored.
func HeaderNames(msg *ParsedMessage) []string {
	var names []string
	for _, line := range msg.Headers.Content.Split(crlf) {
		text := line.Text()
		colon := strings.Index(text, ":")
		if colon < 0 {
			continue
		}
		names = append(names, text[:colon])
	}
	return dedupeFold(names)
}

func locateHeader(msg *ParsedMessage, name string) ([]shared.ByteRange, error) {
	// Only the header block is searched. It is prefixed with the CRLF closing
	// the info line so the first header line matches the same pattern as the
	// rest, and base maps block offsets back into the message.
	block := encodedstr.New(crlf+msg.Headers.Content.Text(), msg.Encoding)
	base := msg.InfoLine.Range.End
	pattern := crlf + name + ":"
	patternLen := block.EncodedLen(pattern)

	var ranges []shared.ByteRange
	pos := block.CaseInsensitiveIndexOf(pattern, 0)
	for pos >= 0 {
		valueStart := pos + patternLen
		lineEnd := block.IndexOf(crlf, valueStart)
		if lineEnd < 0 {
			lineEnd = block.Len()
		}
		if line, err := block.Slice(valueStart, lineEnd); err == nil {
			text := line.Text()
			valueStart += block.EncodedLen(text[:len(text)-len(strings.TrimLeft(text, " \t"))])
		}
		ranges = append(ranges, shared.ByteRange{Start: valueStart, End: lineEnd}.Shift(base))
		pos = block.CaseInsensitiveIndexOf(pattern, lineEnd)
	}

	if len(ranges) == 0 {
		logger.Error("Header not found", zap.String("component", "HeaderLocator"), zap.String("operation", "locateHeader"), zap.String("header", name))
		return nil, shared.NewEngineError(shared.KindHeaderNotFound, "header %q not found", name)
	}
	return ranges, nil
}

// dedupeFold removes case-insensitive duplicates, keeping the first spelling.
func dedupeFold(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
