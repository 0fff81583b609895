package providers

import (
	"strings"

	"go.uber.org/zap"

	"webproof-redaction/encodedstr"
	"webproof-redaction/shared"
)

const (
	crlf           = "\r\n"
	headerBodySep  = "\r\n\r\n"
	contentTypeKey = "content-type:"
	charsetParam   = "charset="
)

// ParseOptions controls how a message's encoding is resolved.
type ParseOptions struct {
	// EnforceContentType fails parsing when no Content-Type charset is declared.
	EnforceContentType bool
	// DefaultEncoding is used when no charset is declared and
	// EnforceContentType is false.
	DefaultEncoding encodedstr.Encoding
}

// DefaultParseOptions does not require a charset and falls back to UTF-8.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{DefaultEncoding: encodedstr.UTF8}
}

// MessageSegment is one structural part of an HTTP message together with its
// position inside the whole message.
type MessageSegment struct {
	Content encodedstr.String
	Range   shared.ByteRange
}

// ParsedMessage splits a raw HTTP message into its info line, header block and
// body. The info line, headers and body ranges are disjoint, appear in that
// order and lie inside Message.Range; the CRLF separators between them belong
// to no segment.
type ParsedMessage struct {
	Encoding encodedstr.Encoding
	Message  MessageSegment
	InfoLine MessageSegment
	Headers  MessageSegment
	Body     MessageSegment
}

// ParseHTTPMessage parses a complete request or response.
func ParseHTTPMessage(raw string, opts ParseOptions) (*ParsedMessage, error) {
	sepIdx := strings.Index(raw, headerBodySep)
	if sepIdx < 0 {
		logger.Error("Message has no header/body separator", zap.String("component", "Parser"), zap.String("operation", "ParseHTTPMessage"), zap.Int("message_length", len(raw)))
		return nil, shared.NewEngineError(shared.KindInvalidHTTPMessage, "no blank line between headers and body")
	}
	headerBlock := raw[:sepIdx]
	body := raw[sepIdx+len(headerBodySep):]

	lines := strings.Split(headerBlock, crlf)
	infoLine := lines[0]
	if strings.TrimSpace(infoLine) == "" {
		logger.Error("Message has no info line", zap.String("component", "Parser"), zap.String("operation", "ParseHTTPMessage"))
		return nil, shared.NewEngineError(shared.KindInvalidHTTPMessage, "missing start line")
	}
	headerLines := lines[1:]

	enc, err := resolveEncoding(headerLines, opts)
	if err != nil {
		return nil, err
	}

	message := encodedstr.New(raw, enc)
	info := encodedstr.New(infoLine, enc)
	headers := encodedstr.New(strings.Join(headerLines, crlf), enc)
	bodyStr := encodedstr.New(body, enc)

	// Positions come from searching the encoded message rather than from
	// text lengths, so they stay exact for multi-byte encodings.
	infoStart := message.IndexOf(infoLine, 0)
	infoRange := shared.ByteRange{Start: infoStart, End: infoStart + info.Len()}

	headersRange := shared.ByteRange{Start: infoRange.End, End: infoRange.End}
	if len(headerLines) > 0 {
		headersStart := message.IndexOf(crlf+headers.Text(), infoRange.End) + message.EncodedLen(crlf)
		headersRange = shared.ByteRange{Start: headersStart, End: headersStart + headers.Len()}
	}

	bodySearchFrom := message.IndexOf(headerBodySep, headersRange.End) + message.EncodedLen(headerBodySep)
	bodyStart := message.IndexOf(body, bodySearchFrom)
	bodyRange := shared.ByteRange{Start: bodyStart, End: bodyStart + bodyStr.Len()}

	parsed := &ParsedMessage{
		Encoding: enc,
		Message:  MessageSegment{Content: message, Range: shared.ByteRange{Start: 0, End: message.Len()}},
		InfoLine: MessageSegment{Content: info, Range: infoRange},
		Headers:  MessageSegment{Content: headers, Range: headersRange},
		Body:     MessageSegment{Content: bodyStr, Range: bodyRange},
	}

	logger.Debug("Message parsed", zap.String("component", "Parser"), zap.String("operation", "ParseHTTPMessage"),
		zap.String("encoding", enc.String()),
		zap.Stringer("info", infoRange), zap.Stringer("headers", headersRange), zap.Stringer("body", bodyRange))
	return parsed, nil
}

// resolveEncoding reads the charset parameter of the first Content-Type
// header, falling back to opts.DefaultEncoding when allowed.
func resolveEncoding(headerLines []string, opts ParseOptions) (encodedstr.Encoding, error) {
	charset, found := findCharset(headerLines)
	if !found {
		if opts.EnforceContentType {
			logger.Error("Content-Type charset required but absent", zap.String("component", "Parser"), zap.String("operation", "resolveEncoding"))
			return "", shared.NewEngineError(shared.KindInvalidHTTPMessage, "content-type charset is required")
		}
		charset = string(opts.DefaultEncoding)
	}
	enc, err := encodedstr.ParseEncoding(charset)
	if err != nil {
		logger.Error("Unsupported charset", zap.String("component", "Parser"), zap.String("operation", "resolveEncoding"), zap.String("charset", charset))
		return "", err
	}
	return enc, nil
}

func findCharset(headerLines []string) (string, bool) {
	for _, line := range headerLines {
		if !strings.HasPrefix(strings.ToLower(line), contentTypeKey) {
			continue
		}
		for _, param := range strings.Split(line[len(contentTypeKey):], ";") {
			param = strings.TrimSpace(param)
			if len(param) >= len(charsetParam) && strings.EqualFold(param[:len(charsetParam)], charsetParam) {
				value := strings.Trim(strings.TrimSpace(param[len(charsetParam):]), `"`)
				return strings.ToLower(value), true
			}
		}
		return "", false
	}
	return "", false
}

// RequestTarget returns the URL token of a request line and its range in the
// whole message.
func (m *ParsedMessage) RequestTarget() (string, shared.ByteRange, error) {
	fields := strings.Fields(m.InfoLine.Content.Text())
	if len(fields) < 2 {
		return "", shared.ByteRange{}, shared.NewEngineError(shared.KindInvalidHTTPMessage,
			"request line (%d bytes) has no request target", m.InfoLine.Range.Len())
	}
	target := fields[1]
	start := m.InfoLine.Content.IndexOf(target, m.InfoLine.Content.EncodedLen(fields[0]))
	offset := m.InfoLine.Range.Start + start
	return target, shared.ByteRange{Start: offset, End: offset + m.Message.Content.EncodedLen(target)}, nil
}
