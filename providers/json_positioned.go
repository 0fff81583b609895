package providers

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"webproof-redaction/shared"
)

var (
	// jsonPathGrammar accepts `a.b[2].c` style paths and bare `[3]` for a
	// top-level array.
	jsonPathGrammar = regexp.MustCompile(`^(\[\d+\]|[A-Za-z_]\w*)(\.\w+|\[\d+\])*$`)
	jsonPathToken   = regexp.MustCompile(`\[(\d+)\]|\.?(\w+)`)
)

// pathSegment is either an object key or an array index.
type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

func keySegment(key string) pathSegment { return pathSegment{key: key} }

func indexSegment(i int) pathSegment { return pathSegment{index: i, isIndex: true} }

// formatPath renders segments in the dotted/indexed path notation.
func formatPath(segments []pathSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if seg.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.key)
	}
	return b.String()
}

// pathKey identifies a segment path without ambiguity: a key that contains a
// dot never collides with two nested keys, as it can in formatPath.
func pathKey(segments []pathSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.index))
			b.WriteByte(']')
			continue
		}
		b.WriteString(strconv.Quote(seg.key))
	}
	return b.String()
}

// parseJSONPath validates path against the path grammar and splits it into
// segments.
func parseJSONPath(path string) ([]pathSegment, error) {
	if !jsonPathGrammar.MatchString(path) {
		return nil, shared.NewEngineError(shared.KindInvalidPath, "invalid JSON path %q", path)
	}
	var segments []pathSegment
	for _, m := range jsonPathToken.FindAllStringSubmatch(path, -1) {
		if m[1] != "" {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, shared.Wrap(shared.KindInvalidPath, err, "invalid array index in %q", path)
			}
			segments = append(segments, indexSegment(idx))
			continue
		}
		segments = append(segments, keySegment(m[2]))
	}
	return segments, nil
}

// LocateJSONPaths returns, for each path, the range of the unquoted string
// value it names inside the body. Escape sequences are not decoded: the range
// covers the value as it is written in the body.
func LocateJSONPaths(body MessageSegment, paths []string) ([]shared.ByteRange, error) {
	root, err := parseJSON(body.Content.Text())
	if err != nil {
		logger.Error("Body is not JSON", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPaths"), zap.Error(err))
		return nil, err
	}
	parsed := make([][]pathSegment, 0, len(paths))
	for _, path := range dedupe(paths) {
		segments, err := parseJSONPath(path)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, segments)
	}
	return locateSegmentPaths(body, root, parsed)
}

// LocateJSONPathsExcept locates every string leaf of the body except those
// whose path is listed in except. Paths are compared segment by segment, so
// an excepted `a.b` spares the nested a→b leaf but not a top-level "a.b" key.
func LocateJSONPathsExcept(body MessageSegment, except []string) ([]shared.ByteRange, error) {
	skip := make(map[string]struct{}, len(except))
	for _, path := range except {
		segments, err := parseJSONPath(path)
		if err != nil {
			return nil, err
		}
		skip[pathKey(segments)] = struct{}{}
	}
	root, err := parseJSON(body.Content.Text())
	if err != nil {
		logger.Error("Body is not JSON", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPathsExcept"), zap.Error(err))
		return nil, err
	}
	var remaining [][]pathSegment
	for _, leaf := range stringLeaves(root) {
		if _, ok := skip[pathKey(leaf)]; !ok {
			remaining = append(remaining, leaf)
		}
	}
	return locateSegmentPaths(body, root, remaining)
}

// JSONStringPaths lists the path of every string leaf of the body in
// depth-first document order.
func JSONStringPaths(body MessageSegment) ([]string, error) {
	root, err := parseJSON(body.Content.Text())
	if err != nil {
		return nil, err
	}
	leaves := stringLeaves(root)
	paths := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		paths = append(paths, formatPath(leaf))
	}
	return paths, nil
}

func stringLeaves(root *jsonValue) [][]pathSegment {
	var leaves [][]pathSegment
	var walk func(v *jsonValue, prefix []pathSegment)
	walk = func(v *jsonValue, prefix []pathSegment) {
		switch v.kind {
		case jsonString:
			if len(prefix) > 0 {
				leaves = append(leaves, append([]pathSegment(nil), prefix...))
			}
		case jsonArray:
			for i, item := range v.items {
				walk(item, append(prefix, indexSegment(i)))
			}
		case jsonObject:
			for _, key := range v.keys {
				walk(v.fields[key], append(prefix, keySegment(key)))
			}
		}
	}
	walk(root, nil)
	return leaves
}

func locateSegmentPaths(body MessageSegment, root *jsonValue, paths [][]pathSegment) ([]shared.ByteRange, error) {
	ranges := make([]shared.ByteRange, 0, len(paths))
	for _, segments := range paths {
		r, err := locateValue(body, root, segments)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	logger.Debug("JSON paths located", zap.String("component", "JSONLocator"), zap.String("operation", "locateSegmentPaths"), zap.Int("paths", len(paths)))
	return ranges, nil
}

// locateValue walks segments from root. At every step the current value is
// re-serialized and searched for in the body from the previous step's
// position, which anchors each lookup to the right place even when the same
// key or value appears elsewhere. Preceding array elements and object members
// are skipped one by one before the selected child is entered.
func locateValue(body MessageSegment, root *jsonValue, segments []pathSegment) (shared.ByteRange, error) {
	content := body.Content
	path := formatPath(segments)
	notFound := func(reason string) error {
		logger.Error("JSON path not found", zap.String("component", "JSONLocator"), zap.String("operation", "locateValue"), zap.String("path", path), zap.String("reason", reason))
		return shared.NewEngineError(shared.KindPathNotFound, "path %q not found: %s", path, reason)
	}
	advance := func(pos int, snippet string) (int, error) {
		at := content.IndexOf(snippet, pos)
		if at < 0 {
			return -1, notFound("value layout differs from its compact serialization")
		}
		return at + content.EncodedLen(snippet), nil
	}

	pos := 0
	cur := root
	for _, seg := range segments {
		at := content.IndexOf(cur.serialize(), pos)
		if at < 0 {
			return shared.ByteRange{}, notFound("value layout differs from its compact serialization")
		}
		pos = at

		if seg.isIndex {
			if cur.kind != jsonArray {
				return shared.ByteRange{}, notFound("cannot index into " + cur.kind.String())
			}
			if seg.index < 0 || seg.index >= len(cur.items) {
				return shared.ByteRange{}, notFound("index " + strconv.Itoa(seg.index) + " out of range")
			}
			pos += content.EncodedLen("[")
			for _, item := range cur.items[:seg.index] {
				next, err := advance(pos, item.serialize())
				if err != nil {
					return shared.ByteRange{}, err
				}
				pos = next
			}
			cur = cur.items[seg.index]
			continue
		}

		if cur.kind != jsonObject {
			return shared.ByteRange{}, notFound("cannot read key of " + cur.kind.String())
		}
		child, ok := cur.fields[seg.key]
		if !ok {
			return shared.ByteRange{}, notFound("key " + strconv.Quote(seg.key) + " missing")
		}
		pos += content.EncodedLen("{")
		for _, key := range cur.keys {
			if key == seg.key {
				break
			}
			next, err := advance(pos, memberPrefix(key)+cur.fields[key].serialize())
			if err != nil {
				return shared.ByteRange{}, err
			}
			pos = next
		}
		next, err := advance(pos, memberPrefix(seg.key))
		if err != nil {
			return shared.ByteRange{}, err
		}
		pos = next
		cur = child
	}

	if cur.kind != jsonString {
		logger.Error("JSON path does not name a string", zap.String("component", "JSONLocator"), zap.String("operation", "locateValue"), zap.String("path", path), zap.String("type", cur.kind.String()))
		return shared.ByteRange{}, shared.NewEngineError(shared.KindNonStringValue, "path %q resolves to %s, not string", path, cur.kind)
	}
	quoted := quoteString(cur.str)
	at := content.IndexOf(quoted, pos)
	if at < 0 {
		return shared.ByteRange{}, notFound("string value not found after its key")
	}
	quote := content.EncodedLen(`"`)
	start := body.Range.Start + at + quote
	end := body.Range.Start + at + content.EncodedLen(quoted) - quote
	return shared.ByteRange{Start: start, End: end}, nil
}

// dedupe removes exact duplicates, keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
