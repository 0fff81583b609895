package providers

import (
	"strconv"
	"strings"

	jp "github.com/reclaimprotocol/jsonpathplus-go"
	"go.uber.org/zap"

	"webproof-redaction/shared"
)

// LocateJSONPathQueries evaluates each JSONPath expression (e.g.
// `$.items[*].name`) against the body and locates every match with the same
// anchored walk as LocateJSONPaths. Every match must be a string.
func LocateJSONPathQueries(body MessageSegment, queries []string) ([]shared.ByteRange, error) {
	text := body.Content.Text()
	root, err := parseJSON(text)
	if err != nil {
		logger.Error("Body is not JSON", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPathQueries"), zap.Error(err))
		return nil, err
	}

	if len(queries) > 0 && !root.isContainer() {
		logger.Error("JSONPath query on a scalar body", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPathQueries"), zap.String("type", root.kind.String()))
		return nil, shared.NewEngineError(shared.KindPathNotFound, "body is a JSON %s; no query can name a value inside it", root.kind)
	}

	seen := make(map[string]struct{})
	var paths [][]pathSegment
	for _, query := range queries {
		results, err := jp.Query(query, text)
		if err != nil {
			logger.Error("JSONPath query failed", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPathQueries"), zap.String("query", query), zap.Error(err))
			return nil, shared.Wrap(shared.KindInvalidPath, err, "invalid JSONPath %q", query)
		}
		if len(results) == 0 {
			return nil, shared.NewEngineError(shared.KindPathNotFound, "JSONPath %q matched nothing", query)
		}
		for _, r := range results {
			segments := jsonPathToSegments(r.Path)
			key := pathKey(segments)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, segments)
		}
		logger.Debug("JSONPath query expanded", zap.String("component", "JSONLocator"), zap.String("operation", "LocateJSONPathQueries"), zap.String("query", query), zap.Int("matches", len(results)))
	}
	return locateSegmentPaths(body, root, paths)
}

// jsonPathToSegments converts a normalized JSONPath like $.a[1]['b'] to
// segments. Unquoted bracket contents that parse as integers are array
// indexes; dotted names and quoted bracket contents are object keys.
func jsonPathToSegments(path string) []pathSegment {
	p := strings.TrimPrefix(path, "$")
	var segments []pathSegment
	nameEnd := func(from int) int {
		j := from
		for j < len(p) && p[j] != '.' && p[j] != '[' {
			j++
		}
		return j
	}
	for i := 0; i < len(p); {
		switch p[i] {
		case '.':
			j := nameEnd(i + 1)
			if j > i+1 {
				segments = append(segments, keySegment(p[i+1:j]))
			}
			i = j
		case '[':
			i++
			if i < len(p) && (p[i] == '\'' || p[i] == '"') {
				end := strings.IndexByte(p[i+1:], p[i])
				if end < 0 {
					return segments
				}
				segments = append(segments, keySegment(p[i+1:i+1+end]))
				i += end + 2
				if i < len(p) && p[i] == ']' {
					i++
				}
				continue
			}
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return segments
			}
			token := p[i : i+end]
			if idx, err := strconv.Atoi(token); err == nil {
				segments = append(segments, indexSegment(idx))
			} else {
				segments = append(segments, keySegment(token))
			}
			i += end + 1
		default:
			j := nameEnd(i)
			segments = append(segments, keySegment(p[i:j]))
			i = j
		}
	}
	return segments
}
