package providers

import (
	"strings"

	"go.uber.org/zap"

	"webproof-redaction/encodedstr"
	"webproof-redaction/shared"
)

// LocateURLParams returns the value range of each named query parameter of
// url. offset is the position of url inside the whole message; the returned
// ranges are in message coordinates. A parameter repeated in the query yields
// one range per occurrence.
func LocateURLParams(url encodedstr.String, offset int, names []string) ([]shared.ByteRange, error) {
	var ranges []shared.ByteRange
	for _, name := range dedupe(names) {
		found := locateURLParam(url, name)
		if len(found) == 0 {
			logger.Error("Query parameter not found", zap.String("component", "URLLocator"), zap.String("operation", "LocateURLParams"), zap.String("param", name))
			return nil, shared.NewEngineError(shared.KindNoGivenParamInURL, "query parameter %q not found in url", name)
		}
		for _, r := range found {
			ranges = append(ranges, r.Shift(offset))
		}
	}
	logger.Debug("Query parameters located", zap.String("component", "URLLocator"), zap.String("operation", "LocateURLParams"), zap.Int("names", len(names)), zap.Int("ranges", len(ranges)))
	return ranges, nil
}

// LocateURLParamsExcept locates every query parameter of url whose name is not
// in except.
func LocateURLParamsExcept(url encodedstr.String, offset int, except []string) ([]shared.ByteRange, error) {
	skip := make(map[string]struct{}, len(except))
	for _, name := range except {
		skip[name] = struct{}{}
	}
	var remaining []string
	for _, name := range URLParamNames(url.Text()) {
		if _, ok := skip[name]; !ok {
			remaining = append(remaining, name)
		}
	}
	return LocateURLParams(url, offset, remaining)
}

// URLParamNames lists the distinct names of the query parameters that carry a
// value, in first-seen order.
func URLParamNames(url string) []string {
	_, query, ok := strings.Cut(url, "?")
	if !ok {
		return nil
	}
	var names []string
	for _, pair := range strings.Split(query, "&") {
		name, _, hasValue := strings.Cut(pair, "=")
		if !hasValue || name == "" {
			continue
		}
		names = append(names, name)
	}
	return dedupe(names)
}

// locateURLParam finds `?name=` at the start of the query and every
// `&name=` after it. Ranges are relative to the start of url.
func locateURLParam(url encodedstr.String, name string) []shared.ByteRange {
	queryStart := url.IndexOf("?", 0)
	if queryStart < 0 {
		return nil
	}
	var starts []int
	first := "?" + name + "="
	if url.IndexOf(first, queryStart) == queryStart {
		starts = append(starts, queryStart+url.EncodedLen(first))
	}
	next := "&" + name + "="
	nextLen := url.EncodedLen(next)
	for pos := url.IndexOf(next, queryStart); pos >= 0; pos = url.IndexOf(next, pos+nextLen) {
		starts = append(starts, pos+nextLen)
	}

	ranges := make([]shared.ByteRange, 0, len(starts))
	for _, start := range starts {
		end := url.IndexOf("&", start)
		if end < 0 {
			end = url.Len()
		}
		ranges = append(ranges, shared.ByteRange{Start: start, End: end})
	}
	return ranges
}

// LocateRequestURLParams locates query parameters in the request target of a
// parsed request.
func LocateRequestURLParams(msg *ParsedMessage, names []string) ([]shared.ByteRange, error) {
	target, rng, err := msg.RequestTarget()
	if err != nil {
		return nil, err
	}
	return LocateURLParams(encodedstr.New(target, msg.Encoding), rng.Start, names)
}

// LocateRequestURLParamsExcept is LocateURLParamsExcept for the request target
// of a parsed request.
func LocateRequestURLParamsExcept(msg *ParsedMessage, except []string) ([]shared.ByteRange, error) {
	target, rng, err := msg.RequestTarget()
	if err != nil {
		return nil, err
	}
	return LocateURLParamsExcept(encodedstr.New(target, msg.Encoding), rng.Start, except)
}
