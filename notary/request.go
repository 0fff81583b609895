package notary

import (
	"fmt"
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultUserAgent = "webproof-redaction"
	defaultHTTPSPort = 443
)

// managedHeaders are written by BuildRequest itself and may not be supplied
// by the caller.
var managedHeaders = []string{"Host", "Content-Length", "Connection", "Accept-Encoding"}

// Request describes the HTTP exchange the notarization collaborator performs.
type Request struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// BuildRequest renders r as the HTTP/1.1 text that ends up in the sent half of
// the transcript. Header lines are sorted by name after the fixed Host,
// Content-Length, Connection and Accept-Encoding lines; a User-Agent is added
// when r has none.
func BuildRequest(r Request) (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return "", fmt.Errorf("invalid url %q: need an http(s) scheme and a host", r.URL)
	}

	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = "GET"
	}

	headers := map[string]string{}
	maps.Copy(headers, r.Headers)
	hasUA := false
	for k, v := range headers {
		for _, m := range managedHeaders {
			if strings.EqualFold(k, m) {
				return "", fmt.Errorf("header %q is set by the request builder", k)
			}
		}
		if strings.ContainsAny(k, "\r\n:") || strings.ContainsAny(v, "\r\n") {
			return "", fmt.Errorf("header %q contains a line break or colon", k)
		}
		if strings.EqualFold(k, "user-agent") {
			hasUA = true
		}
	}
	if !hasUA {
		headers["User-Agent"] = DefaultUserAgent
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	lines := []string{
		fmt.Sprintf("%s %s HTTP/1.1", method, target),
		"Host: " + hostHeader(u),
		"Content-Length: " + strconv.Itoa(len(r.Body)),
		"Connection: close",
		"Accept-Encoding: identity",
	}
	lines = append(lines, headerLines(headers)...)
	lines = append(lines, "\r\n")
	return strings.Join(lines, "\r\n") + string(r.Body), nil
}

func headerLines(h map[string]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, k+": "+h[k])
	}
	return res
}

// hostHeader drops the port when it is the scheme default.
func hostHeader(u *url.URL) string {
	port := u.Port()
	if port == "" || (u.Scheme == "https" && port == strconv.Itoa(defaultHTTPSPort)) || (u.Scheme == "http" && port == "80") {
		return u.Hostname()
	}
	return u.Host
}
