package providers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"webproof-redaction/encodedstr"
	"webproof-redaction/shared"
)

const searchRequest = "GET /search?name=José&city=SãoPaulo&café=latté HTTP/1.1\r\nHost: example.com\r\n\r\n"

func TestLocateRequestURLParamsExcept(t *testing.T) {
	msg := mustParse(t, searchRequest, DefaultParseOptions())
	got, err := LocateRequestURLParamsExcept(msg, []string{"name", "café"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{{Start: 28, End: 37}}, got)

	value, err := msg.Message.Content.Slice(28, 37)
	require.NoError(t, err)
	require.Equal(t, "SãoPaulo", value.Text())
}

func TestLocateRequestURLParams(t *testing.T) {
	msg := mustParse(t, searchRequest, DefaultParseOptions())

	for _, tc := range []struct {
		name  string
		names []string
		want  []shared.ByteRange
	}{
		{name: "first param", names: []string{"name"}, want: []shared.ByteRange{{Start: 17, End: 22}}},
		{name: "last param", names: []string{"café"}, want: []shared.ByteRange{{Start: 44, End: 50}}},
		{name: "several", names: []string{"city", "name"}, want: []shared.ByteRange{{Start: 28, End: 37}, {Start: 17, End: 22}}},
		{name: "duplicates collapse", names: []string{"city", "city"}, want: []shared.ByteRange{{Start: 28, End: 37}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocateRequestURLParams(msg, tc.names)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLocateURLParams(t *testing.T) {
	for _, tc := range []struct {
		name string
		url  string
		find string
		want []shared.ByteRange
	}{
		{name: "repeated param", url: "/p?a=1&b=2&a=33", find: "a", want: []shared.ByteRange{{Start: 5, End: 6}, {Start: 13, End: 15}}},
		{name: "name is a prefix of another", url: "/p?ab=1&a=2", find: "a", want: []shared.ByteRange{{Start: 10, End: 11}}},
		{name: "empty value", url: "/p?a=&b=2", find: "a", want: []shared.ByteRange{{Start: 5, End: 5}}},
		{name: "question mark inside a value", url: "/p?x=?a=1&a=2", find: "a", want: []shared.ByteRange{{Start: 12, End: 13}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocateURLParams(encodedstr.New(tc.url, encodedstr.UTF8), 0, []string{tc.find})
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLocateURLParamsOffset(t *testing.T) {
	got, err := LocateURLParams(encodedstr.New("/p?a=1", encodedstr.UTF8), 100, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{{Start: 105, End: 106}}, got)
}

func TestLocateURLParamsNotFound(t *testing.T) {
	for _, url := range []string{"/p?b=1", "/p", "/p?a", "/p?xa=1"} {
		_, err := LocateURLParams(encodedstr.New(url, encodedstr.UTF8), 0, []string{"a"})
		require.ErrorIs(t, err, shared.ErrNoGivenParamInURL, url)
	}
}

func TestURLParamNames(t *testing.T) {
	require.Equal(t, []string{"name", "city", "café"}, URLParamNames("/search?name=José&city=SãoPaulo&café=latté"))
	require.Equal(t, []string{"a", "c"}, URLParamNames("/p?a=1&flag&c=&a=2&=x"))
	require.Empty(t, URLParamNames("/p"))
}

func TestLocateURLParamsExceptMatchesExplicit(t *testing.T) {
	url := encodedstr.New("/p?a=1&b=2&c=3&a=4", encodedstr.UTF8)
	all := URLParamNames(url.Text())

	for _, except := range [][]string{nil, {"a"}, {"b", "c"}, {"a", "b", "c"}, {"z"}} {
		got, err := LocateURLParamsExcept(url, 7, except)
		require.NoError(t, err)

		var remaining []string
		for _, name := range all {
			excluded := false
			for _, e := range except {
				if e == name {
					excluded = true
				}
			}
			if !excluded {
				remaining = append(remaining, name)
			}
		}
		want, err := LocateURLParams(url, 7, remaining)
		require.NoError(t, err)
		require.Equal(t, want, got, "except %v", except)
	}
}

func TestLocateRequestURLParamsUTF16(t *testing.T) {
	raw := "GET /q?k=vé HTTP/1.1\r\nContent-Type: text/plain; charset=utf-16\r\n\r\n"
	msg := mustParse(t, raw, DefaultParseOptions())
	got, err := LocateRequestURLParams(msg, []string{"k"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{{Start: 2 * len("GET /q?k="), End: 2 * len([]rune("GET /q?k=vé"))}}, got)
}
