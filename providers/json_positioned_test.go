package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"webproof-redaction/shared"
)

func jsonResponse(t *testing.T, body string) *ParsedMessage {
	t.Helper()
	return mustParse(t, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"+body, DefaultParseOptions())
}

// lastValue is the message range of the last occurrence of the quoted string
// value in the body.
func lastValue(msg *ParsedMessage, value string) shared.ByteRange {
	idx := strings.LastIndex(msg.Body.Content.Text(), `"`+value+`"`) + 1
	start := msg.Body.Range.Start + idx
	return shared.ByteRange{Start: start, End: start + len(value)}
}

func TestLocateJSONPathsGandalf(t *testing.T) {
	msg := mustParse(t, gandalfResponse, DefaultParseOptions())
	got, err := LocateJSONPaths(msg.Body, []string{"greeting"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{{Start: 116, End: 127}}, got)

	value, err := msg.Message.Content.Slice(116, 127)
	require.NoError(t, err)
	require.Equal(t, "hello there", value.Text())
}

func TestLocateJSONPaths(t *testing.T) {
	for _, tc := range []struct {
		name  string
		body  string
		path  string
		value string
	}{
		{name: "nested array member", body: `{"users":[{"name":"a"},{"name":"b"}]}`, path: "users[1].name", value: "b"},
		{name: "top level key after nested key", body: `{"inner":{"name":"x"},"name":"x"}`, path: "name", value: "x"},
		{name: "top level array", body: `[{"a":"v"},{"a":"v"}]`, path: "[1].a", value: "v"},
		{name: "repeated value", body: `{"a":"same","b":"same"}`, path: "b", value: "same"},
		{name: "source key order", body: `{"z":"1","a":"2"}`, path: "a", value: "2"},
		{name: "numbers before target", body: `{"n":1.5,"m":-20,"s":"x"}`, path: "s", value: "x"},
		{name: "escaped value", body: `{"q":"say \"hi\"\n"}`, path: "q", value: `say \"hi\"\n`},
		{name: "unicode value", body: `{"name":"Zoë 😀"}`, path: "name", value: "Zoë 😀"},
		{name: "empty string", body: `{"e":""}`, path: "e", value: ""},
		{name: "deep path", body: `{"a":{"b":[["x","y"]]}}`, path: "a.b[0][1]", value: "y"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			msg := jsonResponse(t, tc.body)
			got, err := LocateJSONPaths(msg.Body, []string{tc.path})
			require.NoError(t, err)
			require.Equal(t, []shared.ByteRange{lastValue(msg, tc.value)}, got)
		})
	}
}

func TestLocateJSONPathsDuplicatePaths(t *testing.T) {
	msg := mustParse(t, gandalfResponse, DefaultParseOptions())
	got, err := LocateJSONPaths(msg.Body, []string{"name", "greeting", "name"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{{Start: 95, End: 102}, {Start: 116, End: 127}}, got)
}

func TestLocateJSONPathsErrors(t *testing.T) {
	const body = `{"n":1,"b":true,"o":{},"z":null,"arr":[],"s":"x"}`

	for _, tc := range []struct {
		name string
		body string
		path string
		want error
	}{
		{name: "number", body: body, path: "n", want: shared.ErrNonStringValue},
		{name: "boolean", body: body, path: "b", want: shared.ErrNonStringValue},
		{name: "object", body: body, path: "o", want: shared.ErrNonStringValue},
		{name: "null", body: body, path: "z", want: shared.ErrNonStringValue},
		{name: "array", body: body, path: "arr", want: shared.ErrNonStringValue},
		{name: "missing key", body: body, path: "missing", want: shared.ErrPathNotFound},
		{name: "index out of range", body: body, path: "arr[0]", want: shared.ErrPathNotFound},
		{name: "index into object", body: body, path: "o[0]", want: shared.ErrPathNotFound},
		{name: "key of number", body: body, path: "n.x", want: shared.ErrPathNotFound},
		{name: "key of string", body: body, path: "s.x", want: shared.ErrPathNotFound},
		{name: "whitespace body", body: `{ "a" : "b" }`, path: "a", want: shared.ErrPathNotFound},
		{name: "non canonical number", body: `{"n":1.0,"s":"x"}`, path: "s", want: shared.ErrPathNotFound},
		{name: "empty path", body: body, path: "", want: shared.ErrInvalidPath},
		{name: "double dot", body: body, path: "a..b", want: shared.ErrInvalidPath},
		{name: "unclosed bracket", body: body, path: "a[", want: shared.ErrInvalidPath},
		{name: "negative index", body: body, path: "arr[-1]", want: shared.ErrInvalidPath},
		{name: "jsonpath syntax", body: body, path: "$.s", want: shared.ErrInvalidPath},
		{name: "leading digit", body: body, path: "1abc", want: shared.ErrInvalidPath},
		{name: "dash in key", body: body, path: "a.b-c", want: shared.ErrInvalidPath},
		{name: "malformed body", body: `{"a":`, path: "a", want: shared.ErrInvalidJSON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			msg := jsonResponse(t, tc.body)
			_, err := LocateJSONPaths(msg.Body, []string{tc.path})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestJSONStringPaths(t *testing.T) {
	msg := jsonResponse(t, `{"a":"1","b":{"c":["2",3,"4"]},"content-type":"5","n":null}`)
	got, err := JSONStringPaths(msg.Body)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b.c[0]", "b.c[2]", "content-type"}, got)

	msg = jsonResponse(t, `"just a string"`)
	got, err = JSONStringPaths(msg.Body)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestScalarBodies(t *testing.T) {
	for _, body := range []string{`"just a string"`, `42`, `-1.5`, `true`, `null`, ` "padded" `} {
		t.Run(body, func(t *testing.T) {
			msg := jsonResponse(t, body)

			got, err := LocateJSONPathsExcept(msg.Body, nil)
			require.NoError(t, err)
			require.Empty(t, got)

			_, err = LocateJSONPaths(msg.Body, []string{"a"})
			require.ErrorIs(t, err, shared.ErrPathNotFound)

			_, err = LocateJSONPaths(msg.Body, []string{"[0]"})
			require.ErrorIs(t, err, shared.ErrPathNotFound)

			_, err = LocateJSONPathQueries(msg.Body, []string{"$.a"})
			require.ErrorIs(t, err, shared.ErrPathNotFound)

			got, err = LocateJSONPathQueries(msg.Body, nil)
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

func TestLocateJSONPathsExcept(t *testing.T) {
	msg := jsonResponse(t, `{"user":{"name":"Ann","email":"a@b.c"},"tags":["x","y"],"count":2}`)

	for _, except := range [][]string{
		nil,
		{"user.name"},
		{"user.email", "tags[1]"},
		{"user.name", "user.email", "tags[0]", "tags[1]"},
		{"count"},
		{"not.present"},
	} {
		got, err := LocateJSONPathsExcept(msg.Body, except)
		require.NoError(t, err)

		all, err := JSONStringPaths(msg.Body)
		require.NoError(t, err)
		var remaining []string
		for _, p := range all {
			excluded := false
			for _, e := range except {
				if e == p {
					excluded = true
				}
			}
			if !excluded {
				remaining = append(remaining, p)
			}
		}
		want, err := LocateJSONPaths(msg.Body, remaining)
		require.NoError(t, err)
		require.Equal(t, want, got, "except %v", except)
	}
}

func TestLocateJSONPathsExceptNonGrammarKeys(t *testing.T) {
	msg := jsonResponse(t, `{"content-type":"text","ok":"yes"}`)
	got, err := LocateJSONPathsExcept(msg.Body, []string{"ok"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{lastValue(msg, "text")}, got)

	_, err = LocateJSONPathsExcept(msg.Body, []string{"content-type"})
	require.ErrorIs(t, err, shared.ErrInvalidPath)
}

func TestLocateJSONPathsExceptDottedKey(t *testing.T) {
	msg := jsonResponse(t, `{"a.b":"SECRET","a":{"b":"public"}}`)

	got, err := LocateJSONPathsExcept(msg.Body, []string{"a.b"})
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{lastValue(msg, "SECRET")}, got)

	got, err = LocateJSONPathsExcept(msg.Body, nil)
	require.NoError(t, err)
	require.Equal(t, []shared.ByteRange{lastValue(msg, "SECRET"), lastValue(msg, "public")}, got)
}

func TestLocateJSONPathsUTF16(t *testing.T) {
	body := `{"k":"vé"}`
	raw := "HTTP/1.1 200 OK\r\nContent-Type: application/json; charset=utf-16\r\n\r\n" + body
	msg := mustParse(t, raw, DefaultParseOptions())

	got, err := LocateJSONPaths(msg.Body, []string{"k"})
	require.NoError(t, err)
	start := msg.Body.Range.Start + 2*len(`{"k":"`)
	require.Equal(t, []shared.ByteRange{{Start: start, End: start + 4}}, got)

	value, err := msg.Message.Content.Slice(got[0].Start, got[0].End)
	require.NoError(t, err)
	require.Equal(t, "vé", value.Text())
}

func TestParseJSONPath(t *testing.T) {
	segments, err := parseJSONPath("users[10].name.first")
	require.NoError(t, err)
	require.Equal(t, []pathSegment{keySegment("users"), indexSegment(10), keySegment("name"), keySegment("first")}, segments)
	require.Equal(t, "users[10].name.first", formatPath(segments))

	segments, err = parseJSONPath("[0][1].a")
	require.NoError(t, err)
	require.Equal(t, []pathSegment{indexSegment(0), indexSegment(1), keySegment("a")}, segments)
	require.Equal(t, "[0][1].a", formatPath(segments))
}
