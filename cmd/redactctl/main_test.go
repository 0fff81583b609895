package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"webproof-redaction/redaction"
	"webproof-redaction/shared"
)

const (
	testRequest  = "GET /search?name=José&city=SãoPaulo HTTP/1.1\r\nHost: example.com\r\n\r\n"
	testResponse = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{\"name\":\"Gandalf\",\"greeting\":\"hello there\"}"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (int, []byte, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append(args, "-env", filepath.Join(t.TempDir(), "missing.env")), &stdout, &stderr)
	return code, stdout.Bytes(), stderr.String()
}

func TestRunReveal(t *testing.T) {
	dir := t.TempDir()
	sent := writeFile(t, dir, "sent.txt", testRequest)
	recv := writeFile(t, dir, "recv.txt", testResponse)
	policy := writeFile(t, dir, "policy.json", `[{"response": {"json_body": ["greeting"]}}]`)

	code, out, stderr := runCLI(t, "-sent", sent, "-recv", recv, "-policy", policy)
	require.Equal(t, 0, code, stderr)

	var reveal shared.Reveal
	require.NoError(t, json.Unmarshal(out, &reveal))
	require.Equal(t, []shared.ByteRange{{Start: 0, End: len(testRequest)}}, reveal.Sent)

	greeting := bytes.Index([]byte(testResponse), []byte("hello there"))
	require.Equal(t, []shared.ByteRange{{Start: 0, End: greeting}, {Start: greeting + len("hello there"), End: len(testResponse)}}, reveal.Recv)
}

func TestRunBothWithYAMLPolicy(t *testing.T) {
	dir := t.TempDir()
	sent := writeFile(t, dir, "sent.txt", testRequest)
	recv := writeFile(t, dir, "recv.txt", testResponse)
	policy := writeFile(t, dir, "policy.yaml", "- request:\n    url_query: [city]\n")

	code, out, stderr := runCLI(t, "-sent", sent, "-recv", recv, "-policy", policy, "-mode", "both")
	require.Equal(t, 0, code, stderr)

	var res redaction.Result
	require.NoError(t, json.Unmarshal(out, &res))
	city := bytes.Index([]byte(testRequest), []byte("SãoPaulo"))
	require.Equal(t, []shared.ByteRange{{Start: city, End: city + len("SãoPaulo")}}, res.Commit.Sent)
	require.Empty(t, res.Commit.Recv)
	require.Len(t, res.Reveal.Sent, 2)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	sent := writeFile(t, dir, "sent.txt", testRequest)
	recv := writeFile(t, dir, "recv.txt", testResponse)
	good := writeFile(t, dir, "good.json", `[]`)
	bad := writeFile(t, dir, "bad.json", `[{"request": {"json_body": ["a"]}}]`)
	missing := writeFile(t, dir, "missing.json", `[{"response": {"headers": ["x-missing"]}}]`)

	for _, tc := range []struct {
		name string
		args []string
		code int
	}{
		{name: "no flags", args: nil, code: 2},
		{name: "unknown flag", args: []string{"-nope"}, code: 2},
		{name: "invalid policy", args: []string{"-sent", sent, "-recv", recv, "-policy", bad}, code: 1},
		{name: "header not found", args: []string{"-sent", sent, "-recv", recv, "-policy", missing}, code: 1},
		{name: "unknown mode", args: []string{"-sent", sent, "-recv", recv, "-policy", good, "-mode", "all"}, code: 1},
		{name: "missing file", args: []string{"-sent", filepath.Join(dir, "nope"), "-recv", recv, "-policy", good}, code: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, out, _ := runCLI(t, tc.args...)
			require.Equal(t, tc.code, code)
			require.Empty(t, out)
		})
	}
}
