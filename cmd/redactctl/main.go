package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webproof-redaction/notary"
	"webproof-redaction/providers"
	"webproof-redaction/redaction"
	"webproof-redaction/shared"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("redactctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sentPath := fs.String("sent", "", "file holding the raw request")
	recvPath := fs.String("recv", "", "file holding the raw response")
	policyPath := fs.String("policy", "", "redaction policy (.json, .yaml or .yml)")
	mode := fs.String("mode", "reveal", "output: reveal, commit or both")
	envFile := fs.String("env", ".env", "env file to load before reading the environment")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *sentPath == "" || *recvPath == "" || *policyPath == "" {
		fmt.Fprintln(stderr, "Usage: redactctl -sent request.txt -recv response.txt -policy policy.json [-mode reveal|commit|both]")
		return 2
	}

	cfg, err := LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	base, err := shared.NewLoggerFromEnv("redactctl")
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer base.Sync()
	logger := base.WithRun(uuid.NewString())
	providers.SetLogger(logger)
	redaction.SetLogger(logger)
	notary.SetLogger(logger)

	out, err := execute(*sentPath, *recvPath, *policyPath, *mode, cfg.Options)
	if err != nil {
		logger.Error("Redaction failed", zap.String("component", "CLI"), zap.String("operation", "run"), zap.String("kind", string(shared.KindOf(err))), zap.Error(err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func execute(sentPath, recvPath, policyPath, mode string, opts redaction.Options) (any, error) {
	sent, err := os.ReadFile(sentPath)
	if err != nil {
		return nil, err
	}
	recv, err := os.ReadFile(recvPath)
	if err != nil {
		return nil, err
	}
	policy, err := loadPolicy(policyPath)
	if err != nil {
		return nil, err
	}

	res, err := redaction.Redact(shared.Transcript{Sent: string(sent), Recv: string(recv)}, policy, opts)
	if err != nil {
		return nil, err
	}
	switch mode {
	case "reveal":
		return res.Reveal, nil
	case "commit":
		return res.Commit, nil
	case "both":
		return res, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func loadPolicy(path string) (redaction.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return redaction.ParseConfigYAML(data)
	default:
		return redaction.ParseConfig(data)
	}
}
