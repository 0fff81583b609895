package redaction

import (
	"fmt"

	"go.uber.org/zap"

	"webproof-redaction/encodedstr"
	"webproof-redaction/providers"
	"webproof-redaction/shared"
)

// Options holds the parse options for each transcript side.
type Options struct {
	Sent providers.ParseOptions
	Recv providers.ParseOptions
}

// DefaultOptions parses both sides as UTF-8 unless a Content-Type charset says
// otherwise.
func DefaultOptions() Options {
	return Options{
		Sent: providers.DefaultParseOptions(),
		Recv: providers.DefaultParseOptions(),
	}
}

// OptionsFromEnv builds Options from REDACT_DEFAULT_ENCODING and
// REDACT_ENFORCE_CONTENT_TYPE.
func OptionsFromEnv() (Options, error) {
	enc, err := encodedstr.ParseEncoding(shared.GetEnvOrDefault("REDACT_DEFAULT_ENCODING", string(encodedstr.UTF8)))
	if err != nil {
		return Options{}, err
	}
	po := providers.ParseOptions{
		EnforceContentType: shared.GetEnvBoolOrDefault("REDACT_ENFORCE_CONTENT_TYPE", false),
		DefaultEncoding:    enc,
	}
	return Options{Sent: po, Recv: po}, nil
}

// Result carries the ranges to redact and the complementary ranges to reveal.
type Result struct {
	Commit shared.Commit `json:"commit"`
	Reveal shared.Reveal `json:"reveal"`
}

// Redact parses the transcript, resolves every item of cfg and returns the
// reveal ranges of each side alongside the redact ranges they were built from.
// Any failure aborts the whole call; no partial result is returned.
func Redact(t shared.Transcript, cfg Config, opts Options) (*Result, error) {
	encoded, err := ParseTranscript(t, opts)
	if err != nil {
		logger.Error("Failed to parse transcript", zap.String("component", "Redactor"), zap.String("operation", "Redact"), zap.Error(err))
		return nil, err
	}

	commit, err := CalcRedactionRanges(cfg, encoded)
	if err != nil {
		return nil, err
	}

	sent, err := CalcRevealRanges(encoded.Sent.Message.Range, commit.Sent)
	if err != nil {
		return nil, fmt.Errorf("sent: %w", err)
	}
	recv, err := CalcRevealRanges(encoded.Recv.Message.Range, commit.Recv)
	if err != nil {
		return nil, fmt.Errorf("recv: %w", err)
	}

	logger.Info("Redaction computed",
		zap.String("component", "Redactor"),
		zap.String("operation", "Redact"),
		zap.Int("items", len(cfg)),
		zap.Int("sent_len", encoded.Sent.Message.Range.Len()),
		zap.Int("recv_len", encoded.Recv.Message.Range.Len()),
		zap.Int("sent_redacted", len(commit.Sent)),
		zap.Int("recv_redacted", len(commit.Recv)))

	return &Result{
		Commit: commit,
		Reveal: shared.Reveal{Sent: sent, Recv: recv},
	}, nil
}
