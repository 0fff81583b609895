package notary

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webproof-redaction/redaction"
	"webproof-redaction/shared"
)

// Attestation is the collaborator's signed commitment to a transcript.
type Attestation []byte

// Presentation is the verifiable proof that discloses only revealed ranges.
type Presentation []byte

// Notarizer is the external TLS notarization protocol. Capture performs the
// request and returns what was sent and received. Commit binds the transcript
// with the given ranges hidden. Present discloses the reveal ranges of a
// committed transcript.
type Notarizer interface {
	Capture(ctx context.Context, req Request) (shared.Transcript, error)
	Commit(ctx context.Context, commit shared.Commit) (Attestation, error)
	Present(ctx context.Context, att Attestation, reveal shared.Reveal) (Presentation, error)
}

// Proof is the outcome of one proving attempt.
type Proof struct {
	AttemptID    string            `json:"attempt_id"`
	Transcript   shared.Transcript `json:"-"`
	Commit       shared.Commit     `json:"commit"`
	Reveal       shared.Reveal     `json:"reveal"`
	Attestation  Attestation       `json:"attestation"`
	Presentation Presentation      `json:"presentation"`
}

// Prove runs one attempt: capture the exchange, compute redaction and reveal
// ranges for cfg, commit, then present. If the ranges cannot be computed the
// attempt stops before Commit, so no partial commitment is ever made.
func Prove(ctx context.Context, n Notarizer, req Request, cfg redaction.Config, opts redaction.Options) (*Proof, error) {
	attemptID := uuid.NewString()
	log := logger.With(zap.String("attempt_id", attemptID))

	// Reject malformed requests before anything goes on the wire.
	if _, err := BuildRequest(req); err != nil {
		log.Error("Invalid request", zap.String("component", "Prover"), zap.String("operation", "Prove"), zap.Error(err))
		return nil, err
	}

	transcript, err := n.Capture(ctx, req)
	if err != nil {
		log.Error("Capture failed", zap.String("component", "Prover"), zap.String("operation", "Capture"), zap.Error(err))
		return nil, fmt.Errorf("capture: %w", err)
	}
	log.Info("Transcript captured",
		zap.String("component", "Prover"),
		zap.String("operation", "Capture"),
		zap.Int("sent_len", len(transcript.Sent)),
		zap.Int("recv_len", len(transcript.Recv)))

	result, err := redaction.Redact(transcript, cfg, opts)
	if err != nil {
		log.Error("Redaction failed, not committing", zap.String("component", "Prover"), zap.String("operation", "Redact"), zap.Error(err))
		return nil, fmt.Errorf("redact: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	att, err := n.Commit(ctx, result.Commit)
	if err != nil {
		log.Error("Commit failed", zap.String("component", "Prover"), zap.String("operation", "Commit"), zap.Error(err))
		return nil, fmt.Errorf("commit: %w", err)
	}

	pres, err := n.Present(ctx, att, result.Reveal)
	if err != nil {
		log.Error("Presentation failed", zap.String("component", "Prover"), zap.String("operation", "Present"), zap.Error(err))
		return nil, fmt.Errorf("present: %w", err)
	}
	log.Info("Proof ready",
		zap.String("component", "Prover"),
		zap.String("operation", "Prove"),
		zap.Int("sent_reveals", len(result.Reveal.Sent)),
		zap.Int("recv_reveals", len(result.Reveal.Recv)))

	return &Proof{
		AttemptID:    attemptID,
		Transcript:   transcript,
		Commit:       result.Commit,
		Reveal:       result.Reveal,
		Attestation:  att,
		Presentation: pres,
	}, nil
}
