package redaction

import (
	"fmt"

	"go.uber.org/zap"

	"webproof-redaction/providers"
	"webproof-redaction/shared"
)

// EncodedTranscript is a transcript with both sides parsed.
type EncodedTranscript struct {
	Sent *providers.ParsedMessage
	Recv *providers.ParsedMessage
}

// Message returns the parsed message for side.
func (t *EncodedTranscript) Message(side shared.Side) *providers.ParsedMessage {
	if side == shared.SideRequest {
		return t.Sent
	}
	return t.Recv
}

// ParseTranscript parses both sides of a transcript.
func ParseTranscript(t shared.Transcript, opts Options) (*EncodedTranscript, error) {
	sent, err := providers.ParseHTTPMessage(t.Sent, opts.Sent)
	if err != nil {
		return nil, fmt.Errorf("parse sent: %w", err)
	}
	recv, err := providers.ParseHTTPMessage(t.Recv, opts.Recv)
	if err != nil {
		return nil, fmt.Errorf("parse recv: %w", err)
	}
	return &EncodedTranscript{Sent: sent, Recv: recv}, nil
}

// locator resolves items against one parsed message.
type locator struct {
	msg    *providers.ParsedMessage
	ranges []shared.ByteRange
}

func (l *locator) VisitHeaders(i Headers) (err error) {
	l.ranges, err = providers.LocateHeaders(l.msg, i.Names)
	return err
}

func (l *locator) VisitHeadersExcept(i HeadersExcept) (err error) {
	l.ranges, err = providers.LocateHeadersExcept(l.msg, i.Names)
	return err
}

func (l *locator) VisitURLQuery(i URLQuery) (err error) {
	l.ranges, err = providers.LocateRequestURLParams(l.msg, i.Names)
	return err
}

func (l *locator) VisitURLQueryExcept(i URLQueryExcept) (err error) {
	l.ranges, err = providers.LocateRequestURLParamsExcept(l.msg, i.Names)
	return err
}

func (l *locator) VisitJSONBody(i JSONBody) (err error) {
	l.ranges, err = providers.LocateJSONPaths(l.msg.Body, i.Paths)
	return err
}

func (l *locator) VisitJSONBodyExcept(i JSONBodyExcept) (err error) {
	l.ranges, err = providers.LocateJSONPathsExcept(l.msg.Body, i.Paths)
	return err
}

func (l *locator) VisitJSONPathQuery(i JSONPathQuery) (err error) {
	l.ranges, err = providers.LocateJSONPathQueries(l.msg.Body, i.Queries)
	return err
}

// Dispatch returns the ranges item selects in the side of t it applies to.
func Dispatch(item Item, t *EncodedTranscript) ([]shared.ByteRange, error) {
	l := &locator{msg: t.Message(item.Side())}
	if err := item.Accept(l); err != nil {
		return nil, err
	}
	logger.Debug("Item dispatched",
		zap.String("component", "Dispatcher"),
		zap.String("operation", "Dispatch"),
		zap.Stringer("item", item),
		zap.Int("ranges", len(l.ranges)))
	return l.ranges, nil
}

// CalcRedactionRanges dispatches every item of cfg and groups the resulting
// ranges by side. The first failing item aborts the whole computation.
func CalcRedactionRanges(cfg Config, t *EncodedTranscript) (shared.Commit, error) {
	commit := shared.Commit{Sent: []shared.ByteRange{}, Recv: []shared.ByteRange{}}
	for idx, item := range cfg {
		ranges, err := Dispatch(item, t)
		if err != nil {
			logger.Error("Redaction item failed",
				zap.String("component", "Dispatcher"),
				zap.String("operation", "CalcRedactionRanges"),
				zap.Int("item", idx),
				zap.Stringer("side", item.Side()),
				zap.Error(err))
			return shared.Commit{}, fmt.Errorf("%s item %d (%s): %w", item.Side().TranscriptKey(), idx, item, err)
		}
		commit.Add(item.Side(), ranges...)
	}
	return commit, nil
}
