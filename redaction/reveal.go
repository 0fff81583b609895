package redaction

import (
	"go.uber.org/zap"

	"webproof-redaction/shared"
)

// CalcRevealRanges returns the parts of whole not covered by redact. Every
// redact range must lie inside whole, and no two may overlap or touch. The
// result is sorted and contains no empty ranges.
func CalcRevealRanges(whole shared.ByteRange, redact []shared.ByteRange) ([]shared.ByteRange, error) {
	for _, r := range redact {
		if r.Start > r.End {
			return nil, shared.NewEngineError(shared.KindInvalidRange, "range %s is inverted", r)
		}
		if r.Start < whole.Start || r.End > whole.End {
			return nil, shared.NewEngineError(shared.KindOutOfBounds, "range %s outside message %s", r, whole)
		}
	}

	sorted := shared.SortRanges(redact)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start <= sorted[i-1].End {
			logger.Error("Redaction ranges overlap",
				zap.String("component", "RevealAssembler"),
				zap.String("operation", "CalcRevealRanges"),
				zap.Stringer("previous", sorted[i-1]),
				zap.Stringer("range", sorted[i]))
			return nil, shared.NewEngineError(shared.KindInvalidRange, "range %s overlaps or touches %s", sorted[i], sorted[i-1])
		}
	}

	reveal := make([]shared.ByteRange, 0, len(sorted)+1)
	emit := func(start, end int) {
		if start < end {
			reveal = append(reveal, shared.ByteRange{Start: start, End: end})
		}
	}
	cursor := whole.Start
	for _, r := range sorted {
		emit(cursor, r.Start)
		cursor = r.End
	}
	emit(cursor, whole.End)
	return reveal, nil
}
