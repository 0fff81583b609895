package shared

import (
	"fmt"
	"sort"
)

// ByteRange is a half-open [Start, End) span of encoded bytes, measured from
// the start of a transcript message.
type ByteRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() int {
	return r.End - r.Start
}

// Contains reports whether other lies entirely inside r.
func (r ByteRange) Contains(other ByteRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Shift moves the range by offset bytes.
func (r ByteRange) Shift(offset int) ByteRange {
	return ByteRange{Start: r.Start + offset, End: r.End + offset}
}

// SortRanges orders ranges by Start, then End. The input slice is not modified.
func SortRanges(ranges []ByteRange) []ByteRange {
	sorted := make([]ByteRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// Transcript holds the raw request and response text captured for one HTTP
// exchange by the notarization collaborator.
type Transcript struct {
	Sent string `json:"sent"`
	Recv string `json:"recv"`
}

// Side selects one half of a transcript.
type Side int

const (
	SideRequest Side = iota
	SideResponse
)

func (s Side) String() string {
	switch s {
	case SideRequest:
		return "request"
	case SideResponse:
		return "response"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// TranscriptKey returns the transcript field name ("sent" or "recv") for the side.
func (s Side) TranscriptKey() string {
	if s == SideRequest {
		return "sent"
	}
	return "recv"
}

// Commit lists the ranges to redact per transcript side. Ranges are in
// policy order and have not been validated.
type Commit struct {
	Sent []ByteRange `json:"sent"`
	Recv []ByteRange `json:"recv"`
}

// Add appends ranges to the side's list.
func (c *Commit) Add(side Side, ranges ...ByteRange) {
	if side == SideRequest {
		c.Sent = append(c.Sent, ranges...)
		return
	}
	c.Recv = append(c.Recv, ranges...)
}

// Reveal lists the ranges to disclose per transcript side: sorted, disjoint and
// within the message bounds.
type Reveal struct {
	Sent []ByteRange `json:"sent"`
	Recv []ByteRange `json:"recv"`
}
