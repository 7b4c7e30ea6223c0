// Package fragment merges sorted match events into maximal contiguous
// token-range fragments and projects them onto source (row, col) spans.
package fragment

import (
	"sort"

	"github.com/mossy-run/mossy/internal/aggregate"
	"github.com/mossy-run/mossy/internal/lang"
)

// Range is a half-open token index range [Start, End).
type Range struct {
	Start, End int
}

// Fragment is one maximal run of offset-consistent matches between a pair
// of files, in both files' token coordinates.
type Fragment struct {
	Left  Range
	Right Range
}

// Length is the number of tokens the fragment spans (equal in both files
// by construction).
func (f Fragment) Length() int {
	return f.Left.End - f.Left.Start
}

// Reconstruct runs the greedy offset-consistent sweep over events (already
// sorted by (LeftPos, RightPos) as produced by internal/aggregate) and
// returns the resulting fragments in left-to-right order. k is the k-gram
// length each match event covers.
func Reconstruct(events []aggregate.MatchEvent, k int) []Fragment {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]aggregate.MatchEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LeftPos != sorted[j].LeftPos {
			return sorted[i].LeftPos < sorted[j].LeftPos
		}
		return sorted[i].RightPos < sorted[j].RightPos
	})

	var out []Fragment
	first := sorted[0]
	cur := Fragment{
		Left:  Range{Start: first.LeftPos, End: first.LeftPos + k},
		Right: Range{Start: first.RightPos, End: first.RightPos + k},
	}
	offset := func(e aggregate.MatchEvent) int { return e.RightPos - e.LeftPos }
	curOffset := offset(first)

	for _, e := range sorted[1:] {
		if offset(e) == curOffset && e.LeftPos <= cur.Left.End {
			if e.LeftPos+k > cur.Left.End {
				cur.Left.End = e.LeftPos + k
			}
			if e.RightPos+k > cur.Right.End {
				cur.Right.End = e.RightPos + k
			}
			continue
		}
		out = append(out, cur)
		cur = Fragment{
			Left:  Range{Start: e.LeftPos, End: e.LeftPos + k},
			Right: Range{Start: e.RightPos, End: e.RightPos + k},
		}
		curOffset = offset(e)
	}
	out = append(out, cur)

	return out
}

// ProjectSpan maps a fragment's token range in one file onto a source
// Span, using that file's token stream. r.End must be <= len(tokens) and
// r.Start < r.End.
func ProjectSpan(tokens []lang.Token, r Range) lang.Span {
	start := tokens[r.Start].Span
	end := tokens[r.End-1].Span
	return lang.Span{
		StartRow: start.StartRow,
		StartCol: start.StartCol,
		EndRow:   end.EndRow,
		EndCol:   end.EndCol,
	}
}
