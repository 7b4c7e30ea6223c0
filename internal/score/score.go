// Package score computes per-pair overlap, longest-fragment and similarity
// metrics, and the report-level summary rolled up from them.
package score

import "github.com/mossy-run/mossy/internal/fragment"

// PairScore holds the C7 metrics for a single file pair.
type PairScore struct {
	Overlap    int
	Longest    int
	Similarity float64
}

// Pair computes overlap, longest and similarity for one pair's fragments.
// tokensA and tokensB are the token counts of the two files; the sweep in
// internal/fragment guarantees fragments are non-overlapping in A's
// coordinate, so overlap is a direct sum of fragment lengths.
func Pair(frags []fragment.Fragment, tokensA, tokensB int) PairScore {
	var overlap, longest int
	for _, f := range frags {
		n := f.Length()
		overlap += n
		if n > longest {
			longest = n
		}
	}

	min := tokensA
	if tokensB < min {
		min = tokensB
	}

	var similarity float64
	if min > 0 {
		similarity = float64(overlap) / float64(min)
		if similarity > 1 {
			similarity = 1
		}
		if similarity < 0 {
			similarity = 0
		}
	}

	return PairScore{Overlap: overlap, Longest: longest, Similarity: similarity}
}

// Summary is the report-wide rollup (spec §4.7).
type Summary struct {
	TotalFiles        int
	TotalPairs        int
	SuspiciousPairs   int
	AverageSimilarity float64
	MaxSimilarity     float64
}

// Rollup computes the report summary given every matched pair's score and
// the caller-supplied suspicious-pair threshold.
func Rollup(totalFiles int, pairs []PairScore, threshold float64) Summary {
	s := Summary{TotalFiles: totalFiles, TotalPairs: len(pairs)}
	if len(pairs) == 0 {
		return s
	}

	var sum float64
	for _, p := range pairs {
		sum += p.Similarity
		if p.Similarity >= threshold {
			s.SuspiciousPairs++
		}
		if p.Similarity > s.MaxSimilarity {
			s.MaxSimilarity = p.Similarity
		}
	}
	s.AverageSimilarity = sum / float64(len(pairs))

	return s
}
