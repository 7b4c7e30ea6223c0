package score

import (
	"testing"

	"github.com/mossy-run/mossy/internal/fragment"
	"github.com/stretchr/testify/require"
)

func TestPair_OverlapIsSumOfFragmentLengths(t *testing.T) {
	frags := []fragment.Fragment{
		{Left: fragment.Range{Start: 0, End: 10}},
		{Left: fragment.Range{Start: 20, End: 25}},
	}
	s := Pair(frags, 100, 100)
	require.Equal(t, 15, s.Overlap)
	require.Equal(t, 10, s.Longest)
}

func TestPair_SimilarityUsesSmallerFileTokenCount(t *testing.T) {
	frags := []fragment.Fragment{{Left: fragment.Range{Start: 0, End: 25}}}
	s := Pair(frags, 100, 50)
	require.InDelta(t, 0.5, s.Similarity, 1e-9)
}

func TestPair_ZeroMinTokensYieldsZeroSimilarity(t *testing.T) {
	s := Pair(nil, 0, 10)
	require.Equal(t, 0.0, s.Similarity)
}

func TestPair_NoFragmentsYieldsZeroScore(t *testing.T) {
	s := Pair(nil, 10, 10)
	require.Equal(t, PairScore{}, s)
}

func TestRollup_EmptyPairsYieldsZeroedSummary(t *testing.T) {
	s := Rollup(5, nil, 0.5)
	require.Equal(t, Summary{TotalFiles: 5}, s)
}

func TestRollup_ComputesAverageMaxAndSuspiciousCount(t *testing.T) {
	pairs := []PairScore{
		{Similarity: 0.9},
		{Similarity: 0.3},
		{Similarity: 0.5},
	}
	s := Rollup(3, pairs, 0.5)
	require.Equal(t, 3, s.TotalPairs)
	require.Equal(t, 2, s.SuspiciousPairs) // 0.9 and 0.5 meet threshold
	require.InDelta(t, (0.9+0.3+0.5)/3, s.AverageSimilarity, 1e-9)
	require.Equal(t, 0.9, s.MaxSimilarity)
}
