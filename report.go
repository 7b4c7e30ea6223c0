package mossy

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/mossy-run/mossy/internal/aggregate"
	"github.com/mossy-run/mossy/internal/fragment"
	"github.com/mossy-run/mossy/internal/lang"
	"github.com/mossy-run/mossy/internal/score"
)

// Fragment is the projection of one maximal contiguous token-range match
// into source coordinates (spec §3, §4.6). IDs are dense and stable
// within a pair, assigned in sweep order.
type Fragment struct {
	ID            int       `json:"id"`
	LeftSelection Selection `json:"leftSelection"`
	RightSelection Selection `json:"rightSelection"`
	Length        int       `json:"length"`
}

// Pair is one unordered file pair with at least one surviving match
// event, plus its C7 scores. Matches are retained internally only long
// enough to compute fragments lazily; Report.Fragments memoizes the
// result and then the matches are no longer needed.
type Pair struct {
	ID         int      `json:"id"`
	LeftFile   FileView `json:"leftFile"`
	RightFile  FileView `json:"rightFile"`
	Similarity float64  `json:"similarity"`
	Overlap    int      `json:"overlap"`
	Longest    int      `json:"longest"`

	leftFileID  int
	rightFileID int
	matches     []aggregate.MatchEvent

	fragMu    sync.Mutex
	fragments []Fragment
	fragDone  bool
}

// Summary is the report-wide rollup (spec §4.7).
type Summary struct {
	TotalFiles        int     `json:"totalFiles"`
	TotalPairs        int     `json:"totalPairs"`
	SuspiciousPairs   int     `json:"suspiciousPairs"`
	AverageSimilarity float64 `json:"averageSimilarity"`
	MaxSimilarity     float64 `json:"maxSimilarity"`
}

// String renders a one-line human-readable summary for CLI and log
// output. It is not part of Summary's JSON shape.
func (s Summary) String() string {
	return fmt.Sprintf("%s files, %s pairs, %s suspicious, avg similarity %.3f, max %.3f",
		humanize.Comma(int64(s.TotalFiles)), humanize.Comma(int64(s.TotalPairs)),
		humanize.Comma(int64(s.SuspiciousPairs)), s.AverageSimilarity, s.MaxSimilarity)
}

// Report is the immutable result of one Analyze call. Files, pairs and
// warnings are fixed at construction; fragments are computed on first
// access per pair and memoized (spec §4.8, §5 "Concurrency of facade").
type Report struct {
	ID       string
	Files    []FileView
	Pairs    []Pair
	Warnings []string
	Summary  Summary

	kgramLength int
	files       []*File
	tokens      map[int][]lang.Token
}

// Fragments returns the fragments for the pair with the given ID,
// computing and memoizing them on first access. Concurrent callers
// racing on the same pair compute at most once each under its own lock;
// a caller never blocks on an unrelated pair's computation.
func (r *Report) Fragments(pairID int) ([]Fragment, error) {
	if pairID < 0 || pairID >= len(r.Pairs) {
		return nil, InternalInvariantViolation("fragment lookup: pair id out of range")
	}
	p := &r.Pairs[pairID]

	p.fragMu.Lock()
	defer p.fragMu.Unlock()
	if p.fragDone {
		return p.fragments, nil
	}

	frags := fragment.Reconstruct(p.matches, r.kgramLength)
	leftToks := r.tokens[p.leftFileID]
	rightToks := r.tokens[p.rightFileID]

	out := make([]Fragment, len(frags))
	for i, f := range frags {
		if f.Length() < r.kgramLength {
			return nil, InternalInvariantViolation("fragment shorter than kgram length")
		}
		leftSpan := fragment.ProjectSpan(leftToks, f.Left)
		rightSpan := fragment.ProjectSpan(rightToks, f.Right)
		out[i] = Fragment{
			ID:             i,
			LeftSelection:  selectionFromSpan(leftSpan),
			RightSelection: selectionFromSpan(rightSpan),
			Length:         f.Length(),
		}
	}

	p.fragments = out
	p.fragDone = true
	p.matches = nil
	return out, nil
}

// PairDetail is the full response to a pair-detail request (spec §6):
// the pair's fragments plus the two files' raw source, for a collaborator
// rendering a side-by-side diff.
type PairDetail struct {
	Fragments []Fragment
	LeftCode  string
	RightCode string
}

// PairDetail returns PairDetail for the pair with the given ID, computing
// and memoizing its fragments as Fragments does.
func (r *Report) PairDetail(pairID int) (PairDetail, error) {
	frags, err := r.Fragments(pairID)
	if err != nil {
		return PairDetail{}, err
	}
	p := &r.Pairs[pairID]
	return PairDetail{
		Fragments: frags,
		LeftCode:  r.files[p.leftFileID].Content,
		RightCode: r.files[p.rightFileID].Content,
	}, nil
}

func buildPairs(pairEvents map[aggregate.PairKey][]aggregate.MatchEvent, files []*File, byID map[int]*File) []Pair {
	keys := aggregate.SortedPairs(pairEvents)
	pairs := make([]Pair, len(keys))

	for i, key := range keys {
		events := pairEvents[key]
		left := byID[int(key.Left)]
		right := byID[int(key.Right)]
		pairs[i] = Pair{
			ID:          i,
			LeftFile:    left.view(),
			RightFile:   right.view(),
			leftFileID:  left.ID,
			rightFileID: right.ID,
			matches:     events,
		}
	}
	return pairs
}
