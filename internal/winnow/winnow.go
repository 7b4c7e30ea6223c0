// Package winnow reduces a token stream to a sparse set of (hash, position)
// fingerprints using the Schleimer-Wilkerson-Aiken winnowing algorithm.
package winnow

import "github.com/mossy-run/mossy/internal/lang"

// hashBase is the fixed odd multiplier for the rolling polynomial hash over
// token-kind integers. It must never change across releases: stored reports
// and their fingerprints are only comparable when produced with the same
// base.
const hashBase uint64 = 0x9E3779B185EBCA87

// Fingerprint is a single (hash, position) pair selected by winnowing.
// Position is the start index of the k-gram within the file's token stream.
type Fingerprint struct {
	Hash uint64
	Pos  int
}

// Fingerprints computes the rolling k-gram hashes of kinds and winnows them
// with a window of size w, returning fingerprints in increasing Pos order.
//
// If len(kinds) < k, no k-gram exists and the result is empty without error:
// short files simply contribute nothing to the index (spec invariant, not a
// warning condition).
func Fingerprints(kinds []lang.Kind, k, w int) []Fingerprint {
	n := len(kinds)
	if n < k {
		return nil
	}

	hashes := rollingHashes(kinds, k)
	return winnow(hashes, w)
}

// rollingHashes computes h_i for every k-gram i in [0, len(kinds)-k], using
// O(1) rolling update after an O(k) initial hash.
func rollingHashes(kinds []lang.Kind, k int) []uint64 {
	n := len(kinds)
	count := n - k + 1
	hashes := make([]uint64, count)

	// highOrder is base^(k-1), needed to peel off the outgoing term.
	highOrder := uint64(1)
	for i := 0; i < k-1; i++ {
		highOrder *= hashBase
	}

	var h uint64
	for i := 0; i < k; i++ {
		h = h*hashBase + uint64(kinds[i])
	}
	hashes[0] = h

	for i := 1; i < count; i++ {
		outgoing := uint64(kinds[i-1])
		incoming := uint64(kinds[i+k-1])
		h = (h-outgoing*highOrder)*hashBase + incoming
		hashes[i] = h
	}

	return hashes
}

// winnow slides a window of w consecutive hashes across hashes, selecting
// the rightmost minimum of each window and suppressing re-selection of a
// position already chosen by the previous window.
func winnow(hashes []uint64, w int) []Fingerprint {
	if len(hashes) == 0 {
		return nil
	}
	if w < 1 {
		w = 1
	}

	var out []Fingerprint
	lastSelected := -1

	count := len(hashes)
	for start := 0; start < count; start++ {
		end := start + w
		if end > count {
			end = count
		}

		minPos := start
		for i := start + 1; i < end; i++ {
			if hashes[i] <= hashes[minPos] {
				minPos = i
			}
		}

		if minPos != lastSelected {
			out = append(out, Fingerprint{Hash: hashes[minPos], Pos: minPos})
			lastSelected = minPos
		}

		if end == count {
			break
		}
	}

	return out
}
