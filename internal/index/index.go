// Package index builds the global inverted fingerprint index and applies
// template suppression and frequency-cap filtering to it.
package index

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mossy-run/mossy/internal/winnow"
)

// FileID is a dense, zero-based identifier assigned by the caller.
type FileID uint32

// Occurrence is a single position a fingerprint's hash was found at,
// within one file's token stream.
type Occurrence struct {
	File FileID
	Pos  int
}

// Warning mirrors the report-facing FINGERPRINT_TOO_COMMON warning; the
// root package renders it using the values here.
type Warning struct {
	Hash  uint64
	Count int
}

// Index is the inverted map from fingerprint hash to the occurrences that
// produced it, after template suppression and frequency-cap filtering.
type Index struct {
	buckets map[uint64][]Occurrence
}

// Filters bundles the two suppression passes applied after index build.
type Filters struct {
	// TemplateHashes, if non-nil, is the fingerprint hash set of an
	// instructor-supplied template; any bucket whose hash appears here
	// is erased before the frequency cap runs.
	TemplateHashes map[uint64]struct{}

	// FrequencyCapAbsolute and FrequencyCapRelative bound how many
	// distinct files may share a bucket before it is considered
	// structural to the assignment rather than evidence of copying.
	// A bucket survives iff D(h) <= max(FrequencyCapAbsolute,
	// ceil(FrequencyCapRelative * totalFiles)).
	FrequencyCapAbsolute int
	FrequencyCapRelative float64
}

// Build constructs the inverted index from each file's fingerprint set,
// then applies template suppression and the frequency cap in that order,
// returning the surviving index and any FINGERPRINT_TOO_COMMON warnings.
func Build(fingerprints map[FileID][]winnow.Fingerprint, totalFiles int, f Filters) (*Index, []Warning) {
	raw := map[uint64][]Occurrence{}
	for file, fps := range fingerprints {
		for _, fp := range fps {
			raw[fp.Hash] = append(raw[fp.Hash], Occurrence{File: file, Pos: fp.Pos})
		}
	}

	for hash := range raw {
		if _, suppressed := f.TemplateHashes[hash]; suppressed {
			delete(raw, hash)
		}
	}

	threshold := frequencyCap(f, totalFiles)
	var warns []Warning
	for hash, occs := range raw {
		d := distinctFileCount(occs)
		if d > threshold {
			warns = append(warns, Warning{Hash: hash, Count: d})
			delete(raw, hash)
		}
	}

	return &Index{buckets: raw}, warns
}

func frequencyCap(f Filters, totalFiles int) int {
	abs := f.FrequencyCapAbsolute
	rel := int(math.Ceil(f.FrequencyCapRelative * float64(totalFiles)))
	if rel > abs {
		return rel
	}
	return abs
}

func distinctFileCount(occs []Occurrence) int {
	bm := roaring.New()
	for _, o := range occs {
		bm.Add(uint32(o.File))
	}
	return int(bm.GetCardinality())
}

// Buckets returns the surviving hash buckets with two or more distinct
// files, the only buckets relevant to pair aggregation (C5).
func (idx *Index) Buckets() map[uint64][]Occurrence {
	out := map[uint64][]Occurrence{}
	for hash, occs := range idx.buckets {
		if distinctFileCount(occs) >= 2 {
			out[hash] = occs
		}
	}
	return out
}

// Len reports the number of surviving buckets of any distinct-file count,
// mainly for diagnostics and tests.
func (idx *Index) Len() int {
	return len(idx.buckets)
}
