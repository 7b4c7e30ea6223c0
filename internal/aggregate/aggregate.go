// Package aggregate turns surviving inverted-index buckets into per-pair
// match events, the input to fragment reconstruction (C6).
package aggregate

import (
	"context"
	"sort"

	"github.com/mossy-run/mossy/internal/index"
	"golang.org/x/sync/errgroup"
)

// MatchEvent records one fingerprint hash shared between two files at a
// specific pair of positions. LeftFile is always the smaller FileID, the
// canonical ordering fixed at report construction time.
type MatchEvent struct {
	LeftFile  index.FileID
	LeftPos   int
	RightFile index.FileID
	RightPos  int
	Hash      uint64
}

// PairKey identifies an unordered file pair by its canonically ordered ids.
type PairKey struct {
	Left  index.FileID
	Right index.FileID
}

// Warning mirrors the report-facing MatchTruncated warning.
type Warning struct {
	Pair  PairKey
	Limit int
}

// Options bounds the cost of pathological inputs.
type Options struct {
	// MatchCap is the maximum number of match events kept per pair;
	// beyond it, a Warning is recorded and the remainder dropped.
	MatchCap int

	// Parallelism is the number of buckets processed concurrently. A
	// value <= 1 runs sequentially.
	Parallelism int
}

// Aggregate enumerates unordered file pairs for every bucket with two or
// more distinct files and accumulates their match events, partitioning the
// bucket set across Options.Parallelism workers via errgroup and merging
// associatively (each worker owns disjoint buckets, so merge is a concat).
//
// Returns a map from pair to its events, each pair's events sorted by
// (LeftPos, RightPos), plus truncation warnings in no particular order.
// The map itself is unordered; SortedPairs gives the canonical pair order.
func Aggregate(ctx context.Context, buckets map[uint64][]index.Occurrence, opts Options) (map[PairKey][]MatchEvent, []Warning, error) {
	hashes := make([]uint64, 0, len(buckets))
	for h := range buckets {
		hashes = append(hashes, h)
	}

	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	shards := partitionHashes(hashes, parallelism)

	type shardResult struct {
		events map[PairKey][]MatchEvent
	}
	results := make([]shardResult, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			local := map[PairKey][]MatchEvent{}
			for _, h := range shard {
				if err := gctx.Err(); err != nil {
					return err
				}
				emitBucket(local, h, buckets[h])
			}
			results[i] = shardResult{events: local}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := map[PairKey][]MatchEvent{}
	for _, r := range results {
		for pair, events := range r.events {
			merged[pair] = append(merged[pair], events...)
		}
	}

	var warns []Warning
	matchCap := opts.MatchCap
	for pair, events := range merged {
		sort.Slice(events, func(i, j int) bool {
			if events[i].LeftPos != events[j].LeftPos {
				return events[i].LeftPos < events[j].LeftPos
			}
			return events[i].RightPos < events[j].RightPos
		})
		if matchCap > 0 && len(events) > matchCap {
			warns = append(warns, Warning{Pair: pair, Limit: matchCap})
			events = events[:matchCap]
		}
		merged[pair] = events
	}

	return merged, warns, nil
}

func emitBucket(dst map[PairKey][]MatchEvent, hash uint64, occs []index.Occurrence) {
	byFile := map[index.FileID][]int{}
	for _, o := range occs {
		byFile[o.File] = append(byFile[o.File], o.Pos)
	}

	files := make([]index.FileID, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			a, b := files[i], files[j]
			key := PairKey{Left: a, Right: b}
			for _, aPos := range byFile[a] {
				for _, bPos := range byFile[b] {
					dst[key] = append(dst[key], MatchEvent{
						LeftFile: a, LeftPos: aPos,
						RightFile: b, RightPos: bPos,
						Hash: hash,
					})
				}
			}
		}
	}
}

func partitionHashes(hashes []uint64, parts int) [][]uint64 {
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	shards := make([][]uint64, parts)
	for i, h := range hashes {
		shards[i%parts] = append(shards[i%parts], h)
	}
	return shards
}

// SortedPairs returns the pair keys of m in canonical (Left, Right) order,
// the order in which dense pair ids are assigned by the report facade.
func SortedPairs(m map[PairKey][]MatchEvent) []PairKey {
	keys := make([]PairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Left != keys[j].Left {
			return keys[i].Left < keys[j].Left
		}
		return keys[i].Right < keys[j].Right
	})
	return keys
}
