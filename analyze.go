package mossy

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mossy-run/mossy/internal/aggregate"
	"github.com/mossy-run/mossy/internal/fragment"
	"github.com/mossy-run/mossy/internal/index"
	"github.com/mossy-run/mossy/internal/lang"
	"github.com/mossy-run/mossy/internal/score"
	"github.com/mossy-run/mossy/internal/winnow"
)

// Options configures one Analyze call. Zero-valued fields are filled in
// by SetDefaults.
type Options struct {
	// KgramLength is the winnowing k-gram size (spec §4.3). Default 25.
	KgramLength int

	// WindowSize is the winnowing window size w (spec §4.3). Default 40.
	WindowSize int

	// Threshold is the similarity at or above which a pair counts as
	// suspicious in the summary (spec §4.7). Default 0.5.
	Threshold float64

	// FrequencyCapAbsolute and FrequencyCapRelative bound the inverted
	// index's frequency filter (spec §4.4). Defaults 10 and 0.5.
	FrequencyCapAbsolute int
	FrequencyCapRelative float64

	// MatchCap bounds per-pair match events before fragment
	// reconstruction (spec §4.5). Default 100000.
	MatchCap int

	// Parallelism bounds the worker pool used for per-file tokenization
	// and fingerprinting, and for bucket aggregation. Default 4,
	// mirroring the teacher's indexing parallelism default.
	Parallelism int

	// TemplateFile, if set, is boilerplate the instructor provided;
	// its fingerprints are suppressed from every bucket before the
	// frequency cap runs (spec §4.4).
	TemplateFile *FileInput

	// DebugLogPath, if set, enables a rotating trace log of analyze's
	// coarse progress checkpoints via lumberjack. Off by default.
	DebugLogPath string
}

// SetDefaults fills unset fields with the spec's defaults. Mirrors the
// teacher's build.Options.SetDefaults convention of only touching
// zero-valued fields.
func (o *Options) SetDefaults() {
	if o.KgramLength == 0 {
		o.KgramLength = 25
	}
	if o.WindowSize == 0 {
		o.WindowSize = 40
	}
	if o.Threshold == 0 {
		o.Threshold = 0.5
	}
	if o.FrequencyCapAbsolute == 0 {
		o.FrequencyCapAbsolute = 10
	}
	if o.FrequencyCapRelative == 0 {
		o.FrequencyCapRelative = 0.5
	}
	if o.MatchCap == 0 {
		o.MatchCap = 100000
	}
	if o.Parallelism == 0 {
		o.Parallelism = 4
	}
}

// validate checks the InvalidConfig conditions named in spec §7. It must
// be called after SetDefaults.
func (o *Options) validate() error {
	if o.KgramLength < 1 {
		return &InvalidConfigError{Reason: "kgramLength must be >= 1"}
	}
	if o.WindowSize < 1 {
		return &InvalidConfigError{Reason: "windowSize must be >= 1"}
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return &InvalidConfigError{Reason: "threshold must be in [0,1]"}
	}
	return nil
}

func newDebugLogger(path string) *log.Logger {
	if path == "" {
		return nil
	}
	w := &lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 3}
	return log.New(w, "mossy: ", log.LstdFlags)
}

// Analyze runs the full pipeline over files: tokenize, fingerprint, index,
// aggregate, and assemble a Report. The returned Report is immutable.
// Each pair's fragment token ranges are reconstructed here to score it;
// their source projections are computed lazily per pair on the first
// Report.Fragments call.
//
// ctx is the cooperative cancellation token (spec §5): workers check it
// after each file is tokenized, after each file is fingerprinted, and
// after each bucket is aggregated. A cancelled ctx fails the call with a
// CancelledError and discards all partial state.
func Analyze(ctx context.Context, files []FileInput, languageTag string, opts Options) (*Report, error) {
	runID := xid.New().String()
	correlationID := uuid.New().String()
	opts.SetDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(files) < 2 {
		return nil, &InsufficientInputError{FileCount: len(files)}
	}

	language, ok := lang.Parse(languageTag)
	if !ok {
		return nil, &UnsupportedLanguageError{Tag: languageTag}
	}

	dlog := newDebugLogger(opts.DebugLogPath)
	if dlog != nil {
		dlog.Printf("run=%s corr=%s analyze start: %d files, language=%s", runID, correlationID, len(files), language)
	}

	analyzed := make([]*File, len(files))
	for i, in := range files {
		analyzed[i] = newFile(i, in)
	}
	byID := make(map[int]*File, len(analyzed))
	for _, f := range analyzed {
		byID[f.ID] = f
	}

	tokens, tokenizeWarnings, err := tokenizeAll(ctx, analyzed, language, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	fingerprints, err := fingerprintAll(ctx, analyzed, tokens, opts)
	if err != nil {
		return nil, err
	}

	var templateHashes map[uint64]struct{}
	if opts.TemplateFile != nil {
		templateToks, _ := lang.Tokenize(language, opts.TemplateFile.Content)
		templateHashes = hashSet(winnow.Fingerprints(kindsOf(templateToks), opts.KgramLength, opts.WindowSize))
	}

	idx, freqWarnings := index.Build(fingerprints, len(analyzed), index.Filters{
		TemplateHashes:       templateHashes,
		FrequencyCapAbsolute: opts.FrequencyCapAbsolute,
		FrequencyCapRelative: opts.FrequencyCapRelative,
	})

	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{}
	}

	pairEvents, matchWarnings, err := aggregate.Aggregate(ctx, idx.Buckets(), aggregate.Options{
		MatchCap:    opts.MatchCap,
		Parallelism: opts.Parallelism,
	})
	if err != nil {
		return nil, &CancelledError{}
	}

	pairs := buildPairs(pairEvents, analyzed, byID)
	scorePairs(pairs, tokens, opts.KgramLength)

	scores := make([]score.PairScore, len(pairs))
	for i, p := range pairs {
		scores[i] = score.PairScore{Overlap: p.Overlap, Longest: p.Longest, Similarity: p.Similarity}
	}
	rollup := score.Rollup(len(analyzed), scores, opts.Threshold)

	tokensByID := make(map[int][]lang.Token, len(tokens))
	for id, toks := range tokens {
		tokensByID[id] = toks
	}

	views := make([]FileView, len(analyzed))
	for i, f := range analyzed {
		views[i] = f.view()
	}

	warnings := renderWarnings(analyzed, tokenizeWarnings, freqWarnings, matchWarnings)

	report := &Report{
		ID:       runID,
		Files:    views,
		Pairs:    pairs,
		Warnings: warnings,
		Summary: Summary{
			TotalFiles:        rollup.TotalFiles,
			TotalPairs:        rollup.TotalPairs,
			SuspiciousPairs:   rollup.SuspiciousPairs,
			AverageSimilarity: rollup.AverageSimilarity,
			MaxSimilarity:     rollup.MaxSimilarity,
		},
		kgramLength: opts.KgramLength,
		files:       analyzed,
		tokens:      tokensByID,
	}

	if dlog != nil {
		dlog.Printf("run=%s corr=%s analyze done: %d pairs, %d warnings", runID, correlationID, len(pairs), len(warnings))
	}

	return report, nil
}

func scorePairs(pairs []Pair, tokens map[int][]lang.Token, kgramLength int) {
	for i := range pairs {
		p := &pairs[i]
		frags := fragment.Reconstruct(p.matches, kgramLength)
		s := score.Pair(frags, len(tokens[p.leftFileID]), len(tokens[p.rightFileID]))
		p.Overlap = s.Overlap
		p.Longest = s.Longest
		p.Similarity = s.Similarity
	}
}

type tokenizeFileWarning struct {
	fileIdx int
	warn    lang.Warning
}

func tokenizeAll(ctx context.Context, files []*File, language lang.Language, parallelism int) (map[int][]lang.Token, []tokenizeFileWarning, error) {
	tokens := make(map[int][]lang.Token, len(files))
	var allWarnings []tokenizeFileWarning

	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]lang.Token, len(files))
	warns := make([][]lang.Warning, len(files))

	for i, f := range files {
		i, f := i, f
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			toks, w := lang.Tokenize(language, f.Content)
			results[i] = toks
			warns[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, &CancelledError{}
	}

	for i, f := range files {
		tokens[f.ID] = results[i]
		for _, w := range warns[i] {
			allWarnings = append(allWarnings, tokenizeFileWarning{fileIdx: i, warn: w})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, &CancelledError{}
	}

	return tokens, allWarnings, nil
}

func fingerprintAll(ctx context.Context, files []*File, tokens map[int][]lang.Token, opts Options) (map[index.FileID][]winnow.Fingerprint, error) {
	out := make(map[index.FileID][]winnow.Fingerprint, len(files))

	sem := semaphore.NewWeighted(int64(opts.Parallelism))
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]winnow.Fingerprint, len(files))
	for i, f := range files {
		i, f := i, f
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			kinds := kindsOf(tokens[f.ID])
			results[i] = winnow.Fingerprints(kinds, opts.KgramLength, opts.WindowSize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &CancelledError{}
	}

	for i, f := range files {
		out[index.FileID(f.ID)] = results[i]
	}

	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{}
	}

	return out, nil
}

func kindsOf(toks []lang.Token) []lang.Kind {
	kinds := make([]lang.Kind, len(toks))
	for i, t := range toks {
		kinds[i] = t.Kind
	}
	return kinds
}

func hashSet(fps []winnow.Fingerprint) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(fps))
	for _, fp := range fps {
		out[fp.Hash] = struct{}{}
	}
	return out
}

func renderWarnings(files []*File, tokenizeWarns []tokenizeFileWarning, freqWarns []index.Warning, matchWarns []aggregate.Warning) []string {
	var out []string
	for _, tw := range tokenizeWarns {
		w := TokenizerWarning{Path: files[tw.fileIdx].Path, Row: tw.warn.Row, Col: tw.warn.Col, Reason: tw.warn.Reason}
		out = append(out, w.String())
	}
	if len(freqWarns) > 0 {
		out = append(out, fmt.Sprintf("%s fingerprints suppressed as too common", humanize.Comma(int64(len(freqWarns)))))
	}
	for _, mw := range matchWarns {
		out = append(out, fmt.Sprintf("pair (%d,%d): match events truncated at %s",
			mw.Pair.Left, mw.Pair.Right, humanize.Comma(int64(mw.Limit))))
	}
	sort.Strings(out)
	return out
}
