package mossy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyze_IdenticalFilesYieldFullSimilarity(t *testing.T) {
	src := "def add(x, y):\n    return x + y\n"
	files := []FileInput{
		{Path: "a.py", Content: src},
		{Path: "b.py", Content: src},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	require.Len(t, report.Pairs, 1)
	require.InDelta(t, 1.0, report.Pairs[0].Similarity, 1e-9)

	frags, err := report.Fragments(0)
	require.NoError(t, err)
	require.Len(t, frags, 1)
}

func TestAnalyze_RenamedIdentifiersStillMatch(t *testing.T) {
	files := []FileInput{
		{Path: "a.py", Content: "def add(x, y):\n    return x + y\n"},
		{Path: "b.py", Content: "def sum(a, b):\n    return a + b\n"},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	require.Len(t, report.Pairs, 1)
	require.InDelta(t, 1.0, report.Pairs[0].Similarity, 1e-9)
}

func TestAnalyze_UnrelatedFilesYieldNoPairs(t *testing.T) {
	files := []FileInput{
		{Path: "a.py", Content: "def add(x, y):\n    return x + y\n"},
		{Path: "b.py", Content: "class Widget:\n    def __init__(self):\n        self.count = 0\n"},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 25, WindowSize: 40})
	require.NoError(t, err)
	require.Empty(t, report.Pairs)
	require.Equal(t, 0, report.Summary.TotalPairs)
	require.Equal(t, 0.0, report.Summary.AverageSimilarity)
}

func TestAnalyze_TemplateFileSuppressesSharedBoilerplate(t *testing.T) {
	boilerplate := "def add(x, y):\n    return x + y\n"
	files := []FileInput{
		{Path: "a.py", Content: boilerplate + "def helper_a():\n    pass\n"},
		{Path: "b.py", Content: boilerplate + "def helper_b():\n    pass\n"},
	}
	opts := Options{KgramLength: 5, WindowSize: 6, TemplateFile: &FileInput{Path: "template.py", Content: boilerplate}}
	report, err := Analyze(context.Background(), files, "python", opts)
	require.NoError(t, err)
	if len(report.Pairs) == 1 {
		require.Less(t, report.Pairs[0].Similarity, 1.0)
	}
}

func TestAnalyze_TooFewFilesIsInsufficientInput(t *testing.T) {
	_, err := Analyze(context.Background(), []FileInput{{Path: "a.py", Content: "x = 1\n"}}, "python", Options{})
	require.Error(t, err)
	var target *InsufficientInputError
	require.ErrorAs(t, err, &target)
}

func TestAnalyze_UnknownLanguageIsUnsupported(t *testing.T) {
	files := []FileInput{{Path: "a.rs", Content: "fn main() {}"}, {Path: "b.rs", Content: "fn main() {}"}}
	_, err := Analyze(context.Background(), files, "rust", Options{})
	require.Error(t, err)
	var target *UnsupportedLanguageError
	require.ErrorAs(t, err, &target)
}

func TestAnalyze_InvalidKgramLengthIsInvalidConfig(t *testing.T) {
	files := []FileInput{{Path: "a.py", Content: "x = 1\n"}, {Path: "b.py", Content: "y = 2\n"}}
	_, err := Analyze(context.Background(), files, "python", Options{KgramLength: -1, WindowSize: -1})
	require.Error(t, err)
	var target *InvalidConfigError
	require.ErrorAs(t, err, &target)
}

func TestAnalyze_InvalidThresholdIsInvalidConfig(t *testing.T) {
	files := []FileInput{{Path: "a.py", Content: "x = 1\n"}, {Path: "b.py", Content: "y = 2\n"}}
	_, err := Analyze(context.Background(), files, "python", Options{Threshold: 2.0})
	require.Error(t, err)
}

func TestAnalyze_CancelledContextAbortsAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []FileInput{{Path: "a.py", Content: "x = 1\n"}, {Path: "b.py", Content: "y = 2\n"}}
	_, err := Analyze(ctx, files, "python", Options{})
	require.Error(t, err)
	var target *CancelledError
	require.ErrorAs(t, err, &target)
}

func TestAnalyze_ThreeFilesShareOneBlockProducesThreePairs(t *testing.T) {
	shared := "def helper():\n    total = 0\n    for i in range(10):\n        total += i\n    return total\n"
	files := []FileInput{
		{Path: "a.py", Content: shared + "x = 1\n"},
		{Path: "b.py", Content: shared + "y = 2\n"},
		{Path: "c.py", Content: shared + "z = 3\n"},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	require.Len(t, report.Pairs, 3)
	for _, p := range report.Pairs {
		require.Greater(t, p.Similarity, 0.0)
	}
}

func TestAnalyze_SymmetryUnderFileOrderSwap(t *testing.T) {
	a := "def add(x, y):\n    return x + y\n"
	b := "def sum(a, b):\n    return a + b\n"

	r1, err := Analyze(context.Background(), []FileInput{{Path: "a.py", Content: a}, {Path: "b.py", Content: b}}, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	r2, err := Analyze(context.Background(), []FileInput{{Path: "b.py", Content: b}, {Path: "a.py", Content: a}}, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)

	require.InDelta(t, r1.Pairs[0].Similarity, r2.Pairs[0].Similarity, 1e-9)
	require.Equal(t, r1.Pairs[0].Overlap, r2.Pairs[0].Overlap)
	require.Equal(t, r1.Pairs[0].Longest, r2.Pairs[0].Longest)
}

func TestAnalyze_TokenizerWarningsSurviveAndFileStillParticipates(t *testing.T) {
	files := []FileInput{
		{Path: "a.py", Content: "x = '''unterminated\n"},
		{Path: "b.py", Content: "x = '''unterminated\n"},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 2, WindowSize: 2})
	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	require.Equal(t, 2, report.Summary.TotalFiles)
}

func TestAnalyze_DeterministicAcrossRuns(t *testing.T) {
	files := []FileInput{
		{Path: "a.py", Content: "def add(x, y):\n    return x + y\n"},
		{Path: "b.py", Content: "def add(a, b):\n    return a + b\n"},
	}
	r1, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	r2, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)

	require.Equal(t, len(r1.Pairs), len(r2.Pairs))
	for i := range r1.Pairs {
		require.Equal(t, r1.Pairs[i].Similarity, r2.Pairs[i].Similarity)
		require.Equal(t, r1.Pairs[i].Overlap, r2.Pairs[i].Overlap)
	}
}
