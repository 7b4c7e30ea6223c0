package mossy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport_FragmentsMemoizesAcrossCalls(t *testing.T) {
	src := "def add(x, y):\n    return x + y\n"
	files := []FileInput{{Path: "a.py", Content: src}, {Path: "b.py", Content: src}}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	require.Len(t, report.Pairs, 1)

	first, err := report.Fragments(0)
	require.NoError(t, err)
	second, err := report.Fragments(0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReport_FragmentsOutOfRangeIsInvariantViolation(t *testing.T) {
	src := "def add(x, y):\n    return x + y\n"
	files := []FileInput{{Path: "a.py", Content: src}, {Path: "b.py", Content: src}}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)

	_, err = report.Fragments(99)
	require.Error(t, err)
}

func TestReport_PairDetailIncludesRawSource(t *testing.T) {
	a := "def add(x, y):\n    return x + y\n"
	b := "def add(a, b):\n    return a + b\n"
	files := []FileInput{{Path: "a.py", Content: a}, {Path: "b.py", Content: b}}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 5, WindowSize: 6})
	require.NoError(t, err)
	require.Len(t, report.Pairs, 1)

	detail, err := report.PairDetail(0)
	require.NoError(t, err)
	require.Equal(t, a, detail.LeftCode)
	require.Equal(t, b, detail.RightCode)
	require.NotEmpty(t, detail.Fragments)
}

func TestReport_PairOrderingIsByFileID(t *testing.T) {
	shared := "def helper():\n    return 1\n"
	files := []FileInput{
		{Path: "a.py", Content: shared},
		{Path: "b.py", Content: shared},
		{Path: "c.py", Content: shared},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 3, WindowSize: 4})
	require.NoError(t, err)
	for i := 1; i < len(report.Pairs); i++ {
		prev, cur := report.Pairs[i-1], report.Pairs[i]
		require.True(t, prev.LeftFile.ID < cur.LeftFile.ID ||
			(prev.LeftFile.ID == cur.LeftFile.ID && prev.RightFile.ID < cur.RightFile.ID))
	}
}

func TestReport_SuspiciousPairsRespectsThreshold(t *testing.T) {
	files := []FileInput{
		{Path: "a.py", Content: "def helper():\n    return 1\n"},
		{Path: "b.py", Content: "def helper():\n    return 1\nextra = 1\nmore = 2\nanother = 3\n"},
	}
	report, err := Analyze(context.Background(), files, "python", Options{KgramLength: 3, WindowSize: 4, Threshold: 1.0})
	require.NoError(t, err)
	require.LessOrEqual(t, report.Summary.SuspiciousPairs, report.Summary.TotalPairs)
}
