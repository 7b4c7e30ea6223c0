package mossy

import (
	"path/filepath"
	"sort"
)

// FileInfo carries the optional student attribution a caller attaches to
// a submission; neither field is interpreted by the core.
type FileInfo struct {
	StudentID   string
	StudentName string
}

// FileInput is one submission as handed to Analyze: a path, its raw
// content, and optional attribution. It carries no ID: Analyze assigns each
// file a dense ID equal to its index in the input slice.
type FileInput struct {
	Path    string
	Content string
	Info    *FileInfo
}

// File is the immutable, analyzed form of a FileInput: content plus a
// source map that resolves absolute rune offsets to (row, col) in
// O(log lineCount).
type File struct {
	ID       int
	Path     string
	Filename string
	Content  string
	LineCount int
	Info     *FileInfo

	lineStarts []int // rune offset of the first rune of each line
}

// newFile constructs a File and its source map from a FileInput. Line
// starts are computed once here so later offset resolution never
// re-scans content.
func newFile(id int, in FileInput) *File {
	lineStarts := []int{0}
	runes := []rune(in.Content)
	for i, r := range runes {
		if r == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	lineCount := len(lineStarts)
	if len(runes) > 0 && runes[len(runes)-1] == '\n' {
		lineCount--
	}
	if len(runes) == 0 {
		lineCount = 0
	}

	return &File{
		ID:         id,
		Path:       in.Path,
		Filename:   filepath.Base(in.Path),
		Content:    in.Content,
		LineCount:  lineCount,
		Info:       in.Info,
		lineStarts: lineStarts,
	}
}

// Resolve maps an absolute rune offset into f.Content to a 0-based
// (row, col) pair using binary search over the precomputed line starts.
func (f *File) Resolve(offset int) (row, col int) {
	row = sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if row < 0 {
		row = 0
	}
	col = offset - f.lineStarts[row]
	return row, col
}

// FileView is the external, read-only projection of a File used in pair
// and report output (spec §6).
type FileView struct {
	ID          int    `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	LineCount   int    `json:"lineCount"`
	StudentID   string `json:"studentId,omitempty"`
	StudentName string `json:"studentName,omitempty"`
}

func (f *File) view() FileView {
	v := FileView{ID: f.ID, Path: f.Path, Filename: f.Filename, LineCount: f.LineCount}
	if f.Info != nil {
		v.StudentID = f.Info.StudentID
		v.StudentName = f.Info.StudentName
	}
	return v
}
