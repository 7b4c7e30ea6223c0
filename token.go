package mossy

import "github.com/mossy-run/mossy/internal/lang"

// Selection is the externally-facing rendering of a source span, used in
// pair fragment detail (spec §6): 0-based rows and columns, half-open on
// the end.
type Selection struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	EndRow   int `json:"endRow"`
	EndCol   int `json:"endCol"`
}

func selectionFromSpan(s lang.Span) Selection {
	return Selection{StartRow: s.StartRow, StartCol: s.StartCol, EndRow: s.EndRow, EndCol: s.EndCol}
}
