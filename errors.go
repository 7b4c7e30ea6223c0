package mossy

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidConfigError reports a rejected Options value. analyze fails fast
// with this error before any tokenization happens.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Reason)
}

// UnsupportedLanguageError reports a language tag outside the registered
// set (java, python, c).
type UnsupportedLanguageError struct {
	Tag string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %q", e.Tag)
}

// InsufficientInputError reports fewer than two files were supplied to
// analyze. It is distinct from the case where two or more files are
// supplied but fewer than two end up with non-empty fingerprint sets —
// that case is not an error at all (spec §7): the report is still built
// with totalPairs == 0.
type InsufficientInputError struct {
	FileCount int
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("insufficient input: %d files, need at least 2", e.FileCount)
}

// CancelledError reports a caller-requested cancellation partway through
// analyze. All partial state is discarded.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "analyze cancelled" }

// InternalInvariantViolation indicates a bug: a condition the design
// proves cannot occur was nonetheless observed. It wraps with a stack
// trace via pkg/errors so the file/pair context survives to the caller.
func InternalInvariantViolation(context string) error {
	return errors.Errorf("internal invariant violation: %s", context)
}

// TokenizerWarning is a single recoverable lexing diagnostic attached to
// a report, grounded on the per-file (path, row, col, reason) shape spec
// §4.2 and §7 require.
type TokenizerWarning struct {
	Path   string
	Row    int
	Col    int
	Reason string
}

func (w TokenizerWarning) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", w.Path, w.Row, w.Col, w.Reason)
}
