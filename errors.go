package rxcore

import (
	"errors"

	"github.com/coregx/rxcore/parser"
	"github.com/coregx/rxcore/writer"
)

// ErrorOffset extracts the source byte offset carried by a *parser.Error,
// for callers of Compile that want to report a caret under the offending
// character without type-switching on the two error kinds themselves.
// It reports false for a *writer.Error (an internal/logic violation has
// no meaningful source position) or any other error.
func ErrorOffset(err error) (int, bool) {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return perr.Offset, true
	}
	return 0, false
}

// IsInternal reports whether err is a *writer.Error: an internal-logic
// assertion failure (spec.md §7) rather than an ordinary malformed-pattern
// parse error. Production callers may choose to map this to a generic
// "internal error" response rather than surfacing it to a pattern author.
func IsInternal(err error) bool {
	var werr *writer.Error
	return errors.As(err, &werr)
}
