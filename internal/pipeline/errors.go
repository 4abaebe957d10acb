package pipeline

import (
	"fmt"

	"go-data-prep/pkg/errors"
)

// ParseError reports an input line that is not a JSON object.
type ParseError struct {
	Source string
	Line   int64 // 1-based
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: invalid JSON object: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a source that cannot be read or a destination that cannot
// be written.
type IOError struct {
	Op   string // open, read, create, write
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsParseError reports whether err carries a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsIOError reports whether err carries an *IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

func newParseError(source string, line int64, err error) error {
	return errors.WithHint(
		errors.WithStack(&ParseError{Source: source, Line: line, Err: err}),
		"every input line must hold exactly one JSON object",
	)
}

func newIOError(op, path string, err error) error {
	return errors.WithStack(&IOError{Op: op, Path: path, Err: err})
}
