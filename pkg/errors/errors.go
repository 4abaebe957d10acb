// Package errors provides error handling for go-data-prep.
//
// It re-exports github.com/cockroachdb/errors so every package wraps errors
// the same way and keeps stack traces and user-facing hints:
//
//	if err := os.Remove(path); err != nil {
//	    return errors.Wrapf(err, "failed to remove %s", path)
//	}
//
//	return errors.WithHint(err, "check that the source file exists")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	// CombineErrors keeps the first error and attaches the second
	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared across packages. Wrap them to add context and
// match them with Is.
var (
	// ErrNotFound indicates the requested run or job does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed request or configuration
	ErrInvalidRequest = New("invalid request")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}
