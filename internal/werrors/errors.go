// Package werrors defines the typed error kinds the pipeline surfaces at
// its boundaries.
package werrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the typed error categories surfaced to callers.
type Kind int

const (
	// InputMissing means a path does not exist or a directory is empty.
	InputMissing Kind = iota
	// UnsupportedFormat means the file extension is outside the supported set.
	UnsupportedFormat
	// ImageDecodeFailed means the decoder rejected the file.
	ImageDecodeFailed
	// LedgerCorrupt means a hash mismatch, broken linkage, or JSON parse failure. Fatal.
	LedgerCorrupt
	// LedgerContention means an append conflict exhausted its bounded retries.
	LedgerContention
	// NoMatchingTransaction means extract/remove found no matching ledger entry.
	NoMatchingTransaction
	// CodecAssertionFailed means the post-extract recovered image hash did not
	// match hash_image_orig recorded in the transaction.
	CodecAssertionFailed
)

func (k Kind) String() string {
	switch k {
	case InputMissing:
		return "InputMissing"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case ImageDecodeFailed:
		return "ImageDecodeFailed"
	case LedgerCorrupt:
		return "LedgerCorrupt"
	case LedgerContention:
		return "LedgerContention"
	case NoMatchingTransaction:
		return "NoMatchingTransaction"
	case CodecAssertionFailed:
		return "CodecAssertionFailed"
	default:
		return "Unknown"
	}
}

// Error is a typed, wrapping error carrying one of the Kind categories.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
