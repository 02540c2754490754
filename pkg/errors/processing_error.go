package errors

import (
	stderrors "errors"
	"fmt"
)

// Processing error codes. Every per-item failure carries exactly one of them.
const (
	CodeMissingInput      = "missing_input"
	CodeUnsupportedKind   = "unsupported_kind"
	CodeDecodeError       = "decode_error"
	CodeUnsupportedFormat = "unsupported_format"
	CodeEncodeError       = "encode_error"
)

// ErrFileTooLarge is the cause of an encode error when no quality step could
// bring the output under the configured size limit.
var ErrFileTooLarge = stderrors.New("encoded output exceeds max file size")

type ProcessingError struct {
	Code    string
	Message string
	Format  string // set for unsupported_format and encode_error
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is matches another *ProcessingError by code, so the sentinel values below
// work with errors.Is.
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	MissingInput      = &ProcessingError{Code: CodeMissingInput}
	UnsupportedKind   = &ProcessingError{Code: CodeUnsupportedKind}
	DecodeError       = &ProcessingError{Code: CodeDecodeError}
	UnsupportedFormat = &ProcessingError{Code: CodeUnsupportedFormat}
	EncodeError       = &ProcessingError{Code: CodeEncodeError}
)

var (
	ErrMissingInput = func(field string) *ProcessingError {
		return &ProcessingError{Code: CodeMissingInput, Message: fmt.Sprintf("input data required in binary field %q", field)}
	}
	ErrReadInput = func(field string, err error) *ProcessingError {
		return &ProcessingError{Code: CodeMissingInput, Message: fmt.Sprintf("input data in binary field %q could not be read", field), Err: err}
	}
	ErrUnsupportedKind = func(kind string) *ProcessingError {
		return &ProcessingError{Code: CodeUnsupportedKind, Message: fmt.Sprintf("unsupported file type: %s", kind)}
	}
	ErrDecode = func(err error) *ProcessingError {
		return &ProcessingError{Code: CodeDecodeError, Message: "image could not be decoded", Err: err}
	}
	ErrUnsupportedFormat = func(format string) *ProcessingError {
		return &ProcessingError{Code: CodeUnsupportedFormat, Message: fmt.Sprintf("unsupported image format '%s'", format), Format: format}
	}
	ErrEncode = func(format string, err error) *ProcessingError {
		return &ProcessingError{Code: CodeEncodeError, Message: fmt.Sprintf("encoding to %s failed", format), Format: format, Err: err}
	}
)

// ItemError annotates a processing failure with the index of the record that
// produced it.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// WithIndex wraps err in an ItemError unless it already carries an index.
func WithIndex(index int, err error) error {
	if err == nil {
		return nil
	}
	var ie *ItemError
	if stderrors.As(err, &ie) {
		return err
	}
	return &ItemError{Index: index, Err: err}
}

// CodeOf returns the processing error code found in err's chain, or "".
func CodeOf(err error) string {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
