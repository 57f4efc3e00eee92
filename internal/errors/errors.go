// Package errors defines the error taxonomy of the data-check core.
//
// Only read/decode failures and malformed reference data are surfaced as
// errors; individual rule violations are accumulated as check records and
// never raised. No error from this package terminates a multi-file batch.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the data-check core.
type Kind string

const (
	// KindStructural marks input that lacks the required columns for any
	// recognized data type. Validation of the file is skipped entirely.
	KindStructural Kind = "structural"
	// KindDecode marks a file that could not be read or decoded.
	KindDecode Kind = "decode"
	// KindConfiguration marks malformed reference data or configuration.
	// It aborts the current file's validation only.
	KindConfiguration Kind = "configuration"
)

// DataError is a classified failure tied to a single input file.
type DataError struct {
	Kind Kind
	File string
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *DataError) Error() string {
	s := e.Msg
	if e.File != "" {
		s = fmt.Sprintf("%s: %s", e.File, s)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Unwrap returns the wrapped cause, if any.
func (e *DataError) Unwrap() error {
	return e.Err
}

// NewStructural creates a structural error for a file that is not in any
// recognized monitoring-data format.
func NewStructural(file, msg string) *DataError {
	return &DataError{Kind: KindStructural, File: file, Msg: msg}
}

// NewDecode creates a decode error wrapping a read failure.
func NewDecode(file string, err error) *DataError {
	return &DataError{Kind: KindDecode, File: file, Msg: "cannot read file", Err: err}
}

// NewConfiguration creates a configuration error for malformed reference data.
func NewConfiguration(msg string, err error) *DataError {
	return &DataError{Kind: KindConfiguration, Msg: msg, Err: err}
}

// KindOf extracts the Kind of err, or an empty Kind when err is not a
// DataError.
func KindOf(err error) Kind {
	var de *DataError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsStructural reports whether err is a structural error.
func IsStructural(err error) bool { return KindOf(err) == KindStructural }

// IsDecode reports whether err is a decode error.
func IsDecode(err error) bool { return KindOf(err) == KindDecode }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
