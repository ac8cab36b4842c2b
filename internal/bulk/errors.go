package bulk

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for files that are not .csv, .xlsx or .xls
	ErrUnsupportedFormat = errors.New("unsupported file format (use .csv, .xlsx or .xls)")

	// ErrFileTooLarge is returned when an upload exceeds MaxFileSize
	ErrFileTooLarge = fmt.Errorf("file exceeds the %d MB limit", MaxFileSize>>20)

	// ErrNoValidEmails means the email column held no usable addresses
	ErrNoValidEmails = errors.New("No valid email addresses found in the file")

	// ErrNoMatchingUsers means none of the addresses belong to a known user
	ErrNoMatchingUsers = errors.New("No matching users found for the provided emails")
)

// FileError describes a file that was rejected before any network call.
type FileError struct {
	File   string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *FileError) Error() string {
	if e.File == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Unwrap returns the underlying cause, if any
func (e *FileError) Unwrap() error {
	return e.Err
}

func fileError(name, reason string, err error) *FileError {
	return &FileError{File: name, Reason: reason, Err: err}
}

// RowError is one validation failure of a user upload row. Row is the
// spreadsheet row number, the header being row 1.
type RowError struct {
	Row     int
	Message string
}

// Error implements the error interface
func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ValidationErrors collects every RowError of a rejected upload.
type ValidationErrors []RowError

// Error summarises the failures
func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%d rows failed validation (first: %s)", len(v), v[0].Error())
}

// Messages returns one "Row N: ..." line per failure.
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Error()
	}
	return out
}
