package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned alongside a zero-valued report when a
	// requested respondent has no submissions in the dataset.
	ErrEmptyInput = errors.New("no submissions for respondent")
	// ErrInvalidConfiguration rejects analysis parameters before any
	// processing starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedRecordError marks a raw input row that could not be decoded into
// a SubmissionRecord. It is row-level and recoverable: sources skip the row
// and surface the error as a warning instead of failing the load.
type MalformedRecordError struct {
	Source string // file name, table, or redis key the row came from
	Row    int    // 1-based position within the source
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s row %d: %s", e.Source, e.Row, e.Reason)
}
