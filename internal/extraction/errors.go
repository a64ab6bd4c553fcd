package extraction

import (
	"errors"
	"fmt"
)

// ErrEmptyModelResponse is returned when the model call succeeds but yields
// no text to parse.
var ErrEmptyModelResponse = errors.New("model returned no text")

// UploadError means the receipt image could not be persisted to storage.
// The extraction attempt is aborted before any model call is made.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading receipt image: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ModelError means the external model call failed or returned empty text.
// Kept distinct from parse errors so telemetry can tell the two apart.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("invoking extraction model: %v", e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// MalformedResponseError means the model text was not decodable structured
// data after cleanup. CleanedText carries the post-cleanup payload for
// diagnostic display.
type MalformedResponseError struct {
	CleanedText string
	Err         error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// InvalidDateError means the extracted date string matched none of the known
// formats. The date is never silently substituted; it is the primary
// grouping key downstream.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("unrecognized date format: %q", e.Value)
}
