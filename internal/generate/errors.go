package generate

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed reports that no usable query was produced.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationFailedError carries the attempt count and the last raw error.
type GenerationFailedError struct {
	QuestionID string
	Attempts   int
	Err        error
}

// Error returns a readable message.
func (err *GenerationFailedError) Error() string {
	if err.QuestionID != "" {
		return fmt.Sprintf("generation failed for %s after %d attempt(s): %v", err.QuestionID, err.Attempts, err.Err)
	}
	return fmt.Sprintf("generation failed after %d attempt(s): %v", err.Attempts, err.Err)
}

// Unwrap returns the last underlying error.
func (err *GenerationFailedError) Unwrap() error {
	return err.Err
}

// Is matches ErrGenerationFailed.
func (err *GenerationFailedError) Is(target error) bool {
	return target == ErrGenerationFailed
}
