package catalog

import (
	"errors"
	"fmt"
)

// ValidationError rejects an add operation. Field names the first offending
// input field using its json name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

type NotFoundError struct {
	MovieID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("movie %d not found", e.MovieID)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
