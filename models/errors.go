package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrEmptyDataset   = errors.New("empty dataset")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrNoValues       = errors.New("no non-empty values")
)

// InputError means a dataset cannot support a computation: a required
// column is absent or there are no rows. Checks report it as a failure.
type InputError struct {
	Dataset string
	Column  string
	Err     error
}

func (e *InputError) Error() string {
	switch {
	case e.Column != "" && e.Dataset != "":
		return fmt.Sprintf("%s: column %q: %v", e.Dataset, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	case e.Dataset != "":
		return fmt.Sprintf("%s: %v", e.Dataset, e.Err)
	}
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}
