package metadata

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a provider has no descriptor for an image ID.
var ErrNotFound = errors.New("image not found")

// Error describes a failure while reading image metadata.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("metadata %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("metadata %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
