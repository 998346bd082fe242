package modelbuf

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTree is returned when saving a nil model tree.
	ErrNilTree = errors.New("modelbuf: nil model tree")

	// ErrNotAModelFile is returned when a file is neither a container
	// envelope nor a bare model buffer with the expected identifier.
	ErrNotAModelFile = errors.New("modelbuf: not a model file")
)

// ErrVerify wraps a verification failure with the source it came from.
//
// The underlying *verify.FormatError can be accessed via errors.Unwrap or
// errors.As.
type ErrVerify struct {
	Source string
	cause  error
}

func (e *ErrVerify) Error() string {
	return fmt.Sprintf("modelbuf: verify %s: %v", e.Source, e.cause)
}

func (e *ErrVerify) Unwrap() error { return e.cause }
