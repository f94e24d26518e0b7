package tasks

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrAccess     = errors.New("access denied")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AccessError carries a user-facing message and matches ErrAccess.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string { return e.Msg }

func (e *AccessError) Is(target error) bool { return target == ErrAccess }
