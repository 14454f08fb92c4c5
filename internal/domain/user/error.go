package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("user already exists")

	ErrDuplicateEmail    = &DomainError{Err: ErrDuplicate, Message: "User with this email already exists", Code: "duplicate_email"}
	ErrDuplicateUsername = &DomainError{Err: ErrDuplicate, Message: "User with this username already exists", Code: "duplicate_username"}
)

type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}
