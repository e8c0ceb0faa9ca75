package inquiry

import "errors"

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeDatabase   ErrorCode = "database_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// storeError maps a repository failure to a service error, keeping
// ErrNotFound distinguishable from everything else.
func storeError(err error, notFoundMsg, failureMsg string) *Error {
	if errors.Is(err, ErrNotFound) {
		return newError(ErrorCodeNotFound, notFoundMsg, err)
	}
	return newError(ErrorCodeDatabase, failureMsg, err)
}

// CodeOf returns the service error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code, true
	}
	return "", false
}
