package domain

import "errors"

// Error kinds. Callers wrap these with %w and match with errors.Is.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("not valid argument")
	ErrInternal        = errors.New("internal failure")
)

// Specific failures that keep their kind through errors.Is.
var (
	ErrAccessDenied      = KindError(ErrUnauthenticated, "access denied")
	ErrIncorrectPassword = KindError(ErrUnauthenticated, "incorrect password")
	ErrUserNotFound      = KindError(ErrNotFound, "no such user")
	ErrUserExists        = KindError(ErrConflict, "username already exists")
	ErrReadingExists     = KindError(ErrConflict, "reading already exists")
	ErrReadingNotFound   = KindError(ErrNotFound, "reading not found")
	ErrTypeExists        = KindError(ErrConflict, "reading type already exists")
	ErrTypeNotFound      = KindError(ErrNotFound, "reading type not found")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// KindError returns an error with its own message that matches kind under errors.Is.
func KindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// ValidationError carries every violation found in one submission.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	msg := ErrValidation.Error()
	for i, v := range e.Violations {
		if i == 0 {
			msg += ": " + v
		} else {
			msg += "; " + v
		}
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
