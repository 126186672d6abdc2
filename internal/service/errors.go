package service

import (
	"errors"
)

var (
	ErrUnhandledEvent       = errors.New("unhandled event type")
	ErrEmailRequired        = errors.New("email address required")
	ErrMalformedEvent       = errors.New("malformed event payload")
	ErrAccountNotFound      = errors.New("account not found")
	ErrOrganizationNotFound = errors.New("organization not found")
)

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the retry coordinator stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	var p *permanentError
	if errors.As(err, &p) {
		return err
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
