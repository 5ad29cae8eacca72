package messaging

import "errors"

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error as one a redelivery cannot fix.
// The consumer dead-letters such messages immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
