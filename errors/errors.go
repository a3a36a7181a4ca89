// Package errors wraps pkg/errors and includes some custom features such as
// error codes.
package errors

import (
	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

func New(code Code, message string) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: message,
	})
}

func Newf(code Code, format string, args ...interface{}) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: errors.Errorf(format, args...).Error(),
	})
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	match := codedError{
		Code: target,
	}
	return errors.Is(err, match)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, fmt string, args ...interface{}) error {
	return errors.Wrapf(err, fmt, args...)
}

// codedError is the fundamental type used by this package to provide coded
// errors.
type codedError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (ce codedError) Error() string {
	return ce.Message
}

func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}

const (
	ErrUncoded Code = "Uncoded"

	// Transient conditions. These are the only codes the retry layer will
	// act on; everything else fails immediately.
	ErrTransient    Code = "Transient"    // 429, 5xx, network timeout/reset
	ErrTokenExpired Code = "TokenExpired" // auth token rejected mid-run

	// Permanent conditions.
	ErrBadRequest        Code = "BadRequest"        // 400, schema mismatch
	ErrUnauthorized      Code = "Unauthorized"      // 401, 403
	ErrNotFound          Code = "NotFound"          // 404
	ErrTemplateMalformed Code = "TemplateMalformed" // unbalanced markers, bad one-of priority
	ErrUnclassified      Code = "Unclassified"      // manifest matches no entity type

	// Fatal conditions abort the run.
	ErrConfig Code = "Config" // unreadable source dir, unusable credentials
)

// Transient reports whether err carries a code the retry layer may act on.
func Transient(err error) bool {
	return Is(err, ErrTransient) || Is(err, ErrTokenExpired)
}
