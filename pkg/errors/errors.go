// Package errors wraps github.com/pkg/errors and adds variants that also send
// the error to every registered Reporter.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// New returns an error with the supplied message and the caller stack.
func New(message string) error {
	return errors.New(message)
}

// Errorf formats according to a format specifier and records the caller stack.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Wrap annotates err with message. Returns nil if err is nil.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// WithStack records the caller stack on err. Returns nil if err is nil.
func WithStack(err error) error {
	return errors.WithStack(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

// NewWithReport is New plus a report to every registered reporter.
func NewWithReport(message string) error {
	err := errors.New(message)
	report(err)
	return err
}

// ErrorfAndReport is Errorf plus a report to every registered reporter.
func ErrorfAndReport(format string, args ...interface{}) error {
	err := errors.New(fmt.Sprintf(format, args...))
	report(err)
	return err
}

// WrapAndReport is Wrap plus a report to every registered reporter.
func WrapAndReport(err error, message string) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err, message)
	report(wrapped)
	return wrapped
}
