// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package errors carries kinded errors between the data sources and the
// JSON boundary. A Kind classifies what went wrong (bad input, empty
// query window, unreachable source, timeout) so the api package can pick
// a status code, or the legacy error shape, without string matching.
//
// The package re-exports Is, As and Unwrap so callers never import both
// this package and the standard library one.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the boundary layers.
type Kind int

const (
	KindUnknown Kind = iota
	KindInternal
	// KindValidation marks unusable caller input.
	KindValidation
	KindNotFound
	// KindNoData marks a query that executed against a healthy source but
	// matched nothing. Distinct from KindUnavailable: the window was
	// empty, not the source broken.
	KindNoData
	// KindUnavailable marks a source that could not be read at all, an
	// unopenable log file or a failed table dump.
	KindUnavailable
	// KindTimeout marks an external dump that exceeded its context budget.
	KindTimeout
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindInternal:    "internal",
	KindValidation:  "validation",
	KindNotFound:    "not_found",
	KindNoData:      "no_data",
	KindUnavailable: "unavailable",
	KindTimeout:     "timeout",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Error is the kinded error type. Attributes hold optional key/value
// context attached along the way up.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Attributes map[string]any
}

func (e *Error) Error() string {
	if e.Underlying == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New returns an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf is New with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap layers a kind and message over an existing error. A nil err stays
// nil, so call sites can wrap unconditionally.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// GetKind returns the error's kind, or KindUnknown for errors from
// elsewhere. The outermost kinded error in the chain wins.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// Attr attaches one key/value pair to the error. Errors from elsewhere
// are first wrapped as KindInternal so the attribute has somewhere to
// live.
func Attr(err error, key string, val any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindInternal, Message: err.Error(), Underlying: err}
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// GetAttributes collects the attributes of every kinded error in the
// chain. When a key repeats, the outermost value wins.
func GetAttributes(err error) map[string]any {
	attrs := make(map[string]any)
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		for k, v := range e.Attributes {
			if _, seen := attrs[k]; !seen {
				attrs[k] = v
			}
		}
		err = e.Underlying
	}
	return attrs
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns err's underlying error, if it has one.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
