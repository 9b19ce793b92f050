// Package apperr defines the error kinds surfaced by the request pipelines.
// The HTTP layer maps kinds to status codes and localized messages; the wrapped
// cause is only ever logged.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpstream   Kind = "upstream"
	KindSchema     Kind = "schema"
	KindInternal   Kind = "internal"
)

// Error is a classified failure. MessageID names the i18n message shown to the user.
type Error struct {
	Kind      Kind
	MessageID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.MessageID)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.MessageID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation failure shown to the user as messageID
func Validation(messageID string, err error) *Error {
	return &Error{Kind: KindValidation, MessageID: messageID, Err: err}
}

// Upstream returns an inference transport failure
func Upstream(messageID string, err error) *Error {
	return &Error{Kind: KindUpstream, MessageID: messageID, Err: err}
}

// Schema returns a model-output parsing failure
func Schema(messageID string, err error) *Error {
	return &Error{Kind: KindSchema, MessageID: messageID, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageIDOf returns the user-facing message id carried by err, or fallback
func MessageIDOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.MessageID != "" {
		return e.MessageID
	}
	return fallback
}
