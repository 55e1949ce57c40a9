package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers. The zero value is KindInternal.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindExtraction
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindExtraction:
		return "extraction"
	case KindUpstream:
		return "upstream"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error carries a Kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports user-fixable bad input.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound covers both a missing record and a record owned by someone else.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Extraction wraps a failure of the text extraction collaborator.
func Extraction(err error) error {
	return &Error{Kind: KindExtraction, Message: "text extraction failed", Err: err}
}

// Upstream wraps an AI transport failure or a malformed AI response.
func Upstream(err error) error {
	if err != nil && KindOf(err) == KindUpstream {
		return err
	}
	return &Error{Kind: KindUpstream, Message: "AI service error", Err: err}
}

// Upstreamf builds an upstream error from a formatted cause.
func Upstreamf(format string, args ...any) error {
	return Upstream(fmt.Errorf(format, args...))
}

// Internal wraps an unexpected failure. Callers never see its detail.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// PublicMessage is the text safe to show to callers.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}
