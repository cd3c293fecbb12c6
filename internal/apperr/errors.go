package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so handlers and callers can branch on it
// without string matching.
type Kind int

const (
	// InvalidInput: bad upload (type/size/language). Never retried.
	InvalidInput Kind = iota

	// UpstreamTransient: timeout/5xx/rate-limit from a model call,
	// surfaced only after local retries are exhausted.
	UpstreamTransient

	// UpstreamFatal: auth or non-rate-limit 4xx from a model call.
	UpstreamFatal

	// ExtractionParse: model output unparsable even after the repair pass.
	ExtractionParse

	// TranslationConsistency: translated structure diverged from the
	// source identifiers.
	TranslationConsistency

	// CacheGeneration: dish image generation failed. Scoped to one dish,
	// never escalates to the containing menu.
	CacheGeneration
)

// Error is the typed failure every pipeline stage returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// Raw holds the offending model output for internal diagnostics.
	// It is logged, never echoed to the caller.
	Raw string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to UpstreamTransient for
// untyped errors so unknown failures surface as service-unavailable rather
// than leaking internals with a 500.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return UpstreamTransient
}

// HTTPStatus maps an error kind to the status code handlers respond with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case UpstreamFatal:
		return http.StatusBadGateway
	case ExtractionParse:
		return http.StatusUnprocessableEntity
	case TranslationConsistency:
		return http.StatusBadGateway
	case CacheGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// UserMessage returns the caller-facing message for err. Raw model output
// and wrapped causes stay internal.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "service temporarily unavailable"
}
