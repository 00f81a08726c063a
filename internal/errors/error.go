package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/netsync"
	"github.com/multilink-dev/multilink/pkg/watchdog"
)

// Category represents the type of error.
type Category string

const (
	CategoryLink   Category = "link"
	CategorySync   Category = "sync"
	CategoryConfig Category = "config"
	CategoryCLI    Category = "cli"
)

// LinkError is a coded error with an explanation and a fix suggestion, for
// display by the multilink command.
type LinkError struct {
	// Code is a unique error identifier (e.g., "L001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Fields are extra key/value pairs shown under the message, such as
	// the peer address or config path.
	Fields []Field

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Field is a labelled value attached to an error.
type Field struct {
	Key   string
	Value string
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *LinkError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *LinkError) WithSuggestion(s string) *LinkError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *LinkError) WithDetail(d string) *LinkError {
	e.Detail = d
	return e
}

// WithField attaches a labelled value.
func (e *LinkError) WithField(key string, value any) *LinkError {
	e.Fields = append(e.Fields, Field{Key: key, Value: fmt.Sprint(value)})
	return e
}

// Wrap wraps another error.
func (e *LinkError) Wrap(err error) *LinkError {
	e.Wrapped = err
	return e
}

// New creates a LinkError from a registered error code.
func New(code string) *LinkError {
	template, ok := registry[code]
	if !ok {
		return &LinkError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &LinkError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new LinkError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *LinkError {
	return &LinkError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a LinkError.
func FromError(err error, code string) *LinkError {
	if err == nil {
		return nil
	}
	var le *LinkError
	if stderrors.As(err, &le) {
		return le
	}
	return New(code).Wrap(err)
}

// sentinels maps package errors to their codes, checked in order.
var sentinels = []struct {
	err  error
	code string
}{
	{link.ErrModeTimeout, "L001"},
	{link.ErrHandshakeTimeout, "L002"},
	{link.ErrHandshakeMismatch, "L003"},
	{link.ErrHandshakeLength, "L004"},
	{link.ErrLinkFault, "L005"},
	{link.ErrPortOpen, "L006"},
	{link.ErrPeerLost, "L007"},
	{link.ErrPoolExhausted, "L008"},
	{netsync.ErrUpdateRequired, "L101"},
	{netsync.ErrPeerUpdateRequired, "L102"},
	{watchdog.ErrExpired, "L103"},
}

// FromLink classifies an error returned by the link, netsync or watchdog
// packages. Unrecognised errors get code L000.
func FromLink(err error) *LinkError {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return FromError(err, s.code)
		}
	}
	return FromError(err, "L000")
}
