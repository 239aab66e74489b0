// Package apperr defines the error taxonomy shared by every pipeline stage.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure.
type Kind string

const (
	KindSpecParsing      Kind = "spec_parsing"
	KindChunking         Kind = "chunking"
	KindEmbedding        Kind = "embedding"
	KindVectorStore      Kind = "vector_store"
	KindRetrieval        Kind = "retrieval"
	KindGeneration       Kind = "generation"
	KindValidation       Kind = "validation"
	KindConnectivity     Kind = "connectivity"
	KindInsufficientInfo Kind = "insufficient_information"
)

// Error is a categorized error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message != "" {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so the Err* sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

// Sentinels for errors.Is checks.
var (
	ErrSpecParsing      = &Error{Kind: KindSpecParsing}
	ErrChunking         = &Error{Kind: KindChunking}
	ErrEmbedding        = &Error{Kind: KindEmbedding}
	ErrVectorStore      = &Error{Kind: KindVectorStore}
	ErrRetrieval        = &Error{Kind: KindRetrieval}
	ErrGeneration       = &Error{Kind: KindGeneration}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrConnectivity     = &Error{Kind: KindConnectivity}
	ErrInsufficientInfo = &Error{Kind: KindInsufficientInfo}
)

// New returns a categorized error with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap categorizes err under kind. Connectivity errors keep their kind so the
// remedy hint reaches the caller unchanged.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConnectivity) {
		return err
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// InsufficientInformation reports that the model refused for lack of spec data.
func InsufficientInformation(missing string) error {
	return &Error{Kind: KindInsufficientInfo, Message: "insufficient information: " + missing}
}
