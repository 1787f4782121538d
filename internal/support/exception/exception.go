// Package exception defines the error taxonomy shared by the windprep
// pipeline. Errors raised during transformation are classified by Kind so
// call sites can decide between aborting a dataset (parse and schema
// failures) and reporting-and-continuing (write failures).
package exception

import (
	"errors"
	"fmt"
)

// Kind classifies a BatchError.
type Kind int

const (
	// KindUnknown is the zero Kind for errors that carry no classification.
	KindUnknown Kind = iota
	// KindParse marks a malformed input value, typically an unparseable
	// timestamp. Fatal to the current dataset.
	KindParse
	// KindSchema marks structurally invalid input: a missing or unexpected
	// column set, a zone id outside the valid range, or a timestamp group
	// missing an expected zone. Fatal to the current dataset.
	KindSchema
	// KindWrite marks a serialization or I/O failure on an output sink.
	// Reported and swallowed at the pipeline call site; the run continues.
	KindWrite
	// KindConfig marks invalid or unloadable configuration.
	KindConfig
	// KindRepository marks a failure persisting or loading run metadata.
	KindRepository
)

// String returns the kind's wire-stable name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindSchema:
		return "SchemaError"
	case KindWrite:
		return "WriteError"
	case KindConfig:
		return "ConfigError"
	case KindRepository:
		return "RepositoryError"
	default:
		return "UnknownError"
	}
}

// BatchError is the error type produced by windprep components. It carries
// the module where the error occurred, a message, the wrapped original
// error, and a Kind for classification.
type BatchError struct {
	// Module indicates the component where the error occurred
	// (e.g. "reader", "reshaper", "writer", "config", "repository").
	Module string
	// Message is a concise description of the error.
	Message string
	// Err is the wrapped original error, if any.
	Err error
	// kind is the classification of this error.
	kind Kind
}

// NewBatchError creates a BatchError with an explicit Kind.
func NewBatchError(kind Kind, module, message string, err error) *BatchError {
	return &BatchError{Module: module, Message: message, Err: err, kind: kind}
}

// NewParseError creates a BatchError of KindParse.
func NewParseError(module, format string, a ...interface{}) *BatchError {
	return newKindError(KindParse, module, format, a...)
}

// NewSchemaError creates a BatchError of KindSchema.
func NewSchemaError(module, format string, a ...interface{}) *BatchError {
	return newKindError(KindSchema, module, format, a...)
}

// NewWriteError creates a BatchError of KindWrite.
func NewWriteError(module, format string, a ...interface{}) *BatchError {
	return newKindError(KindWrite, module, format, a...)
}

// NewConfigError creates a BatchError of KindConfig.
func NewConfigError(module, format string, a ...interface{}) *BatchError {
	return newKindError(KindConfig, module, format, a...)
}

// NewRepositoryError creates a BatchError of KindRepository.
func NewRepositoryError(module, format string, a ...interface{}) *BatchError {
	return newKindError(KindRepository, module, format, a...)
}

// newKindError builds a BatchError from a format string. If the last
// variadic argument is an error it is extracted and wrapped rather than
// formatted, mirroring the laxness of fmt.Errorf with %w.
func newKindError(kind Kind, module, format string, a ...interface{}) *BatchError {
	var wrapped error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			wrapped = err
			args = args[:len(args)-1]
		}
	}
	return &BatchError{
		Module:  module,
		Message: fmt.Sprintf(format, args...),
		Err:     wrapped,
		kind:    kind,
	}
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.kind, e.Message)
}

// Unwrap returns the wrapped original error for errors.Is / errors.As.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// Kind returns the classification of this error.
func (e *BatchError) Kind() Kind {
	return e.kind
}

// IsKind reports whether err (or anything it wraps) is a BatchError of the
// given Kind.
func IsKind(err error, kind Kind) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.kind == kind
	}
	return false
}

// IsParse reports whether err is a parse error.
func IsParse(err error) bool { return IsKind(err, KindParse) }

// IsSchema reports whether err is a schema error.
func IsSchema(err error) bool { return IsKind(err, KindSchema) }

// IsWrite reports whether err is a write error.
func IsWrite(err error) bool { return IsKind(err, KindWrite) }

// IsFatalToDataset reports whether err must abort processing of the current
// dataset with no partial output. Parse and schema errors are fatal; write
// errors are not.
func IsFatalToDataset(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.kind == KindParse || be.kind == KindSchema
	}
	// Unclassified errors are treated as fatal rather than silently swallowed.
	return err != nil
}

// ExtractErrorMessage returns the cleaner Message field for BatchErrors and
// the standard Error() string for anything else.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
