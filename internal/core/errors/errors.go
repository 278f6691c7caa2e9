package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeBoundaryNotFound  ErrorCode = "BOUNDARY_NOT_FOUND"
	CodeCacheFailure      ErrorCode = "CACHE_FAILURE"
	CodeFactGeneration    ErrorCode = "FACT_GENERATION_FAILURE"
	CodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
	CodeNotSupported      ErrorCode = "NOT_SUPPORTED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxBoundary  = "boundary"
	CtxRule      = "rule"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxPath      = "path"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value pair to an existing DomainError, wrapping
// plain errors on the way.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsFatal reports whether an error must abort the current parse rather than
// drive backtracking. Resource exhaustion is never caught by grammar-level
// recovery.
func IsFatal(err error) bool {
	return IsCode(err, CodeResourceExhausted)
}
