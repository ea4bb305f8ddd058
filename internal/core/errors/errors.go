package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeConfigMissing       ErrorCode = "CONFIG_MISSING"
	CodeFileUnreadable      ErrorCode = "FILE_UNREADABLE"
	CodeCacheCorrupt        ErrorCode = "CACHE_CORRUPT"
	CodeExtractionAmbiguous ErrorCode = "EXTRACTION_AMBIGUOUS"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

type AuditError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxSource    = "source"
	CtxFunction  = "function"
)

func (e *AuditError) WithContext(key string, value interface{}) *AuditError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *AuditError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &AuditError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &AuditError{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var ae *AuditError
	if errors.As(err, &ae) {
		ae.WithContext(key, value)
		return ae
	}
	return &AuditError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
