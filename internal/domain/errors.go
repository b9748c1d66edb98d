package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrCorpusNotReady) matches any NOT_READY error in the chain.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeConfig     = "CONFIG_ERROR"
	ErrCodeProvider   = "PROVIDER_ERROR"
	ErrCodeNotReady   = "NOT_READY"
	ErrCodeCacheRead  = "CACHE_READ_ERROR"
	ErrCodeCacheWrite = "CACHE_WRITE_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage = NewDomainError(ErrCodeValidation, "message is required")
)

// Corpus errors
var (
	ErrCorpusNotReady   = NewDomainError(ErrCodeNotReady, "knowledge corpus is not initialized")
	ErrCorpusMisaligned = NewDomainError(ErrCodeNotReady, "corpus embeddings are not aligned with chunks")
	ErrKnowledgeEmpty   = NewDomainError(ErrCodeNotReady, "knowledge document is empty")
)

// Provider errors
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeProvider, "embedding provider unavailable")
	ErrChatNotConfigured   = NewDomainError(ErrCodeConfig, "chat provider not configured: OPENAI_API_KEY required")
)

// NewProviderError wraps a failure of the embedding or chat backend.
func NewProviderError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeProvider, message, err)
}

// NewConfigError reports an invalid or missing configuration value.
func NewConfigError(message string) *DomainError {
	return NewDomainError(ErrCodeConfig, message)
}

// NewCacheReadError wraps a failure to read or decode the persisted cache.
func NewCacheReadError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeCacheRead, "failed to read embedding cache", err)
}

// NewCacheWriteError wraps a failure to persist the cache.
func NewCacheWriteError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeCacheWrite, "failed to write embedding cache", err)
}

// HasCode reports whether any DomainError in err's chain carries code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &DomainError{Code: code})
}
