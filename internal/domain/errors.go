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

// Is matches sentinel domain errors by code and message so that wrapped
// copies created with a cause still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
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

// Wrap attaches a cause to a sentinel error, keeping its code and message.
func Wrap(sentinel *DomainError, err error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, err)
}

// CodeOf returns the code of the first DomainError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeProvider         = "PROVIDER_ERROR"
	ErrCodeProviderTimeout  = "PROVIDER_TIMEOUT"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyTemplate        = NewDomainError(ErrCodeValidation, "template cannot be empty")
	ErrEmptyPrompt          = NewDomainError(ErrCodeValidation, "prompt text cannot be empty")
	ErrMalformedVariable    = NewDomainError(ErrCodeValidation, "malformed template variable")
	ErrMissingVariable      = NewDomainError(ErrCodeValidation, "missing template variables")
	ErrInvalidProvider      = NewDomainError(ErrCodeValidation, "invalid provider")
	ErrInvalidJobStatus     = NewDomainError(ErrCodeValidation, "invalid job status")
)

// Not found errors
var (
	ErrProjectNotFound  = NewDomainError(ErrCodeNotFound, "project not found")
	ErrPromptNotFound   = NewDomainError(ErrCodeNotFound, "prompt not found")
	ErrAIModelNotFound  = NewDomainError(ErrCodeNotFound, "ai model not found")
	ErrAnalysisNotFound = NewDomainError(ErrCodeNotFound, "analysis not found")
	ErrJobNotFound      = NewDomainError(ErrCodeNotFound, "job not found")
)

// Already exists errors
var (
	ErrAIModelAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "ai model already exists")
)

// Authorization errors
var (
	ErrInvalidAPIToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)

// Configuration errors
var (
	ErrPromptInactive       = NewDomainError(ErrCodeConfiguration, "prompt is not active")
	ErrModelNotConfigured   = NewDomainError(ErrCodeConfiguration, "ai model is not configured or inactive")
	ErrNoActiveModels       = NewDomainError(ErrCodeConfiguration, "no active ai model for this prompt")
	ErrRequestedModelsUnfit = NewDomainError(ErrCodeConfiguration, "none of the requested models is active or associated with the prompt")
	ErrMissingCredential    = NewDomainError(ErrCodeConfiguration, "provider credential not configured")
	ErrProviderUnsupported  = NewDomainError(ErrCodeConfiguration, "provider not supported")
)

// Provider errors
var (
	ErrProviderFailed    = NewDomainError(ErrCodeProvider, "provider call failed")
	ErrProviderMalformed = NewDomainError(ErrCodeProvider, "malformed provider payload")
	ErrProviderTimeout   = NewDomainError(ErrCodeProviderTimeout, "provider call timed out")
)
