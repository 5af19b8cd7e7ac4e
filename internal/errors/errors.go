// Package errors defines the categorized error type used across the
// ingestion pipeline. The category decides the propagation policy: quota
// errors abort a stage, validation and client errors fail a single record
// without retry, transient errors are retried with backoff, and persistence
// errors on usage tracking fail open.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryQuota represents daily quota exhaustion; fatal, never retried
	CategoryQuota ErrorCategory = "quota"
	// CategoryValidation represents record validation failures; never retried
	CategoryValidation ErrorCategory = "validation"
	// CategoryClient represents 4xx-class provider rejections; never retried
	CategoryClient ErrorCategory = "client"
	// CategoryTransient represents 5xx-class or network failures; retryable
	CategoryTransient ErrorCategory = "transient"
	// CategoryMissingDependency represents a referenced entity that does not
	// exist; the specific record is skipped, siblings continue
	CategoryMissingDependency ErrorCategory = "missing_dependency"
	// CategoryPersistence represents storage failures on usage tracking;
	// handled fail-open by callers
	CategoryPersistence ErrorCategory = "persistence"
)

// CategorizedError represents an error with a category and an HTTP-like
// status code. StatusCode is 0 for failures with no HTTP response
// (network-level errors).
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// NewQuotaExceededError creates a daily quota exhaustion error
func NewQuotaExceededError(provider string, used, limit int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryQuota,
		StatusCode: http.StatusTooManyRequests,
		Code:       "QUOTA_EXCEEDED",
		Message:    fmt.Sprintf("daily API limit reached for %s (%d/%d calls used)", provider, used, limit),
		Details: map[string]interface{}{
			"provider": provider,
			"used":     used,
			"limit":    limit,
		},
	}
}

// NewValidationError creates a record validation error
func NewValidationError(entity string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("validation failed for %s: %s", entity, reason),
		Details: map[string]interface{}{
			"entity": entity,
			"reason": reason,
		},
	}
}

// NewProviderRequestError creates an application-level provider error, raised
// when the response envelope carries a non-empty errors field. These indicate
// a malformed request rather than an outage and are never retried.
func NewProviderRequestError(resource string, providerErrors map[string]string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryClient,
		StatusCode: http.StatusBadRequest,
		Code:       "PROVIDER_REQUEST_ERROR",
		Message:    fmt.Sprintf("provider rejected request for %s: %s", resource, flattenErrors(providerErrors)),
		Details: map[string]interface{}{
			"resource":       resource,
			"providerErrors": providerErrors,
		},
	}
}

// NewClientError creates a 4xx-class provider error
func NewClientError(resource string, statusCode int, body string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryClient,
		StatusCode: statusCode,
		Code:       "CLIENT_ERROR",
		Message:    fmt.Sprintf("provider returned %d for %s: %s", statusCode, resource, body),
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

// NewServerError creates a 5xx-class provider error
func NewServerError(resource string, statusCode int, body string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryTransient,
		StatusCode: statusCode,
		Code:       "SERVER_ERROR",
		Message:    fmt.Sprintf("provider returned %d for %s: %s", statusCode, resource, body),
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

// NewNetworkError creates a network-level failure with no HTTP response
func NewNetworkError(resource string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryTransient,
		StatusCode: 0,
		Code:       "NETWORK_ERROR",
		Message:    fmt.Sprintf("request failed for %s", resource),
		Cause:      cause,
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

// NewMissingDependencyError creates an error for a record referencing an
// entity that does not exist
func NewMissingDependencyError(entity string, dependency string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryMissingDependency,
		StatusCode: http.StatusNotFound,
		Code:       "MISSING_DEPENDENCY",
		Message:    fmt.Sprintf("%s references missing %s: %s", entity, dependency, id),
		Details: map[string]interface{}{
			"entity":     entity,
			"dependency": dependency,
			"id":         id,
		},
	}
}

// NewPersistenceError creates a storage failure error
func NewPersistenceError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPersistence,
		StatusCode: http.StatusInternalServerError,
		Code:       "PERSISTENCE_ERROR",
		Message:    fmt.Sprintf("storage failure during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// Categorize wraps an arbitrary error into a CategorizedError. Already
// categorized errors pass through unchanged, including when wrapped. An
// error nothing categorized is not recognizably a server fault, so it is
// treated as a client error and never retried.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	return &CategorizedError{
		Category:   CategoryClient,
		StatusCode: 0,
		Code:       "UNCATEGORIZED",
		Message:    err.Error(),
		Cause:      err,
	}
}

// StatusCodeOf extracts the HTTP-like status code from an error, 0 when none
// is present.
func StatusCodeOf(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return 0
}

// IsRetryable reports whether an error should be retried with backoff.
// Only transient (server-class or network-level) failures qualify; a
// validation marker in the message disqualifies regardless of category.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) {
		return false
	}

	catErr := Categorize(err)
	return catErr.Category == CategoryTransient &&
		(catErr.StatusCode == 0 || catErr.StatusCode >= http.StatusInternalServerError)
}

// IsQuotaExceeded reports whether an error is a daily quota error
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	return Categorize(err).Category == CategoryQuota
}

// IsValidation reports whether an error is a validation failure, either by
// category or by a "validation" marker in the message (errors crossing the
// provider boundary may arrive without category).
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var catErr *CategorizedError
	if errors.As(err, &catErr) && catErr.Category == CategoryValidation {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "validation")
}

// IsMissingDependency reports whether an error is a missing-dependency error
func IsMissingDependency(err error) bool {
	if err == nil {
		return false
	}
	return Categorize(err).Category == CategoryMissingDependency
}

func flattenErrors(m map[string]string) string {
	if len(m) == 0 {
		return "unknown error"
	}
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, "; ")
}
