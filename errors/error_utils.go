// Package errors provides the typed error model used across utxogate.
package errors

import (
	"context"
	"errors"
)

// IsRetryableError determines if an error is transient and the operation should be retried.
// Validation defects are never retryable, only infrastructure failures are.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check if context was cancelled - not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE:
			return true
		}
	}

	return false
}

// IsContextError determines if an error is related to context cancellation or deadline.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var tErr *Error
	if As(err, &tErr) {
		if tErr.Code() == ERR_CONTEXT_CANCELED || tErr.Code() == ERR_CONTEXT {
			return true
		}
	}

	return false
}

// GetErrorCategory returns a string representing the category of the error.
// This is useful for logging and metrics labels.
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	var tErr *Error
	if As(err, &tErr) {
		code := tErr.Code()
		switch {
		case code >= 30 && code <= 39:
			return "transaction"
		case code >= 40 && code <= 49:
			return "signature"
		case code >= 50 && code <= 59:
			return "service"
		case code >= 60 && code <= 69:
			return "storage"
		case code >= 70 && code <= 79:
			return "utxo"
		case code < 10:
			return "general"
		}
	}

	return "unknown"
}
