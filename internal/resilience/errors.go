// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType represents the handling strategy for a collaborator failure
type ErrorType int

const (
	ErrorTypeUnknown            ErrorType = iota
	ErrorTypeTransient                    // Dropped connections, locked database
	ErrorTypePermanent                    // Rejected credentials, cancelled work
	ErrorTypeTimeout                      // Deadlines and slow peers
	ErrorTypeRateLimit                    // HTTP 429 from the filing endpoint
	ErrorTypeServiceUnavailable           // HTTP 5xx from the filing endpoint
	ErrorTypeInvalidInput                 // Payload rejected as malformed
	ErrorTypeNotFound                     // Missing rows or submissions
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknown:
		return "Unknown"
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypePermanent:
		return "Permanent"
	case ErrorTypeTimeout:
		return "Timeout"
	case ErrorTypeRateLimit:
		return "RateLimit"
	case ErrorTypeServiceUnavailable:
		return "ServiceUnavailable"
	case ErrorTypeInvalidInput:
		return "InvalidInput"
	case ErrorTypeNotFound:
		return "NotFound"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Original != nil {
		return e.Original.Error()
	}
	return e.Type.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// StatusError reports a non-2xx response from an HTTP collaborator.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// ClassifyError categorizes an error for retry and circuit-breaker decisions
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Original: err, Type: ErrorTypePermanent, Message: fmt.Sprintf("Cancelled: %v", err)}
	}

	var status *StatusError
	if errors.As(err, &status) {
		return classifyStatus(err, status.Code)
	}

	if isTimeoutError(err) {
		return &ClassifiedError{Original: err, Type: ErrorTypeTimeout, Message: fmt.Sprintf("Timeout error: %v", err), Retryable: true}
	}

	if isNetworkError(err) {
		return &ClassifiedError{Original: err, Type: ErrorTypeTransient, Message: fmt.Sprintf("Network error: %v", err), Retryable: true}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "sqlite_busy") ||
		strings.Contains(errStr, "too many connections") || strings.Contains(errStr, "connection reset"):
		return &ClassifiedError{Original: err, Type: ErrorTypeTransient, Message: fmt.Sprintf("Transient storage error: %v", err), Retryable: true}

	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "invalid credentials") ||
		strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "password authentication failed"):
		return &ClassifiedError{Original: err, Type: ErrorTypePermanent, Message: fmt.Sprintf("Authentication error: %v", err)}

	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "no rows"):
		return &ClassifiedError{Original: err, Type: ErrorTypeNotFound, Message: fmt.Sprintf("Not found: %v", err)}

	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "malformed") ||
		strings.Contains(errStr, "constraint failed") || strings.Contains(errStr, "violates"):
		return &ClassifiedError{Original: err, Type: ErrorTypeInvalidInput, Message: fmt.Sprintf("Invalid input: %v", err)}
	}

	return &ClassifiedError{Original: err, Type: ErrorTypeUnknown, Message: fmt.Sprintf("Unknown error: %v", err)}
}

func classifyStatus(err error, code int) *ClassifiedError {
	switch {
	case code == http.StatusTooManyRequests:
		return &ClassifiedError{Original: err, Type: ErrorTypeRateLimit, Message: fmt.Sprintf("Rate limit exceeded: %v", err), Retryable: true}
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return &ClassifiedError{Original: err, Type: ErrorTypeTimeout, Message: fmt.Sprintf("Timeout error: %v", err), Retryable: true}
	case code >= 500:
		return &ClassifiedError{Original: err, Type: ErrorTypeServiceUnavailable, Message: fmt.Sprintf("Service unavailable: %v", err), Retryable: true}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ClassifiedError{Original: err, Type: ErrorTypePermanent, Message: fmt.Sprintf("Authentication error: %v", err)}
	case code == http.StatusNotFound:
		return &ClassifiedError{Original: err, Type: ErrorTypeNotFound, Message: fmt.Sprintf("Not found: %v", err)}
	case code >= 400:
		return &ClassifiedError{Original: err, Type: ErrorTypeInvalidInput, Message: fmt.Sprintf("Invalid input: %v", err)}
	}
	return &ClassifiedError{Original: err, Type: ErrorTypeUnknown, Message: fmt.Sprintf("Unknown error: %v", err)}
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// NewTransientError creates a new transient error
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypeTransient,
		Message:   message,
		Retryable: true,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypePermanent,
		Message:   message,
		Retryable: false,
	}
}
