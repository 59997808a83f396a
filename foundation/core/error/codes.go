// File: codes.go
// Title: Error Code Definitions
// Description: Defines standardized error codes for consistent error
//              classification across the mBASIC services. Codes map onto
//              HTTP and gRPC status values for the transport layers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Reduced to front-end codes, added gRPC mapping

package error

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeCanceled     Code = "CANCELED"

	// Database and storage
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeConnectionFailed Code = "CONNECTION_FAILED"
	CodeIOError          Code = "IO_ERROR"

	// Service and network
	CodeServiceUnavailable    Code = "SERVICE_UNAVAILABLE"
	CodeServiceInitialization Code = "SERVICE_INITIALIZATION"
	CodeNetworkError          Code = "NETWORK_ERROR"
	CodeQuotaExceeded         Code = "QUOTA_EXCEEDED"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRequiredField    Code = "REQUIRED_FIELD"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeInvalidLength    Code = "INVALID_LENGTH"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout, CodeCanceled,
		CodeDatabaseError, CodeConnectionFailed, CodeIOError,
		CodeServiceUnavailable, CodeServiceInitialization, CodeNetworkError, CodeQuotaExceeded,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig,
		CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeInvalidLength:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeDatabaseError, CodeConnectionFailed, CodeIOError:
		return "storage"
	case CodeServiceUnavailable, CodeServiceInitialization, CodeNetworkError, CodeQuotaExceeded:
		return "service"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeInvalidLength:
		return "validation"
	default:
		return "generic"
	}
}

// HTTPStatus returns the HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeValidationFailed, CodeRequiredField, CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidLength:
		return http.StatusRequestEntityTooLarge
	case CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeServiceUnavailable, CodeDatabaseError, CodeConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus returns the gRPC status code for this error code
func (c Code) GRPCStatus() codes.Code {
	switch c {
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidInput, CodeValidationFailed, CodeRequiredField, CodeInvalidFormat:
		return codes.InvalidArgument
	case CodeInvalidLength:
		return codes.OutOfRange
	case CodeQuotaExceeded:
		return codes.ResourceExhausted
	case CodeTimeout:
		return codes.DeadlineExceeded
	case CodeCanceled:
		return codes.Canceled
	case CodeServiceUnavailable, CodeConnectionFailed, CodeNetworkError:
		return codes.Unavailable
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return codes.FailedPrecondition
	case CodeUnknown:
		return codes.Unknown
	default:
		return codes.Internal
	}
}
