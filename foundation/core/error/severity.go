// File: severity.go
// Title: Error Severity Levels
// Description: Severity classification used to pick the log level of an
//              error and to decide whether it should raise an alert.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial severity levels
// - 2026-10-19 v0.2.0: Code mapping reduced to front-end codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow covers rejected input and missing optional resources
	SeverityLow Severity = iota
	// SeverityMedium covers errors with a workaround
	SeverityMedium
	// SeverityHigh covers storage and service failures
	SeverityHigh
	// SeverityCritical makes the service unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the default severity for a code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeServiceUnavailable, CodeServiceInitialization:
		return SeverityCritical
	case CodeDatabaseError, CodeConnectionFailed, CodeIOError, CodeConfigError, CodeInvalidConfig:
		return SeverityHigh
	case CodeInvalidInput, CodeNotFound, CodeValidationFailed, CodeRequiredField,
		CodeInvalidFormat, CodeInvalidLength, CodeQuotaExceeded, CodeCanceled:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
