// Package errors provides typed errors for the specforge project.
//
// This package defines domain-specific error types that provide structured
// error information for different subsystems (config, AI providers, interview
// orchestration, review, export, archive). All error types implement the
// standard error interface and support errors.Is() and errors.As() from the
// standard library and cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// AIError represents AI provider errors.
type AIError struct {
	Provider   string // e.g., "openai", "azure-openai", "ollama"
	Operation  string // e.g., "Chat"
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("ai %s %s failed (HTTP %d): %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai %s %s failed: %s", e.Provider, e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// NewAIError creates a new AIError.
func NewAIError(provider, operation, message string) *AIError {
	return &AIError{Provider: provider, Operation: operation, Message: message}
}

// NewAIErrorWithStatus creates a new AIError with HTTP status code.
func NewAIErrorWithStatus(provider, operation string, statusCode int, message string) *AIError {
	return &AIError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// NewAIErrorWithCause creates a new AIError with an underlying cause.
func NewAIErrorWithCause(provider, operation, message string, cause error) *AIError {
	return &AIError{
		Provider:  provider,
		Operation: operation,
		Message:   message,
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// InterviewError represents interview orchestration errors.
type InterviewError struct {
	Stage   string // e.g., "kickoff", "question", "summarize", "finalize"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *InterviewError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("interview stage %s failed: %s", e.Stage, e.Message)
	}
	return "interview error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *InterviewError) Unwrap() error {
	return e.Cause
}

// NewInterviewError creates a new InterviewError.
func NewInterviewError(stage, message string) *InterviewError {
	return &InterviewError{Stage: stage, Message: message}
}

// NewInterviewErrorWithCause creates a new InterviewError with an underlying cause.
func NewInterviewErrorWithCause(stage, message string, cause error) *InterviewError {
	return &InterviewError{Stage: stage, Message: message, Cause: cause}
}

// ExportError represents specification export errors (markdown, PDF).
type ExportError struct {
	Artifact string // e.g., "markdown", "pdf"
	Path     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("export %s to %s failed: %s", e.Artifact, e.Path, e.Message)
	}
	return fmt.Sprintf("export %s failed: %s", e.Artifact, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(artifact, path, message string) *ExportError {
	return &ExportError{Artifact: artifact, Path: path, Message: message}
}

// NewExportErrorWithCause creates a new ExportError with an underlying cause.
func NewExportErrorWithCause(artifact, path, message string, cause error) *ExportError {
	return &ExportError{Artifact: artifact, Path: path, Message: message, Cause: cause}
}

// ArchiveError represents transcript archive errors.
type ArchiveError struct {
	Operation string // e.g., "Save", "Query", "Mirror"
	RecordID  string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("archive %s for %s failed: %s", e.Operation, e.RecordID, e.Message)
	}
	return fmt.Sprintf("archive %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// NewArchiveError creates a new ArchiveError.
func NewArchiveError(operation, message string) *ArchiveError {
	return &ArchiveError{Operation: operation, Message: message}
}

// NewArchiveErrorWithCause creates a new ArchiveError with an underlying cause.
func NewArchiveErrorWithCause(operation, recordID, message string, cause error) *ArchiveError {
	return &ArchiveError{Operation: operation, RecordID: recordID, Message: message, Cause: cause}
}

// DiagramError represents process diagram rendering errors.
type DiagramError struct {
	Operation string // e.g., "Render", "Locate"
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *DiagramError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("diagram %s failed: %s", e.Operation, e.Message)
	}
	return "diagram error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *DiagramError) Unwrap() error {
	return e.Cause
}

// NewDiagramError creates a new DiagramError.
func NewDiagramError(operation, message string) *DiagramError {
	return &DiagramError{Operation: operation, Message: message}
}

// NewDiagramErrorWithCause creates a new DiagramError with an underlying cause.
func NewDiagramErrorWithCause(operation, message string, cause error) *DiagramError {
	return &DiagramError{Operation: operation, Message: message, Cause: cause}
}

// IsRetryable checks if an error or any error in its chain is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Retryable
	}

	return false
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsAIError checks if an error or any error in its chain is an AIError.
func IsAIError(err error) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr)
}

// IsInterviewError checks if an error or any error in its chain is an InterviewError.
func IsInterviewError(err error) bool {
	var ivErr *InterviewError
	return errors.As(err, &ivErr)
}

// IsExportError checks if an error or any error in its chain is an ExportError.
func IsExportError(err error) bool {
	var exErr *ExportError
	return errors.As(err, &exErr)
}

// IsArchiveError checks if an error or any error in its chain is an ArchiveError.
func IsArchiveError(err error) bool {
	var arErr *ArchiveError
	return errors.As(err, &arErr)
}

// IsDiagramError checks if an error or any error in its chain is a DiagramError.
func IsDiagramError(err error) bool {
	var dgErr *DiagramError
	return errors.As(err, &dgErr)
}

// isRetryableHTTPStatus returns true for HTTP status codes that are typically retryable.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use forgeerrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
