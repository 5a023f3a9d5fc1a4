package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeConfigurationMissing      ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeUpstreamHTTPError         ErrorCode = "UPSTREAM_HTTP_ERROR"
	ErrCodeMalformedUpstreamResponse ErrorCode = "MALFORMED_UPSTREAM_RESPONSE"
	ErrCodeTransportError            ErrorCode = "TRANSPORT_ERROR"

	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidEndpointMode ErrorCode = "INVALID_ENDPOINT_MODE"

	ErrCodePreferenceStoreFailed ErrorCode = "PREFERENCE_STORE_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"
	ErrCodeBrokerRejected    ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError by code so callers can use errors.Is
// against the sentinel-like values returned by the constructors.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// NewConfigurationMissingError reports a required setting absent from the
// process environment. Detected before any I/O.
func NewConfigurationMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   fmt.Sprintf("Infactory API configuration is missing. Please check %s.", setting),
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamHTTPError embeds the status code and raw response body.
func NewUpstreamHTTPError(status int, body, requestURL string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamHTTPError,
		Message:   fmt.Sprintf("API request failed with status %d: %s", status, body),
		Details:   fmt.Sprintf("status: %d, url: %s", status, requestURL),
		Retryable: status >= 500 || status == 429,
		Metadata: map[string]interface{}{
			"status": status,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewMalformedUpstreamResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedUpstreamResponse,
		Message:   "Unexpected response structure from Infactory API",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError wraps network failures, body read failures and JSON
// decode failures. The message is taken from err when it has one.
func NewTransportError(err error) *StandardError {
	msg := "Unknown error occurred"
	details := ""
	if err != nil && err.Error() != "" {
		msg = err.Error()
		details = fmt.Sprintf("%T", err)
	}
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   msg,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Job variables do not match the declared input schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidEndpointModeError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEndpointMode,
		Message:   "Unsupported endpoint mode",
		Details:   fmt.Sprintf("endpoint: %q", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPreferenceStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferenceStoreFailed,
		Message:   "Endpoint preference store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBrokerError wraps a failed Zeebe gateway command.
func NewBrokerError(code ErrorCode, operation string, err error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("Zeebe operation '%s' failed: %v", operation, err),
		Details:   err.Error(),
		Retryable: code != ErrCodeBrokerRejected,
		Metadata: map[string]interface{}{
			"operation": operation,
		},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfigurationMissing:      "CONFIGURATION_MISSING",
	ErrCodeUpstreamHTTPError:         "UPSTREAM_HTTP_ERROR",
	ErrCodeMalformedUpstreamResponse: "MALFORMED_UPSTREAM_RESPONSE",
	ErrCodeTransportError:            "TRANSPORT_ERROR",
	ErrCodeInvalidInput:              "INVALID_INPUT",
	ErrCodeInvalidEndpointMode:       "INVALID_ENDPOINT_MODE",
	ErrCodePreferenceStoreFailed:     "PREFERENCE_STORE_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePreferenceStoreFailed:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "TRANSPORT"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	default:
		return "OTHER"
	}
}
