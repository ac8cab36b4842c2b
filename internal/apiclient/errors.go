package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"syscall"
)

// Error types for backend API operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (host unreachable, reset, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates an authentication failure (bad credentials, 401 after retry)
	ErrTypeAuth
	// ErrTypeHTTP indicates an HTTP-level error (non-2xx status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a parsing error (malformed JSON, unexpected shape)
	ErrTypeParse
	// ErrTypeValidation indicates the backend rejected the payload with field errors
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the backend refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeSessionExpired indicates a 401 that the token refresh could not recover
	ErrTypeSessionExpired
	// ErrTypeCanceled indicates the caller cancelled the request
	ErrTypeCanceled
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeSessionExpired:
		return "Session Expired"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ErrNoRefreshToken is returned by a refresh attempt when the session holds
// no refresh token.
var ErrNoRefreshToken = errors.New("no refresh token available")

// APIError represents an error that occurred while talking to the backend
type APIError struct {
	Type        ErrorType         // Category of error
	Message     string            // Human-readable error message (server-provided when available)
	StatusCode  int               // HTTP status code (if applicable)
	Method      string            // Request method
	Path        string            // Request path
	FieldErrors map[string]string // Per-field messages from a 400 response
	Body        []byte            // Raw response body (if any)
	Err         error             // Underlying error (if any)
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a specific error type
func ClassifyNetworkError(err error) *APIError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &APIError{Type: ErrTypeCanceled, Message: "Request canceled", Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &APIError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &APIError{Type: ErrTypeConnectionRefused, Message: "Server refused connection", Err: err}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &APIError{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &APIError{Type: ErrTypeNetwork, Message: "Network unreachable", Err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &APIError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *APIError {
	classified := ClassifyNetworkError(err)
	if classified != nil {
		if classified.Type != ErrTypeCanceled {
			classified.Message = message
		}
		return classified
	}
	return &APIError{Type: ErrTypeNetwork, Message: message, Err: err}
}

// NewHTTPError creates an error from a non-2xx response. The message is taken
// from the body (detail, error, message, then the first field error) with a
// generic fallback.
func NewHTTPError(statusCode int, body []byte) *APIError {
	fields := extractFieldErrors(body)
	msg := ServerMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", statusCode)
	}

	errType := ErrTypeHTTP
	switch {
	case statusCode == http.StatusUnauthorized:
		errType = ErrTypeAuth
	case statusCode >= 400 && statusCode < 500 && len(fields) > 0:
		errType = ErrTypeValidation
	}

	return &APIError{
		Type:        errType,
		Message:     msg,
		StatusCode:  statusCode,
		FieldErrors: fields,
		Body:        body,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *APIError {
	return &APIError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewSessionExpiredError creates the error returned when refresh fails
func NewSessionExpiredError(err error) *APIError {
	return &APIError{
		Type:       ErrTypeSessionExpired,
		Message:    "Your session has expired. Please log in again.",
		StatusCode: http.StatusUnauthorized,
		Err:        err,
	}
}

// ServerMessage extracts the most specific human-readable message from an
// error response body. It returns "" when nothing usable is present.
func ServerMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		if s := firstString(payload[key]); s != "" {
			return s
		}
	}

	fields := extractFieldErrors(body)
	if len(fields) == 0 {
		return ""
	}
	if msg, ok := fields["non_field_errors"]; ok {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", keys[0], fields[keys[0]])
}

// extractFieldErrors returns the DRF-style {"field": ["msg", ...]} entries.
func extractFieldErrors(body []byte) map[string]string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	fields := make(map[string]string)
	for k, v := range payload {
		switch k {
		case "detail", "error", "message":
			continue
		}
		if list, ok := v.([]any); ok {
			if s := firstString(list); s != "" {
				fields[k] = s
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeNetwork ||
			apiErr.Type == ErrTypeTimeout ||
			apiErr.Type == ErrTypeConnectionRefused ||
			apiErr.Type == ErrTypeDNS
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeAuth
	}
	return false
}

// IsSessionExpired checks if an error means the user must log in again
func IsSessionExpired(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeSessionExpired
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeHTTP
	}
	return false
}

// IsValidationError checks if an error carries backend field errors
func IsValidationError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeValidation
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeParse
	}
	return false
}

// IsNotFound checks if an error is a 404 response
func IsNotFound(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The server did not respond in time.",
			"Troubleshooting:",
			"  • Check that the backend is running",
			"  • Try increasing the timeout (LMSADMIN_TIMEOUT)",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The server refused the connection.",
			"Troubleshooting:",
			"  • Verify base_url in your config (LMSADMIN_BASE_URL)",
			"  • Check that the backend is listening on that port",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the server hostname.",
			"Troubleshooting:",
			"  • Check the spelling of base_url",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"Authentication failed.",
			"Troubleshooting:",
			"  • Check your email and password",
			"  • Run: lmsadmin login",
		}, "\n")

	case ErrTypeSessionExpired:
		return "Your session could not be renewed. Run: lmsadmin login"

	case ErrTypeNetwork:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify base_url in your config",
		}, "\n")

	case ErrTypeHTTP:
		if apiErr.StatusCode >= 500 {
			return fmt.Sprintf("The server returned an internal error (HTTP %d). Try again later or check the server logs.", apiErr.StatusCode)
		}
		if apiErr.StatusCode == http.StatusForbidden {
			return "Your account does not have permission for this operation."
		}
		return fmt.Sprintf("The server returned HTTP error %d. Check the request parameters.", apiErr.StatusCode)

	case ErrTypeValidation:
		return "The server rejected some fields. Correct them and try again."

	case ErrTypeParse:
		return "Failed to parse the server's response. The backend may be a different version."

	case ErrTypeCanceled:
		return "The operation was canceled."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "Server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Server refused connection - is the backend running?"
	case ErrTypeDNS:
		return "Cannot resolve server hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeSessionExpired:
		return "Session expired - please log in again"
	default:
		return apiErr.Message
	}
}
