package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "timeout",
			err:  &url.Error{Op: "Get", URL: "http://lms", Err: &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}}},
			want: ErrTypeTimeout,
		},
		{
			name: "connection refused",
			err:  &url.Error{Op: "Get", URL: "http://lms", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
			want: ErrTypeConnectionRefused,
		},
		{
			name: "dns",
			err:  &url.Error{Op: "Get", URL: "http://lms", Err: &net.DNSError{Name: "lms.invalid", Err: "no such host"}},
			want: ErrTypeDNS,
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			want: ErrTypeNetwork,
		},
		{
			name: "canceled",
			err:  &url.Error{Op: "Get", URL: "http://lms", Err: context.Canceled},
			want: ErrTypeCanceled,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("wrapped: %w", context.DeadlineExceeded),
			want: ErrTypeTimeout,
		},
		{
			name: "generic",
			err:  errors.New("connection reset"),
			want: ErrTypeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got == nil {
				t.Fatal("ClassifyNetworkError() = nil")
			}
			if got.Type != tt.want {
				t.Errorf("Type = %v, want %v", got.Type, tt.want)
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Not found."}`, "Not found."},
		{"error beats message", `{"error":"Bad file","message":"ignored"}`, "Bad file"},
		{"message", `{"message":"Upload failed"}`, "Upload failed"},
		{"non field errors", `{"non_field_errors":["Dates overlap"],"title":["x"]}`, "Dates overlap"},
		{"first field error sorted", `{"title":["This field is required."],"code":["Already exists."]}`, "code: Already exists."},
		{"not json", `<html>500</html>`, ""},
		{"empty object", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServerMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("ServerMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType ErrorType
		wantMsg  string
	}{
		{"server error fallback", 500, `<html>`, ErrTypeHTTP, "Request failed with status 500"},
		{"forbidden", 403, `{"detail":"You do not have permission to perform this action."}`, ErrTypeHTTP, "You do not have permission to perform this action."},
		{"unauthorized", 401, `{"detail":"Token expired"}`, ErrTypeAuth, "Token expired"},
		{"field errors", 400, `{"email":["Enter a valid email address."]}`, ErrTypeValidation, "email: Enter a valid email address."},
		{"400 without fields", 400, `{"detail":"Bad request"}`, ErrTypeHTTP, "Bad request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewHTTPError(tt.status, []byte(tt.body))
			if err.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", err.Type, tt.wantType)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	base := NewSessionExpiredError(ErrNoRefreshToken)
	wrapped := fmt.Errorf("loading courses: %w", base)

	if !IsSessionExpired(wrapped) {
		t.Error("IsSessionExpired() should see through fmt.Errorf wrapping")
	}
	if !errors.Is(wrapped, ErrNoRefreshToken) {
		t.Error("errors.Is() should reach the refresh cause")
	}
	if IsNetworkError(wrapped) {
		t.Error("IsNetworkError() = true for a session error")
	}
	if IsAuthError(errors.New("plain")) {
		t.Error("IsAuthError() = true for a plain error")
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	if got := GetShortErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetShortErrorMessage(plain) = %q", got)
	}
	if got := GetShortErrorMessage(&APIError{Type: ErrTypeTimeout}); !strings.Contains(got, "timeout") {
		t.Errorf("GetShortErrorMessage(timeout) = %q", got)
	}
	if got := GetShortErrorMessage(NewHTTPError(400, []byte(`{"detail":"Bad"}`))); got != "Bad" {
		t.Errorf("GetShortErrorMessage(http) = %q, want server message", got)
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	types := []ErrorType{
		ErrTypeNetwork, ErrTypeAuth, ErrTypeHTTP, ErrTypeParse, ErrTypeValidation,
		ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeSessionExpired, ErrTypeCanceled,
	}
	for _, et := range types {
		if hint := GetTroubleshootingHint(&APIError{Type: et}); hint == "" {
			t.Errorf("GetTroubleshootingHint(%v) is empty", et)
		}
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrTypeSessionExpired.String() != "Session Expired" {
		t.Errorf("String() = %q", ErrTypeSessionExpired.String())
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("String() = %q", ErrorType(99).String())
	}
}
