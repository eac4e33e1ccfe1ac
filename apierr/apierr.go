// Package apierr defines the error taxonomy shared by the transport and API
// client layers: HTTP failures carry their status and server-provided code,
// while business errors are a tagged variant that callers can branch on
// without relying on message text.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrUnreachable marks failures where no HTTP response was received.
var ErrUnreachable = errors.New("server unreachable")

// Error represents a non-2xx HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// BusinessError is a domain-level rejection identified by a machine-readable
// code. It bypasses generic user notification so the caller can render a
// tailored message.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("business: %s: %s", e.Code, e.Message)
}

var (
	businessMu    sync.RWMutex
	businessCodes = map[string]struct{}{
		"BOOKING_CONFLICT": {},
	}
)

// RegisterBusinessCode marks a server error code as a business error.
func RegisterBusinessCode(code string) {
	businessMu.Lock()
	defer businessMu.Unlock()
	businessCodes[code] = struct{}{}
}

func isBusinessCode(code string) bool {
	businessMu.RLock()
	defer businessMu.RUnlock()
	_, ok := businessCodes[code]
	return ok
}

// serverError mirrors the backend's error body. Both `{code, message}` and
// `{error: {code, message}}` shapes occur.
type serverError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FromResponse builds the error for a non-2xx response. Registered business
// codes produce a *BusinessError, everything else a *Error.
func FromResponse(status int, body []byte) error {
	var parsed serverError
	_ = json.Unmarshal(body, &parsed)

	code := parsed.Code
	message := parsed.Message
	if parsed.Error != nil {
		if code == "" {
			code = parsed.Error.Code
		}
		if message == "" {
			message = parsed.Error.Message
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if isBusinessCode(code) {
		return &BusinessError{Code: code, Message: message}
	}
	return &Error{Status: status, Code: code, Message: message}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// AsBusiness extracts the business variant, if any.
func AsBusiness(err error) (*BusinessError, bool) {
	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		return bizErr, true
	}
	return nil, false
}

// MessageOf resolves the user-facing message for err.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		return bizErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
