package discord

import (
	"errors"
	"fmt"
	"net/http"
)

// JSON error codes the client treats specially.
const (
	codeMissingAccess      = 50001
	codeMissingPermissions = 50013
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       int    `json:"code"` // Discord JSON error code, 0 if absent
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord API error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord API error %d: %s", e.StatusCode, e.Message)
}

// FatalError wraps a failure that invalidates the whole run: the credential
// is bad or cannot act on the target at all. The pipeline aborts on it
// instead of recording a per-item error.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal remote error: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// classify decides how a failed response should be handled.
type errorClass int

const (
	classPerItem errorClass = iota // surface to caller after retries
	classRateLimited               // sleep retry_after, retry same call
	classServerSide                // exponential backoff, retry
	classFatal                     // abort the run, never retry
)

func classifyStatus(status, code int) errorClass {
	switch {
	case status == http.StatusUnauthorized:
		return classFatal
	case status == http.StatusForbidden && (code == codeMissingAccess || code == codeMissingPermissions):
		return classFatal
	case status == http.StatusTooManyRequests:
		return classRateLimited
	case status >= 500:
		return classServerSide
	default:
		return classPerItem
	}
}
