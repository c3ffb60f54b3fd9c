package tcmb

import (
	"errors"
	"fmt"

	"github.com/tcmb/tcmb-go/transport"
)

// Error codes. Each belongs to one class: configuration, resolution,
// transport or response.
const (
	CodeMissingAPIKey     = "missing_api_key"     // configuration
	CodeInvalidDate       = "invalid_date"        // configuration
	CodeInvalidArgument   = "invalid_argument"    // configuration
	CodeNoSeriesFound     = "no_series_found"     // resolution
	CodeNoData            = "no_data"             // resolution
	CodeHTTPStatus        = "http_status"         // transport
	CodeInvalidSeriesCode = "invalid_series_code" // transport
	CodeRequestFailed     = "request_failed"      // transport
	CodeInvalidResponse   = "invalid_response"    // response
)

// Sentinel errors for use with errors.Is.
var (
	ErrMissingAPIKey     = &Error{Code: CodeMissingAPIKey, Message: "no API key provided"}
	ErrInvalidDate       = &Error{Code: CodeInvalidDate, Message: "invalid date"}
	ErrInvalidArgument   = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrNoSeriesFound     = &Error{Code: CodeNoSeriesFound, Message: "no series found"}
	ErrNoData            = &Error{Code: CodeNoData, Message: "no data in response"}
	ErrHTTPStatus        = &Error{Code: CodeHTTPStatus, Message: "unexpected HTTP status"}
	ErrInvalidSeriesCode = &Error{Code: CodeInvalidSeriesCode, Message: "invalid series code"}
	ErrRequestFailed     = &Error{Code: CodeRequestFailed, Message: "request failed"}
	ErrInvalidResponse   = &Error{Code: CodeInvalidResponse, Message: "invalid response format"}
)

// Error represents an EVDS client error.
type Error struct {
	Code       string // Error code
	Message    string // Human-readable message
	Details    string // Additional details (pattern, date string, response text)
	StatusCode int    // HTTP status for CodeHTTPStatus
	Err        error  // Underlying cause
}

func (e *Error) Error() string {
	msg := "tcmb: " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil && e.Code != CodeHTTPStatus {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is implements errors.Is for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err was raised by client-side validation
// before any I/O.
func IsConfigError(err error) bool {
	return hasCode(err, CodeMissingAPIKey, CodeInvalidDate, CodeInvalidArgument)
}

// IsResolutionError reports whether a lookup matched nothing.
func IsResolutionError(err error) bool {
	return hasCode(err, CodeNoSeriesFound, CodeNoData)
}

// IsTransportError reports whether the service or the network rejected a
// request.
func IsTransportError(err error) bool {
	return hasCode(err, CodeHTTPStatus, CodeInvalidSeriesCode, CodeRequestFailed)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func hasCode(err error, codes ...string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

func configError(code, details string) error {
	switch code {
	case CodeMissingAPIKey:
		return &Error{Code: code, Message: "no API key provided", Details: details}
	case CodeInvalidDate:
		return &Error{Code: code, Message: "invalid date", Details: details}
	default:
		return &Error{Code: CodeInvalidArgument, Message: "invalid argument", Details: details}
	}
}

func noSeriesFound(pattern string) error {
	return &Error{Code: CodeNoSeriesFound, Message: "no series found", Details: fmt.Sprintf("pattern %q matched nothing", pattern)}
}

func invalidResponse(details string, err error) error {
	return &Error{Code: CodeInvalidResponse, Message: "invalid response format", Details: details, Err: err}
}

// transportError converts a transport failure into an *Error, keeping the
// original status and response detail.
func transportError(err error) error {
	var se *transport.StatusError
	if errors.As(err, &se) {
		return &Error{
			Code:       CodeHTTPStatus,
			Message:    "unexpected HTTP status",
			Details:    se.Detail,
			StatusCode: se.StatusCode,
			Err:        err,
		}
	}
	return &Error{Code: CodeRequestFailed, Message: "request failed", Err: err}
}
