package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork means no response was received (dial error, timeout, cancellation).
	KindNetwork Kind = iota
	// KindUnauthorized is a 401 response.
	KindUnauthorized
	// KindForbidden is a 403 response.
	KindForbidden
	// KindValidation is any other failure whose body carries a detail message.
	KindValidation
	// KindUnknown is any other failure with a response.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned for every failed call. StatusCode and Body are zero for
// network failures; Err is set only for them.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := e.Detail
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func networkError(method, path string, err error) *Error {
	return &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
}

func responseError(method, path string, status int, body []byte) *Error {
	detail := detailOf(body)
	return &Error{
		Kind:       kindFor(status, detail),
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     detail,
		Body:       body,
	}
}

func kindFor(status int, detail string) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case detail != "":
		return KindValidation
	default:
		return KindUnknown
	}
}

// detailOf returns the human-readable "detail" string of a JSON error body.
// Structured details (e.g. field error lists) are not messages.
func detailOf(body []byte) string {
	return stringField(body, "detail")
}

func stringField(body []byte, field string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	v := gjson.GetBytes(body, field)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// KindOf reports the classification of err. ok is false when err did not come
// from this package.
func KindOf(err error) (kind Kind, ok bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return KindUnknown, false
	}
	return apiErr.Kind, true
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUnauthorized
}

// StatusCode returns the HTTP status of err, or 0 when none was received.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message picks the text a form shows for err: the body's detail, then its
// message, then the error text itself.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if msg := stringField(apiErr.Body, "message"); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong"
}
