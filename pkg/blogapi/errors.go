package blogapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed resource call.
type Kind int

const (
	KindUnknownServer Kind = iota
	KindNetwork
	KindCanceled
	KindAuth
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindDeserialization
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindCanceled:
		return "canceled"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDeserialization:
		return "deserialization"
	default:
		return "unknown_server"
	}
}

// Error is returned by every Client operation. It keeps the status code, the raw
// response body and the underlying cause so callers can decide how to react.
type Error struct {
	Kind       Kind
	Op         string
	Method     string
	Path       string
	StatusCode int
	// Message is the server supplied message, if the body carried one.
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blogapi: %s %s %s: %s", e.Op, e.Method, e.Path, e.Kind)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// classifyStatus maps a non-2xx status onto a Kind.
func classifyStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindUnknownServer
	}
}

// classifyTransport maps a transport failure (no response) onto a Kind.
func classifyTransport(ctx context.Context, err error) Kind {
	if errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)) {
		return KindCanceled
	}
	return KindNetwork
}

// serverMessage extracts {"message": ...} or {"error": ...} from an error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

// KindOf returns the Kind of err, and false when err is not a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func IsNetwork(err error) bool         { return isKind(err, KindNetwork) }
func IsCanceled(err error) bool        { return isKind(err, KindCanceled) }
func IsAuth(err error) bool            { return isKind(err, KindAuth) }
func IsForbidden(err error) bool       { return isKind(err, KindForbidden) }
func IsValidation(err error) bool      { return isKind(err, KindValidation) }
func IsNotFound(err error) bool        { return isKind(err, KindNotFound) }
func IsConflict(err error) bool        { return isKind(err, KindConflict) }
func IsUnknownServer(err error) bool   { return isKind(err, KindUnknownServer) }
func IsDeserialization(err error) bool { return isKind(err, KindDeserialization) }
