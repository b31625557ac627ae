package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an Error for callers that branch on the failure category.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// Error is the structured outcome returned across every operation boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Is matches on kind so errors.Is(err, errors.ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, http.StatusNotFound, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, http.StatusConflict, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, http.StatusForbidden, fmt.Sprintf(format, args...), nil)
}

// Internal hides err from the caller; message should be generic.
func Internal(message string, err error) *Error {
	return New(KindInternal, http.StatusInternalServerError, message, err)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = New(KindValidation, http.StatusBadRequest, "Validation error", nil)
	ErrNotFound   = New(KindNotFound, http.StatusNotFound, "Not found", nil)
	ErrConflict   = New(KindConflict, http.StatusConflict, "Conflict", nil)
	ErrForbidden  = New(KindForbidden, http.StatusForbidden, "Forbidden", nil)
	ErrInternal   = New(KindInternal, http.StatusInternalServerError, "Internal server error", nil)
)

// Respond writes e as the response body. Internal errors never expose the wrapped cause.
func Respond(c *gin.Context, e *Error) {
	c.JSON(e.Code, gin.H{"error": e.Message, "kind": e.Kind})
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := err.(*Error)
		if !ok {
			appErr = Internal("Internal server error", err)
		}
		Respond(c, appErr)
		c.Abort()
	}
}
