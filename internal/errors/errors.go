// Package errors defines the analyzer's error taxonomy. Every failure
// that crosses a package boundary is an AppError: an errbuilder error
// annotated with a category and the HTTP status the gin middleware
// should answer with. The category also drives retry decisions; see
// IsRetryableError.
package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory groups errors by how callers should react to them.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNetwork       ErrorCategory = "network"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryInternal      ErrorCategory = "internal"
	CategoryExternalAPI   ErrorCategory = "external_api"
	CategoryConfiguration ErrorCategory = "configuration"
)

// displayCodes maps errbuilder codes to the stable codes surfaced in
// Error() strings and logs.
var displayCodes = map[errbuilder.ErrCode]string{
	errbuilder.CodeInvalidArgument:    "VALIDATION_ERROR",
	errbuilder.CodeUnavailable:        "NETWORK_ERROR",
	errbuilder.CodeDeadlineExceeded:   "TIMEOUT_ERROR",
	errbuilder.CodeResourceExhausted:  "RATE_LIMIT_EXCEEDED",
	errbuilder.CodeInternal:           "INTERNAL_ERROR",
	errbuilder.CodeFailedPrecondition: "CONFIGURATION_ERROR",
}

// AppError is the one error type the HTTP layer understands.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

func (e *AppError) Error() string {
	code, ok := displayCodes[e.ErrBuilder.ErrCode()]
	if !ok {
		code = "UNKNOWN_ERROR"
	}
	return fmt.Sprintf("[%s] %s", code, e.ErrBuilder.Msg)
}

// Unwrap exposes the cause chain for errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// newAppError assembles an AppError. details and cause may be nil.
func newAppError(code errbuilder.ErrCode, category ErrorCategory, status int, msg string, details *errbuilder.ErrorMap, cause error) *AppError {
	builder := errbuilder.New().WithCode(code).WithMsg(msg)
	if details != nil {
		builder = builder.WithDetails(errbuilder.NewErrDetails(*details))
	}
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: status,
		Timestamp:  time.Now(),
	}
}

func detail(key, value string) *errbuilder.ErrorMap {
	m := errbuilder.ErrorMap{}
	m.Set(key, errors.New(value))
	return &m
}

// NewInvalidRepoURLError reports input without a parseable
// github.com/{owner}/{repo} reference.
func NewInvalidRepoURLError(input string) *AppError {
	return newAppError(errbuilder.CodeInvalidArgument, CategoryValidation, http.StatusBadRequest,
		"Invalid GitHub URL", detail("input", input), nil)
}

// NewMissingInputError reports an analysis request with no repository
// URL at all.
func NewMissingInputError() *AppError {
	return newAppError(errbuilder.CodeInvalidArgument, CategoryValidation, http.StatusBadRequest,
		"repo_url is required", nil, nil)
}

// NewNetworkError wraps a transport-level failure reaching an upstream.
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(errbuilder.CodeUnavailable, CategoryNetwork, http.StatusBadGateway,
		message, nil, cause)
}

// NewTimeoutError wraps a deadline or cancellation.
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(errbuilder.CodeDeadlineExceeded, CategoryTimeout, http.StatusGatewayTimeout,
		message, nil, cause)
}

// NewRateLimitError reports an exhausted request budget. retryAfter is
// seconds, echoed in the error details.
func NewRateLimitError(retryAfter string) *AppError {
	return newAppError(errbuilder.CodeResourceExhausted, CategoryRateLimit, http.StatusTooManyRequests,
		"Rate limit exceeded", detail("retry_after", retryAfter), nil)
}

// NewForgeAPIError reports a non-2xx response from the GitHub API.
func NewForgeAPIError(statusCode int, endpoint string, cause error) *AppError {
	details := detail("endpoint", endpoint)
	details.Set("status_code", errors.New(strconv.Itoa(statusCode)))
	return newAppError(errbuilder.CodeUnavailable, CategoryExternalAPI, http.StatusBadGateway,
		"GitHub API error", details, cause)
}

// NewInternalError reports a bug or broken invariant. In debug and test
// modes it carries a stack trace for the logs.
func NewInternalError(message string, cause error) *AppError {
	appErr := newAppError(errbuilder.CodeInternal, CategoryInternal, http.StatusInternalServerError,
		"Internal server error", detail("internal_details", message), cause)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError reports invalid or missing configuration.
func NewConfigurationError(message string, cause error) *AppError {
	return newAppError(errbuilder.CodeFailedPrecondition, CategoryConfiguration, http.StatusInternalServerError,
		"Configuration error", detail("config_details", message), cause)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler turns errors attached to the gin context into structured
// JSON responses. Handlers either call c.Error and return, or render an
// AppError themselves; this middleware covers the former.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		appErr.RequestID = c.GetHeader("X-Request-ID")

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, ErrorResponse(appErr))
	}
}

// ErrorResponse renders the stable JSON body for an AppError.
func ErrorResponse(appErr *AppError) gin.H {
	body := gin.H{
		"error":    appErr.ErrBuilder.Msg,
		"category": string(appErr.Category),
	}
	if appErr.RequestID != "" {
		body["request_id"] = appErr.RequestID
	}
	return body
}

// RecoveryHandler converts panics into internal-error responses instead
// of dropped connections.
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, ErrorResponse(appErr))
	})
}

// ToAppError coerces any error into an AppError, classifying raw
// transport errors by their text and context errors by identity.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return &AppError{
			ErrBuilder: ebErr,
			Category:   CategoryInternal,
			HTTPStatus: http.StatusInternalServerError,
			Timestamp:  time.Now(),
		}
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network is unreachable"):
		return NewNetworkError("Network connection failed", err)
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError writes the error at a level matching its category: client
// mistakes warn, upstream trouble informs, bugs and bad config error.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	msg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryRateLimit:
		if details := err.ErrBuilder.Details; len(details.Errors) > 0 {
			logEntry.Warn(msg, "details", details.Errors)
		} else {
			logEntry.Warn(msg)
		}
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		if cause != nil {
			logEntry.Info(msg, "cause", cause)
		} else {
			logEntry.Info(msg)
		}
	default:
		if cause != nil {
			logEntry.Error(msg, "cause", cause)
		} else {
			logEntry.Error(msg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError reports whether a retry might help: transient
// transport and upstream failures yes, caller mistakes no.
func IsRetryableError(err error) bool {
	switch ToAppError(err).Category {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// SafeClose closes a resource, logging instead of returning the error.
// For defers where the close failure is worth noting but not acting on.
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
