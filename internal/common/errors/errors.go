package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies a class of failure. Codes are part of the HTTP error contract.
type ErrorCode string

const (
	// Generic
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Claim resolution and submission
	ErrCodeInvalidAddress        ErrorCode = "INVALID_ADDRESS"
	ErrCodeAllEndpointsExhausted ErrorCode = "ALL_ENDPOINTS_EXHAUSTED"
	ErrCodeIneligible            ErrorCode = "INELIGIBLE"
	ErrCodeBridgeUnavailable     ErrorCode = "BRIDGE_UNAVAILABLE"
	ErrCodeNoViableStrategy      ErrorCode = "NO_VIABLE_STRATEGY"
	ErrCodeVerificationFailed    ErrorCode = "VERIFICATION_FAILED"

	// Client-side claim gating
	ErrCodeSocialIncomplete ErrorCode = "SOCIAL_INCOMPLETE"
	ErrCodeCooldownActive   ErrorCode = "COOLDOWN_ACTIVE"
	ErrCodeClaimInFlight    ErrorCode = "CLAIM_IN_FLIGHT"
	ErrCodeRetryExhausted   ErrorCode = "RETRY_EXHAUSTED"

	// Infrastructure
	ErrCodeCacheError  ErrorCode = "CACHE_ERROR"
	ErrCodeExternalAPI ErrorCode = "EXTERNAL_API_ERROR"
)

// AppError is a typed application error. Message is safe to show to a user, Cause is not.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"stack,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsValidation reports errors caused by malformed caller input.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeBadRequest ||
		e.Code == ErrCodeInvalidAddress
}

// IsInternal reports errors that should be logged at error level.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeAllEndpointsExhausted ||
		e.Code == ErrCodeExternalAPI
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewInvalidAddressError(address string) *AppError {
	return New(ErrCodeInvalidAddress, "Invalid or missing user address").
		WithDetail("address", address)
}

// NewAllEndpointsExhaustedError carries the last per-endpoint error for diagnostics.
func NewAllEndpointsExhaustedError(tried int, last error) *AppError {
	return Wrap(last, ErrCodeAllEndpointsExhausted, "Failed to fetch user claim status from any RPC endpoint").
		WithDetail("endpoints_tried", tried)
}

func NewIneligibleError(reason string) *AppError {
	if reason == "" {
		reason = "You are not eligible to claim at this time"
	}
	return New(ErrCodeIneligible, reason)
}

func NewBridgeUnavailableError() *AppError {
	return New(ErrCodeBridgeUnavailable, "Wallet is not installed. Please install it first.")
}

func NewNoViableStrategyError(attempts int, last error) *AppError {
	return Wrap(last, ErrCodeNoViableStrategy,
		"Could not obtain a valid transaction ID after multiple attempts. Please try again or contact support.").
		WithDetail("attempts", attempts)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewExternalAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeExternalAPI, fmt.Sprintf("External API call failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil || !stderrors.As(err, &appErr) {
		return nil, false
	}
	return appErr, true
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// UserMessage returns the text shown to an end user. Raw causes are never exposed.
func UserMessage(err error, fallback string) string {
	if appErr, ok := AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
