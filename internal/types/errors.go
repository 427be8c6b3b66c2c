package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants. Handlers MUST use these constants instead
// of hardcoded strings. The leading segment of each code is its classification
// tag (validation, not_found, rate_limit, upstream/network, api).
const (
	// Validation (400)
	ErrCodeValidationMissingDate      ErrorCode = "validation_missing_date"
	ErrCodeValidationMissingTemp      ErrorCode = "validation_missing_temperature"
	ErrCodeValidationMissingCondition ErrorCode = "validation_missing_condition"
	ErrCodeValidationInvalidTokens    ErrorCode = "validation_invalid_token_amount"
	ErrCodeValidationInvalidCondition ErrorCode = "validation_invalid_condition"
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationOrderForm        ErrorCode = "validation_order_form"

	// Not Found (404)
	ErrCodeNotFoundCity      ErrorCode = "not_found_city"
	ErrCodeNotFoundOperation ErrorCode = "not_found_operation"

	// Local rate limiting (429)
	ErrCodeRateLimit ErrorCode = "rate_limit_exceeded"

	// Network / upstream (502)
	ErrCodeNetwork              ErrorCode = "network_unreachable"
	ErrCodeUpstreamWeather      ErrorCode = "upstream_weather_unavailable"
	ErrCodeUpstreamGeocoding    ErrorCode = "upstream_geocoding_unavailable"
	ErrCodeUpstreamRateLimited  ErrorCode = "upstream_rate_limited"
	ErrCodeAPICredentialsAbsent ErrorCode = "api_credentials_missing"

	// Internal (500)
	ErrCodeInternalStore      ErrorCode = "internal_store_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// Classification tags per the error taxonomy. The UI picks its display
// message (title, body, icon) by tag, not by individual code.
const (
	ClassNetwork    = "network"
	ClassAPI        = "api"
	ClassNotFound   = "not_found"
	ClassRateLimit  = "rate_limit"
	ClassValidation = "validation"
)

// Classification maps an ErrorCode to its taxonomy tag.
func (c ErrorCode) Classification() string {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return ClassValidation
	case strings.HasPrefix(s, "not_found_"):
		return ClassNotFound
	case s == string(ErrCodeRateLimit):
		return ClassRateLimit
	case strings.HasPrefix(s, "network_"):
		return ClassNetwork
	default:
		// Upstream service errors, missing credentials and internal faults
		// all surface to the UI as service errors.
		return ClassAPI
	}
}

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case s == string(ErrCodeRateLimit), s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests // 429
	case strings.HasPrefix(s, "network_"), strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	case s == string(ErrCodeAPICredentialsAbsent):
		return http.StatusBadGateway // 502: upstream misconfiguration, not the caller's fault
	case strings.HasPrefix(s, "internal_"):
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent error formatting,
// HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// DisplayMessage is the user-facing text catalogue entry for one error
// classification.
type DisplayMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// displayCatalogue holds the per-classification display texts shown by the UI.
var displayCatalogue = map[string]DisplayMessage{
	ClassNetwork: {
		Title:   "Connection Error",
		Message: "Please check your internet connection and try again.",
		Icon:    "🌐",
	},
	ClassAPI: {
		Title:   "Service Error",
		Message: "The weather service is temporarily unavailable. Please try again later.",
		Icon:    "⚠️",
	},
	ClassValidation: {
		Title:   "Invalid Input",
		Message: "Please correct the highlighted fields and try again.",
		Icon:    "❌",
	},
	ClassRateLimit: {
		Title:   "Too Many Requests",
		Message: "You are doing that too fast. Please wait a few moments.",
		Icon:    "⏳",
	},
	ClassNotFound: {
		Title:   "City Not Found",
		Message: "We could not find the city you entered. Check the spelling and try again.",
		Icon:    "🔍",
	},
}

// DisplayMessageFor returns the catalogue entry for a classification tag.
// Unknown tags fall back to the generic service error entry.
func DisplayMessageFor(classification string) DisplayMessage {
	if msg, ok := displayCatalogue[classification]; ok {
		return msg
	}
	return displayCatalogue[ClassAPI]
}
