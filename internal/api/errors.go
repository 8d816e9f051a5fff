package api

import (
	"errors"
	"fmt"
	"net/http"

	"transsrt/internal/config"
	"transsrt/internal/services"
)

// Error codes returned to API clients.
const (
	CodeNoFile            = "NO_FILE"
	CodeInvalidFile       = "INVALID_FILE"
	CodeInvalidLanguage   = "INVALID_LANGUAGE"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeInvalidFormat     = "INVALID_SUBTITLE_FORMAT"
	CodeValidationFailed  = "TRANSLATION_VALIDATION_FAILED"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeTimeout           = "TIMEOUT"
	CodeEngineUnavailable = "ENGINE_UNAVAILABLE"
	CodeMissingAPIKey     = "MISSING_API_KEY"
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeTranslationFailed = "TRANSLATION_FAILED"
	CodeCanceled          = "REQUEST_CANCELED"
	CodeInternal          = "INTERNAL_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeInvalidJobQuery   = "INVALID_QUERY"
)

// RequestError rejects an upload before any translation work starts.
type RequestError struct {
	Code    string
	Message string
	Status  int
}

// NewRequestError returns a 400 request error.
func NewRequestError(code, message string) *RequestError {
	return &RequestError{Code: code, Message: message, Status: http.StatusBadRequest}
}

func (e *RequestError) Error() string { return e.Message }

// Unwrap classifies request errors as invalid arguments.
func (e *RequestError) Unwrap() error { return services.ErrInvalidArgument }

// ErrorFor maps err to an HTTP status and error body.
func ErrorFor(err error) (int, ErrorBody) {
	if err == nil {
		return http.StatusOK, ErrorBody{}
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status := reqErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return status, body(reqErr.Code, reqErr.Message)
	}
	if errors.Is(err, config.ErrMissingAPIKey) {
		return http.StatusInternalServerError, body(CodeMissingAPIKey, "Translation engine API key not configured")
	}

	switch services.KindOf(err) {
	case services.KindRateLimit:
		return http.StatusTooManyRequests, body(CodeRateLimit, "Rate limit exceeded. Please try again later.")
	case services.KindTimeout:
		return http.StatusGatewayTimeout, body(CodeTimeout, "Translation timed out. File may be too large.")
	case services.KindInvalidFormat, services.KindEmptyInput:
		return http.StatusBadRequest, body(CodeInvalidFormat, err.Error())
	case services.KindValidation:
		return http.StatusUnprocessableEntity, body(CodeValidationFailed, err.Error())
	case services.KindInvalidArgument:
		return http.StatusBadRequest, body(CodeInvalidFile, err.Error())
	case services.KindUnavailable:
		return http.StatusServiceUnavailable, body(CodeEngineUnavailable, "Translation engine temporarily unavailable. Please try again later.")
	case services.KindConfiguration:
		return http.StatusInternalServerError, body(CodeConfiguration, err.Error())
	case services.KindCanceled:
		return http.StatusServiceUnavailable, body(CodeCanceled, "Request canceled before translation finished")
	case services.KindEngine, services.KindEmptyResponse, services.KindReassembly:
		return http.StatusInternalServerError, body(CodeTranslationFailed, fmt.Sprintf("Translation failed: %v", err))
	default:
		return http.StatusInternalServerError, body(CodeInternal, fmt.Sprintf("An unexpected error occurred: %v", err))
	}
}

// NewErrorBody builds an error body for handlers that do not go through ErrorFor.
func NewErrorBody(code, message string) ErrorBody {
	return body(code, message)
}

func body(code, message string) ErrorBody {
	return ErrorBody{Error: ErrorDetail{Code: code, Message: message}}
}
