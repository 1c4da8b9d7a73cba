package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the internal cause.
func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:          http.StatusBadRequest,
	apperrors.CodeLocationNotFound:      http.StatusNotFound,
	apperrors.CodeNoStation:             http.StatusNotFound,
	apperrors.CodeLocationUnsupported:   http.StatusUnprocessableEntity,
	apperrors.CodeProviderBusy:          http.StatusTooManyRequests,
	apperrors.CodeLLMOverloaded:         http.StatusServiceUnavailable,
	apperrors.CodeProviderMisconfigured: http.StatusInternalServerError,
	apperrors.CodeConfig:                http.StatusInternalServerError,
	apperrors.CodeConnectivity:          http.StatusBadGateway,
	apperrors.CodeProviderError:         http.StatusBadGateway,
	apperrors.CodeLLM:                   http.StatusBadGateway,
	apperrors.CodeInvalidOutput:         http.StatusBadGateway,
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if appErr, ok := apperrors.As(err); ok {
		status, known := statusByCode[appErr.Code]
		if !known {
			status = http.StatusInternalServerError
		}
		return &HTTPError{
			Status:  status,
			Code:    appErr.Code,
			Message: apperrors.MessageOf(appErr),
			Err:     err,
		}
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
