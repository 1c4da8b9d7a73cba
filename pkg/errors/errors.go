package errors

import "errors"

// Codes shared between the domain services and the HTTP transport.
const (
	CodeInvalidInput          = "invalid_input"
	CodeConfig                = "config_error"
	CodeLocationNotFound      = "location_not_found"
	CodeNoStation             = "no_station"
	CodeLocationUnsupported   = "location_unsupported"
	CodeProviderBusy          = "provider_busy"
	CodeProviderMisconfigured = "provider_misconfigured"
	CodeProviderError         = "provider_error"
	CodeConnectivity          = "connectivity_error"
	CodeLLMOverloaded         = "llm_overloaded"
	CodeLLM                   = "llm_error"
	CodeInvalidOutput         = "invalid_output"
)

const genericMessage = "something went wrong"

// AppError encodes domain specific error details.
// Message is safe to show to end users, Err carries the internal cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or "" when err is not one.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the user facing message without internal detail.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericMessage
}

// As reports whether err already is an AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
