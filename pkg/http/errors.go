package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows its HTTP status and wire code.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func newAppError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithParam adds one entry to Params.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = map[string]interface{}{}
	}
	e.Params[key] = value
	return e
}

// WithCode replaces the default code of the constructor.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithError attaches the cause; it is logged but never serialised.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", message)
}

func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

func UnprocessableError(message string) *AppError {
	return newAppError(http.StatusUnprocessableEntity, "ERR_UNPROCESSABLE", message)
}

// BadGatewayError reports a failed or unusable upstream answer.
func BadGatewayError(message string) *AppError {
	return newAppError(http.StatusBadGateway, "ERR_UPSTREAM", message)
}

func InternalError(message string) *AppError {
	return newAppError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}
