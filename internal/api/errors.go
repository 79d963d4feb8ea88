package api

import (
	"fmt"
	"net/http"
	"strings"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func statusError(code int) *ApiError {
	return &ApiError{
		StatusCode: code,
		Message:    strings.ToLower(http.StatusText(code)),
	}
}

func NewBadRequestError() *ApiError {
	return statusError(http.StatusBadRequest)
}

func NewNotFoundError() *ApiError {
	return statusError(http.StatusNotFound)
}

func NewUnauthorizedError() *ApiError {
	return statusError(http.StatusUnauthorized)
}

func NewForbiddenError() *ApiError {
	return statusError(http.StatusForbidden)
}

func NewConflictError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusConflict,
		Message:    msg,
	}
}

func NewInternalServerError(err error) *ApiError {
	e := statusError(http.StatusInternalServerError)
	e.Err = err
	return e
}
