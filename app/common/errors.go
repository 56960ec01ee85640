package common

import (
	"errors"
	"fmt"
	"net/http"
)

type UserVisibleError struct {
	HttpCode int
	Message  string
}

func (e *UserVisibleError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.HttpCode, e.Message)
}

func NewUserVisibleError(httpCode int, message string) *UserVisibleError {
	return &UserVisibleError{
		HttpCode: httpCode,
		Message:  message,
	}
}

// BadRequest is a shorthand for the most common error the bridge reports.
func BadRequest(format string, args ...any) *UserVisibleError {
	return NewUserVisibleError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func WrapErrorForResponse(err error, message string) error {
	var e *UserVisibleError
	if errors.As(err, &e) {
		return &UserVisibleError{
			HttpCode: e.HttpCode,
			Message:  fmt.Sprintf("%s: %s", message, e.Message),
		}
	}
	return err
}
