package engine

import "fmt"

// AppError is a client-facing error: a stable code, an HTTP status, and a
// human-readable message. Anything that is not an AppError (and not
// store.ErrNotFound) is treated as a storage failure and mapped to 500 at
// the router boundary.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  400,
		Message: fmt.Sprintf("Unknown entity: %s", name),
	}
}

func InvalidFieldError(entity, field string) *AppError {
	return &AppError{
		Code:    "INVALID_FIELD",
		Status:  400,
		Message: fmt.Sprintf("Unknown field for %s: %s", entity, field),
	}
}

func InvalidValueError(field string, err error) *AppError {
	return &AppError{
		Code:    "INVALID_FIELD",
		Status:  400,
		Message: fmt.Sprintf("Invalid value for %s: %v", field, err),
	}
}

func NotFoundError(entity string, id int64) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}
