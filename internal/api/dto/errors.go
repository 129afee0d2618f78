package dto

// APIError is the envelope every error response uses.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternalError = "internal_error"
	ErrCodeValidation    = "validation_error"
	ErrCodeConflict      = "conflict"
)

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return APIError{Code: ErrCodeNotFound, Message: resource + " not found"}
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return APIError{Code: ErrCodeBadRequest, Message: message}
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return APIError{Code: ErrCodeInternalError, Message: "an internal error occurred"}
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return APIError{Code: ErrCodeValidation, Message: message}
}

// ConflictError creates a conflict error response.
func ConflictError(message string) APIError {
	return APIError{Code: ErrCodeConflict, Message: message}
}
