package apperrors

// ErrorCode identifies a failure class in API responses.
type ErrorCode string

const (
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorCodeDeviceNotFound    ErrorCode = "DEVICE_NOT_FOUND"
	ErrorCodeEntityNotFound    ErrorCode = "ENTITY_NOT_FOUND"
	ErrorCodeDeviceUnreachable ErrorCode = "DEVICE_UNREACHABLE"
	ErrorCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorCodeCommandRejected   ErrorCode = "COMMAND_REJECTED"
	ErrorCodeCapacityExceeded  ErrorCode = "CAPACITY_EXCEEDED"
	ErrorCodeDuplicateDevice   ErrorCode = "DUPLICATE_DEVICE"
	ErrorCodeConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrorCodeAuthTokenExpired  ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCodeAuthTokenInvalid  ErrorCode = "AUTH_TOKEN_INVALID"
	ErrorCodePairingInvalid    ErrorCode = "AUTH_PAIRING_INVALID"
)

// ErrorType categorizes errors in the serialized payload.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeAPIError       ErrorType = "api_error"
	ErrorTypeAuthError      ErrorType = "authentication_error"
	ErrorTypeDeviceError    ErrorType = "device_error"
)

// ErrorBody is the serialized error payload.
type ErrorBody struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// AppError is the base error type for HTTP responses.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (err *AppError) Error() string {
	return err.Message
}

// ErrorBody returns the error in wire format.
func (err *AppError) ErrorBody() ErrorBody {
	errType := ErrorTypeAPIError
	switch {
	case err.StatusCode == 401 || err.StatusCode == 403:
		errType = ErrorTypeAuthError
	case err.Code == ErrorCodeDeviceUnreachable || err.Code == ErrorCodeCommandRejected || err.Code == ErrorCodeMalformedResponse:
		errType = ErrorTypeDeviceError
	case err.StatusCode >= 400 && err.StatusCode < 500:
		errType = ErrorTypeInvalidRequest
	}

	return ErrorBody{
		Type:    errType,
		Code:    string(err.Code),
		Message: err.Message,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, 400, details)
}

func NewUnauthorizedError(message string, code ...ErrorCode) *AppError {
	errCode := ErrorCodeUnauthorized
	if len(code) > 0 {
		errCode = code[0]
	}
	return NewAppError(errCode, message, 401, nil)
}

func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{"resource": resource}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewConflictError(code ErrorCode, message string, details map[string]any) *AppError {
	return NewAppError(code, message, 409, details)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError("Internal server error")
}
