package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Credential module errors
// 13000-13999: Execution module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	Unauthorized        ErrorCode = 10004
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007

	// Database errors (10100-10199)
	DatabaseError ErrorCode = 10100

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Credential Module Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005

	// Registration (11100-11199)
	UserAlreadyExists ErrorCode = 11100
	InvalidName       ErrorCode = 11102
	InvalidEmail      ErrorCode = 11103
	InvalidPassword   ErrorCode = 11104
	PasswordTooWeak   ErrorCode = 11105

	// ========== Execution Module Errors (13000-13999) ==========

	// Dispatch (13000-13099)
	CodeTooLarge         ErrorCode = 13002
	LanguageNotSupported ErrorCode = 13003

	// Remote executor (13100-13199)
	RemoteExecutionFailed ErrorCode = 13100
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Server error",
	InvalidParams:       "Invalid request",
	Unauthorized:        "Unauthorized access",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",

	// Database
	DatabaseError: "Database operation failed",

	// Validation
	ValidationFailed: "Validation failed",

	// Credential - Authentication
	InvalidCredentials:    "Invalid credentials",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Invalid token",
	TokenGenerationFailed: "Failed to generate token",

	// Credential - Registration
	UserAlreadyExists: "User already exists",
	InvalidName:       "Invalid name",
	InvalidEmail:      "Invalid email format",
	InvalidPassword:   "Invalid password format",
	PasswordTooWeak:   "Password is too weak",

	// Execution
	CodeTooLarge:          "Code is too large",
	LanguageNotSupported:  "Invalid language",
	RemoteExecutionFailed: "Code execution failed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == TokenGenerationFailed:
		return 500
	case c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return 401
	case c == CodeTooLarge:
		return 413
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 11000 && c < 11200: // Login and registration input errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported:
		return 400
	default:
		return 500
	}
}
