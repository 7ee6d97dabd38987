// Package apperror defines the error type services return to the HTTP
// layer. The status code travels with the error so handlers never have
// to guess one.
package apperror

// AppError carries an HTTP status code alongside a user-facing message.
// The wrapped Err is for logs and errors.Is, never for responses.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError with a status code and message. Package-level
// sentinels are the usual callers.
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap builds an AppError around an underlying error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
