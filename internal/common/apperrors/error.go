// Package apperrors provides the error type used across the checkout sessions module.
// Errors are derived from one another so that a specific failure still matches its
// family with errors.Is, and can carry the HTTP status code reported by the backend.
package apperrors

// Error extends the standard error interface with derivation, wrapping and status codes.
// All methods return a new Error and never mutate the receiver.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // derives a new error using current as the parent
	Msg(msg string) Error                  // derives a new error with message and wraps current
	MsgErr(msg string, err ...error) Error // derives a new error with message and wraps extra errors
	Err(err ...error) Error                // keeps the message and attaches the given causes
	SetStatusCode(int) Error               // sets the HTTP status code for the error
	StatusCode() int                       // returns the status code, 0 if unset
	Prefix(string) Error                   // prefixes the message, e.g. with the operation name
	ErrorAll() string                      // message followed by all attached causes
	UnwrapAll() []error                    // all attached causes
}
