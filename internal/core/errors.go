package core

// Error codes surfaced to the read model.
const (
	// ErrCodeUnavailable covers transport failures: non-fatal, retryable
	// by the user, local state untouched.
	ErrCodeUnavailable = "unavailable"
	// ErrCodeRejected carries a server-provided validation message,
	// shown verbatim.
	ErrCodeRejected = "rejected"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
