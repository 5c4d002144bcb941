package errors

import "fmt"

// OrchestrationError is the error type every Conductor component returns
// across its public boundary: a stable Code plus the RPC-facing
// Hint/Expected/Field triple named by spec.md §7.
type OrchestrationError struct {
	Code     Code
	Message  string
	Field    string
	Expected string
	Hint     string
	Cause    error
}

func (e *OrchestrationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Cause
}

// As reports whether err is (or wraps) an *OrchestrationError and returns it.
func As(err error) (*OrchestrationError, bool) {
	oe, ok := err.(*OrchestrationError)
	if ok {
		return oe, true
	}
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
		oe, ok := err.(*OrchestrationError)
		if ok {
			return oe, true
		}
	}
}

// CodeOf extracts the Code of err, defaulting to InternalError for
// unrecognised errors so the facade never leaks an unmapped error shape.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if oe, ok := As(err); ok {
		return oe.Code
	}
	return InternalError
}

func New(code Code, message string) *OrchestrationError {
	return &OrchestrationError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *OrchestrationError {
	return &OrchestrationError{Code: code, Message: message, Cause: cause}
}

// MissingFieldErr builds a MISSING_FIELD error naming the absent field,
// an expected shape, and a usage hint.
func MissingFieldErr(field, expected, hint string) *OrchestrationError {
	return &OrchestrationError{
		Code:     MissingField,
		Message:  fmt.Sprintf("required field %q was not provided", field),
		Field:    field,
		Expected: expected,
		Hint:     hint,
	}
}

func NotFoundErr(kind string, id string) *OrchestrationError {
	return &OrchestrationError{
		Code:    NotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
	}
}

func CrossTenantWriteErr(kind, id string) *OrchestrationError {
	return &OrchestrationError{
		Code:    CrossTenantWrite,
		Message: fmt.Sprintf("%s %s belongs to a different tenant", kind, id),
	}
}

func AuthRequiredErr() *OrchestrationError {
	return &OrchestrationError{Code: AuthRequired, Message: "authentication is required"}
}

func PermissionDeniedErr(scope string) *OrchestrationError {
	return &OrchestrationError{
		Code:    PermissionDenied,
		Message: fmt.Sprintf("missing required scope %q", scope),
		Hint:    "request a token with the required scope",
	}
}

func InvalidTokenErr(reason string) *OrchestrationError {
	return &OrchestrationError{Code: InvalidToken, Message: reason}
}

func RateLimitErr(window string) *OrchestrationError {
	return &OrchestrationError{
		Code:    RateLimitExceeded,
		Message: fmt.Sprintf("rate limit exceeded (%s window)", window),
	}
}

func ValidationErr(message string) *OrchestrationError {
	return &OrchestrationError{Code: ValidationError, Message: message}
}

func DuplicateNameErr(kind, name string) *OrchestrationError {
	return &OrchestrationError{
		Code:    DuplicateName,
		Message: fmt.Sprintf("%s named %q already exists", kind, name),
		Field:   "name",
	}
}

func DependenciesUnsatisfiedErr(blockers []string) *OrchestrationError {
	return &OrchestrationError{
		Code:    DependenciesUnsatisfied,
		Message: "blocking dependencies are not done",
		Expected: fmt.Sprintf("blockers: %v", blockers),
	}
}

func ConcurrentModificationErr(kind, id string) *OrchestrationError {
	return &OrchestrationError{
		Code:    ConcurrentModification,
		Message: fmt.Sprintf("%s %s was modified concurrently, retry with a fresh version", kind, id),
	}
}

func InternalErr(correlationID string, cause error) *OrchestrationError {
	return &OrchestrationError{
		Code:    InternalError,
		Message: fmt.Sprintf("internal error (correlation id: %s)", correlationID),
		Cause:   cause,
	}
}

func UnknownActionErr(action string) *OrchestrationError {
	return &OrchestrationError{
		Code:    UnknownAction,
		Message: fmt.Sprintf("unknown action %q", action),
	}
}
