// Package errors defines the closed set of RPC error codes and the
// enhanced error type every Conductor component returns, carrying the
// stable vocabulary of spec.md §6/§7.
package errors

// Code is the closed enumeration of stable RPC error codes (§6).
type Code string

const (
	MissingField          Code = "MISSING_FIELD"
	ValidationError        Code = "VALIDATION_ERROR"
	UnknownAction          Code = "UNKNOWN_ACTION"
	AuthRequired           Code = "AUTH_REQUIRED"
	PermissionDenied       Code = "PERMISSION_DENIED"
	InvalidToken           Code = "INVALID_TOKEN"
	RateLimitExceeded      Code = "RATE_LIMIT_EXCEEDED"
	NotFound               Code = "NOT_FOUND"
	DuplicateName          Code = "DUPLICATE_NAME"
	DependenciesUnsatisfied Code = "DEPENDENCIES_UNSATISFIED"
	ConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CrossTenantWrite       Code = "CROSS_TENANT_WRITE"
	InternalError          Code = "INTERNAL_ERROR"
)

// Retryable reports whether the caller may retry the operation as-is
// (§7: concurrency failures are classified retryable).
func (c Code) Retryable() bool {
	return c == ConcurrentModification
}
