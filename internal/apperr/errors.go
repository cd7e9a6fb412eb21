// Package apperr defines the error taxonomy shared by every request path.
//
// Each Error carries a Kind, which fixes the HTTP and gRPC status, and a Code, which is the
// stable string clients switch on. Internal causes are wrapped and never rendered to clients
// in production.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/grpc/codes"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindAccountState
	KindConfiguration
	KindNotFound
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindAccountState:
		return "account_state"
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

type Code string

const (
	CodeValidation         Code = "VALIDATION_FAILED"
	CodeTokenMissing       Code = "TOKEN_MISSING"
	CodeTokenInvalid       Code = "TOKEN_INVALID"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeTokenRevoked       Code = "TOKEN_REVOKED"
	CodeIdentityGone       Code = "IDENTITY_NOT_FOUND"
	CodeSessionStale       Code = "SESSION_STALE"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeAccountLocked      Code = "ACCOUNT_LOCKED"
	CodeAccountPending     Code = "ACCOUNT_PENDING"
	CodeAccountDeactivated Code = "ACCOUNT_DEACTIVATED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeCSRFInvalid        Code = "CSRF_INVALID"
	CodeNotFound           Code = "NOT_FOUND"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeConfiguration      Code = "CONFIGURATION_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Fields  []FieldError
	// Status overrides the status derived from Kind. Only AccountState errors use it,
	// since locked accounts answer 401 and pending or deactivated ones answer 403.
	Status int
	// RetryAfter is how long a locked account stays locked.
	RetryAfter time.Duration
	// Inactive and User let clients render an awaiting-approval or deactivated screen.
	Inactive bool
	User     any
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Code so sentinel comparisons work through wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus returns the status code the error is rendered with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindAccountState:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps the error onto the equivalent gRPC status code.
func (e *Error) GRPCCode() codes.Code {
	switch e.HTTPStatus() {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

func Authentication(code Code, message string) *Error {
	return &Error{Kind: KindAuthentication, Code: code, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: message}
}

// Locked is an account-state error that still answers 401.
func Locked(message string) *Error {
	return &Error{Kind: KindAccountState, Code: CodeAccountLocked, Message: message, Status: http.StatusUnauthorized}
}

func AccountState(code Code, message string) *Error {
	return &Error{Kind: KindAccountState, Code: code, Message: message, Status: http.StatusForbidden}
}

// CSRF is a 403 for a missing or forged anti-forgery token.
func CSRF(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeCSRFInvalid, Message: message}
}

func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Code: CodeConfiguration, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: message}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
