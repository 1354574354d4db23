package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryValidation   ErrorCategory = "VALIDATION"
	CategoryNotFound     ErrorCategory = "NOT_FOUND"
	CategoryConflict     ErrorCategory = "CONFLICT"
	CategoryUnauthorized ErrorCategory = "UNAUTHORIZED"
	CategoryInternal     ErrorCategory = "INTERNAL"
	CategoryExternal     ErrorCategory = "EXTERNAL"
)

// DomainError classifies a failure so the HTTP boundary can map it to a
// status and error code without inspecting internals.
type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	Unwrap() error
	WithCause(cause error) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) HTTPStatus() int {
	return e.status
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) Unwrap() error {
	return e.cause
}

func (e *domainError) WithCause(cause error) DomainError {
	return &domainError{
		code:     e.code,
		category: e.category,
		status:   e.status,
		message:  e.message,
		cause:    cause,
	}
}

// Is lets errors.Is match a caused variant against its base sentinel.
func (e *domainError) Is(target error) bool {
	var de *domainError
	if !errors.As(target, &de) {
		return false
	}
	return e.code == de.code
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		status:   status,
		message:  message,
	}
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrMissingRequiredEnv = NewDomainError(
		"MISSING_REQUIRED_ENV",
		CategoryValidation,
		http.StatusInternalServerError,
		"missing required environment variable",
	)

	ErrWrongCredentials = NewDomainError(
		"WRONG_CREDENTIALS",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"wrong credentials",
	)

	ErrMissingToken = NewDomainError(
		"MISSING_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token is required",
	)

	ErrInvalidPublicToken = NewDomainError(
		"INVALID_PUBLIC_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"public token is invalid or expired",
	)

	ErrPublicKeyInvalid = NewDomainError(
		"PUBLIC_KEY_INVALID",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"public key invalid",
	)

	ErrInvalidToken = NewDomainError(
		"INVALID_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token is not valid",
	)

	ErrInvalidTokenSchema = NewDomainError(
		"INVALID_TOKEN_SCHEMA",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token claims are malformed",
	)

	ErrInvalidRefreshToken = NewDomainError(
		"INVALID_REFRESH_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token is not valid",
	)

	ErrRefreshTokenExpired = NewDomainError(
		"REFRESH_TOKEN_EXPIRED",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token has expired",
	)

	ErrRefreshTokenExists = NewDomainError(
		"REFRESH_TOKEN_EXISTS",
		CategoryConflict,
		http.StatusConflict,
		"refresh token already exists",
	)

	ErrUserNotFound = NewDomainError(
		"USER_NOT_FOUND",
		CategoryNotFound,
		http.StatusNotFound,
		"user not found",
	)

	ErrInternalError = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
