package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies an expected authorization failure. Unexpected conditions
// (storage down, programming errors) are plain errors and never get a Kind.
type Kind string

const (
	KindMissingAuthorization Kind = "missing_authorization"
	KindImproperFormat       Kind = "improper_format"
	KindMissingClaims        Kind = "missing_required_claims"
	KindTypeNotPermitted     Kind = "authorization_type_not_permitted"
	KindExpired              Kind = "authorization_expired"
	KindUserNotFound         Kind = "user_not_found"
	KindNotPermitted         Kind = "not_permitted"
	KindMultipleTokens       Kind = "multiple_distinct_tokens"
	KindInvalidOTP           Kind = "invalid_otp"
	KindCredentials          Kind = "credentials"
	KindAlreadyExists        Kind = "already_exists"
	KindNotFound             Kind = "not_found"
)

// Error is a terminal, non-retried authorization failure. Logout instructs the
// transport layer to clear any session cookie: the presented credential is
// known-bad and must not be resubmitted.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Logout bool

	// MissingClaims is set only for KindMissingClaims
	MissingClaims []string
}

func (e *Error) Error() string {
	return e.Detail
}

// New builds an Error for failures without a dedicated constructor.
func New(kind Kind, status int, detail string, logout bool) *Error {
	return &Error{Kind: kind, Status: status, Detail: detail, Logout: logout}
}

// ErrMissingAuthorization reports that no candidate token was present.
func ErrMissingAuthorization(cookieName string) *Error {
	return New(KindMissingAuthorization, http.StatusUnauthorized,
		fmt.Sprintf("Missing Authorization header or %s cookie", cookieName), true)
}

func ErrImproperFormat() *Error {
	return New(KindImproperFormat, http.StatusBadRequest,
		"Improper format for authorization token", true)
}

func ErrMissingRequiredClaims(claims []string) *Error {
	e := New(KindMissingClaims, http.StatusBadRequest,
		fmt.Sprintf("Missing required claims: %s", strings.Join(claims, ", ")), false)
	e.MissingClaims = claims
	return e
}

func ErrTypeNotPermitted(credentialType string) *Error {
	return New(KindTypeNotPermitted, http.StatusBadRequest,
		fmt.Sprintf("Authorization type '%s' not permitted for this endpoint", credentialType), false)
}

func ErrAuthorizationExpired() *Error {
	return New(KindExpired, http.StatusUnauthorized,
		"Authorization expired", true)
}

func ErrUserNotFound() *Error {
	return New(KindUserNotFound, http.StatusUnauthorized,
		"User not found", true)
}

func ErrNotPermitted() *Error {
	return New(KindNotPermitted, http.StatusForbidden,
		"Not permitted", false)
}

// ErrMultipleTokens reports distinct token values from multiple sources.
func ErrMultipleTokens(sources []string, count int) *Error {
	return New(KindMultipleTokens, http.StatusBadRequest,
		fmt.Sprintf("%d different tokens provided from the following sources: %s. Only one unique token may be provided",
			count, strings.Join(sources, ", ")), false)
}

func ErrInvalidOTP() *Error {
	return New(KindInvalidOTP, http.StatusUnauthorized,
		"Invalid OTP", true)
}

// ErrCredentials reports a failed password login.
func ErrCredentials() *Error {
	return New(KindCredentials, http.StatusUnauthorized,
		"Could not validate credentials", true)
}

func ErrAlreadyExists(detail string) *Error {
	return New(KindAlreadyExists, http.StatusConflict, detail, false)
}

func ErrNotFound(detail string) *Error {
	return New(KindNotFound, http.StatusNotFound, detail, false)
}
