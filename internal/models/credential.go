package models

import (
	"time"

	"github.com/jameskabbes/gallery-api/internal/config"
)

// Credential is any artifact proving identity: access token, API key, OTP or
// sign-up token. Persisted kinds are backed by a table row; sign-up tokens are
// reconstructed entirely from their signed claims.
type Credential interface {
	CredentialType() string
	// Subject is the value carried in the "sub" claim: the row id for
	// persisted kinds, the target email for sign-up tokens.
	Subject() string
	TimeBounds() (issued, expiry time.Time)
	Persisted() bool
}

// TableCredential is a Credential backed by a table row.
type TableCredential interface {
	Credential
	OwnerID() string
}

// AccessToken represents a logged-in session.
type AccessToken struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"not null;index"`
	Issued time.Time
	Expiry time.Time
}

func (t *AccessToken) CredentialType() string { return config.CredentialAccessToken }
func (t *AccessToken) Subject() string        { return t.ID }
func (t *AccessToken) OwnerID() string        { return t.UserID }
func (t *AccessToken) Persisted() bool        { return true }
func (t *AccessToken) TimeBounds() (time.Time, time.Time) {
	return t.Issued, t.Expiry
}

// APIKey is a long-lived credential with explicitly granted scopes.
type APIKey struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_api_key_user_name"`
	Name   string `gorm:"not null;uniqueIndex:idx_api_key_user_name"`
	Issued time.Time
	Expiry time.Time

	Scopes []APIKeyScope `gorm:"foreignKey:APIKeyID;constraint:OnDelete:CASCADE"`
}

func (k *APIKey) CredentialType() string { return config.CredentialAPIKey }
func (k *APIKey) Subject() string        { return k.ID }
func (k *APIKey) OwnerID() string        { return k.UserID }
func (k *APIKey) Persisted() bool        { return true }
func (k *APIKey) TimeBounds() (time.Time, time.Time) {
	return k.Issued, k.Expiry
}

// APIKeyScope grants a single scope to an API key.
type APIKeyScope struct {
	APIKeyID string `gorm:"primaryKey"`
	ScopeID  int    `gorm:"primaryKey"`
}

// OTP is a single-use numeric code. At most one live OTP exists per user;
// issuance replaces any previous one.
type OTP struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"not null;index"`
	HashedCode string `gorm:"not null"`
	Issued     time.Time
	Expiry     time.Time
}

func (o *OTP) CredentialType() string { return config.CredentialOTP }
func (o *OTP) Subject() string        { return o.ID }
func (o *OTP) OwnerID() string        { return o.UserID }
func (o *OTP) Persisted() bool        { return true }
func (o *OTP) TimeBounds() (time.Time, time.Time) {
	return o.Issued, o.Expiry
}

// SignUp is a non-persisted credential: there is no server-side record and no
// revocation before expiry. A second redemption fails the email uniqueness
// check once the account exists.
type SignUp struct {
	Email  string
	Issued time.Time
	Expiry time.Time
}

func (s *SignUp) CredentialType() string { return config.CredentialSignUp }
func (s *SignUp) Subject() string        { return s.Email }
func (s *SignUp) Persisted() bool        { return false }
func (s *SignUp) TimeBounds() (time.Time, time.Time) {
	return s.Issued, s.Expiry
}
