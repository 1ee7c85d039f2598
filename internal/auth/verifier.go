package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/token"
)

// Options controls a single verification run.
type Options struct {
	// RequiredScopes are scope names the credential must satisfy
	RequiredScopes []string

	// PermittedTypes is the credential-type allowlist; nil means the two
	// session-like types (access token, API key)
	PermittedTypes []string

	// OverrideLifetime, when non-zero, applies a second expiry window of
	// issued+OverrideLifetime on top of the credential's own expiry
	OverrideLifetime time.Duration

	// Now overrides the wall clock, for tests; zero means time.Now
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

func (o Options) permittedTypes() []string {
	if o.PermittedTypes == nil {
		return []string{config.CredentialAccessToken, config.CredentialAPIKey}
	}
	return o.PermittedTypes
}

// Authorization is the uniform result every protected operation consumes.
// User is nil and ScopeIDs empty for sign-up tokens, which authenticate
// identity only.
type Authorization struct {
	User       *models.User
	ScopeIDs   ScopeSet
	Credential models.Credential
}

// UserID returns the principal's id, or "" when no user is attached.
func (a *Authorization) UserID() string {
	if a.User == nil {
		return ""
	}
	return a.User.ID
}

// AccessToken returns the credential as an access token when it is one.
func (a *Authorization) AccessToken() *models.AccessToken {
	if t, ok := a.Credential.(*models.AccessToken); ok {
		return t
	}
	return nil
}

// Verifier runs the credential verification pipeline. It is stateless between
// requests; every run hits the store so revocation is immediately visible.
type Verifier struct {
	store   *store.Store
	cfg     *config.Config
	codec   *token.Codec
	metrics *metrics.Metrics
}

func NewVerifier(s *store.Store, cfg *config.Config, codec *token.Codec, m *metrics.Metrics) *Verifier {
	return &Verifier{store: s, cfg: cfg, codec: codec, metrics: m}
}

// Codec exposes the verifier's token codec for issuance paths.
func (v *Verifier) Codec() *token.Codec {
	return v.codec
}

// Verify takes the raw bearer value and produces an Authorization or a typed
// *Error. Any other error is an unexpected fault (storage down) and must be
// treated as a 5xx by the caller.
func (v *Verifier) Verify(ctx context.Context, rawToken string, opts Options) (*Authorization, error) {
	authz, credentialType, err := v.verify(ctx, rawToken, opts)
	v.recordOutcome(credentialType, err)
	return authz, err
}

func (v *Verifier) verify(ctx context.Context, rawToken string, opts Options) (*Authorization, string, error) {
	// until the claims parse, the credential type is unknown
	credentialType := "unknown"

	if rawToken == "" {
		return nil, credentialType, ErrMissingAuthorization(v.cfg.CookieName)
	}

	payload, err := v.codec.Decode(rawToken)
	if err != nil {
		return nil, credentialType, ErrImproperFormat()
	}

	claims, missing := token.ParsePayload(payload)
	if len(missing) > 0 {
		return nil, credentialType, ErrMissingRequiredClaims(missing)
	}
	credentialType = claims.Type

	if !slices.Contains(opts.permittedTypes(), claims.Type) {
		return nil, credentialType, ErrTypeNotPermitted(claims.Type)
	}

	now := opts.now()
	if !IsValidTimeBounds(claims.Issued(), claims.Expiry(), now, opts.OverrideLifetime) {
		return nil, credentialType, ErrAuthorizationExpired()
	}

	if claims.Type == config.CredentialSignUp {
		// non-table credentials carry no scopes
		if len(opts.RequiredScopes) > 0 {
			return nil, credentialType, ErrNotPermitted()
		}
		return &Authorization{
			User:     nil,
			ScopeIDs: NewScopeSet(),
			Credential: &models.SignUp{
				Email:  claims.Sub,
				Issued: claims.Issued(),
				Expiry: claims.Expiry(),
			},
		}, credentialType, nil
	}

	cred, err := v.loadCredential(ctx, claims.Type, claims.Sub)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// reported as expired, not "not found", to avoid leaking
			// whether an id ever existed
			return nil, credentialType, ErrAuthorizationExpired()
		}
		return nil, credentialType, err
	}

	opts.Now = now
	authz, err := v.verifyTableCredential(ctx, cred, opts)
	return authz, credentialType, err
}

// VerifyTableCredential validates a credential row the caller already holds
// (the OTP login path reaches here without an encoded token). The row is
// authoritative over any claims: its own time bounds are re-checked, and an
// expired row is deleted on sight.
func (v *Verifier) VerifyTableCredential(ctx context.Context, cred models.TableCredential, opts Options) (*Authorization, error) {
	authz, err := v.verifyTableCredential(ctx, cred, opts)
	v.recordOutcome(cred.CredentialType(), err)
	return authz, err
}

func (v *Verifier) verifyTableCredential(ctx context.Context, cred models.TableCredential, opts Options) (*Authorization, error) {
	now := opts.now()

	issued, expiry := cred.TimeBounds()
	if !IsValidTimeBounds(issued, expiry, now, opts.OverrideLifetime) {
		if err := v.deleteCredential(ctx, cred); err != nil {
			return nil, err
		}
		return nil, ErrAuthorizationExpired()
	}

	user, err := v.store.GetUserByID(ctx, cred.OwnerID())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound()
		}
		return nil, err
	}

	required, err := ResolveScopeNames(v.cfg, opts.RequiredScopes)
	if err != nil {
		return nil, err
	}

	actual, err := v.credentialScopes(ctx, cred, user)
	if err != nil {
		return nil, err
	}

	if !required.IsSubsetOf(actual) {
		return nil, ErrNotPermitted()
	}

	return &Authorization{User: user, ScopeIDs: actual, Credential: cred}, nil
}

// recordOutcome counts the pipeline run: authorized, rejected with a typed
// error, or an unexpected fault.
func (v *Verifier) recordOutcome(credentialType string, err error) {
	outcome := metrics.OutcomeAuthorized
	var authErr *Error
	switch {
	case err == nil:
	case errors.As(err, &authErr):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
	}
	v.metrics.RecordVerification(credentialType, outcome)
}

func (v *Verifier) loadCredential(ctx context.Context, credentialType, id string) (models.TableCredential, error) {
	switch credentialType {
	case config.CredentialAccessToken:
		return v.store.GetAccessTokenByID(ctx, id)
	case config.CredentialAPIKey:
		return v.store.GetAPIKeyByID(ctx, id)
	case config.CredentialOTP:
		return v.store.GetOTPByID(ctx, id)
	}
	return nil, fmt.Errorf("unhandled credential type: %s", credentialType)
}

func (v *Verifier) deleteCredential(ctx context.Context, cred models.TableCredential) error {
	switch c := cred.(type) {
	case *models.AccessToken:
		return v.store.DeleteAccessToken(ctx, c.ID)
	case *models.APIKey:
		return v.store.DeleteAPIKey(ctx, c.ID)
	case *models.OTP:
		return v.store.DeleteOTP(ctx, c.ID)
	}
	return fmt.Errorf("unhandled credential type: %s", cred.CredentialType())
}

// credentialScopes resolves the actual scope set per credential kind: access
// tokens inherit the owning user's role scopes, API keys use their explicit
// scope assignments, OTPs authenticate identity only.
func (v *Verifier) credentialScopes(ctx context.Context, cred models.TableCredential, user *models.User) (ScopeSet, error) {
	switch c := cred.(type) {
	case *models.AccessToken:
		return RoleScopes(v.cfg, user.RoleID), nil
	case *models.APIKey:
		ids, err := v.store.GetAPIKeyScopeIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return NewScopeSet(ids...), nil
	case *models.OTP:
		return NewScopeSet(), nil
	}
	return nil, fmt.Errorf("unhandled credential type: %s", cred.CredentialType())
}
