package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/token"
	"github.com/jameskabbes/gallery-api/internal/util"
)

// CredentialService issues and consumes credentials. Lifespans come from
// configuration as durations; expiry is always issued+lifespan.
type CredentialService struct {
	store   *store.Store
	cfg     *config.Config
	codec   *token.Codec
	metrics *metrics.Metrics
}

func NewCredentialService(s *store.Store, cfg *config.Config, codec *token.Codec, m *metrics.Metrics) *CredentialService {
	return &CredentialService{store: s, cfg: cfg, codec: codec, metrics: m}
}

// IssueAccessToken creates a session row and returns it with its encoded
// form. The lifespan distinguishes ordinary sessions from magic links and
// sign-up login links, which are access tokens with shorter lifetimes.
func (s *CredentialService) IssueAccessToken(ctx context.Context, userID string, lifespan time.Duration) (*models.AccessToken, string, error) {
	now := time.Now().UTC()
	t := &models.AccessToken{
		ID:     uuid.New().String(),
		UserID: userID,
		Issued: now,
		Expiry: now.Add(lifespan),
	}
	if err := s.store.CreateAccessToken(ctx, t); err != nil {
		return nil, "", err
	}
	encoded, err := s.codec.Encode(token.FromCredential(t))
	if err != nil {
		return nil, "", err
	}
	s.metrics.RecordIssued(config.CredentialAccessToken)
	return t, encoded, nil
}

// Encode renders any credential in its wire form.
func (s *CredentialService) Encode(cred models.Credential) (string, error) {
	return s.codec.Encode(token.FromCredential(cred))
}

// ConsumeAccessToken is the single-use redemption delete. Exactly one of any
// set of concurrent redeemers succeeds.
func (s *CredentialService) ConsumeAccessToken(ctx context.Context, id string) error {
	return s.store.ConsumeAccessToken(ctx, id)
}

// IssueSignUpToken builds a sign-up credential from claims alone; nothing is
// persisted and the token cannot be revoked before expiry.
func (s *CredentialService) IssueSignUpToken(email string) (*models.SignUp, string, error) {
	now := time.Now().UTC()
	signUp := &models.SignUp{
		Email:  email,
		Issued: now,
		Expiry: now.Add(s.cfg.Lifespans.RequestSignUp),
	}
	encoded, err := s.codec.Encode(token.FromCredential(signUp))
	if err != nil {
		return nil, "", err
	}
	s.metrics.RecordIssued(config.CredentialSignUp)
	return signUp, encoded, nil
}

// IssueOTP generates a fresh numeric code for the user, replacing any
// existing OTP so at most one is live per user. The plain code is returned
// for delivery; only its hash is stored.
func (s *CredentialService) IssueOTP(ctx context.Context, userID string) (string, error) {
	code, err := util.RandomDigits(s.cfg.OTPLength)
	if err != nil {
		return "", err
	}
	hashed, err := util.HashPassword(code)
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteOTPsByUserID(ctx, userID); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	otp := &models.OTP{
		ID:         uuid.New().String(),
		UserID:     userID,
		HashedCode: hashed,
		Issued:     now,
		Expiry:     now.Add(s.cfg.Lifespans.OTP),
	}
	if err := s.store.CreateOTP(ctx, otp); err != nil {
		return "", err
	}
	s.metrics.RecordIssued(config.CredentialOTP)
	return code, nil
}

// VerifyOTPCode checks a plain code against the stored hash.
func (s *CredentialService) VerifyOTPCode(code, hashedCode string) bool {
	return util.CheckPassword(code, hashedCode)
}

// ConsumeOTP deletes the redeemed OTP; see ConsumeAccessToken.
func (s *CredentialService) ConsumeOTP(ctx context.Context, id string) error {
	return s.store.ConsumeOTP(ctx, id)
}

// IssueAPIKey creates a named long-lived key. The name must be unique per
// user; scopes are granted separately.
func (s *CredentialService) IssueAPIKey(ctx context.Context, userID, name string, lifespan time.Duration) (*models.APIKey, error) {
	now := time.Now().UTC()
	k := &models.APIKey{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   name,
		Issued: now,
		Expiry: now.Add(lifespan),
	}
	if err := s.store.CreateAPIKey(ctx, k); err != nil {
		return nil, err
	}
	s.metrics.RecordIssued(config.CredentialAPIKey)
	return k, nil
}
