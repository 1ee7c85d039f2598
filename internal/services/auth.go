package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/mailer"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
)

// SessionInfo is what every successful login or sign-up produces: the user,
// their resolved scopes, and a fresh session access token.
type SessionInfo struct {
	User        *models.User
	ScopeIDs    auth.ScopeSet
	AccessToken *models.AccessToken
	Encoded     string
}

// AuthService implements the login, sign-up and credential-request flows on
// top of the verification pipeline and the credential issuer.
type AuthService struct {
	store    *store.Store
	cfg      *config.Config
	users    *UserService
	creds    *CredentialService
	verifier *auth.Verifier
	mailer   mailer.Mailer
	metrics  *metrics.Metrics
	google   GoogleVerifier
}

func NewAuthService(
	s *store.Store,
	cfg *config.Config,
	users *UserService,
	creds *CredentialService,
	verifier *auth.Verifier,
	m mailer.Mailer,
	mx *metrics.Metrics,
	google GoogleVerifier,
) *AuthService {
	return &AuthService{
		store:    s,
		cfg:      cfg,
		users:    users,
		creds:    creds,
		verifier: verifier,
		mailer:   m,
		metrics:  mx,
		google:   google,
	}
}

// startSession issues a session access token for the user and resolves their
// role scopes into a SessionInfo.
func (s *AuthService) startSession(ctx context.Context, user *models.User) (*SessionInfo, error) {
	t, encoded, err := s.creds.IssueAccessToken(ctx, user.ID, s.cfg.Lifespans.AccessToken)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:        user,
		ScopeIDs:    auth.RoleScopes(s.cfg, user.RoleID),
		AccessToken: t,
		Encoded:     encoded,
	}, nil
}

// LoginPassword exchanges an email-or-username plus password for a session.
func (s *AuthService) LoginPassword(ctx context.Context, identifier, password string) (*SessionInfo, error) {
	user, err := s.users.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.RecordLogin("password", metrics.OutcomeRejected)
			return nil, auth.ErrCredentials()
		}
		return nil, err
	}
	info, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("password", metrics.OutcomeAuthorized)
	return info, nil
}

// LoginMagicLink redeems a magic link token. The token is an ordinary access
// token verified under the shorter magic link window, consumed exactly once,
// and replaced with a full-length session.
func (s *AuthService) LoginMagicLink(ctx context.Context, rawToken string) (*SessionInfo, error) {
	authz, err := s.verifier.Verify(ctx, rawToken, auth.Options{
		PermittedTypes:   []string{config.CredentialAccessToken},
		OverrideLifetime: s.cfg.Lifespans.MagicLink,
	})
	if err != nil {
		s.metrics.RecordLogin("magic_link", metrics.OutcomeRejected)
		return nil, err
	}

	// consume before issuing the replacement so a concurrent redeemer of the
	// same link cannot also win
	if err := s.creds.ConsumeAccessToken(ctx, authz.AccessToken().ID); err != nil {
		if errors.Is(err, store.ErrAlreadyConsumed) {
			s.metrics.RecordLogin("magic_link", metrics.OutcomeRejected)
			return nil, auth.ErrAuthorizationExpired()
		}
		return nil, err
	}

	info, err := s.startSession(ctx, authz.User)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("magic_link", metrics.OutcomeAuthorized)
	return info, nil
}

// LoginOTPByEmail redeems a one-time code for the user with the given email.
func (s *AuthService) LoginOTPByEmail(ctx context.Context, email, code string) (*SessionInfo, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
			return nil, auth.ErrInvalidOTP()
		}
		return nil, err
	}
	return s.loginOTP(ctx, user, code)
}

// LoginOTPByPhone redeems a one-time code for the user with the given phone
// number.
func (s *AuthService) LoginOTPByPhone(ctx context.Context, phoneNumber, code string) (*SessionInfo, error) {
	user, err := s.store.GetUserByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
			return nil, auth.ErrInvalidOTP()
		}
		return nil, err
	}
	return s.loginOTP(ctx, user, code)
}

func (s *AuthService) loginOTP(ctx context.Context, user *models.User, code string) (*SessionInfo, error) {
	otp, err := s.store.GetOTPByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
			return nil, auth.ErrInvalidOTP()
		}
		return nil, err
	}
	if !s.creds.VerifyOTPCode(code, otp.HashedCode) {
		s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
		return nil, auth.ErrInvalidOTP()
	}

	// run the row through the pipeline so expired codes are collected and the
	// user re-checked, same as any other credential; the session lifespan caps
	// how far a row's own expiry can reach
	authz, err := s.verifier.VerifyTableCredential(ctx, otp, auth.Options{
		OverrideLifetime: s.cfg.Lifespans.AccessToken,
	})
	if err != nil {
		s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.creds.ConsumeOTP(ctx, otp.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyConsumed) {
			s.metrics.RecordLogin("otp", metrics.OutcomeRejected)
			return nil, auth.ErrInvalidOTP()
		}
		return nil, err
	}

	info, err := s.startSession(ctx, authz.User)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("otp", metrics.OutcomeAuthorized)
	return info, nil
}

// SignUp redeems a sign-up token, creating the account named in its subject
// and logging it in. A second redemption of the same token conflicts on the
// existing email and creates nothing.
func (s *AuthService) SignUp(ctx context.Context, rawToken string) (*SessionInfo, error) {
	authz, err := s.verifier.Verify(ctx, rawToken, auth.Options{
		PermittedTypes:   []string{config.CredentialSignUp},
		OverrideLifetime: s.cfg.Lifespans.RequestSignUp,
	})
	if err != nil {
		s.metrics.RecordLogin("sign_up", metrics.OutcomeRejected)
		return nil, err
	}
	signUp := authz.Credential.(*models.SignUp)

	user, err := s.users.Create(ctx, signUp.Email, nil)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.metrics.RecordLogin("sign_up", metrics.OutcomeRejected)
			return nil, auth.ErrAlreadyExists("User already exists")
		}
		return nil, err
	}

	info, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("sign_up", metrics.OutcomeAuthorized)
	return info, nil
}

// LoginGoogle verifies a Google ID token and logs in the matching user,
// creating the account on first sight of the email.
func (s *AuthService) LoginGoogle(ctx context.Context, rawIDToken string) (*SessionInfo, error) {
	if s.google == nil {
		// no GOOGLE_CLIENT_ID configured
		return nil, auth.New(auth.KindNotPermitted, http.StatusServiceUnavailable,
			"Google sign-in is not configured", false)
	}
	email, err := s.google.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		s.metrics.RecordLogin("google", metrics.OutcomeRejected)
		return nil, auth.New(auth.KindCredentials, http.StatusBadRequest,
			"Invalid Google ID token", false)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		user, err = s.users.Create(ctx, email, nil)
	}
	if err != nil {
		return nil, err
	}

	info, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("google", metrics.OutcomeAuthorized)
	return info, nil
}

// RequestSignUp mails a link for the given email. If the address already has
// an account the mail carries a magic link to log in instead; the endpoint
// response is identical either way so it cannot be used to probe for
// accounts.
func (s *AuthService) RequestSignUp(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		_, encoded, err := s.creds.IssueAccessToken(ctx, user.ID, s.cfg.Lifespans.RequestSignUp)
		if err != nil {
			return err
		}
		link := s.frontendLink(config.FrontendVerifyMagicLink, encoded)
		s.deliverEmail(email, "Sign up",
			fmt.Sprintf("An account with this email already exists. Log in instead: %s", link))
		return nil
	case errors.Is(err, store.ErrRecordNotFound):
		_, encoded, err := s.creds.IssueSignUpToken(email)
		if err != nil {
			return err
		}
		link := s.frontendLink(config.FrontendVerifySignUp, encoded)
		s.deliverEmail(email, "Sign up", fmt.Sprintf("Complete your sign up: %s", link))
		return nil
	default:
		return err
	}
}

// RequestMagicLinkEmail mails a login link to the address when an account
// exists. No account is not an error; the caller learns nothing.
func (s *AuthService) RequestMagicLinkEmail(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	_, encoded, err := s.creds.IssueAccessToken(ctx, user.ID, s.cfg.Lifespans.MagicLink)
	if err != nil {
		return err
	}
	link := s.frontendLink(config.FrontendVerifyMagicLink, encoded)
	s.deliverEmail(email, "Log in", fmt.Sprintf("Log in with this link: %s", link))
	return nil
}

// RequestMagicLinkSMS texts a login link to the phone number when an account
// exists.
func (s *AuthService) RequestMagicLinkSMS(ctx context.Context, phoneNumber string) error {
	user, err := s.store.GetUserByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	_, encoded, err := s.creds.IssueAccessToken(ctx, user.ID, s.cfg.Lifespans.MagicLink)
	if err != nil {
		return err
	}
	link := s.frontendLink(config.FrontendVerifyMagicLink, encoded)
	s.deliverSMS(phoneNumber, fmt.Sprintf("Log in with this link: %s", link))
	return nil
}

// RequestOTPEmail mails a one-time code to the address when an account
// exists, replacing any code issued earlier.
func (s *AuthService) RequestOTPEmail(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	code, err := s.creds.IssueOTP(ctx, user.ID)
	if err != nil {
		return err
	}
	s.deliverEmail(email, "One-time code", fmt.Sprintf("Your one-time code is %s", code))
	return nil
}

// RequestOTPSMS texts a one-time code to the phone number when an account
// exists.
func (s *AuthService) RequestOTPSMS(ctx context.Context, phoneNumber string) error {
	user, err := s.store.GetUserByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	code, err := s.creds.IssueOTP(ctx, user.ID)
	if err != nil {
		return err
	}
	s.deliverSMS(phoneNumber, fmt.Sprintf("Your one-time code is %s", code))
	return nil
}

// ListSessions returns the user's live access tokens, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]models.AccessToken, error) {
	return s.store.GetAccessTokensByUserID(ctx, userID)
}

// RevokeSession deletes one of the user's access tokens by id.
func (s *AuthService) RevokeSession(ctx context.Context, userID, tokenID string) error {
	t, err := s.store.GetAccessTokenByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Access token not found")
		}
		return err
	}
	if t.UserID != userID {
		return auth.ErrNotFound("Access token not found")
	}
	return s.store.DeleteAccessToken(ctx, tokenID)
}

// Logout revokes the presented session token. A token already gone is fine.
func (s *AuthService) Logout(ctx context.Context, accessTokenID string) error {
	err := s.store.DeleteAccessToken(ctx, accessTokenID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (s *AuthService) frontendLink(path, encodedToken string) string {
	return fmt.Sprintf("%s%s?token=%s", s.cfg.FrontendURL, path, url.QueryEscape(encodedToken))
}

// deliverEmail sends in the background so slow mail transports never hold up
// the request. Delivery failure is logged, not surfaced.
func (s *AuthService) deliverEmail(to, subject, body string) {
	go func() {
		if err := s.mailer.SendEmail(context.Background(), to, subject, body); err != nil {
			log.Printf("[Auth] email delivery to %s failed: %v", to, err)
		}
	}()
}

func (s *AuthService) deliverSMS(to, body string) {
	go func() {
		if err := s.mailer.SendSMS(context.Background(), to, body); err != nil {
			log.Printf("[Auth] sms delivery to %s failed: %v", to, err)
		}
	}()
}
