package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/middleware"
	"github.com/jameskabbes/gallery-api/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(as *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: as, cfg: cfg}
}

// Root handles GET /auth/
// Returns the session behind the presented credential. The frontend calls
// this on load to restore its auth state.
func (h *AuthHandler) Root(c *gin.Context) {
	authz, ok := middleware.GetAuthorization(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	block := authBlock{
		User:     newUserPrivate(authz.User),
		ScopeIDs: authz.ScopeIDs.IDs(),
	}
	if t := authz.AccessToken(); t != nil {
		block.AccessToken = newAccessTokenResponse(t)
	}
	c.JSON(http.StatusOK, sessionResponse{Auth: block})
}

// Token handles POST /auth/token
// OAuth2 password form exchange, for clients that speak the standard flow.
func (h *AuthHandler) Token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	info, err := h.authService.LoginPassword(c.Request.Context(), username, password)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": info.Encoded,
		"token_type":   "bearer",
	})
}

type loginPasswordRequest struct {
	Identifier   string `json:"identifier" binding:"required"`
	Password     string `json:"password" binding:"required"`
	StaySignedIn bool   `json:"stay_signed_in"`
}

// LoginPassword handles POST /auth/login
func (h *AuthHandler) LoginPassword(c *gin.Context) {
	var req loginPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	info, err := h.authService.LoginPassword(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusOK, newSessionResponse(info))
}

// LoginMagicLink handles POST /auth/login/magic-link
// The link token arrives as the request credential; redeeming it replaces it
// with a full session.
func (h *AuthHandler) LoginMagicLink(c *gin.Context) {
	raw, harvestErr := middleware.HarvestToken(c, h.cfg.CookieName)
	if harvestErr != nil {
		renderError(c, h.cfg, harvestErr)
		return
	}

	var req struct {
		StaySignedIn bool `json:"stay_signed_in"`
	}
	_ = c.ShouldBindJSON(&req)

	info, err := h.authService.LoginMagicLink(c.Request.Context(), raw)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusOK, newSessionResponse(info))
}

type loginOTPEmailRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Code         string `json:"code" binding:"required"`
	StaySignedIn bool   `json:"stay_signed_in"`
}

// LoginOTPEmail handles POST /auth/login/otp/email
func (h *AuthHandler) LoginOTPEmail(c *gin.Context) {
	var req loginOTPEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	info, err := h.authService.LoginOTPByEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusOK, newSessionResponse(info))
}

type loginOTPPhoneRequest struct {
	PhoneNumber  string `json:"phone_number" binding:"required"`
	Code         string `json:"code" binding:"required"`
	StaySignedIn bool   `json:"stay_signed_in"`
}

// LoginOTPPhone handles POST /auth/login/otp/phone
func (h *AuthHandler) LoginOTPPhone(c *gin.Context) {
	var req loginOTPPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	info, err := h.authService.LoginOTPByPhone(c.Request.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusOK, newSessionResponse(info))
}

// SignUp handles POST /auth/signup
// Redeems a sign-up token, creating the account it names.
func (h *AuthHandler) SignUp(c *gin.Context) {
	raw, harvestErr := middleware.HarvestToken(c, h.cfg.CookieName)
	if harvestErr != nil {
		renderError(c, h.cfg, harvestErr)
		return
	}

	var req struct {
		StaySignedIn bool `json:"stay_signed_in"`
	}
	_ = c.ShouldBindJSON(&req)

	info, err := h.authService.SignUp(c.Request.Context(), raw)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusCreated, newSessionResponse(info))
}

type loginGoogleRequest struct {
	IDToken      string `json:"id_token" binding:"required"`
	StaySignedIn bool   `json:"stay_signed_in"`
}

// LoginGoogle handles POST /auth/login/google
func (h *AuthHandler) LoginGoogle(c *gin.Context) {
	var req loginGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	info, err := h.authService.LoginGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	h.setSession(c, info, req.StaySignedIn)
	c.JSON(http.StatusOK, newSessionResponse(info))
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type phoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// RequestSignUp handles POST /auth/request/sign-up
// Always answers 200 so the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) RequestSignUp(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.authService.RequestSignUp(c.Request.Context(), req.Email); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RequestMagicLinkEmail handles POST /auth/request/magic-link/email
func (h *AuthHandler) RequestMagicLinkEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.authService.RequestMagicLinkEmail(c.Request.Context(), req.Email); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RequestMagicLinkSMS handles POST /auth/request/magic-link/sms
func (h *AuthHandler) RequestMagicLinkSMS(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.authService.RequestMagicLinkSMS(c.Request.Context(), req.PhoneNumber); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RequestOTPEmail handles POST /auth/request/otp/email
func (h *AuthHandler) RequestOTPEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.authService.RequestOTPEmail(c.Request.Context(), req.Email); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RequestOTPSMS handles POST /auth/request/otp/sms
func (h *AuthHandler) RequestOTPSMS(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.authService.RequestOTPSMS(c.Request.Context(), req.PhoneNumber); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Logout handles POST /auth/logout
// Revokes the presented session token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	authz, ok := middleware.GetAuthorization(c)
	if ok {
		if t := authz.AccessToken(); t != nil {
			if err := h.authService.Logout(c.Request.Context(), t.ID); err != nil {
				renderError(c, h.cfg, err)
				return
			}
		}
	}
	middleware.ClearSessionCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{})
}

// setSession attaches the session cookie. Without stay_signed_in the cookie
// lives for the browser session only; the token row still expires on its own.
func (h *AuthHandler) setSession(c *gin.Context, info *services.SessionInfo, staySignedIn bool) {
	maxAge := 0
	if staySignedIn {
		maxAge = int(h.cfg.Lifespans.AccessToken.Seconds())
	}
	middleware.SetSessionCookie(c, h.cfg, info.Encoded, maxAge)
}
