package services

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates a Google sign-in ID token and extracts the
// account email. Behind an interface so tests can stub it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (email string, err error)
}

type googleIDTokenVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleIDTokenVerifier{clientID: clientID}
}

func (g *googleIDTokenVerifier) VerifyIDToken(ctx context.Context, rawIDToken string) (string, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, g.clientID)
	if err != nil {
		return "", err
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", errors.New("google account did not return an email")
	}
	return email, nil
}
