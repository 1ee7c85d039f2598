package token

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jameskabbes/gallery-api/internal/models"
)

// Claim names required in every encoded credential.
var requiredClaims = []string{"type", "sub", "iat", "exp"}

// Claims is the fixed payload of an encoded credential. Sub semantics vary by
// Type: a row id for persisted kinds, an email for sign-up tokens.
type Claims struct {
	Type string
	Sub  string
	Iat  int64
	Exp  int64
}

// Payload is a decoded token body before schema validation.
type Payload map[string]any

// FromCredential builds the claim set for a credential.
func FromCredential(c models.Credential) Claims {
	issued, expiry := c.TimeBounds()
	return Claims{
		Type: c.CredentialType(),
		Sub:  c.Subject(),
		Iat:  issued.Unix(),
		Exp:  expiry.Unix(),
	}
}

// Issued returns the iat claim as a time.
func (c Claims) Issued() time.Time { return time.Unix(c.Iat, 0).UTC() }

// Expiry returns the exp claim as a time.
func (c Claims) Expiry() time.Time { return time.Unix(c.Exp, 0).UTC() }

// Codec signs and verifies credential tokens with an HMAC secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs the claims. Deterministic and stateless.
func (c *Codec) Encode(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"type": claims.Type,
		"sub":  claims.Sub,
		"iat":  claims.Iat,
		"exp":  claims.Exp,
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Decode verifies the signature and returns the raw payload. Expiry is not
// enforced here: time bounds are the verification pipeline's job, which may
// apply an override lifetime the signing library knows nothing about.
func (c *Codec) Decode(tokenString string) (Payload, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	t, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	mapClaims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}
	return Payload(mapClaims), nil
}

// ParsePayload validates the claim schema. The second return value lists the
// missing claims, sorted; it is empty when the payload is complete.
func ParsePayload(p Payload) (Claims, []string) {
	var missing []string
	for _, name := range requiredClaims {
		if _, ok := p[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Claims{}, missing
	}

	claims := Claims{}
	claims.Type, _ = p["type"].(string)
	claims.Sub, _ = p["sub"].(string)
	claims.Iat = toUnix(p["iat"])
	claims.Exp = toUnix(p["exp"])
	return claims, nil
}

// toUnix accepts the numeric forms a JSON round trip can produce.
func toUnix(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case jwt.NumericDate:
		return n.Unix()
	}
	return 0
}
