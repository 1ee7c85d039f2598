package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	now := time.Now().UTC().Truncate(time.Second)
	claims := Claims{
		Type: "access_token",
		Sub:  "token-id-123",
		Iat:  now.Unix(),
		Exp:  now.Add(time.Hour).Unix(),
	}

	encoded, err := codec.Encode(claims)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	payload, err := codec.Decode(encoded)
	require.NoError(t, err)

	parsed, missing := ParsePayload(payload)
	assert.Empty(t, missing)
	assert.Equal(t, claims.Type, parsed.Type)
	assert.Equal(t, claims.Sub, parsed.Sub)
	assert.Equal(t, claims.Iat, parsed.Iat)
	assert.Equal(t, claims.Exp, parsed.Exp)
	assert.Equal(t, now, parsed.Issued())
}

func TestDecodeExpiredToken(t *testing.T) {
	// Decode only checks signature and format; expiry is evaluated later in
	// the verification pipeline.
	codec := NewCodec("test-secret")

	claims := Claims{
		Type: "access_token",
		Sub:  "token-id-123",
		Iat:  time.Now().Add(-2 * time.Hour).Unix(),
		Exp:  time.Now().Add(-time.Hour).Unix(),
	}
	encoded, err := codec.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(encoded)
	assert.NoError(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	codec := NewCodec("test-secret")

	_, err := codec.Decode("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestDecodeWrongSecret(t *testing.T) {
	other := NewCodec("other-secret")
	encoded, err := other.Encode(Claims{
		Type: "access_token",
		Sub:  "x",
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	codec := NewCodec("test-secret")
	_, err = codec.Decode(encoded)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestParsePayloadMissingClaims(t *testing.T) {
	codec := NewCodec("test-secret")

	// Build a token without exp directly so it still carries a valid signature.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"type": "access_token",
		"sub":  "token-id-123",
		"iat":  time.Now().Unix(),
	})
	encoded, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	payload, err := codec.Decode(encoded)
	require.NoError(t, err)

	_, missing := ParsePayload(payload)
	assert.Equal(t, []string{"exp"}, missing)
}

func TestParsePayloadAllMissing(t *testing.T) {
	_, missing := ParsePayload(Payload{})
	assert.Equal(t, []string{"exp", "iat", "sub", "type"}, missing)
}
