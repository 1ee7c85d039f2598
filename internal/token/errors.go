package token

import "errors"

var (
	// ErrTokenGeneration indicates token signing failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrMalformedToken indicates the token could not be decoded: bad
	// signature, wrong algorithm, or undecodable structure
	ErrMalformedToken = errors.New("malformed token")
)
