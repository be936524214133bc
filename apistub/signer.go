package apistub

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// hmacSigner signs and verifies access tokens with symmetric HMAC-SHA256
type hmacSigner struct {
	secret []byte
	parser *jwt.Parser
}

func newHMACSigner(secret string) *hmacSigner {
	return &hmacSigner{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (h *hmacSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims
func (h *hmacSigner) Verify(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := h.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
