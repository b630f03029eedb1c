// Package auth provides JWT session tokens and the GitHub OAuth flow.
//
// AUTHENTICATION FLOW:
//  1. User visits /auth/github/login → redirected to GitHub
//  2. GitHub calls back /auth/github/callback with a code
//  3. Server exchanges the code for the GitHub identity and links it to
//     a profile
//  4. Server issues a JWT, stores it in an HttpOnly cookie
//  5. Middleware reads the cookie on later requests and puts the
//     profile's username in the request context
//
// The JWT is stateless: username and expiry live inside the signed
// token, so validation needs no database lookup — just the HMAC secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "contribgraph"

// TokenService signs and verifies session tokens. The same HMAC secret
// does both; keep it out of version control.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Use at least 32 bytes of random data in production, e.g.
// JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the profile's username travels in
// the standard "sub" claim.
type claims struct {
	jwt.RegisteredClaims
}

// SessionDuration is how long an issued session cookie stays valid.
const SessionDuration = 24 * time.Hour

// Generate creates and signs a session token for the given username.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, SessionDuration)
}

// GenerateWithDuration creates a token with a custom expiry. Used in
// tests to mint short-lived tokens.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the username
// from the "sub" claim. The library checks signature, expiry and issuer;
// jwt.WithValidMethods pins HS256 so an attacker cannot downgrade the
// algorithm.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
