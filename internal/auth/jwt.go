// Package auth provides session tokens, password hashing and the HTTP
// middleware that authenticates API requests.
//
// SESSIONS ARE STATELESS:
// Nothing about a session is stored server-side. A token is a signed claim
// set, and its validity is proven only by the HS256 signature and the
// exp/nbf window:
//
//	{"userId":"…","email":"…","name":"…","sub":"<userId>","iat":…,"nbf":…,"exp":…}
//
// Logging out is therefore a client-side action; a token stays valid until
// it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
const MinSecretLength = 16

var (
	// ErrTokenExpired is returned by Decode when the signature is valid but
	// the token is past its exp claim.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenInvalid covers every other failure: malformed input, bad
	// signature, wrong algorithm, not yet valid (nbf) or missing claims.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// UserClaims are the application claims embedded in every session token.
type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Claims is the full claim set: the user fields plus the registered
// sub/iat/nbf/exp claims. Subject always equals UserID.
type Claims struct {
	UserClaims
	jwt.RegisteredClaims
}

// TokenService issues and decodes HS256 session tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A short secret or a non-positive
// expiry is a configuration error and is reported here, never when a token
// is issued.
func NewTokenService(secret string, expiry time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if expiry <= 0 {
		return nil, errors.New("auth: JWT expiration must be positive")
	}
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// Expiry returns the configured token lifetime.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Generate signs a token for the given user.
//
// iat and nbf are the current UTC time, exp is iat plus the configured
// expiry, and sub is the user id. For a fixed clock the output is
// deterministic.
func (s *TokenService) Generate(u UserClaims) (string, error) {
	now := s.now().UTC()

	c := Claims{
		UserClaims: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Decode verifies a token issued by this service and returns its claims.
// The error is ErrTokenExpired or wraps ErrTokenInvalid.
func (s *TokenService) Decode(tokenStr string) (*Claims, error) {
	return decode(tokenStr, s.secret, s.now)
}

// DecodeToken verifies tokenStr against secret using the wall clock.
//
// Callers that only need "authenticated or not" can test err != nil; callers
// that want to tell the user their session timed out can check
// errors.Is(err, ErrTokenExpired).
func DecodeToken(tokenStr string, secret []byte) (*Claims, error) {
	return decode(tokenStr, secret, time.Now)
}

func decode(tokenStr string, secret []byte, now func() time.Time) (*Claims, error) {
	c := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		// Only HS256: rejects "none" and algorithm-confusion tokens.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if c.Subject == "" || c.Subject != c.UserID {
		return nil, fmt.Errorf("%w: subject does not match userId", ErrTokenInvalid)
	}

	return c, nil
}
