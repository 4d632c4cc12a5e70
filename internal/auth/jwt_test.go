package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

// fixedClock returns a clock frozen at t, so tokens are deterministic.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newTestTokenService creates a TokenService with a known secret, a one hour
// expiry and a clock frozen at issuedAt.
func newTestTokenService(t *testing.T, issuedAt time.Time) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ts.now = fixedClock(issuedAt)
	return ts
}

var testUser = UserClaims{
	UserID: "3b0e5c1e-7c61-4a57-9d9a-6a4f0f2a3f10",
	Email:  "graphacademy@neo4j.com",
	Name:   "Graph Academy",
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short", time.Hour); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_NonPositiveExpiry(t *testing.T) {
	if _, err := NewTokenService(testSecret, 0); err == nil {
		t.Fatal("NewTokenService() should reject a zero expiry")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
	if ts.Expiry() != 24*time.Hour {
		t.Errorf("Expiry() = %v, want 24h", ts.Expiry())
	}
}

// =========================================================================
// GENERATE TESTS
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t, time.Now())

	token, err := ts.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("Generate() token doesn't look like a JWT (expected 2 dots, got %d)", got)
	}
}

func TestGenerate_DeterministicForFixedClock(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t, at)

	first, _ := ts.Generate(testUser)
	second, _ := ts.Generate(testUser)

	if first != second {
		t.Error("Generate() should be deterministic for a fixed clock")
	}
}

func TestGenerate_TemporalClaims(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t, at)

	token, err := ts.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := ts.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !claims.IssuedAt.Time.Equal(at) {
		t.Errorf("iat = %v, want %v", claims.IssuedAt.Time, at)
	}
	if !claims.NotBefore.Time.Equal(at) {
		t.Errorf("nbf = %v, want %v", claims.NotBefore.Time, at)
	}
	if want := at.Add(time.Hour); !claims.ExpiresAt.Time.Equal(want) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt.Time, want)
	}
}

// =========================================================================
// DECODE TESTS
// =========================================================================

func TestDecode_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, time.Now())

	token, err := ts.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := ts.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if claims.Subject != testUser.UserID {
		t.Errorf("sub = %q, want %q", claims.Subject, testUser.UserID)
	}
	if claims.UserClaims != testUser {
		t.Errorf("user claims = %+v, want %+v", claims.UserClaims, testUser)
	}
}

func TestDecode_ExpiredAfterExpiryElapses(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t, at)

	token, _ := ts.Generate(testUser)

	// Just inside the window
	ts.now = fixedClock(at.Add(59 * time.Minute))
	if _, err := ts.Decode(token); err != nil {
		t.Fatalf("Decode() within expiry error = %v", err)
	}

	// Past exp
	ts.now = fixedClock(at.Add(61 * time.Minute))
	_, err := ts.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Decode() after expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestDecode_NotYetValid(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t, at)

	token, _ := ts.Generate(testUser)

	ts.now = fixedClock(at.Add(-time.Minute))
	if _, err := ts.Decode(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Decode() before nbf error = %v, want ErrTokenInvalid", err)
	}
}

func TestDecode_InvalidInputs(t *testing.T) {
	ts := newTestTokenService(t, time.Now())
	good, _ := ts.Generate(testUser)

	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)
	foreign, _ := other.Generate(testUser)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"signed with another secret", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Decode(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Decode() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestDecode_RejectsNoneAlgorithm(t *testing.T) {
	ts := newTestTokenService(t, time.Now())

	c := Claims{
		UserClaims: testUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("building unsigned token: %v", err)
	}

	if _, err := ts.Decode(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Decode() error = %v, want ErrTokenInvalid", err)
	}
}

func TestDecode_SubjectMismatch(t *testing.T) {
	ts := newTestTokenService(t, time.Now())

	c := Claims{
		UserClaims: testUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))

	if _, err := ts.Decode(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Decode() error = %v, want ErrTokenInvalid", err)
	}
}

func TestDecodeToken_PackageLevel(t *testing.T) {
	ts, _ := NewTokenService(testSecret, time.Hour)
	token, _ := ts.Generate(testUser)

	claims, err := DecodeToken(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if claims.Subject != testUser.UserID {
		t.Errorf("sub = %q, want %q", claims.Subject, testUser.UserID)
	}

	if _, err := DecodeToken(token, []byte("another-secret-entirely!")); err == nil {
		t.Fatal("DecodeToken() should fail with the wrong secret")
	}
}
