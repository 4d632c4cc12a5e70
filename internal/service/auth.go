// Package service holds the business rules. Handlers call services;
// services call repositories and the auth primitives:
//
//	handler (HTTP) → AuthService     → UserRepository (store)
//	                                 ↘ TokenService, PasswordService
//	               → FavoriteService → FavoriteRepository (store)
//
// Services know nothing about HTTP. Every dependency arrives through the
// constructor.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/auth"
	"github.com/sakif/movieflix/internal/metrics"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/repository"
)

// LoginOutcome says how an Authenticate call ended. Only LoginSucceeded
// carries a user and token.
type LoginOutcome int

const (
	LoginSucceeded LoginOutcome = iota
	LoginUnknownEmail
	LoginBadPassword
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSucceeded:
		return "success"
	case LoginUnknownEmail:
		return "unknown_email"
	case LoginBadPassword:
		return "bad_password"
	default:
		return fmt.Sprintf("LoginOutcome(%d)", int(o))
	}
}

// AuthService registers and authenticates users and issues session tokens.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → create and look up users
//   - tokens     *auth.TokenService         → sign and decode JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
	newID     func() string
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// AuthResult is returned by Register: the public user record and a token
// for it. User.PasswordHash is always empty.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginResult is returned by Authenticate. User and Token are set only when
// Outcome is LoginSucceeded.
type LoginResult struct {
	Outcome LoginOutcome
	User    *model.User
	Token   string
}

// Succeeded reports whether the credentials were accepted.
func (r *LoginResult) Succeeded() bool {
	return r != nil && r.Outcome == LoginSucceeded
}

// Register creates an account and returns it with a fresh session token.
//
// The only rules enforced are uniqueness of email (a duplicate comes back
// as a ValidationFailed on "email") and bcrypt's 72-byte input limit. There
// is deliberately no email-format or password-strength policy here.
func (s *AuthService) Register(ctx context.Context, email, plainPassword, name string) (*AuthResult, error) {
	hash, err := s.passwords.Hash(plainPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			metrics.RecordAuth("register", "invalid_password")
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		metrics.RecordAuth("register", "error")
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		UserID:       s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			metrics.RecordAuth("register", "duplicate_email")
			return nil, apperror.ValidationFailed("email",
				"An account already exists with the email address "+email)
		}
		metrics.RecordAuth("register", "error")
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, err := s.tokens.Generate(claimsFor(user))
	if err != nil {
		metrics.RecordAuth("register", "error")
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.UserID, err)
	}

	metrics.RecordAuth("register", "success")
	s.logger.Info("user registered", slog.String("userID", user.UserID))

	return &AuthResult{User: publicUser(user), Token: token}, nil
}

// Authenticate checks an email/password pair.
//
// A wrong password or unknown email is not an error: it comes back as a
// LoginResult with the matching Outcome and a nil error. The error return
// is reserved for faults such as an unreachable store or a corrupt hash.
func (s *AuthService) Authenticate(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			metrics.RecordAuth("login", LoginUnknownEmail.String())
			return &LoginResult{Outcome: LoginUnknownEmail}, nil
		}
		metrics.RecordAuth("login", "error")
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, plainPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.RecordAuth("login", LoginBadPassword.String())
			return &LoginResult{Outcome: LoginBadPassword}, nil
		}
		metrics.RecordAuth("login", "error")
		s.logger.Error("stored password hash is unusable",
			slog.String("userID", user.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.UserID, err)
	}

	token, err := s.tokens.Generate(claimsFor(user))
	if err != nil {
		metrics.RecordAuth("login", "error")
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.UserID, err)
	}

	metrics.RecordAuth("login", LoginSucceeded.String())
	s.logger.Debug("user authenticated", slog.String("userID", user.UserID))

	return &LoginResult{
		Outcome: LoginSucceeded,
		User:    publicUser(user),
		Token:   token,
	}, nil
}

// DecodeToken verifies a session token with the service's secret.
// Errors wrap auth.ErrTokenExpired or auth.ErrTokenInvalid.
func (s *AuthService) DecodeToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	return claims, nil
}

func claimsFor(u *model.User) auth.UserClaims {
	return auth.UserClaims{UserID: u.UserID, Email: u.Email, Name: u.Name}
}

// publicUser returns a copy of u without the password hash.
func publicUser(u *model.User) *model.User {
	return &model.User{UserID: u.UserID, Email: u.Email, Name: u.Name}
}
