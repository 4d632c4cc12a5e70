package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/auth"
	"github.com/sakif/movieflix/internal/service"
)

// AuthService is the part of service.AuthService the handler needs.
type AuthService interface {
	Register(ctx context.Context, email, plainPassword, name string) (*service.AuthResult, error)
	Authenticate(ctx context.Context, email, plainPassword string) (*service.LoginResult, error)
}

// AuthHandler serves registration, login and the current-account lookup.
//
//   - HandleRegister → POST /api/auth/register
//   - HandleLogin    → POST /api/auth/login
//   - HandleMe       → GET  /api/account (behind auth.RequireAuth)
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is the public view of a user, plus a token when one was
// just issued.
type AccountResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token,omitempty"`
}

// HandleRegister creates an account and returns it with a session token.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.logger.Warn("registration failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{
		UserID: result.User.UserID,
		Email:  result.User.Email,
		Name:   result.User.Name,
		Token:  result.Token,
	})
}

// HandleLogin exchanges credentials for a session token.
//
// Unknown email and wrong password produce the same 401 body, so the
// response does not reveal which emails are registered.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if !result.Succeeded() {
		h.logger.Info("login rejected", slog.String("outcome", result.Outcome.String()))
		writeError(w, apperror.Unauthorized("Incorrect email or password"))
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		UserID: result.User.UserID,
		Email:  result.User.Email,
		Name:   result.User.Name,
		Token:  result.Token,
	})
}

// HandleMe returns the account encoded in the caller's token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	})
}
