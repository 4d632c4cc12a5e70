package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/auth"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/service"
)

// FavoriteService is the part of service.FavoriteService the handler needs.
type FavoriteService interface {
	List(ctx context.Context, userID string, params service.ListParams) ([]model.Movie, error)
	Add(ctx context.Context, userID, movieID string) (*model.Movie, error)
	Remove(ctx context.Context, userID, movieID string) (*model.Movie, error)
}

// FavoritesHandler serves /api/account/favorites. Every route sits behind
// auth.RequireAuth; the user is always the token's subject.
type FavoritesHandler struct {
	favorites FavoriteService
	logger    *slog.Logger
}

func NewFavoritesHandler(favorites FavoriteService, logger *slog.Logger) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, logger: logger}
}

// HandleList returns the caller's favorites.
//
// HTTP: GET /api/account/favorites?sort=imdbRating&order=DESC&limit=6&skip=0
func (h *FavoritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	params, err := listParamsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	movies, err := h.favorites.List(r.Context(), userID, params)
	if err != nil {
		h.logger.Error("listing favorites failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// HandleAdd marks {id} as a favorite.
//
// HTTP: POST /api/account/favorites/{id}
func (h *FavoritesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.favorites.Add)
}

// HandleRemove unmarks {id}.
//
// HTTP: DELETE /api/account/favorites/{id}
func (h *FavoritesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.favorites.Remove)
}

func (h *FavoritesHandler) write(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, movieID string) (*model.Movie, error)) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	movieID := chi.URLParam(r, "id")
	movie, err := op(r.Context(), userID, movieID)
	if err != nil {
		h.logger.Warn("favorite update failed",
			slog.String("userID", userID),
			slog.String("movieID", movieID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// listParamsFromQuery reads sort, order, limit and skip. Absent values stay
// zero so the service applies its defaults.
func listParamsFromQuery(r *http.Request) (service.ListParams, error) {
	q := r.URL.Query()
	params := service.ListParams{
		Sort:  q.Get("sort"),
		Order: q.Get("order"),
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &params.Limit},
		{"skip", &params.Skip},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.ListParams{}, apperror.ValidationFailed(p.name, fmt.Sprintf("%s must be an integer", p.name))
		}
		*p.dst = n
	}

	return params, nil
}
