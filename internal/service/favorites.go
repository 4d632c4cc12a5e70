package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/metrics"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/repository"
	"github.com/sakif/movieflix/internal/validation"
)

// Listing defaults and bounds.
const (
	DefaultListSort  = repository.SortTitle
	DefaultListOrder = repository.OrderAsc
	DefaultListLimit = 6
	MaxListLimit     = 100
)

// ListParams are caller-supplied listing options. Zero values mean "use the
// default"; Limit above MaxListLimit is clamped.
type ListParams struct {
	Sort  string `json:"sort" validate:"oneof=title released imdbRating year runtime"`
	Order string `json:"order" validate:"oneof=ASC DESC"`
	Limit int    `json:"limit" validate:"min=1"`
	Skip  int    `json:"skip" validate:"min=0"`
}

// normalize fills defaults, upper-cases Order, clamps Limit and validates
// the result against the sort allow-list.
func (p ListParams) normalize() (repository.ListOptions, error) {
	if p.Sort == "" {
		p.Sort = DefaultListSort
	}
	if p.Order == "" {
		p.Order = DefaultListOrder
	}
	p.Order = strings.ToUpper(p.Order)
	if p.Limit == 0 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}

	if err := validation.Struct(p); err != nil {
		return repository.ListOptions{}, err
	}

	return repository.ListOptions{Sort: p.Sort, Order: p.Order, Limit: p.Limit, Skip: p.Skip}, nil
}

// FavoriteService manages a user's favorite movies.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, logger: logger}
}

// List returns the user's favorites, each flagged favorite=true.
// Invalid Sort or Order values fail with a ValidationFailed error.
func (s *FavoriteService) List(ctx context.Context, userID string, params ListParams) ([]model.Movie, error) {
	opts, err := params.normalize()
	if err != nil {
		metrics.RecordFavorite("list", "invalid")
		return nil, err
	}

	movies, err := s.favorites.ListFavorites(ctx, userID, opts)
	if err != nil {
		metrics.RecordFavorite("list", "error")
		return nil, fmt.Errorf("service/favorites: listing for user %s: %w", userID, err)
	}

	metrics.RecordFavorite("list", "success")
	return movies, nil
}

// Add marks a movie as a favorite. Adding an existing favorite succeeds and
// changes nothing. A missing user or movie yields apperror.ErrNotFound.
func (s *FavoriteService) Add(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	movie, err := s.favorites.AddFavorite(ctx, userID, movieID)
	if err != nil {
		metrics.RecordFavorite("add", outcomeOf(err))
		return nil, fmt.Errorf("service/favorites: adding %s for user %s: %w", movieID, userID, err)
	}

	metrics.RecordFavorite("add", "success")
	s.logger.Info("favorite added",
		slog.String("userID", userID),
		slog.String("movieID", movieID),
	)
	return movie, nil
}

// Remove unmarks a favorite. It yields apperror.ErrNotFound when the movie
// was not a favorite of the user (or either does not exist).
func (s *FavoriteService) Remove(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	movie, err := s.favorites.RemoveFavorite(ctx, userID, movieID)
	if err != nil {
		metrics.RecordFavorite("remove", outcomeOf(err))
		return nil, fmt.Errorf("service/favorites: removing %s for user %s: %w", movieID, userID, err)
	}

	metrics.RecordFavorite("remove", "success")
	s.logger.Info("favorite removed",
		slog.String("userID", userID),
		slog.String("movieID", movieID),
	)
	return movie, nil
}

func outcomeOf(err error) string {
	if errors.Is(err, apperror.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
