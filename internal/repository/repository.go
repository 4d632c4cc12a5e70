// Package repository declares the storage contracts used by the service layer.
//
// Two implementations exist: repository/neo4j (the graph store used in
// production) and repository/sqlite (an embedded store for local development
// and tests). Services depend only on the interfaces below.
package repository

import (
	"context"
	"strings"

	"github.com/sakif/movieflix/internal/model"
)

// Sort keys accepted for favorites listing. Each maps to a movie property;
// backends translate the key into their own column or property name from a
// fixed table, so caller input never becomes query text.
const (
	SortTitle      = "title"
	SortReleased   = "released"
	SortImdbRating = "imdbRating"
	SortYear       = "year"
	SortRuntime    = "runtime"
)

// Sort directions.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// SortKeys is the allow-list of sort keys, in a stable order.
var SortKeys = []string{SortTitle, SortReleased, SortImdbRating, SortYear, SortRuntime}

// SortOrders is the allow-list of sort directions.
var SortOrders = []string{OrderAsc, OrderDesc}

type ListOptions struct {
	Sort  string
	Order string
	Limit int
	Skip  int
}

// Key identifies the pre-built query variant for these options,
// e.g. "imdbRating DESC".
func (o ListOptions) Key() string {
	return o.Sort + " " + strings.ToUpper(o.Order)
}

// IsAllowedSort reports whether key is in SortKeys.
func IsAllowedSort(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsAllowedOrder reports whether order is in SortOrders. Matching is
// case-insensitive.
func IsAllowedOrder(order string) bool {
	order = strings.ToUpper(order)
	for _, o := range SortOrders {
		if o == order {
			return true
		}
	}
	return false
}

type UserRepository interface {
	// CreateUser stores a new user. It returns an error wrapping
	// apperror.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns apperror.ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type FavoriteRepository interface {
	ListFavorites(ctx context.Context, userID string, opts ListOptions) ([]model.Movie, error)
	// AddFavorite is idempotent. It returns apperror.ErrNotFound when either
	// the user or the movie does not exist.
	AddFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error)
	// RemoveFavorite returns apperror.ErrNotFound when the user, the movie or
	// the favorite edge between them does not exist.
	RemoveFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error)
}

// Store is a complete backend: both repositories plus lifecycle.
type Store interface {
	UserRepository
	FavoriteRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
