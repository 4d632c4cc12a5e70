package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/repository"
	"github.com/sakif/movieflix/internal/repository/sqlite"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// recordingFavoriteRepo captures the options ListFavorites was called with.
type recordingFavoriteRepo struct {
	lastOpts repository.ListOptions
	calls    int
	err      error
}

func (r *recordingFavoriteRepo) ListFavorites(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Movie, error) {
	r.calls++
	r.lastOpts = opts
	return []model.Movie{}, r.err
}

func (r *recordingFavoriteRepo) AddFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	return nil, r.err
}

func (r *recordingFavoriteRepo) RemoveFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	return nil, r.err
}

// newSQLiteFavoriteService wires a FavoriteService to an in-memory store
// holding three movies and one user.
func newSQLiteFavoriteService(t *testing.T) (*FavoriteService, string) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(ctx) })

	for _, m := range []model.Movie{
		{TmdbID: "862", Title: "Toy Story", Year: 1995, ImdbRating: 8.3},
		{TmdbID: "603", Title: "The Matrix", Year: 1999, ImdbRating: 8.7},
		{TmdbID: "238", Title: "The Godfather", Year: 1972, ImdbRating: 9.2},
	} {
		require.NoError(t, db.UpsertMovie(ctx, m))
	}
	require.NoError(t, db.CreateUser(ctx, &model.User{UserID: "u-1", Email: "graph@acme.com", PasswordHash: "x"}))

	return NewFavoriteService(db, testLogger()), "u-1"
}

func movieTitles(movies []model.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}

// =========================================================================
// ListParams TESTS
// =========================================================================

func TestList_Defaults(t *testing.T) {
	repo := &recordingFavoriteRepo{}
	svc := NewFavoriteService(repo, testLogger())

	_, err := svc.List(context.Background(), "u-1", ListParams{})
	require.NoError(t, err)

	assert.Equal(t, repository.ListOptions{Sort: "title", Order: "ASC", Limit: 6, Skip: 0}, repo.lastOpts)
}

func TestList_NormalizesParams(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		want   repository.ListOptions
	}{
		{
			name:   "lowercase order",
			params: ListParams{Sort: "imdbRating", Order: "desc"},
			want:   repository.ListOptions{Sort: "imdbRating", Order: "DESC", Limit: 6},
		},
		{
			name:   "limit clamped",
			params: ListParams{Limit: 5000, Skip: 3},
			want:   repository.ListOptions{Sort: "title", Order: "ASC", Limit: MaxListLimit, Skip: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingFavoriteRepo{}
			svc := NewFavoriteService(repo, testLogger())

			_, err := svc.List(context.Background(), "u-1", tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.lastOpts)
		})
	}
}

func TestList_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		params    ListParams
		wantField string
	}{
		{"unknown sort", ListParams{Sort: "plot"}, "sort"},
		{"injection attempt", ListParams{Sort: "title` DETACH DELETE m //"}, "sort"},
		{"sort is case-sensitive", ListParams{Sort: "IMDBRATING"}, "sort"},
		{"unknown order", ListParams{Order: "sideways"}, "order"},
		{"negative limit", ListParams{Limit: -1}, "limit"},
		{"negative skip", ListParams{Skip: -1}, "skip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingFavoriteRepo{}
			svc := NewFavoriteService(repo, testLogger())

			_, err := svc.List(context.Background(), "u-1", tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Zero(t, repo.calls, "invalid params must not reach the store")
		})
	}
}

func TestListParams_AcceptEverySortKey(t *testing.T) {
	for _, key := range repository.SortKeys {
		for _, order := range repository.SortOrders {
			_, err := ListParams{Sort: key, Order: order}.normalize()
			assert.NoError(t, err, "%s %s", key, order)
		}
	}
}

func TestList_StoreError(t *testing.T) {
	repo := &recordingFavoriteRepo{err: errors.New("connection reset")}
	svc := NewFavoriteService(repo, testLogger())

	_, err := svc.List(context.Background(), "u-1", ListParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// =========================================================================
// END-TO-END OVER THE EMBEDDED STORE
// =========================================================================

func TestFavorites_AddIsIdempotent(t *testing.T) {
	svc, userID := newSQLiteFavoriteService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, userID, "603")
	require.NoError(t, err)
	second, err := svc.Add(ctx, userID, "603")
	require.NoError(t, err)

	assert.True(t, first.Favorite)
	assert.True(t, second.Favorite)
	assert.Equal(t, first.TmdbID, second.TmdbID)

	list, err := svc.List(ctx, userID, ListParams{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFavorites_AddThenRemove(t *testing.T) {
	svc, userID := newSQLiteFavoriteService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, userID, "862")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, userID, "862")
	require.NoError(t, err)
	assert.False(t, removed.Favorite)
	assert.Equal(t, "Toy Story", removed.Title)

	list, err := svc.List(ctx, userID, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFavorites_RemoveNonFavorite(t *testing.T) {
	svc, userID := newSQLiteFavoriteService(t)

	_, err := svc.Remove(context.Background(), userID, "862")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func TestFavorites_AddMissing(t *testing.T) {
	svc, userID := newSQLiteFavoriteService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, userID, "no-such-movie")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	_, err = svc.Add(ctx, "no-such-user", "862")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func TestFavorites_Paging(t *testing.T) {
	svc, userID := newSQLiteFavoriteService(t)
	ctx := context.Background()
	for _, id := range []string{"862", "603", "238"} {
		_, err := svc.Add(ctx, userID, id)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, userID, ListParams{Sort: "title", Order: "ASC", Limit: 1, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Matrix"}, movieTitles(page))

	byYear, err := svc.List(ctx, userID, ListParams{Sort: "year", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Matrix", "Toy Story", "The Godfather"}, movieTitles(byYear))
	for _, m := range byYear {
		assert.True(t, m.Favorite)
	}
}
