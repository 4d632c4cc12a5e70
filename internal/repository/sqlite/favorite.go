package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/metrics"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/repository"
)

const movieColumns = `m.tmdb_id, m.title, m.year, m.released, m.imdb_rating, m.runtime,
	m.plot, m.poster, m.languages, m.countries, m.budget, m.revenue`

// sortColumns maps each allowed sort key to its column.
var sortColumns = map[string]string{
	repository.SortTitle:      "m.title",
	repository.SortReleased:   "m.released",
	repository.SortImdbRating: "m.imdb_rating",
	repository.SortYear:       "m.year",
	repository.SortRuntime:    "m.runtime",
}

// listQueries holds one statement per (sort, order) pair, keyed by
// ListOptions.Key(). Built once from constants; caller input only ever
// selects an entry.
var listQueries = buildListQueries()

func buildListQueries() map[string]string {
	queries := make(map[string]string, len(repository.SortKeys)*len(repository.SortOrders))
	for _, key := range repository.SortKeys {
		for _, order := range repository.SortOrders {
			opts := repository.ListOptions{Sort: key, Order: order}
			// tmdb_id breaks ties so paging is stable.
			queries[opts.Key()] = fmt.Sprintf(`
				SELECT %s
				FROM favorites f
				JOIN movies m ON m.tmdb_id = f.tmdb_id
				WHERE f.user_id = ?
				ORDER BY %s %s, m.tmdb_id
				LIMIT ? OFFSET ?`,
				movieColumns, sortColumns[key], order)
		}
	}
	return queries
}

// ListFavorites returns the user's favorite movies, each with Favorite=true.
// A user with no favorites (or no account) gets an empty slice.
func (db *DB) ListFavorites(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Movie, error) {
	defer metrics.ObserveQuery(backendName, "list_favorites", time.Now())

	query, ok := listQueries[opts.Key()]
	if !ok {
		return nil, apperror.ValidationFailed("sort", fmt.Sprintf("unsupported ordering %q", opts.Key()))
	}

	movies := []model.Movie{}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, userID, opts.Limit, opts.Skip)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMovie(rows)
			if err != nil {
				return err
			}
			m.Favorite = true
			movies = append(movies, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for %s: %w", userID, err)
	}

	return movies, nil
}

// AddFavorite records the favorite edge. Adding an existing favorite is a
// no-op that still returns the movie; the original created_at is kept.
func (db *DB) AddFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	defer metrics.ObserveQuery(backendName, "add_favorite", time.Now())

	var movie model.Movie
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		m, err := getMovie(ctx, tx, movieID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorites (user_id, tmdb_id, created_at) VALUES (?, ?, ?)`,
			userID, movieID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting favorite: %w", err)
		}

		movie = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	movie.Favorite = true
	return &movie, nil
}

// RemoveFavorite deletes the favorite edge. It returns apperror.ErrNotFound
// when the user or movie is missing, or when the movie was not a favorite.
func (db *DB) RemoveFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	defer metrics.ObserveQuery(backendName, "remove_favorite", time.Now())

	var movie model.Movie
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		m, err := getMovie(ctx, tx, movieID)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = ? AND tmdb_id = ?`,
			userID, movieID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting favorite: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("favorite", movieID)
		}

		movie = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	movie.Favorite = false
	return &movie, nil
}

// UpsertMovie inserts or replaces a catalog movie. This is the entry point
// for the catalog loader; the favorites API never calls it.
func (db *DB) UpsertMovie(ctx context.Context, m model.Movie) error {
	languages, err := json.Marshal(nonNil(m.Languages))
	if err != nil {
		return fmt.Errorf("sqlite: encoding languages: %w", err)
	}
	countries, err := json.Marshal(nonNil(m.Countries))
	if err != nil {
		return fmt.Errorf("sqlite: encoding countries: %w", err)
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movies (tmdb_id, title, year, released, imdb_rating, runtime,
				plot, poster, languages, countries, budget, revenue)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(tmdb_id) DO UPDATE SET
				title = excluded.title,
				year = excluded.year,
				released = excluded.released,
				imdb_rating = excluded.imdb_rating,
				runtime = excluded.runtime,
				plot = excluded.plot,
				poster = excluded.poster,
				languages = excluded.languages,
				countries = excluded.countries,
				budget = excluded.budget,
				revenue = excluded.revenue`,
			m.TmdbID, m.Title, m.Year, m.Released, m.ImdbRating, m.Runtime,
			m.Plot, m.Poster, string(languages), string(countries), m.Budget, m.Revenue,
		)
		if err != nil {
			return fmt.Errorf("sqlite: upserting movie %s: %w", m.TmdbID, err)
		}
		return nil
	})
}

func requireUser(ctx context.Context, tx *sql.Tx, userID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE user_id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("user", userID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: looking up user %s: %w", userID, err)
	}
	return nil
}

func getMovie(ctx context.Context, tx *sql.Tx, movieID string) (model.Movie, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.tmdb_id = ?`, movieID)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, apperror.NotFound("movie", movieID)
	}
	if err != nil {
		return model.Movie{}, fmt.Errorf("sqlite: looking up movie %s: %w", movieID, err)
	}
	return m, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(s scanner) (model.Movie, error) {
	var (
		m                    model.Movie
		languages, countries string
	)
	err := s.Scan(
		&m.TmdbID, &m.Title, &m.Year, &m.Released, &m.ImdbRating, &m.Runtime,
		&m.Plot, &m.Poster, &languages, &countries, &m.Budget, &m.Revenue,
	)
	if err != nil {
		return model.Movie{}, err
	}

	if err := json.Unmarshal([]byte(languages), &m.Languages); err != nil {
		return model.Movie{}, fmt.Errorf("decoding languages: %w", err)
	}
	if err := json.Unmarshal([]byte(countries), &m.Countries); err != nil {
		return model.Movie{}, fmt.Errorf("decoding countries: %w", err)
	}
	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
