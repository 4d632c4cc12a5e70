package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/model"
	"github.com/sakif/movieflix/internal/repository"
)

// sortProperties maps each allowed sort key to the Movie property it orders by.
var sortProperties = map[string]string{
	repository.SortTitle:      "title",
	repository.SortReleased:   "released",
	repository.SortImdbRating: "imdbRating",
	repository.SortYear:       "year",
	repository.SortRuntime:    "runtime",
}

// listQueries holds one Cypher statement per (sort, order) pair, keyed by
// ListOptions.Key(). Cypher cannot bind ORDER BY as a parameter, so the
// variants are spelled out here from constants and caller input only
// selects one.
var listQueries = buildListQueries()

func buildListQueries() map[string]string {
	queries := make(map[string]string, len(repository.SortKeys)*len(repository.SortOrders))
	for _, key := range repository.SortKeys {
		for _, order := range repository.SortOrders {
			opts := repository.ListOptions{Sort: key, Order: order}
			queries[opts.Key()] = fmt.Sprintf(`
MATCH (u:User {userId: $userId})-[:HAS_FAVORITE]->(m:Movie)
RETURN m { .*, favorite: true } AS movie
ORDER BY m.`+"`%s`"+` %s, m.tmdbId
SKIP $skip
LIMIT $limit`, sortProperties[key], order)
		}
	}
	return queries
}

const addFavoriteQuery = `
MATCH (u:User {userId: $userId})
MATCH (m:Movie {tmdbId: $movieId})
MERGE (u)-[r:HAS_FAVORITE]->(m)
ON CREATE SET r.createdAt = datetime()
RETURN m { .*, favorite: true } AS movie`

const removeFavoriteQuery = `
MATCH (u:User {userId: $userId})-[r:HAS_FAVORITE]->(m:Movie {tmdbId: $movieId})
DELETE r
RETURN m { .*, favorite: false } AS movie`

// endpointsQuery tells which side of a favorite is missing when a write
// matched nothing.
const endpointsQuery = `
OPTIONAL MATCH (u:User {userId: $userId})
OPTIONAL MATCH (m:Movie {tmdbId: $movieId})
RETURN u IS NOT NULL AS userExists, m IS NOT NULL AS movieExists`

// ListFavorites returns the user's favorites in the requested order.
func (s *Store) ListFavorites(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Movie, error) {
	query, ok := listQueries[opts.Key()]
	if !ok {
		return nil, apperror.ValidationFailed("sort", fmt.Sprintf("unsupported ordering %q", opts.Key()))
	}

	value, err := s.executeRead(ctx, "list_favorites", func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"userId": userID,
			"skip":   int64(opts.Skip),
			"limit":  int64(opts.Limit),
		})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		movies := make([]model.Movie, 0, len(records))
		for _, record := range records {
			m, err := movieFromRecord(record)
			if err != nil {
				return nil, err
			}
			movies = append(movies, m)
		}
		return movies, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: listing favorites for %s: %w", userID, err)
	}

	return value.([]model.Movie), nil
}

// AddFavorite merges the HAS_FAVORITE relationship. createdAt is set only
// when the relationship is first created.
func (s *Store) AddFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	return s.writeFavorite(ctx, "add_favorite", addFavoriteQuery, userID, movieID)
}

// RemoveFavorite deletes the HAS_FAVORITE relationship.
func (s *Store) RemoveFavorite(ctx context.Context, userID, movieID string) (*model.Movie, error) {
	return s.writeFavorite(ctx, "remove_favorite", removeFavoriteQuery, userID, movieID)
}

func (s *Store) writeFavorite(ctx context.Context, operation, query, userID, movieID string) (*model.Movie, error) {
	params := map[string]any{"userId": userID, "movieId": movieID}

	value, err := s.executeWrite(ctx, operation, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, missingEndpoint(ctx, tx, userID, movieID)
		}

		m, err := movieFromRecord(records[0])
		if err != nil {
			return nil, err
		}
		return &m, nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("neo4j: %s %s/%s: %w", operation, userID, movieID, err)
	}

	return value.(*model.Movie), nil
}

// missingEndpoint returns a NotFound error naming the user, the movie or,
// when both exist, the favorite relationship between them.
func missingEndpoint(ctx context.Context, tx neo4j.ManagedTransaction, userID, movieID string) error {
	result, err := tx.Run(ctx, endpointsQuery, map[string]any{"userId": userID, "movieId": movieID})
	if err != nil {
		return err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return err
	}

	userExists, _ := record.Get("userExists")
	movieExists, _ := record.Get("movieExists")
	switch {
	case userExists != true:
		return apperror.NotFound("user", userID)
	case movieExists != true:
		return apperror.NotFound("movie", movieID)
	default:
		return apperror.NotFound("favorite", movieID)
	}
}

func movieFromRecord(record *neo4j.Record) (model.Movie, error) {
	raw, _ := record.Get("movie")
	props, ok := raw.(map[string]any)
	if !ok {
		return model.Movie{}, fmt.Errorf("return value 'movie' is %T, not a map", raw)
	}
	return model.MovieFromProperties(props), nil
}
