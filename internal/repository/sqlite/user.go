package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/metrics"
	"github.com/sakif/movieflix/internal/model"
)

// CreateUser inserts a new user row.
//
// The caller supplies UserID; the repository never generates identifiers.
// A duplicate email violates the UNIQUE constraint on users.email and is
// reported as apperror.Conflict. Two concurrent registrations with the same
// email are serialized by SQLite, and exactly one of them wins.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	defer metrics.ObserveQuery(backendName, "create_user", time.Now())

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, email, password, name, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			user.UserID,
			user.Email,
			user.PasswordHash,
			user.Name,
			time.Now().UTC(),
		)
		if err != nil {
			if isUniqueViolation(err, "users.email") {
				return apperror.Conflict("user", "email")
			}
			return fmt.Errorf("sqlite: inserting user %s: %w", user.UserID, err)
		}
		return nil
	})
}

// GetUserByEmail retrieves a user, including the password hash, by email.
// Returns apperror.ErrNotFound if no user has that email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer metrics.ObserveQuery(backendName, "get_user_by_email", time.Now())

	var u model.User
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`SELECT user_id, email, password, name FROM users WHERE email = ?`,
			email,
		).Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.Name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint
// failure on the given table.column.
func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
