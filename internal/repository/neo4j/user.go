package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/sakif/movieflix/internal/apperror"
	"github.com/sakif/movieflix/internal/model"
)

const createUserQuery = `
CREATE (u:User {userId: $userId, email: $email, password: $password, name: $name})
RETURN u.userId AS userId`

// CreateUser creates a User node. A duplicate email is rejected by the
// user_email constraint and reported as apperror.Conflict.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.executeWrite(ctx, "create_user", func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, createUserQuery, map[string]any{
			"userId":   user.UserID,
			"email":    user.Email,
			"password": user.PasswordHash,
			"name":     user.Name,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("neo4j: creating user %s: %w", user.UserID, err)
	}
	return nil
}

// GetUserByEmail returns the user including its password hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", "User").WithProperties(map[string]interface{}{"email": email})).
		Return("u").
		Build()
	if err != nil {
		return nil, fmt.Errorf("neo4j: building user lookup: %w", err)
	}

	value, err := s.executeRead(ctx, "get_user_by_email", func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}

		raw, _ := records[0].Get("u")
		node, ok := raw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("return value 'u' is %T, not a node", raw)
		}
		return userFromNode(node), nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: getting user by email: %w", err)
	}

	user, _ := value.(*model.User)
	if user == nil {
		return nil, apperror.NotFound("user", email)
	}
	return user, nil
}

func userFromNode(node neo4j.Node) *model.User {
	str := func(key string) string {
		s, _ := node.Props[key].(string)
		return s
	}
	return &model.User{
		UserID:       str("userId"),
		Email:        str("email"),
		Name:         str("name"),
		PasswordHash: str("password"),
	}
}
