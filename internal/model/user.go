// Package model defines the data structures used throughout the application.
package model

// User represents a registered account, stored as a :User node.
//
// UserID is generated by the server at registration and never changes.
// Email is the login key and is unique across all users (the store enforces
// this with a uniqueness constraint, not application code).
//
// PasswordHash carries the bcrypt digest between the repository and the
// auth service only. The `json:"-"` tag keeps it out of every response.
type User struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}
