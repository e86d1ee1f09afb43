package models

import "time"

// User is an account able to log in and manage flags.
type User struct {
	ID    int64
	Name  string
	Email string
	// PasswordHash is an encoded argon2id hash; it never leaves the server.
	PasswordHash string
	CreatedAt    time.Time
}
