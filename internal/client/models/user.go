package models

// User is an account as echoed by the server. Passwords never come back.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Identity is the caller behind the current token.
type Identity struct {
	UserID int64
	Email  string
}

// Snapshot locates an exported copy of the flag set.
type Snapshot struct {
	Key string
	URL string
}
