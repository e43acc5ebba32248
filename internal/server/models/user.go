// Package models defines server-side data models persisted in the user
// directory.
package models

import "time"

// User is the identity record held by the directory. PasswordHash is the
// opaque credential blob produced by the hasher (base64 of salt||derived
// key); it is never interpreted outside the hasher.
type User struct {
	ID           int64     `db:"id"`
	UserName     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Active       bool      `db:"active"`
	Roles        []string  `db:"roles"`
	CreatedAt    time.Time `db:"created_at"`
}
