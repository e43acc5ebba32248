// Package common contains shared sentinel errors and small crypto-adjacent
// helpers used across the authentication components. Callers should use
// errors.Is to match the sentinel values.
package common

import "errors"

var (
	// Directory-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
)
