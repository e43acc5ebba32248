package services

import "github.com/mrememisaac/communityauth/internal/server/models"

// UserSummary is the caller-facing slice of an identity record. The
// credential blob never leaves the service.
type UserSummary struct {
	ID       int64
	Username string
	Email    string
	Roles    []string
}

// AuthResult is the uniform outcome of every orchestrator operation: either
// a success payload or one or more human-readable error messages. Expected
// failures (validation, conflicts, bad credentials, bad tokens) travel here,
// never as Go errors.
type AuthResult struct {
	Succeeded bool
	Errors    []string
	User      *UserSummary
	Token     string
}

func failure(messages ...string) *AuthResult {
	return &AuthResult{Errors: messages}
}

func success(user *models.User, token string) *AuthResult {
	return &AuthResult{
		Succeeded: true,
		User: &UserSummary{
			ID:       user.ID,
			Username: user.UserName,
			Email:    user.Email,
			Roles:    user.Roles,
		},
		Token: token,
	}
}
