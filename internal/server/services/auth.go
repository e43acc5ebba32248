// Package services contains the authentication orchestrator. It composes
// the credential hasher, the token issuer and the user directory into the
// register / login / resolve-identity flows, translating every outcome into
// an AuthResult.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrememisaac/communityauth/internal/common"
	"github.com/mrememisaac/communityauth/internal/logging"
	"github.com/mrememisaac/communityauth/internal/server/auth"
	"github.com/mrememisaac/communityauth/internal/server/directory"
	"github.com/mrememisaac/communityauth/internal/server/models"
)

const (
	msgUsernameRequired = "username is required"
	msgEmailRequired    = "email is required"
	msgEmailInvalid     = "email is invalid"
	msgPasswordRequired = "password is required"
	msgPasswordTooShort = "password must be at least 8 characters"
	msgPasswordMismatch = "passwords do not match"

	msgEmailTaken    = "email already registered"
	msgUsernameTaken = "username already taken"

	// One message for absent user, inactive user and wrong password, so a
	// caller cannot enumerate accounts.
	msgInvalidCredentials = "invalid email or password"

	msgTokenRequired = "token is required"
	msgTokenInvalid  = "invalid or expired token"
	msgUserNotFound  = "user not found"

	msgInternal = "something went wrong, please try again"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type LoginRequest struct {
	Email    string
	Password string
}

// AuthService orchestrates authentication against a user directory. It is
// immutable after construction and safe for concurrent use.
type AuthService struct {
	directory directory.Repository
	hasher    *auth.Hasher
	issuer    *auth.Issuer
	logger    logging.Logger

	// decoyCredential is verified against on login when the email lookup
	// misses, so the miss path costs one full key derivation like the hit
	// path. Without it, response latency would reveal whether an email is
	// registered even though the message is generic.
	decoyCredential string
}

func NewAuthService(dir directory.Repository, hasher *auth.Hasher, issuer *auth.Issuer, logger logging.Logger) *AuthService {
	return &AuthService{
		directory:       dir,
		hasher:          hasher,
		issuer:          issuer,
		logger:          logger.With("module", "auth_service"),
		decoyCredential: hasher.Hash(hex.EncodeToString(common.GenerateRandByteArray(16))),
	}
}

// Register validates the request, checks uniqueness against the directory,
// then persists the new identity and issues a token for it. All validation
// violations are reported together.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) *AuthResult {
	if msgs := validateRegister(req); len(msgs) > 0 {
		return failure(msgs...)
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if _, err := s.directory.GetByEmail(ctx, req.Email); err == nil {
		return failure(msgEmailTaken)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.infrastructureFailure(ctx, "email uniqueness check failed", err)
	}

	if _, err := s.directory.GetByUsername(ctx, req.Username); err == nil {
		return failure(msgUsernameTaken)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.infrastructureFailure(ctx, "username uniqueness check failed", err)
	}

	user := &models.User{
		UserName:     req.Username,
		Email:        req.Email,
		PasswordHash: s.hasher.Hash(req.Password),
		Active:       true,
		CreatedAt:    time.Now(),
	}

	created, err := s.directory.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// Lost the race against a concurrent registration; report it the
			// same way the pre-check would have.
			if _, lookupErr := s.directory.GetByEmail(ctx, req.Email); lookupErr == nil {
				return failure(msgEmailTaken)
			}
			return failure(msgUsernameTaken)
		}
		return s.infrastructureFailure(ctx, "user creation failed", err)
	}

	token, err := s.issuer.Issue(created)
	if err != nil {
		return s.infrastructureFailure(ctx, "token issuance failed", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID, "username", created.UserName)
	return success(created, token)
}

// Login verifies credentials and issues a token. Absent account, inactive
// account and wrong password are indistinguishable in both message and,
// thanks to the decoy verification, timing.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) *AuthResult {
	var msgs []string
	if strings.TrimSpace(req.Email) == "" {
		msgs = append(msgs, msgEmailRequired)
	}
	if req.Password == "" {
		msgs = append(msgs, msgPasswordRequired)
	}
	if len(msgs) > 0 {
		return failure(msgs...)
	}

	// Registration stores the trimmed form, so look up the same way.
	req.Email = strings.TrimSpace(req.Email)

	user, err := s.directory.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a derivation so the miss is as slow as a real verify.
			s.hasher.Verify(req.Password, s.decoyCredential)
			return failure(msgInvalidCredentials)
		}
		return s.infrastructureFailure(ctx, "email lookup failed", err)
	}

	if !user.Active {
		s.hasher.Verify(req.Password, user.PasswordHash)
		return failure(msgInvalidCredentials)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return failure(msgInvalidCredentials)
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return s.infrastructureFailure(ctx, "token issuance failed", err)
	}

	return success(user, token)
}

// ResolveIdentity maps a bearer token back to the identity it was issued
// for. Token failures are reported with one undifferentiated message.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) *AuthResult {
	if strings.TrimSpace(token) == "" {
		return failure(msgTokenRequired)
	}

	subjectID, ok := s.issuer.ResolveSubject(token)
	if !ok {
		return failure(msgTokenInvalid)
	}

	user, err := s.directory.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return failure(msgUserNotFound)
		}
		return s.infrastructureFailure(ctx, "user lookup failed", err)
	}

	return success(user, "")
}

// infrastructureFailure routes the underlying fault to the diagnostic
// channel and hands the caller a generic, non-leaking failure.
func (s *AuthService) infrastructureFailure(ctx context.Context, msg string, err error) *AuthResult {
	s.logger.Error(ctx, msg, "event_id", uuid.NewString(), "error", err.Error())
	return failure(msgInternal)
}

func validateRegister(req RegisterRequest) []string {
	var msgs []string

	if strings.TrimSpace(req.Username) == "" {
		msgs = append(msgs, msgUsernameRequired)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		msgs = append(msgs, msgEmailRequired)
	} else if !validEmail(email) {
		msgs = append(msgs, msgEmailInvalid)
	}

	if req.Password == "" {
		msgs = append(msgs, msgPasswordRequired)
	} else if len(req.Password) < minPasswordLength {
		msgs = append(msgs, msgPasswordTooShort)
	}

	if req.Password != req.ConfirmPassword {
		msgs = append(msgs, msgPasswordMismatch)
	}

	return msgs
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && strings.Count(email, "@") == 1
}
