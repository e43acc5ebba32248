package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mrememisaac/communityauth/internal/server/models"
)

const (
	// MinKeyLength is the minimum accepted HMAC signing key size in bytes.
	MinKeyLength = 32

	// DefaultValidityDuration is used when the configured token lifetime is
	// zero or negative.
	DefaultValidityDuration = 60 * time.Minute
)

// Claims is the fixed claim set embedded in every issued token. The subject
// carries the user id in decimal form; issuer, audience and the timestamps
// live in the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Issuer mints and resolves HS256-signed bearer tokens. It is immutable
// after construction.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	validity time.Duration
}

// NewIssuer validates the signing key and returns a configured Issuer.
// A key shorter than MinKeyLength is a deployment mistake and is rejected
// here so it surfaces at startup, not mid-request.
func NewIssuer(key []byte, issuer string, audience string, validity time.Duration) (*Issuer, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyLength, len(key))
	}
	if validity <= 0 {
		validity = DefaultValidityDuration
	}
	return &Issuer{key: key, issuer: issuer, audience: audience, validity: validity}, nil
}

// Issue signs a token for the given user. A nil user is a programmer error
// and panics.
func (i *Issuer) Issue(user *models.User) (string, error) {
	if user == nil {
		panic("auth: Issue called with nil user")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Username: user.UserName,
		Email:    user.Email,
		Roles:    user.Roles,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// ResolveSubject parses and validates a token and returns the subject user
// id. Every failure mode — malformed input, bad signature, wrong issuer or
// audience, expiry — yields the same (0, false) result. Distinguishing them
// would hand an attacker a verification oracle.
func (i *Issuer) ResolveSubject(tokenString string) (int64, bool) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, false
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}
