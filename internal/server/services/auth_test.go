package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrememisaac/communityauth/internal/common"
	"github.com/mrememisaac/communityauth/internal/logging"
	"github.com/mrememisaac/communityauth/internal/server/auth"
	"github.com/mrememisaac/communityauth/internal/server/directory"
	"github.com/mrememisaac/communityauth/internal/server/models"
)

// --- helpers ---

func newTestService(t *testing.T, dir directory.Repository) (*AuthService, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	issuer, err := auth.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), "communityauth", "community-web", time.Hour)
	require.NoError(t, err)

	return NewAuthService(dir, auth.NewHasherWithIterations(1000), issuer, logger), &buf
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Username:        "alice",
		Email:           "a@example.com",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
	}
}

// faultDirectory fails every call with a fixed error.
type faultDirectory struct {
	err error
}

func (f *faultDirectory) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}
func (f *faultDirectory) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, f.err
}
func (f *faultDirectory) GetByID(context.Context, int64) (*models.User, error) {
	return nil, f.err
}
func (f *faultDirectory) Create(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}

// raceDirectory simulates losing the check-then-act race: lookups miss but
// the insert hits the uniqueness constraint, after which the email lookup
// finds the winner.
type raceDirectory struct {
	created bool
}

func (r *raceDirectory) GetByEmail(context.Context, string) (*models.User, error) {
	if r.created {
		return &models.User{ID: 1, Email: "a@example.com"}, nil
	}
	return nil, common.ErrorNotFound
}
func (r *raceDirectory) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, common.ErrorNotFound
}
func (r *raceDirectory) GetByID(context.Context, int64) (*models.User, error) {
	return nil, common.ErrorNotFound
}
func (r *raceDirectory) Create(context.Context, *models.User) (*models.User, error) {
	r.created = true
	return nil, common.ErrorAlreadyExists
}

// --- Register ---

func TestRegister_Success_TokenResolvesBack(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	res := svc.Register(ctx, validRegister())
	require.True(t, res.Succeeded, "errors: %v", res.Errors)
	require.NotNil(t, res.User)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "a@example.com", res.User.Email)
	assert.NotZero(t, res.User.ID)
	require.NotEmpty(t, res.Token)

	resolved := svc.ResolveIdentity(ctx, res.Token)
	require.True(t, resolved.Succeeded, "errors: %v", resolved.Errors)
	assert.Equal(t, "alice", resolved.User.Username)
	assert.Equal(t, res.User.ID, resolved.User.ID)
}

func TestRegister_ValidationErrors_AllReported(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())

	res := svc.Register(context.Background(), RegisterRequest{
		Username:        "",
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "different",
	})

	require.False(t, res.Succeeded)
	assert.Contains(t, res.Errors, msgUsernameRequired)
	assert.Contains(t, res.Errors, msgEmailInvalid)
	assert.Contains(t, res.Errors, msgPasswordTooShort)
	assert.Contains(t, res.Errors, msgPasswordMismatch)
	assert.Len(t, res.Errors, 4)
}

func TestRegister_EmptyRequest_CollectsRequiredFields(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())

	res := svc.Register(context.Background(), RegisterRequest{})

	require.False(t, res.Succeeded)
	assert.Contains(t, res.Errors, msgUsernameRequired)
	assert.Contains(t, res.Errors, msgEmailRequired)
	assert.Contains(t, res.Errors, msgPasswordRequired)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	require.True(t, svc.Register(ctx, validRegister()).Succeeded)

	dup := validRegister()
	dup.Username = "someone-else"
	res := svc.Register(ctx, dup)

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgEmailTaken}, res.Errors)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	require.True(t, svc.Register(ctx, validRegister()).Succeeded)

	dup := validRegister()
	dup.Email = "other@example.com"
	res := svc.Register(ctx, dup)

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgUsernameTaken}, res.Errors)
}

func TestRegister_LostUniquenessRace(t *testing.T) {
	svc, _ := newTestService(t, &raceDirectory{})

	res := svc.Register(context.Background(), validRegister())

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgEmailTaken}, res.Errors)
}

func TestRegister_DirectoryFault_GenericFailure(t *testing.T) {
	svc, buf := newTestService(t, &faultDirectory{err: errors.New("connection refused")})

	res := svc.Register(context.Background(), validRegister())

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgInternal}, res.Errors)

	// The underlying fault goes to diagnostics only.
	assert.NotContains(t, strings.Join(res.Errors, " "), "connection refused")
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "event_id")
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	require.True(t, svc.Register(ctx, validRegister()).Succeeded)

	res := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "Passw0rd!"})
	require.True(t, res.Succeeded, "errors: %v", res.Errors)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_WhitespaceAroundEmail(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	require.True(t, svc.Register(ctx, validRegister()).Succeeded)

	res := svc.Login(ctx, LoginRequest{Email: "  a@example.com ", Password: "Passw0rd!"})
	require.True(t, res.Succeeded, "errors: %v", res.Errors)
	assert.Equal(t, "alice", res.User.Username)
}

func TestLogin_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())

	res := svc.Login(context.Background(), LoginRequest{})
	require.False(t, res.Succeeded)
	assert.Contains(t, res.Errors, msgEmailRequired)
	assert.Contains(t, res.Errors, msgPasswordRequired)
}

func TestLogin_WrongPasswordAndUnknownEmail_SameMessage(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())
	ctx := context.Background()

	require.True(t, svc.Register(ctx, validRegister()).Succeeded)

	wrongPassword := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	require.False(t, wrongPassword.Succeeded)

	unknownEmail := svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	require.False(t, unknownEmail.Succeeded)

	assert.Equal(t, wrongPassword.Errors, unknownEmail.Errors,
		"wrong password and unknown email must be indistinguishable")
	assert.Equal(t, []string{msgInvalidCredentials}, wrongPassword.Errors)
}

func TestLogin_InactiveUser_GenericMessage(t *testing.T) {
	repo := directory.NewMemoryRepository()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	hasher := auth.NewHasherWithIterations(1000)
	_, err := repo.Create(ctx, &models.User{
		UserName:     "bob",
		Email:        "bob@example.com",
		PasswordHash: hasher.Hash("Passw0rd!"),
		Active:       false,
	})
	require.NoError(t, err)

	res := svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "Passw0rd!"})
	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgInvalidCredentials}, res.Errors)
}

func TestLogin_DirectoryFault_GenericFailure(t *testing.T) {
	svc, buf := newTestService(t, &faultDirectory{err: errors.New("boom")})

	res := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "Passw0rd!"})

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgInternal}, res.Errors)
	assert.Contains(t, buf.String(), "boom")
}

// --- ResolveIdentity ---

func TestResolveIdentity_EmptyToken(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())

	res := svc.ResolveIdentity(context.Background(), "  ")
	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgTokenRequired}, res.Errors)
}

func TestResolveIdentity_GarbageToken(t *testing.T) {
	svc, _ := newTestService(t, directory.NewMemoryRepository())

	res := svc.ResolveIdentity(context.Background(), "not.a.token")
	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgTokenInvalid}, res.Errors)
}

func TestResolveIdentity_SubjectRemoved(t *testing.T) {
	repo := directory.NewMemoryRepository()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	reg := svc.Register(ctx, validRegister())
	require.True(t, reg.Succeeded)

	// Same keys and claims, but an empty directory: the subject is gone.
	emptySvc, _ := newTestService(t, directory.NewMemoryRepository())
	res := emptySvc.ResolveIdentity(ctx, reg.Token)

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgUserNotFound}, res.Errors)
}

func TestResolveIdentity_DirectoryFault_GenericFailure(t *testing.T) {
	okSvc, _ := newTestService(t, directory.NewMemoryRepository())
	reg := okSvc.Register(context.Background(), validRegister())
	require.True(t, reg.Succeeded)

	svc, _ := newTestService(t, &faultDirectory{err: errors.New("down")})
	res := svc.ResolveIdentity(context.Background(), reg.Token)

	require.False(t, res.Succeeded)
	assert.Equal(t, []string{msgInternal}, res.Errors)
}
