// Package cli implements the interactive operator console for the
// authentication service: registering accounts, logging in and resolving
// the current token back to an identity.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mrememisaac/communityauth/internal/common"
	"github.com/mrememisaac/communityauth/internal/server/services"
)

// App holds the console state: the auth service it talks to and the bearer
// token of the current session, if any.
type App struct {
	svc    *services.AuthService
	reader *bufio.Reader
	out    io.Writer

	token    string
	username string
}

func NewApp(svc *services.AuthService, in io.Reader, out io.Writer) *App {
	return &App{svc: svc, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.username
	}
	return "not logged in"
}

// Register prompts for account details and creates the account. On success
// the session adopts the freshly issued token.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	res := a.svc.Register(ctx, services.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if !res.Succeeded {
		a.printErrors(res.Errors)
		return nil
	}

	a.token = res.Token
	a.username = res.User.Username
	fmt.Fprintf(a.out, "Registered as %s (id=%d)\n", res.User.Username, res.User.ID)
	return nil
}

// Login prompts for credentials and, on success, adopts the issued token.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.svc.Login(ctx, services.LoginRequest{Email: email, Password: string(password)})
	if !res.Succeeded {
		a.printErrors(res.Errors)
		return nil
	}

	a.token = res.Token
	a.username = res.User.Username
	fmt.Fprintf(a.out, "Logged in as %s (id=%d)\n", res.User.Username, res.User.ID)
	return nil
}

// WhoAmI resolves the current session token back through the service, the
// same path an HTTP layer would use for bearer authentication.
func (a *App) WhoAmI(ctx context.Context) error {
	res := a.svc.ResolveIdentity(ctx, a.token)
	if !res.Succeeded {
		a.printErrors(res.Errors)
		return nil
	}

	roles := strings.Join(res.User.Roles, ", ")
	if roles == "" {
		roles = "(none)"
	}
	fmt.Fprintf(a.out, "id=%d username=%s email=%s roles=%s\n",
		res.User.ID, res.User.Username, res.User.Email, roles)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.token = ""
	a.username = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) printErrors(msgs []string) {
	for _, m := range msgs {
		fmt.Fprintf(a.out, "error: %s\n", m)
	}
}
