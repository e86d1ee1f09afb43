package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/openflag/internal/client/client"
	"github.com/dmitrijs2005/openflag/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a name, an email and a password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return a.report(err)
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.api.CreateUser(ctx, name, email, string(password))
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Registered %s (id %d)\n", u.Email, u.ID)
	return nil
}

// Login prompts for credentials and keeps the session token on success.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Login unsuccessful: wrong email or password")
			return err
		}
		return a.report(err)
	}
	a.email = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami shows the identity behind the current token.
func (a *App) Whoami(ctx context.Context) error {
	me, err := a.api.Me(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", me.Email, me.UserID)
	return nil
}

// report prints err in user terms and returns it unchanged.
func (a *App) report(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Not authorized; log in first (your session may have expired)")
	case errors.Is(err, client.ErrNotFound):
		fmt.Fprintln(a.out, "Not found")
	case errors.Is(err, client.ErrAlreadyExists):
		fmt.Fprintln(a.out, "Already exists")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintf(a.out, "Server unavailable: %v\n", err)
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}
