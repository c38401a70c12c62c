package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

// readNewPassword asks for a password twice and rejects a mismatch before
// anything reaches the store.
func (a *App) readNewPassword(prompt string) ([]byte, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if len(pw) == 0 {
		err := fmt.Errorf("%w: password is required", common.ErrValidation)
		printlnFn(userMessage(err))
		return nil, err
	}
	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		printlnFn("Passwords do not match")
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// Register creates an account, signs it in and shows the dashboard.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	err = requireField("name", name)
	if err == nil {
		err = requireField("email", email)
	}
	if err != nil {
		a.report(ctx, "register", err)
		return err
	}

	password, err := a.readNewPassword("Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.store.Register(ctx, name, email, password)
	if err != nil {
		a.report(ctx, "register", err)
		return err
	}

	printlnFn("Welcome, " + displayName(u.Name, u.Email) + "!")
	return a.Dashboard(ctx)
}

// Login authenticates against the directory and shows the dashboard. A
// failed attempt keeps the previous session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.store.Login(ctx, email, password)
	if err != nil {
		a.report(ctx, "login", err)
		return err
	}

	printlnFn("Logged in as", u.Email)
	return a.Dashboard(ctx)
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Logout(ctx); err != nil {
		a.report(ctx, "logout", err)
		return err
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn("Not logged in")
		return nil
	}
	printlnFn(displayName(u.Name, u.Email), "<"+u.Email+">")
	return nil
}

// Passwd changes the password of the signed-in user.
func (a *App) Passwd(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn(loginHint)
		return nil
	}

	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := a.readNewPassword("New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.store.UpdatePassword(ctx, u.ID, current, next); err != nil {
		a.report(ctx, "passwd", err)
		return err
	}
	printlnFn("Password updated")
	return nil
}

// requireField returns common.ErrValidation when value is blank.
func requireField(label, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", common.ErrValidation, label)
	}
	return nil
}
