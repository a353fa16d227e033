package cli

import (
	"context"
	"fmt"

	"github.com/avolkov/notevault/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getPassword = GetPassword

// Register prompts for an email and password and creates the account.
// It does not log in; the user follows up with the login command.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}

	if err := a.session.Register(ctx, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created. Log in and run 'recovery' to generate recovery codes.")
	return nil
}

// Login authenticates, derives the master key and loads the vault
// contents. Records sealed with a different key are skipped and counted.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		return err
	}

	res, err := a.store.Load(ctx)
	if err != nil {
		a.session.Logout()
		return err
	}

	fmt.Fprintf(a.out, "Logged in. %d notes loaded.\n", res.Loaded)
	if res.Failed > 0 {
		fmt.Fprintf(a.out, "Warning: %d records could not be decrypted (wrong password?).\n", res.Failed)
	}
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.session.Logout()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Recovery generates the recovery code set and prints it. The codes are
// shown exactly once; only their hashes are stored.
func (a *App) Recovery(ctx context.Context) error {
	codes, err := a.session.SetupRecovery(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Recovery codes (write them down, they will not be shown again):")
	for _, code := range codes {
		fmt.Fprintln(a.out, "  "+code)
	}
	return nil
}
