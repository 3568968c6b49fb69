package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dsavelev/speakerportal/internal/client/api"
	"github.com/dsavelev/speakerportal/internal/client/models"
)

// Login prompts for credentials and authenticates. When the account has MFA
// enabled, the user is asked for the code and the login is re-submitted.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	out := a.session.Login(ctx, email, password, "")
	if out.MFARequired {
		code, err := GetSimpleText(a.reader, "Enter MFA code", a.out)
		if err != nil {
			return err
		}
		out = a.session.Login(ctx, email, password, code)
	}

	if out.Err != "" {
		fmt.Fprintln(a.out, "Login failed:", out.Err)
		return nil
	}

	roles := make([]string, 0, len(out.User.Roles))
	for _, r := range out.User.Roles {
		roles = append(roles, r.Name)
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", out.User.Email, strings.Join(roles, ", "))

	a.startPolling(ctx)
	return nil
}

// Register walks through the sign-up form. The password is asked for twice;
// a mismatch blocks submission without any network call. Registration does
// not log the user in.
func (a *App) Register(ctx context.Context) error {
	reg := models.Registration{}
	var err error

	if reg.Email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if reg.Password, err = GetPassword("Enter password", a.out); err != nil {
		return err
	}
	confirm, err := GetPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	if reg.Password != confirm {
		fmt.Fprintln(a.out, "Passwords do not match")
		return api.ErrValidation
	}
	if reg.FirstName, err = GetSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if reg.LastName, err = GetSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if reg.Organization, err = GetSimpleText(a.reader, "Organization (optional)", a.out); err != nil {
		return err
	}
	if reg.Phone, err = GetSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
		return err
	}
	if reg.Bio, err = GetSimpleText(a.reader, "Bio (optional)", a.out); err != nil {
		return err
	}

	out := a.session.Register(ctx, reg)
	if out.Err != "" {
		fmt.Fprintln(a.out, "Registration failed:", out.Err)
		return nil
	}
	if out.Message != "" {
		fmt.Fprintln(a.out, out.Message)
	} else {
		fmt.Fprintln(a.out, "Registered. You can now log in.")
	}
	return nil
}

// Logout stops the poller and clears the session.
func (a *App) Logout(ctx context.Context) error {
	a.stopPolling()
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami prints the current identity, roles, and access-token expiry.
func (a *App) Whoami(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	fmt.Fprintf(a.out, "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
	for _, r := range u.Roles {
		fmt.Fprintln(a.out, "  role:", r.Name)
	}
	if exp := a.session.AccessTokenExpiry(); !exp.IsZero() {
		fmt.Fprintln(a.out, "  token expires:", exp.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
