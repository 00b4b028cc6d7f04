package cli

import (
	"context"
	"fmt"

	"github.com/eventcall-app/eventcall/internal/client/auth"
	"github.com/eventcall-app/eventcall/internal/client/models"
)

// sessionUser extracts the account from an auth response. Some responses
// carry only success plus a username, without the user object.
func sessionUser(resp *models.AuthResponse) *models.PublicUser {
	if resp.User != nil {
		return resp.User
	}
	if resp.Username != "" {
		return &models.PublicUser{Username: resp.Username}
	}
	return nil
}

func (a *App) Login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	resp, err := a.auth.Login(ctx, username, string(password))
	if err != nil {
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
		return
	}
	if !resp.Success {
		fmt.Fprintf(a.out, "Login failed: %s\n", resp.Error)
		return
	}

	user := sessionUser(resp)
	if user == nil {
		fmt.Fprintln(a.out, "Login failed: response carried no account")
		return
	}
	a.state.SetUser(user)
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
}

func (a *App) Register(ctx context.Context) {
	var reg auth.Registration
	var err error

	if reg.Username, err = GetSimpleText(a.reader, "Choose a username", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	reg.Password = string(password)
	if reg.Name, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if reg.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	reg.Branch, _ = GetSimpleText(a.reader, "Branch (optional)", a.out)
	reg.Rank, _ = GetSimpleText(a.reader, "Rank (optional)", a.out)

	resp, err := a.auth.Register(ctx, reg)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return
	}
	if !resp.Success {
		fmt.Fprintf(a.out, "Registration failed: %s\n", resp.Error)
		return
	}

	user := sessionUser(resp)
	if user == nil {
		fmt.Fprintln(a.out, "Registration failed: response carried no account")
		return
	}
	a.state.SetUser(user)
	fmt.Fprintf(a.out, "Welcome, %s\n", user.Username)
}

func (a *App) Logout(_ context.Context) {
	a.state.SetUser(nil)
	fmt.Fprintln(a.out, "Logged out")
}

// Profile lets the signed-in user change name, email, branch, or rank.
// Empty answers leave the field untouched.
func (a *App) Profile(ctx context.Context) {
	user := a.state.User()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}

	update := auth.ProfileUpdate{Username: user.Username}
	update.Name, _ = GetSimpleText(a.reader, fmt.Sprintf("Name [%s]", user.Name), a.out)
	update.Email, _ = GetSimpleText(a.reader, fmt.Sprintf("Email [%s]", user.Email), a.out)
	update.Branch, _ = GetSimpleText(a.reader, fmt.Sprintf("Branch [%s]", user.Branch), a.out)
	update.Rank, _ = GetSimpleText(a.reader, fmt.Sprintf("Rank [%s]", user.Rank), a.out)

	resp, err := a.auth.UpdateProfile(ctx, update)
	if err != nil {
		fmt.Fprintf(a.out, "Update failed: %v\n", err)
		return
	}
	if !resp.Success {
		fmt.Fprintf(a.out, "Update failed: %s\n", resp.Error)
		return
	}

	if resp.User != nil {
		a.state.SetUser(resp.User)
	}
	fmt.Fprintln(a.out, "Profile updated")
}
