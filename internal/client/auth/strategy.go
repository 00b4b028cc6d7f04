// Package auth implements the client's authentication flows. Two strategies
// exist: Correlator dispatches a workflow and polls GitHub Issues for the
// correlated response; Local validates against a configured user list with
// no network at all. The strategy is chosen once at startup, together with
// the dispatch transport, so a local-auth client never half-talks to the
// backend.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
)

// Action names carried by the dispatch event.
const (
	ActionLogin         = "login_user"
	ActionRegister      = "register_user"
	ActionUpdateProfile = "update_profile"
)

// Registration carries the fields collected by the register flow.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

// ProfileUpdate carries a partial profile change; zero-valued fields are
// left untouched.
type ProfileUpdate struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

// Strategy is the authentication contract the CLI works against.
type Strategy interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, reg Registration) (*models.AuthResponse, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.AuthResponse, error)
}

// NewClientID builds a correlation ID of the form
// <purpose>_<epoch-ms>_<9-char-random>. The backend automation echoes it in
// the response issue title.
func NewClientID(purpose string, now time.Time) (string, error) {
	suffix, err := common.MakeRandAlphanumString(9)
	if err != nil {
		return "", fmt.Errorf("client id: %w", err)
	}
	return purpose + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}
