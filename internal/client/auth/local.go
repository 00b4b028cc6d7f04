package auth

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// StaticUser is one entry of the configured local user list.
type StaticUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Local validates credentials against a static user list without any
// network call, or accepts anything in demo mode. It pairs with the Local
// dispatch transport: both intercept before the network.
type Local struct {
	mu     sync.Mutex
	users  []StaticUser
	demo   bool
	logger logging.Logger

	// current is the authenticated user; profile updates merge into it
	// without password re-validation.
	current *models.PublicUser
}

func NewLocal(users []StaticUser, demo bool, logger logging.Logger) *Local {
	return &Local{users: users, demo: demo, logger: logger.With("component", "auth_local")}
}

func (l *Local) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.demo {
		l.logger.Info(ctx, "demo mode, accepting credentials", "username", username)
		l.current = &models.PublicUser{Username: username, Name: username}
		return &models.AuthResponse{Success: true, User: l.current, Username: username}, nil
	}

	for _, u := range l.users {
		nameMatch := subtle.ConstantTimeCompare([]byte(u.Username), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
		if nameMatch && passMatch {
			l.current = &models.PublicUser{
				Username: u.Username,
				Name:     u.Name,
				Email:    u.Email,
				Branch:   u.Branch,
				Rank:     u.Rank,
				Role:     u.Role,
			}
			return &models.AuthResponse{Success: true, User: l.current, Username: u.Username}, nil
		}
	}

	return &models.AuthResponse{Success: false, Error: common.ErrInvalidCredentials.Error()},
		common.ErrInvalidCredentials
}

func (l *Local) Register(ctx context.Context, reg Registration) (*models.AuthResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, u := range l.users {
		if u.Username == reg.Username {
			return &models.AuthResponse{Success: false, Error: common.ErrUserExists.Error()},
				common.ErrUserExists
		}
	}

	l.users = append(l.users, StaticUser{
		Username: reg.Username,
		Password: reg.Password,
		Name:     reg.Name,
		Email:    reg.Email,
		Branch:   reg.Branch,
		Rank:     reg.Rank,
	})
	l.current = &models.PublicUser{
		Username: reg.Username,
		Name:     reg.Name,
		Email:    reg.Email,
		Branch:   reg.Branch,
		Rank:     reg.Rank,
	}
	return &models.AuthResponse{Success: true, User: l.current, Username: reg.Username}, nil
}

// UpdateProfile merges non-empty fields into the already-authenticated
// user. No password re-validation happens in local mode.
func (l *Local) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.AuthResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return &models.AuthResponse{Success: false, Error: "not logged in"}, common.ErrUnauthorized
	}

	if update.Name != "" {
		l.current.Name = update.Name
	}
	if update.Email != "" {
		l.current.Email = update.Email
	}
	if update.Branch != "" {
		l.current.Branch = update.Branch
	}
	if update.Rank != "" {
		l.current.Rank = update.Rank
	}

	return &models.AuthResponse{Success: true, User: l.current, Username: l.current.Username}, nil
}
