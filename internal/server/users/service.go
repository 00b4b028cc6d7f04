// Package users implements the proxy's fast-path account operations:
// register and login answered synchronously over the content store instead
// of through the issue-polling round trip.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/server/auth"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)

// Store is the slice of the content layer the service needs.
type Store interface {
	GetFile(ctx context.Context, path string) (*github.FileContent, error)
	GetFileJSON(ctx context.Context, path string, out any) (bool, error)
	PutFile(ctx context.Context, path string, value any, message, knownSHA string) (string, error)
}

type Service struct {
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logging.Logger

	now func() time.Time // test seam
}

func NewService(store Store, jwtSecret []byte, tokenTTL time.Duration, logger logging.Logger) *Service {
	return &Service{
		store:     store,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With("component", "users"),
		now:       time.Now,
	}
}

func userPath(username string) string {
	return fmt.Sprintf("%s/%s.json", common.UsersDir, username)
}

// Registration is the fast-path register request body.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

// Register creates the account file with a bcrypt hash. A taken username
// answers ErrUserExists.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(reg.Username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: invalid username", common.ErrValidation)
	}
	if len(reg.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", common.ErrValidation)
	}

	existing, err := s.store.GetFile(ctx, userPath(username))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		Username:     username,
		Name:         reg.Name,
		Email:        reg.Email,
		Branch:       reg.Branch,
		Rank:         reg.Rank,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastModified: now,
	}

	message := fmt.Sprintf("Register user %s", username)
	if _, err := s.store.PutFile(ctx, userPath(username), &user, message, ""); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "username", username)
	public := user.Public()
	return &models.AuthResponse{Success: true, User: &public, UserID: username, Username: username}, nil
}

// Login verifies the password and mints a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var user models.User
	found, err := s.store.GetFileJSON(ctx, userPath(username), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	token, err := auth.GenerateToken(username, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	public := user.Public()
	return &models.AuthResponse{Success: true, User: &public, UserID: username, Username: username, Token: token}, nil
}
