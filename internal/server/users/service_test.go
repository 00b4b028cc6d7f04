package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/server/auth"
)

type memStore struct {
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (m *memStore) GetFile(_ context.Context, path string) (*github.FileContent, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &github.FileContent{Content: data, SHA: "sha"}, nil
}

func (m *memStore) GetFileJSON(ctx context.Context, path string, out any) (bool, error) {
	file, err := m.GetFile(ctx, path)
	if err != nil || file == nil {
		return false, err
	}
	return true, json.Unmarshal(file.Content, out)
}

func (m *memStore) PutFile(_ context.Context, path string, value any, _, _ string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	m.files[path] = data
	return "commit", nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newTestService(store *memStore) *Service {
	return NewService(store, []byte("jwt-secret"), time.Hour, testLogger())
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	resp, err := svc.Register(context.Background(), Registration{
		Username: "Jane",
		Password: "correct horse",
		Name:     "Jane Doe",
		Email:    "jane@example.com",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "jane", resp.User.Username)
	assert.Equal(t, "jane", resp.UserID)
	assert.Contains(t, store.files, "users/jane.json")

	// the stored file must carry a hash, never the password
	var stored models.User
	require.NoError(t, json.Unmarshal(store.files["users/jane.json"], &stored))
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, string(store.files["users/jane.json"]), "correct horse")

	login, err := svc.Login(context.Background(), "jane", "correct horse")
	require.NoError(t, err)
	assert.True(t, login.Success)
	assert.Equal(t, "jane", login.UserID)
	assert.NotEmpty(t, login.Token)

	username, err := auth.GetUsernameFromToken(login.Token, []byte("jwt-secret"))
	require.NoError(t, err)
	assert.Equal(t, "jane", username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Register(context.Background(), Registration{Username: "jane", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), Registration{Username: "jane", Password: "longenough"})
	require.ErrorIs(t, err, common.ErrUserExists)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Register(context.Background(), Registration{Username: "j", Password: "longenough"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Register(context.Background(), Registration{Username: "jane", Password: "short"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLogin_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Register(context.Background(), Registration{Username: "jane", Password: "longenough"})
	require.NoError(t, err)

	_, errWrong := svc.Login(context.Background(), "jane", "not-it")
	_, errUnknown := svc.Login(context.Background(), "nobody", "whatever")

	require.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}
