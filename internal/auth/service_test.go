package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
)

type mockUserStore struct {
	getByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "test"}
}

func storedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:           7,
		FullName:     "Juan Pérez",
		Username:     "jperez",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := storedUser(t, "secreto123")
	store := &mockUserStore{
		getByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	}
	svc := NewService(store, testTokenConfig(), zap.NewNop())

	token, got, err := svc.Login(context.Background(), "jperez", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	principal, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), principal.UserID)
	assert.Equal(t, "jperez", principal.Username)
	assert.Equal(t, models.RoleUser, principal.Role)
}

func TestLoginFailures(t *testing.T) {
	user := storedUser(t, "secreto123")
	inactive := *user
	inactive.Active = false

	tests := []struct {
		name     string
		store    *mockUserStore
		password string
		wantErr  error
	}{
		{
			name:     "unknown user",
			store:    &mockUserStore{},
			password: "secreto123",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			store: &mockUserStore{
				getByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return user, nil
				},
			},
			password: "incorrecta",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name: "inactive user",
			store: &mockUserStore{
				getByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return &inactive, nil
				},
			},
			password: "secreto123",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name: "store failure",
			store: &mockUserStore{
				getByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return nil, errors.New("connection lost")
				},
			},
			password: "secreto123",
			wantErr:  domain.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.store, testTokenConfig(), zap.NewNop())

			_, _, err := svc.Login(context.Background(), "jperez", tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testTokenConfig()
	p := Principal{UserID: 7, Username: "jperez", Role: models.RoleAdmin}

	token, err := GenerateToken(cfg, p)
	require.NoError(t, err)

	got, err := ParseToken(cfg.Secret, token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testTokenConfig(), Principal{UserID: 7})
	require.NoError(t, err)

	_, err = ParseToken("otro-secreto", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	cfg := testTokenConfig()
	cfg.TTL = -time.Minute

	token, err := GenerateToken(cfg, Principal{UserID: 7})
	require.NoError(t, err)

	_, err = ParseToken(cfg.Secret, token)
	assert.Error(t, err)
}

func TestPrincipalCanActFor(t *testing.T) {
	user := Principal{UserID: 1, Role: models.RoleUser}
	admin := Principal{UserID: 2, Role: models.RoleAdmin}

	assert.True(t, user.CanActFor(1))
	assert.False(t, user.CanActFor(2))
	assert.True(t, admin.CanActFor(1))
	assert.True(t, admin.CanActFor(2))
}
