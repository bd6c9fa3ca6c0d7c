package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/db"
	"foodgram/internal/models"
)

type memUsers map[int64]*models.User

func (m memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

func (m memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func newTestUsers(t *testing.T) memUsers {
	t.Helper()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	return memUsers{
		1: {ID: 1, Email: "cook@example.com", PasswordHash: hash, IsActive: true},
		2: {ID: 2, Email: "gone@example.com", PasswordHash: hash, IsActive: false},
	}
}

func TestIssueAndAuthenticate(t *testing.T) {
	users := newTestUsers(t)
	s := NewService(users, "secret", time.Hour)

	tok, err := s.Issue(users[1])
	require.NoError(t, err)

	user, err := s.Authenticate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestAuthenticate_Rejects(t *testing.T) {
	users := newTestUsers(t)
	s := NewService(users, "secret", time.Hour)
	ctx := context.Background()

	t.Run("bumped version", func(t *testing.T) {
		tok, err := s.Issue(users[1])
		require.NoError(t, err)
		users[1].TokenVersion++
		defer func() { users[1].TokenVersion-- }()

		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("inactive user", func(t *testing.T) {
		tok, err := s.Issue(users[2])
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		tok, err := s.Issue(&models.User{ID: 99})
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewService(users, "other", time.Hour).Issue(users[1])
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := NewService(users, "secret", -time.Minute).Issue(users[1])
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogin(t *testing.T) {
	users := newTestUsers(t)
	s := NewService(users, "secret", time.Hour)
	ctx := context.Background()

	tok, err := s.Login(ctx, "cook@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "cook@example.com", "battery staple"},
		{"unknown email", "nobody@example.com", "correct horse"},
		{"inactive", "gone@example.com", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("pa55word")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "pa55word"))
	assert.False(t, CheckPassword(hash, "pa55w0rd"))
	assert.False(t, CheckPassword("not-a-hash", "pa55word"))
}
