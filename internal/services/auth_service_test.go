package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
)

// newTestAuthService wires an AuthService and its UserService over a fresh
// database, with short but non-trivial token lifetimes.
func newTestAuthService(t *testing.T) (*AuthService, *UserService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auth := NewAuthService(userRepo, tokenRepo, "test-secret-key", 15*time.Minute, 14*24*time.Hour)
	users := NewUserService(userRepo, auth)
	return auth, users, db
}

func TestPasswordHashing(t *testing.T) {
	auth, _, _ := newTestAuthService(t)

	hash, err := auth.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, auth.VerifyPassword(hash, "s3cret-password"))
	assert.False(t, auth.VerifyPassword(hash, "wrong-password"))
}

func TestLogin(t *testing.T) {
	auth, users, _ := newTestAuthService(t)
	_, err := users.CreateUser("alice", "alice@example.com", "s3cret-password")
	require.NoError(t, err)

	t.Run("unknown email fails not found", func(t *testing.T) {
		_, _, err := auth.Login("nobody@example.com", "whatever")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("wrong password fails unauthorized", func(t *testing.T) {
		_, _, err := auth.Login("alice@example.com", "wrong-password")
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})

	t.Run("correct password returns a usable token pair", func(t *testing.T) {
		user, pair, err := auth.Login("alice@example.com", "s3cret-password")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Bearer", pair.TokenType)

		// The access token validates as access, the refresh as refresh.
		subject, err := auth.ValidateToken(pair.AccessToken, TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", subject)

		subject, err = auth.ValidateToken(pair.RefreshToken, TokenTypeRefresh)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", subject)

		// Presenting the refresh token where an access token is expected
		// is a type mismatch, not a pass.
		_, err = auth.ValidateToken(pair.RefreshToken, TokenTypeAccess)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))

		_, err = auth.ValidateToken(pair.AccessToken, TokenTypeRefresh)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})

	t.Run("garbage token fails unauthorized", func(t *testing.T) {
		_, err := auth.ValidateToken("not-a-jwt", TokenTypeAccess)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})
}

func TestReemitAccessToken(t *testing.T) {
	auth, users, db := newTestAuthService(t)
	user, err := users.CreateUser("bob", "bob@example.com", "s3cret-password")
	require.NoError(t, err)

	t.Run("valid refresh token yields a fresh access token", func(t *testing.T) {
		pair, err := auth.IssueTokens(user)
		require.NoError(t, err)

		accessToken, err := auth.ReemitAccessToken(pair.RefreshToken)
		require.NoError(t, err)

		subject, err := auth.ValidateToken(accessToken, TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", subject)
	})

	t.Run("unpersisted refresh token fails not found", func(t *testing.T) {
		// Signed correctly but no row backs it.
		orphan, _, err := auth.EmitToken("bob@example.com", TokenTypeRefresh)
		require.NoError(t, err)

		_, err = auth.ReemitAccessToken(orphan)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("expired row fails gone and is revoked lazily", func(t *testing.T) {
		stale, _, err := auth.EmitToken("bob@example.com", TokenTypeRefresh)
		require.NoError(t, err)
		row := &models.RefreshToken{
			Token:     stale,
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, db.Create(row).Error)

		_, err = auth.ReemitAccessToken(stale)
		assert.True(t, apperrors.IsKind(err, apperrors.KindGone))

		var reloaded models.RefreshToken
		require.NoError(t, db.First(&reloaded, "id = ?", row.ID).Error)
		assert.True(t, reloaded.Revoked, "expired token must be flipped to revoked on first use")
	})

	t.Run("revoked token fails gone", func(t *testing.T) {
		pair, err := auth.IssueTokens(user)
		require.NoError(t, err)
		require.NoError(t, auth.RevokeRefreshToken(pair.RefreshToken))

		_, err = auth.ReemitAccessToken(pair.RefreshToken)
		assert.True(t, apperrors.IsKind(err, apperrors.KindGone))
	})
}

func TestRevocation(t *testing.T) {
	auth, users, _ := newTestAuthService(t)
	user, err := users.CreateUser("carol", "carol@example.com", "s3cret-password")
	require.NoError(t, err)

	t.Run("revoking an unknown token fails not found", func(t *testing.T) {
		err := auth.RevokeRefreshToken("no-such-token")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("bulk revoke reports the number of affected tokens", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := auth.IssueTokens(user)
			require.NoError(t, err)
		}

		count, err := auth.RevokeAllByUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		// Already-revoked rows are not counted again.
		count, err = auth.RevokeAllByUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestUserFromAccessToken(t *testing.T) {
	auth, users, _ := newTestAuthService(t)
	user, err := users.CreateUser("dave", "dave@example.com", "s3cret-password")
	require.NoError(t, err)

	pair, err := auth.IssueTokens(user)
	require.NoError(t, err)

	resolved, err := auth.UserFromAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = auth.UserFromAccessToken(pair.RefreshToken)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}
