package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/shorty/internal/apperrors"
)

func TestCreateUser(t *testing.T) {
	auth, users, _ := newTestAuthService(t)

	user, err := users.CreateUser("eve", "eve@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "eve", user.Name)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.True(t, auth.VerifyPassword(user.Password, "s3cret-password"),
		"stored password must be a hash of the plaintext")

	t.Run("duplicate email fails already exists", func(t *testing.T) {
		_, err := users.CreateUser("eve again", "eve@example.com", "another-password")
		assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyExists))
	})
}

func TestGetUser(t *testing.T) {
	_, users, _ := newTestAuthService(t)
	user, err := users.CreateUser("frank", "frank@example.com", "s3cret-password")
	require.NoError(t, err)

	byID, err := users.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := users.GetUserByEmail("frank@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = users.GetUserByID(uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = users.GetUserByEmail("ghost@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateUser(t *testing.T) {
	auth, users, _ := newTestAuthService(t)
	user, err := users.CreateUser("grace", "grace@example.com", "s3cret-password")
	require.NoError(t, err)

	t.Run("partial update changes only provided fields", func(t *testing.T) {
		name := "grace hopper"
		updated, err := users.UpdateUser(user.ID, UserUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "grace hopper", updated.Name)
		assert.Equal(t, "grace@example.com", updated.Email)
	})

	t.Run("new password is re-hashed", func(t *testing.T) {
		password := "new-s3cret-password"
		updated, err := users.UpdateUser(user.ID, UserUpdate{Password: &password})
		require.NoError(t, err)
		assert.True(t, auth.VerifyPassword(updated.Password, password))
		assert.False(t, auth.VerifyPassword(updated.Password, "s3cret-password"))
	})

	t.Run("empty update is a bad request", func(t *testing.T) {
		_, err := users.UpdateUser(user.ID, UserUpdate{})
		assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	})

	t.Run("unknown user fails not found", func(t *testing.T) {
		name := "nobody"
		_, err := users.UpdateUser(uuid.New(), UserUpdate{Name: &name})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}
