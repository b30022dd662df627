package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/google/uuid"
)

// UserService provides account CRUD. Passwords are hashed through the
// AuthService before anything touches the database.
type UserService struct {
	userRepo repository.UserRepository
	auth     *AuthService
}

// UserUpdate describes a partial update of a user. Nil fields are left
// unchanged; a new password is re-hashed.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// NewUserService creates and returns a new instance of UserService.
func NewUserService(userRepo repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
	}
}

// CreateUser registers a new account. A taken email fails AlreadyExists,
// whether detected by the pre-check or by the unique index on insert.
func (s *UserService) CreateUser(name, email, password string) (*models.User, error) {
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, apperrors.AlreadyExists("user already exists with email: %s", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.AlreadyExists("user already exists with email: %s", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by identifier.
func (s *UserService) GetUserByID(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found by id: %s", id)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *UserService) GetUserByEmail(email string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found by email: %s", email)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update to name, email or password.
func (s *UserService) UpdateUser(id uuid.UUID, update UserUpdate) (*models.User, error) {
	if _, err := s.GetUserByID(id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Password != nil {
		hash, err := s.auth.HashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}
	if len(fields) == 0 {
		return nil, apperrors.BadRequest("no updatable fields provided")
	}

	user, err := s.userRepo.UpdateByID(id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.AlreadyExists("email already taken: %s", *update.Email)
		}
		return nil, err
	}
	return user, nil
}
